package analysis

import (
	"context"
	"log/slog"

	"github.com/eleven-am/moodlens/internal/capture"
	"github.com/eleven-am/moodlens/internal/livesession"
)

const trackerQueueSize = 64

// tracker mirrors runner events into the session registry off the runner's
// loop. Updates are dropped when the registry falls behind.
type tracker struct {
	registry SessionRegistry
	id       string
	events   chan capture.Event
	done     chan struct{}
	logger   *slog.Logger
}

func newTracker(ctx context.Context, registry SessionRegistry, mode capture.Mode, logger *slog.Logger) *tracker {
	if registry == nil {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	sess := &livesession.Session{SourceType: "webcam", Mode: mode.String()}
	if err := registry.Create(ctx, sess); err != nil {
		logger.Warn("failed to register live session", "error", err)
		return nil
	}

	t := &tracker{
		registry: registry,
		id:       sess.ID,
		events:   make(chan capture.Event, trackerQueueSize),
		done:     make(chan struct{}),
		logger:   logger.With("session_id", sess.ID),
	}
	go t.run(ctx)
	return t
}

func (t *tracker) ID() string {
	if t == nil {
		return ""
	}
	return t.id
}

func (t *tracker) observe(e capture.Event) {
	if t == nil {
		return
	}
	select {
	case t.events <- e:
	default:
		t.logger.Debug("session registry busy, dropping update", "type", e.Kind)
	}
}

func (t *tracker) run(ctx context.Context) {
	defer close(t.done)
	for e := range t.events {
		var err error
		switch {
		case e.Kind == capture.EventMode:
			err = t.registry.SetMode(ctx, t.id, e.Mode)
		case (e.Kind == capture.EventBurst || e.Kind == capture.EventSample) && e.Label != "":
			err = t.registry.AppendLabel(ctx, t.id, e.Label.String())
		}
		if err != nil {
			t.logger.Warn("failed to update live session", "error", err)
		}
	}
}

// finish flushes queued updates and records the final status.
func (t *tracker) finish(status livesession.Status, resultID string) {
	if t == nil {
		return
	}
	close(t.events)
	<-t.done
	if err := t.registry.End(context.Background(), t.id, status, resultID); err != nil {
		t.logger.Warn("failed to end live session", "error", err)
	}
}
