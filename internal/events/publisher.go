package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	StreamName    = "MOODLENS_RESULTS"
	subjectPrefix = "moodlens.results"
)

// ResultEvent announces a completed analysis.
type ResultEvent struct {
	ResultID   string          `json:"result_id,omitempty"`
	SourceType string          `json:"source_type"`
	Summary    string          `json:"summary"`
	Timestamp  time.Time       `json:"timestamp"`
	Results    json.RawMessage `json:"results"`
}

func Subject(sourceType string) string {
	return subjectPrefix + "." + sourceType
}

// Sink receives result events.
type Sink interface {
	Publish(ctx context.Context, event ResultEvent) error
}

type Publisher interface {
	Sink
	Close()
}

// Fanout delivers an event to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, event ResultEvent) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type jetStreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

type NATSPublisher struct {
	nc     *nats.Conn
	js     jetStreamPublisher
	logger *slog.Logger
}

func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats-publisher")

	nc, err := nats.Connect(url,
		nats.Name("moodlens"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectPrefix + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
	})
	if err != nil {
		logger.Warn("failed to ensure result stream", "stream", StreamName, "error", err)
	}

	return &NATSPublisher{nc: nc, js: js, logger: logger}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, event ResultEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal result event: %w", err)
	}

	subject := Subject(event.SourceType)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	p.logger.Debug("result event published", "subject", subject, "result_id", event.ResultID)
	return nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ResultEvent) error { return nil }

func (NopPublisher) Close() {}

func (p *NATSPublisher) Connected() bool {
	return p.nc != nil && p.nc.IsConnected()
}
