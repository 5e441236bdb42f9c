package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/moodlens/internal/mood"
)

type Command int

const (
	CmdBurst Command = iota
	CmdSnapshot
	CmdToggle
	CmdQuit
)

func ParseCommand(s string) (Command, error) {
	switch s {
	case "burst":
		return CmdBurst, nil
	case "snapshot", "e":
		return CmdSnapshot, nil
	case "toggle", "c":
		return CmdToggle, nil
	case "quit", "q":
		return CmdQuit, nil
	default:
		return 0, fmt.Errorf("unknown command %q", s)
	}
}

type EventKind string

const (
	EventMode    EventKind = "mode"
	EventBurst   EventKind = "burst"
	EventSample  EventKind = "sample"
	EventSummary EventKind = "summary"
	EventError   EventKind = "error"
)

// Event reports session progress. A burst event with Error set is a burst
// that produced no label.
type Event struct {
	Kind    EventKind         `json:"type"`
	Mode    string            `json:"mode,omitempty"`
	Frame   int               `json:"frame,omitempty"`
	Label   mood.Category     `json:"label,omitempty"`
	Summary *mood.MoodSummary `json:"summary,omitempty"`
	Error   string            `json:"error,omitempty"`
}

const (
	DefaultBurstDelay = 500 * time.Millisecond
	defaultQueueSize  = 4
)

type RunnerConfig struct {
	Session SessionConfig
	// Live sources drop continuous frames when analysis falls behind; file
	// sources block so that every sampled frame is analyzed.
	Live       bool
	BurstSize  int
	BurstDelay time.Duration
	QueueSize  int
	OnEvent    func(Event)
	Logger     *slog.Logger
}

type jobKind int

const (
	jobTick jobKind = iota
	jobBurst
)

type job struct {
	kind  jobKind
	epoch uint64
	burst uint64
	frame Frame
}

type result struct {
	job    job
	sample mood.FrameSample
	err    error
}

type pendingBurst struct {
	id         uint64
	epoch      uint64
	size       int
	dispatched int
	lastAt     time.Time
	samples    []mood.FrameSample
}

// Runner drives one Session from a Source through a FrameAnalyzer. A capture
// goroutine reads frames, a worker analyzes them, and Run's loop is the only
// goroutine that touches the Session.
type Runner struct {
	source   Source
	analyzer FrameAnalyzer
	session  *Session
	cfg      RunnerConfig
	logger   *slog.Logger
	commands chan Command

	jobs    chan job
	results chan result

	burst       *pendingBurst
	queued      []int
	nextBurstID uint64
	read        int
	dropped     int
}

func NewRunner(source Source, analyzer FrameAnalyzer, cfg RunnerConfig) (*Runner, error) {
	session, err := NewSession(cfg.Session)
	if err != nil {
		return nil, err
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultBurstSize
	}
	if cfg.BurstDelay < 0 {
		cfg.BurstDelay = 0
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		source:   source,
		analyzer: analyzer,
		session:  session,
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "capture-runner"),
		commands: make(chan Command, 16),
	}, nil
}

// Send queues a command for the running loop.
func (r *Runner) Send(ctx context.Context, cmd Command) error {
	select {
	case r.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run captures until the source ends, a quit command arrives, or ctx is
// done. End of stream drains in-flight analysis before finishing; quit and
// cancellation discard it. The source is closed before Run returns. A
// capture failure returns the partial report together with an
// ErrCaptureFailed error.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if err := r.session.Start(); err != nil {
		return nil, err
	}
	r.emit(Event{Kind: EventMode, Mode: r.session.Mode().String()})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan Frame, r.cfg.QueueSize)
	captureErr := make(chan error, 1)
	r.jobs = make(chan job, r.cfg.QueueSize)
	r.results = make(chan result, r.cfg.QueueSize)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.capture(runCtx, frames, captureErr)
	}()
	go func() {
		defer wg.Done()
		r.analyze(runCtx)
	}()

	stop := func() {
		cancel()
		r.source.Close()
		wg.Wait()
	}

	for {
		// Commands take priority over frames already waiting.
		select {
		case cmd := <-r.commands:
			if cmd == CmdQuit {
				stop()
				return r.finish()
			}
			r.handleCommand(cmd)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			stop()
			return r.finish()

		case cmd := <-r.commands:
			if cmd == CmdQuit {
				stop()
				return r.finish()
			}
			r.handleCommand(cmd)

		case f, ok := <-frames:
			if !ok {
				err := <-captureErr
				if ctx.Err() != nil {
					// the stream ended because ctx was cancelled: same as quit
					stop()
					return r.finish()
				}
				r.drain()
				stop()
				report, ferr := r.finish()
				if ferr != nil {
					return nil, ferr
				}
				if err != nil {
					if errors.Is(err, ErrCaptureFailed) {
						return report, err
					}
					return report, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
				}
				return report, nil
			}
			r.handleFrame(runCtx, f)

		case res := <-r.results:
			r.handleResult(res)
		}
	}
}

func (r *Runner) capture(ctx context.Context, frames chan<- Frame, errc chan<- error) {
	defer close(frames)
	for {
		f, err := r.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				errc <- nil
			} else {
				errc <- err
			}
			return
		}
		select {
		case frames <- f:
		case <-ctx.Done():
			errc <- nil
			return
		}
	}
}

func (r *Runner) analyze(ctx context.Context) {
	defer close(r.results)
	for {
		var j job
		var ok bool
		select {
		case j, ok = <-r.jobs:
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}

		sample, err := r.analyzer.Analyze(ctx, j.frame)
		select {
		case r.results <- result{job: j, sample: sample, err: err}:
		case <-ctx.Done():
			return
		}
	}
}

// drain stops accepting work and folds every outstanding result into the
// session.
func (r *Runner) drain() {
	close(r.jobs)
	for res := range r.results {
		r.handleResult(res)
	}
	if r.burst != nil && len(r.burst.samples) > 0 {
		r.completeBurst()
	}
}

func (r *Runner) handleCommand(cmd Command) {
	switch cmd {
	case CmdBurst, CmdSnapshot:
		if r.session.Mode() != Manual {
			r.emit(Event{Kind: EventError, Error: "bursts are only available in manual mode"})
			return
		}
		size := r.cfg.BurstSize
		if cmd == CmdSnapshot {
			size = 1
		}
		if r.burst != nil {
			r.queued = append(r.queued, size)
			return
		}
		r.startBurst(size)

	case CmdToggle:
		r.burst = nil
		r.queued = nil
		summary, err := r.session.ToggleContinuous()
		r.emit(Event{Kind: EventMode, Mode: r.session.Mode().String()})
		switch {
		case summary != nil:
			r.emit(Event{Kind: EventSummary, Mode: Continuous.String(), Summary: summary})
		case err != nil && IsInsufficient(err):
			r.logger.Info("continuous window closed without usable samples")
			r.emit(Event{Kind: EventError, Error: err.Error()})
		case err != nil:
			r.emit(Event{Kind: EventError, Error: err.Error()})
		}
	}
}

func (r *Runner) startBurst(size int) {
	r.nextBurstID++
	r.burst = &pendingBurst{
		id:    r.nextBurstID,
		epoch: r.session.Epoch(),
		size:  size,
	}
}

func (r *Runner) handleFrame(ctx context.Context, f Frame) {
	r.read++

	if b := r.burst; b != nil && b.dispatched < b.size {
		if b.dispatched == 0 || f.CapturedAt.Sub(b.lastAt) >= r.cfg.BurstDelay {
			b.dispatched++
			b.lastAt = f.CapturedAt
			r.dispatch(ctx, job{kind: jobBurst, epoch: b.epoch, burst: b.id, frame: f}, true)
		}
		return
	}

	target, ok := r.session.Capture(f)
	if !ok {
		return
	}
	j := job{kind: jobTick, epoch: r.session.Epoch(), frame: target}
	if !r.dispatch(ctx, j, !r.cfg.Live) {
		r.dropped++
		r.logger.Debug("analysis busy, dropping frame", "frame", target.Index)
	}
}

// dispatch hands a job to the worker. Blocking sends keep draining results so
// the worker can never wedge on a full results channel.
func (r *Runner) dispatch(ctx context.Context, j job, block bool) bool {
	if !block {
		select {
		case r.jobs <- j:
			return true
		default:
			return false
		}
	}
	for {
		select {
		case r.jobs <- j:
			return true
		case res := <-r.results:
			r.handleResult(res)
		case <-ctx.Done():
			return false
		}
	}
}

func (r *Runner) handleResult(res result) {
	if res.err != nil {
		r.logger.Debug("frame analysis failed", "frame", res.job.frame.Index, "error", res.err)
	}

	switch res.job.kind {
	case jobTick:
		if err := r.session.Observe(res.job.epoch, res.sample); err != nil {
			return
		}
		r.emit(Event{Kind: EventSample, Frame: res.sample.Index, Label: topLabel(r.session.cfg.Categories, res.sample)})

	case jobBurst:
		b := r.burst
		if b == nil || b.id != res.job.burst {
			return
		}
		b.samples = append(b.samples, res.sample)
		if len(b.samples) >= b.size {
			r.completeBurst()
		}
	}
}

func (r *Runner) completeBurst() {
	b := r.burst
	r.burst = nil

	label, err := r.session.RecordBurst(b.epoch, b.samples)
	switch {
	case err == nil:
		r.emit(Event{Kind: EventBurst, Label: label})
	case errors.Is(err, ErrStaleResult):
	default:
		r.emit(Event{Kind: EventBurst, Error: err.Error()})
	}

	if len(r.queued) > 0 && r.session.Mode() == Manual {
		size := r.queued[0]
		r.queued = r.queued[1:]
		r.startBurst(size)
	}
}

func (r *Runner) finish() (*Report, error) {
	report, err := r.session.Finish()
	if err != nil {
		return nil, err
	}
	report.FramesRead = r.read
	report.FramesDropped = r.dropped
	if report.Weighted != nil {
		r.emit(Event{Kind: EventSummary, Mode: Continuous.String(), Summary: report.Weighted})
	}
	if report.Discrete != nil {
		r.emit(Event{Kind: EventSummary, Mode: Manual.String(), Summary: report.Discrete})
	}
	return report, nil
}

func (r *Runner) emit(e Event) {
	if r.cfg.OnEvent != nil {
		r.cfg.OnEvent(e)
	}
}

func topLabel(set *mood.CategorySet, s mood.FrameSample) mood.Category {
	if !s.Usable() {
		return ""
	}
	label, _, _ := set.Top(s.Distribution)
	return label
}
