package capture

import (
	"errors"
	"fmt"

	"github.com/eleven-am/moodlens/internal/mood"
)

type Mode int

const (
	Idle Mode = iota
	Manual
	Continuous
)

func (m Mode) String() string {
	switch m {
	case Manual:
		return "manual"
	case Continuous:
		return "continuous"
	default:
		return "idle"
	}
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "manual":
		return Manual, nil
	case "continuous":
		return Continuous, nil
	default:
		return Idle, fmt.Errorf("unknown capture mode %q", s)
	}
}

// Kind selects how continuous mode picks frames.
type Kind int

const (
	// Webcam analyzes the midpoint of the frame buffer each time it is full.
	Webcam Kind = iota
	// Video analyzes every SampleRate-th frame by index.
	Video
)

const (
	DefaultSampleRate = 3
	DefaultBurstSize  = 3
)

type SessionConfig struct {
	Kind        Kind
	BufferSize  int
	SampleRate  int
	InitialMode Mode
	Categories  *mood.CategorySet
}

// Session is the capture-mode state machine. It is owned by a single
// goroutine; nothing here is synchronized.
type Session struct {
	cfg        SessionConfig
	summarizer *mood.Summarizer
	buffer     *mood.FrameBuffer[Frame]
	window     *mood.Window

	mode      Mode
	started   bool
	finished  bool
	epoch     uint64
	log       []mood.Category
	finalized []*mood.MoodSummary
	analyzed  int
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = mood.DefaultBufferSize
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.SampleRate < 1 {
		return nil, fmt.Errorf("sample rate must be at least 1, got %d", cfg.SampleRate)
	}
	if cfg.InitialMode == Idle {
		cfg.InitialMode = Manual
	}
	if cfg.Categories == nil {
		cfg.Categories = mood.DefaultCategories
	}
	buffer, err := mood.NewFrameBuffer[Frame](cfg.BufferSize)
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:        cfg,
		summarizer: mood.NewSummarizer(cfg.Categories),
		buffer:     buffer,
		window:     mood.NewWindow(cfg.Categories),
	}, nil
}

func (s *Session) Mode() Mode { return s.mode }

// Epoch changes on every mode transition. Work dispatched under an older
// epoch is discarded when it comes back.
func (s *Session) Epoch() uint64 { return s.epoch }

func (s *Session) Start() error {
	if s.started {
		return fmt.Errorf("%w: session already started", ErrInvalidTransition)
	}
	s.started = true
	s.mode = Manual
	if s.cfg.InitialMode == Continuous {
		s.enterContinuous()
	}
	return nil
}

// ToggleContinuous switches between Manual and Continuous. Leaving
// Continuous finalizes the window; the summary is nil with an
// ErrInsufficientData error when nothing usable was seen, but the
// transition happens either way.
func (s *Session) ToggleContinuous() (*mood.MoodSummary, error) {
	switch s.mode {
	case Manual:
		s.enterContinuous()
		return nil, nil
	case Continuous:
		summary, err := s.finalizeWindow()
		s.mode = Manual
		s.epoch++
		return summary, err
	default:
		return nil, fmt.Errorf("%w: toggle while %s", ErrInvalidTransition, s.mode)
	}
}

func (s *Session) enterContinuous() {
	s.mode = Continuous
	s.epoch++
	s.window.Reset()
	s.buffer.Reset()
}

func (s *Session) finalizeWindow() (*mood.MoodSummary, error) {
	summary, err := s.summarizer.Weighted(s.window)
	s.window.Reset()
	s.buffer.Reset()
	if err != nil {
		return nil, err
	}
	s.finalized = append(s.finalized, summary)
	return summary, nil
}

// Capture offers a frame to continuous sampling and returns the frame to
// analyze, if any.
func (s *Session) Capture(f Frame) (Frame, bool) {
	if s.mode != Continuous {
		return Frame{}, false
	}
	if s.cfg.Kind == Video {
		return f, f.Index%s.cfg.SampleRate == 0
	}
	s.buffer.Push(f)
	return s.buffer.Midpoint()
}

// Observe records a continuous-mode sample analyzed under epoch.
func (s *Session) Observe(epoch uint64, sample mood.FrameSample) error {
	if epoch != s.epoch || s.mode != Continuous {
		return ErrStaleResult
	}
	s.analyzed++
	if !s.window.Accumulate(sample) {
		return nil
	}
	if label, _, ok := s.cfg.Categories.Top(sample.Distribution); ok {
		s.log = append(s.log, label)
	}
	return nil
}

// RecordBurst votes over the usable samples of a manual burst and appends
// the winning label to the log.
func (s *Session) RecordBurst(epoch uint64, samples []mood.FrameSample) (mood.Category, error) {
	if s.mode != Manual {
		return "", fmt.Errorf("%w: burst outside manual mode", ErrInvalidTransition)
	}
	if epoch != s.epoch {
		return "", ErrStaleResult
	}
	s.analyzed += len(samples)

	labels := make([]mood.Category, 0, len(samples))
	for _, smp := range samples {
		if !smp.Usable() {
			continue
		}
		if label, _, ok := s.cfg.Categories.Top(smp.Distribution); ok {
			labels = append(labels, label)
		}
	}
	winner, ok := mood.MajorityVote(labels)
	if !ok {
		return "", mood.ErrNoSamples
	}
	s.log = append(s.log, winner)
	return winner, nil
}

// Report is the outcome of a finished session.
type Report struct {
	Discrete      *mood.MoodSummary
	DiscreteErr   error
	Weighted      *mood.MoodSummary
	WeightedErr   error
	Continuous    []*mood.MoodSummary
	Log           []mood.Category
	FramesRead    int
	FramesDropped int
	Analyzed      int
}

// Determined reports whether any summary could be produced.
func (r *Report) Determined() bool {
	return r.Discrete != nil || r.Weighted != nil || len(r.Continuous) > 0
}

// Finish ends the session. A Continuous window with samples in it becomes the
// weighted summary; the discrete summary covers the whole label log.
func (s *Session) Finish() (*Report, error) {
	if s.finished {
		return nil, fmt.Errorf("%w: session already finished", ErrInvalidTransition)
	}
	s.finished = true

	report := &Report{Analyzed: s.analyzed}
	if s.mode == Continuous {
		if s.window.SampleCount() > 0 {
			report.Weighted, report.WeightedErr = s.finalizeWindow()
		} else {
			report.WeightedErr = mood.ErrNoSamples
		}
	}
	report.Discrete, report.DiscreteErr = s.summarizer.Discrete(s.log)
	report.Continuous = append([]*mood.MoodSummary(nil), s.finalized...)
	report.Log = append([]mood.Category(nil), s.log...)

	s.mode = Idle
	s.epoch++
	return report, nil
}

func (s *Session) Finished() bool { return s.finished }

// IsInsufficient reports whether err means there was nothing to summarize.
func IsInsufficient(err error) bool {
	return errors.Is(err, mood.ErrInsufficientData)
}
