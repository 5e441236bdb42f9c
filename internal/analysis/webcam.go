package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/moodlens/internal/capture"
	"github.com/eleven-am/moodlens/internal/dto"
	"github.com/eleven-am/moodlens/internal/livesession"
	"github.com/eleven-am/moodlens/internal/mood"
	"github.com/eleven-am/moodlens/internal/shared"
)

type WebcamInput struct {
	Mode     capture.Mode
	Duration time.Duration
	// Bursts is how many manual bursts to take before stopping early.
	Bursts int
}

// AnalyzeWebcam records from the configured camera for at most Duration. In
// manual mode the requested bursts are queued up front and the session ends
// once they have all completed.
func (s *Service) AnalyzeWebcam(ctx context.Context, in WebcamInput) (*dto.WebcamAnalysisResponse, error) {
	if in.Duration < 0 || in.Duration > MaxWebcamDuration {
		return nil, fmt.Errorf("%w: duration must be between 0 and %s", ErrInput, MaxWebcamDuration)
	}
	if in.Bursts < 0 || in.Bursts > MaxWebcamBursts {
		return nil, fmt.Errorf("%w: bursts must be between 0 and %d", ErrInput, MaxWebcamBursts)
	}
	if in.Duration == 0 {
		in.Duration = s.cfg.WebcamDuration
	}
	if in.Mode == capture.Idle {
		in.Mode = capture.Manual
	}
	if in.Mode == capture.Manual && in.Bursts == 0 {
		in.Bursts = DefaultWebcamBursts
	}

	runCtx, cancel := context.WithTimeout(ctx, in.Duration)
	defer cancel()

	src, err := s.openCamera(runCtx, s.cfg.CameraURL)
	if err != nil {
		return nil, err
	}

	var live *Live
	completed := 0
	onEvent := func(e capture.Event) {
		if e.Kind != capture.EventBurst || in.Mode != capture.Manual {
			return
		}
		completed++
		if completed == in.Bursts {
			go live.Send(runCtx, capture.CmdQuit)
		}
	}

	live, err = s.NewLive(ctx, src, LiveOptions{Mode: in.Mode, OnEvent: onEvent})
	if err != nil {
		src.Close()
		return nil, err
	}
	if in.Mode == capture.Manual {
		for i := 0; i < in.Bursts; i++ {
			if err := live.Send(runCtx, capture.CmdBurst); err != nil {
				break
			}
		}
	}

	return live.Run(runCtx)
}

type LiveOptions struct {
	Mode capture.Mode
	// OnEvent is called from the session loop and must not block.
	OnEvent func(capture.Event)
}

// Live is one webcam capture session driven by commands.
type Live struct {
	svc     *Service
	runner  *capture.Runner
	source  *firstFrameSource
	tracker *tracker
	persist context.Context
}

// NewLive prepares a webcam session over src. ctx scopes persistence of the
// final result, which outlives cancellation of the capture itself.
func (s *Service) NewLive(ctx context.Context, src capture.Source, opts LiveOptions) (*Live, error) {
	if opts.Mode == capture.Idle {
		opts.Mode = capture.Manual
	}
	l := &Live{
		svc:     s,
		source:  &firstFrameSource{Source: src},
		persist: ctx,
	}
	l.tracker = newTracker(ctx, s.sessions, opts.Mode, s.logger)

	runner, err := capture.NewRunner(l.source, s.analyzer, capture.RunnerConfig{
		Session: capture.SessionConfig{
			Kind:        capture.Webcam,
			BufferSize:  s.cfg.BufferSize,
			InitialMode: opts.Mode,
			Categories:  s.set,
		},
		Live:       true,
		BurstSize:  s.cfg.BurstSize,
		BurstDelay: s.cfg.BurstDelay,
		OnEvent: func(e capture.Event) {
			l.tracker.observe(e)
			if opts.OnEvent != nil {
				opts.OnEvent(e)
			}
		},
		Logger: s.logger,
	})
	if err != nil {
		l.tracker.finish(livesession.StatusError, "")
		return nil, err
	}
	l.runner = runner
	return l, nil
}

// ID is the registry id of the session, empty when no registry is in use.
func (l *Live) ID() string {
	return l.tracker.ID()
}

func (l *Live) Send(ctx context.Context, cmd capture.Command) error {
	return l.runner.Send(ctx, cmd)
}

// Run captures until the source ends, quit is sent, or ctx is done, then
// summarizes and persists the session.
func (l *Live) Run(ctx context.Context) (*dto.WebcamAnalysisResponse, error) {
	report, err := l.runner.Run(ctx)
	if err != nil {
		l.tracker.finish(livesession.StatusError, "")
		return nil, fmt.Errorf("webcam session: %w", err)
	}

	resp := buildWebcamResponse(report)
	if report.Determined() {
		resp.ResultID, resp.StorageError = l.svc.persist(l.persist, record{
			source:    shared.SourceWebcam,
			summary:   webcamStatement(report),
			payload:   *resp,
			thumbnail: l.source.first,
		})
	}
	l.tracker.finish(livesession.StatusEnded, resp.ResultID)
	return resp, nil
}

func buildWebcamResponse(report *capture.Report) *dto.WebcamAnalysisResponse {
	resp := &dto.WebcamAnalysisResponse{
		Discrete:       renderSummary(report.Discrete, report.DiscreteErr),
		Continuous:     make([]dto.MoodSummary, 0, len(report.Continuous)),
		RawEmotionLog:  make([]string, len(report.Log)),
		FramesRead:     report.FramesRead,
		FramesAnalyzed: report.Analyzed,
		FramesDropped:  report.FramesDropped,
	}
	for _, sum := range report.Continuous {
		resp.Continuous = append(resp.Continuous, renderSummary(sum, nil))
	}
	for i, label := range report.Log {
		resp.RawEmotionLog[i] = label.String()
	}

	var latest *mood.MoodSummary
	switch {
	case report.Weighted != nil:
		latest = report.Weighted
	case len(report.Continuous) > 0:
		latest = report.Continuous[len(report.Continuous)-1]
	}
	if latest != nil {
		resp.ContinuousScores = latest.Distribution.Map()
	}
	return resp
}

func webcamStatement(report *capture.Report) string {
	switch {
	case report.Discrete != nil:
		return report.Discrete.Statement
	case report.Weighted != nil:
		return report.Weighted.Statement
	case len(report.Continuous) > 0:
		return report.Continuous[len(report.Continuous)-1].Statement
	}
	return ""
}
