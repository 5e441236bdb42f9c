package analysis

import (
	"context"
	"fmt"
	"io"

	"github.com/eleven-am/moodlens/internal/capture"
	"github.com/eleven-am/moodlens/internal/dto"
	"github.com/eleven-am/moodlens/internal/shared"
)

type VideoInput struct {
	Name string
	// Reader yields Motion-JPEG data. It is closed when it is an io.Closer.
	Reader     io.Reader
	SampleRate int
}

// AnalyzeVideo averages every SampleRate-th frame of a recorded clip.
func (s *Service) AnalyzeVideo(ctx context.Context, in VideoInput) (*dto.VideoAnalysisResponse, error) {
	if in.Reader == nil {
		return nil, fmt.Errorf("%w: no video", ErrInput)
	}
	rate := in.SampleRate
	if rate == 0 {
		rate = s.cfg.VideoSampleRate
	}
	if rate < 1 {
		return nil, fmt.Errorf("%w: sample_rate must be at least 1", ErrInput)
	}

	src := &firstFrameSource{Source: capture.NewMJPEGSource(in.Reader, capture.MJPEGOptions{
		FPS:    s.cfg.VideoFPS,
		Logger: s.logger,
	})}
	runner, err := capture.NewRunner(src, s.analyzer, capture.RunnerConfig{
		Session: capture.SessionConfig{
			Kind:        capture.Video,
			SampleRate:  rate,
			InitialMode: capture.Continuous,
			Categories:  s.set,
		},
		Logger: s.logger,
	})
	if err != nil {
		return nil, err
	}

	report, err := runner.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("analyze video: %w", err)
	}
	if report.FramesRead == 0 {
		return nil, fmt.Errorf("%w: no Motion-JPEG frames found", ErrInput)
	}

	resp := &dto.VideoAnalysisResponse{
		SourceName:     in.Name,
		SampleRate:     rate,
		FramesRead:     report.FramesRead,
		FramesAnalyzed: report.Analyzed,
		MoodSummary:    renderSummary(report.Weighted, report.WeightedErr),
	}
	if report.Weighted == nil {
		return resp, nil
	}
	resp.EmotionScores = report.Weighted.Distribution.Map()

	resp.ResultID, resp.StorageError = s.persist(ctx, record{
		source:    shared.SourceVideo,
		name:      in.Name,
		summary:   report.Weighted.Statement,
		payload:   *resp,
		thumbnail: src.first,
	})
	return resp, nil
}
