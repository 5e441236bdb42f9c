package analysis

import (
	"context"
	"encoding/json"
	"image"
	"log/slog"
	"time"

	"github.com/eleven-am/moodlens/internal/capture"
	"github.com/eleven-am/moodlens/internal/dto"
	"github.com/eleven-am/moodlens/internal/events"
	"github.com/eleven-am/moodlens/internal/livesession"
	"github.com/eleven-am/moodlens/internal/mood"
	"github.com/eleven-am/moodlens/internal/result"
	"github.com/eleven-am/moodlens/internal/shared"
)

const (
	// LowConfidenceThreshold is the top percentage below which a still image
	// is flagged for a retake.
	LowConfidenceThreshold = 20.0

	DefaultWebcamDuration = 10 * time.Second
	MaxWebcamDuration     = 5 * time.Minute
	DefaultWebcamBursts   = 3
	MaxWebcamBursts       = 10
)

type Config struct {
	BufferSize      int
	BurstSize       int
	BurstDelay      time.Duration
	VideoSampleRate int
	VideoFPS        float64
	WebcamDuration  time.Duration
	CameraURL       string
	Camera          capture.CameraOptions
}

type ResultSaver interface {
	Save(ctx context.Context, in result.New) (*result.Result, error)
}

// SessionRegistry tracks live sessions for the /sessions endpoints.
type SessionRegistry interface {
	Create(ctx context.Context, sess *livesession.Session) error
	SetMode(ctx context.Context, id, mode string) error
	AppendLabel(ctx context.Context, id, label string) error
	End(ctx context.Context, id string, status livesession.Status, resultID string) error
}

type Service struct {
	analyzer   capture.FrameAnalyzer
	summarizer *mood.Summarizer
	set        *mood.CategorySet
	results    ResultSaver
	sessions   SessionRegistry
	sink       events.Sink
	cfg        Config
	logger     *slog.Logger
	openCamera func(ctx context.Context, url string) (capture.Source, error)
}

func NewService(
	analyzer capture.FrameAnalyzer,
	set *mood.CategorySet,
	results ResultSaver,
	sessions SessionRegistry,
	sink events.Sink,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if set == nil {
		set = mood.DefaultCategories
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.VideoSampleRate <= 0 {
		cfg.VideoSampleRate = capture.DefaultSampleRate
	}
	if cfg.WebcamDuration <= 0 {
		cfg.WebcamDuration = DefaultWebcamDuration
	}
	s := &Service{
		analyzer:   analyzer,
		summarizer: mood.NewSummarizer(set),
		set:        set,
		results:    results,
		sessions:   sessions,
		sink:       sink,
		cfg:        cfg,
		logger:     logger.With("component", "analysis"),
	}
	s.openCamera = func(ctx context.Context, url string) (capture.Source, error) {
		opts := s.cfg.Camera
		if opts.Logger == nil {
			opts.Logger = s.logger
		}
		return capture.OpenCamera(ctx, url, opts)
	}
	return s
}

func renderSummary(sum *mood.MoodSummary, err error) dto.MoodSummary {
	if sum == nil {
		reason := mood.ErrInsufficientData.Error()
		if err != nil {
			reason = err.Error()
		}
		return dto.MoodSummary{Determined: false, Reason: reason}
	}
	return dto.MoodSummary{
		Determined:  true,
		Summary:     sum.Statement,
		Mood:        sum.Primary.String(),
		Narrative:   string(sum.Narrative),
		Qualifier:   sum.Qualifier,
		Commentary:  sum.Commentary,
		TopEmotions: sum.Ranked,
		AllEmotions: sum.Distribution.Map(),
		Samples:     sum.Samples,
	}
}

type record struct {
	source    shared.SourceType
	name      string
	summary   string
	payload   any
	thumbnail image.Image
}

// persist saves the record and announces it. Failures never fail the
// analysis: the id is empty and the returned note explains why.
func (s *Service) persist(ctx context.Context, rec record) (id string, storageErr string) {
	ctx = context.WithoutCancel(ctx)
	created := time.Now().UTC()

	if s.results != nil {
		saved, err := s.results.Save(ctx, result.New{
			SourceType: rec.source,
			SourceName: rec.name,
			Summary:    rec.summary,
			Payload:    rec.payload,
			Thumbnail:  rec.thumbnail,
		})
		if err != nil {
			s.logger.Error("failed to save result", "error", err, "source_type", rec.source)
			storageErr = "result could not be saved: " + err.Error()
		} else {
			id = saved.ID
			created = saved.CreatedAt
		}
	}

	if s.sink != nil {
		data, err := json.Marshal(rec.payload)
		if err != nil {
			s.logger.Error("failed to encode result event", "error", err)
			return id, storageErr
		}
		event := events.ResultEvent{
			ResultID:   id,
			SourceType: rec.source.String(),
			Summary:    rec.summary,
			Timestamp:  created,
			Results:    data,
		}
		if err := s.sink.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish result event", "error", err, "result_id", id)
		}
	}
	return id, storageErr
}

// firstFrameSource remembers the first frame read, for thumbnails.
type firstFrameSource struct {
	capture.Source
	first image.Image
}

func (s *firstFrameSource) Next(ctx context.Context) (capture.Frame, error) {
	f, err := s.Source.Next(ctx)
	if err == nil && s.first == nil {
		s.first = f.Image
	}
	return f, err
}
