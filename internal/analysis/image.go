package analysis

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/eleven-am/moodlens/internal/capture"
	"github.com/eleven-am/moodlens/internal/dto"
	"github.com/eleven-am/moodlens/internal/shared"
	_ "golang.org/x/image/webp"
)

type ImageInput struct {
	Name  string
	Image image.Image
}

// DecodeImage reads a JPEG, PNG or WebP still.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", ErrInput, err)
	}
	return img, nil
}

// AnalyzeImage summarizes a single still. An image without a usable face is
// not an error: the response is undetermined and nothing is saved.
func (s *Service) AnalyzeImage(ctx context.Context, in ImageInput) (*dto.ImageAnalysisResponse, error) {
	if in.Image == nil {
		return nil, fmt.Errorf("%w: no image", ErrInput)
	}

	sample, err := s.analyzer.Analyze(ctx, capture.Frame{CapturedAt: time.Now(), Image: in.Image})
	resp := &dto.ImageAnalysisResponse{
		SourceName:   in.Name,
		FaceDetected: sample.HasFace,
	}
	switch {
	case errors.Is(err, capture.ErrNoFaceDetected), errors.Is(err, capture.ErrInvalidFaceRegion):
		resp.MoodSummary = renderSummary(nil, err)
		return resp, nil
	case err != nil:
		return nil, fmt.Errorf("analyze image: %w", err)
	}

	summary, err := s.summarizer.Single(sample.Distribution)
	resp.MoodSummary = renderSummary(summary, err)
	if summary == nil {
		return resp, nil
	}
	resp.LowConfidence = summary.Ranked[0].Percent < LowConfidenceThreshold

	resp.ResultID, resp.StorageError = s.persist(ctx, record{
		source:    shared.SourceImage,
		name:      in.Name,
		summary:   summary.Statement,
		payload:   *resp,
		thumbnail: in.Image,
	})
	return resp, nil
}
