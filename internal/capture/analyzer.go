package capture

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/eleven-am/moodlens/internal/mood"
	"golang.org/x/image/draw"
)

// MinFaceSide is the smallest face crop, in pixels per side, worth
// classifying.
const MinFaceSide = 10

// FaceDetector locates the primary face. A nil rectangle with a nil error
// means no face was found.
type FaceDetector interface {
	Detect(ctx context.Context, img image.Image) (*image.Rectangle, error)
}

// EmotionClassifier scores a face crop. Labels are whatever the model emits;
// the Analyzer folds them onto its category set.
type EmotionClassifier interface {
	Classify(ctx context.Context, img image.Image) (map[string]float64, error)
}

// FrameAnalyzer turns a frame into a sample. Errors describe why the sample
// is unusable; the returned sample is always safe to record.
type FrameAnalyzer interface {
	Analyze(ctx context.Context, f Frame) (mood.FrameSample, error)
}

type Analyzer struct {
	detector   FaceDetector
	classifier EmotionClassifier
	set        *mood.CategorySet
	logger     *slog.Logger
}

func NewAnalyzer(detector FaceDetector, classifier EmotionClassifier, set *mood.CategorySet, logger *slog.Logger) *Analyzer {
	if set == nil {
		set = mood.DefaultCategories
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		detector:   detector,
		classifier: classifier,
		set:        set,
		logger:     logger.With("component", "frame-analyzer"),
	}
}

func (a *Analyzer) Analyze(ctx context.Context, f Frame) (mood.FrameSample, error) {
	sample := mood.FrameSample{Index: f.Index}
	if f.Image == nil {
		return sample, fmt.Errorf("%w: frame %d has no image", ErrInvalidFaceRegion, f.Index)
	}

	box, err := a.detector.Detect(ctx, f.Image)
	if err != nil {
		return sample, fmt.Errorf("%w: detect: %w", ErrClassifierFailure, err)
	}
	if box == nil {
		return sample, ErrNoFaceDetected
	}

	region := box.Canon().Intersect(f.Image.Bounds())
	if region.Dx() < MinFaceSide || region.Dy() < MinFaceSide {
		return sample, fmt.Errorf("%w: %dx%d", ErrInvalidFaceRegion, region.Dx(), region.Dy())
	}
	sample.HasFace = true

	raw, err := a.classifier.Classify(ctx, Crop(f.Image, region))
	if err != nil {
		return sample, fmt.Errorf("%w: %w", ErrClassifierFailure, err)
	}

	dist, dropped := a.set.Canonicalize(raw)
	if len(dropped) > 0 {
		a.logger.Debug("dropped unknown labels", "frame", f.Index, "labels", dropped)
	}
	sample.Distribution = dist
	return sample, nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop returns the region of img, sharing pixels when the image type allows.
func Crop(img image.Image, r image.Rectangle) image.Image {
	if s, ok := img.(subImager); ok {
		return s.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(dst, image.Point{}, img, r, draw.Src, nil)
	return dst
}
