package capture

import (
	"context"
	"image"
	"io"
	"time"
)

// Frame is one decoded image from a source. Index counts from zero in
// acquisition order; CapturedAt is wall-clock for live sources and synthetic
// (derived from the frame rate) for files.
type Frame struct {
	Index      int
	CapturedAt time.Time
	Image      image.Image
}

// Source yields frames until it returns io.EOF.
type Source interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// SliceSource replays in-memory images at a fixed interval.
type SliceSource struct {
	images   []image.Image
	interval time.Duration
	start    time.Time
	next     int
}

func NewSliceSource(images []image.Image, interval time.Duration) *SliceSource {
	return &SliceSource{images: images, interval: interval, start: time.Unix(0, 0)}
}

func (s *SliceSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.next >= len(s.images) {
		return Frame{}, io.EOF
	}
	f := Frame{
		Index:      s.next,
		CapturedAt: s.start.Add(time.Duration(s.next) * s.interval),
		Image:      s.images[s.next],
	}
	s.next++
	return f, nil
}

func (s *SliceSource) Close() error { return nil }

// ChanSource turns pushed images into frames stamped on arrival. Closing the
// channel ends the stream.
type ChanSource struct {
	images <-chan image.Image
	now    func() time.Time
	next   int
}

func NewChanSource(images <-chan image.Image) *ChanSource {
	return &ChanSource{images: images, now: time.Now}
}

func (s *ChanSource) Next(ctx context.Context) (Frame, error) {
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case img, ok := <-s.images:
		if !ok {
			return Frame{}, io.EOF
		}
		f := Frame{Index: s.next, CapturedAt: s.now(), Image: img}
		s.next++
		return f, nil
	}
}

func (s *ChanSource) Close() error { return nil }
