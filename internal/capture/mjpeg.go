package capture

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"log/slog"
	"time"
)

const (
	markerSOI = 0xD8
	markerEOI = 0xD9
	markerSOS = 0xDA
	markerTEM = 0x01

	defaultMaxFrameBytes = 16 << 20
	DefaultFPS           = 30.0
)

var (
	ErrMalformedJPEG = errors.New("malformed jpeg stream")
	ErrFrameTooLarge = errors.New("jpeg frame exceeds size limit")
)

// MJPEGReader splits a Motion-JPEG byte stream into individual JPEG images.
// Bytes between images, such as multipart boundaries from camera streams, are
// skipped. Segments are walked by their declared lengths so thumbnails
// embedded in EXIF blocks do not end a frame early.
type MJPEGReader struct {
	r        *bufio.Reader
	frame    []byte
	maxBytes int
}

func NewMJPEGReader(r io.Reader) *MJPEGReader {
	return &MJPEGReader{r: bufio.NewReaderSize(r, 64<<10), maxBytes: defaultMaxFrameBytes}
}

// NextJPEG returns the next complete image. It returns io.EOF when the stream
// ends cleanly between images and io.ErrUnexpectedEOF when it ends mid-image.
func (m *MJPEGReader) NextJPEG() ([]byte, error) {
	if err := m.seekSOI(); err != nil {
		return nil, err
	}
	m.frame = append(m.frame[:0], 0xFF, markerSOI)

	for {
		marker, err := m.nextMarker()
		if err != nil {
			return nil, err
		}
		switch {
		case marker == markerEOI:
			out := make([]byte, len(m.frame))
			copy(out, m.frame)
			return out, nil
		case marker >= 0xD0 && marker <= 0xD7, marker == markerTEM:
		default:
			if err := m.copySegment(); err != nil {
				return nil, err
			}
			if marker == markerSOS {
				if err := m.copyScan(); err != nil {
					return nil, err
				}
			}
		}
		if len(m.frame) > m.maxBytes {
			return nil, ErrFrameTooLarge
		}
	}
}

func (m *MJPEGReader) seekSOI() error {
	for {
		b, err := m.r.ReadByte()
		if err != nil {
			return err
		}
		if b != 0xFF {
			continue
		}
		next, err := m.r.Peek(1)
		if err != nil {
			return err
		}
		if next[0] == markerSOI {
			_, _ = m.r.ReadByte()
			return nil
		}
	}
}

func (m *MJPEGReader) nextMarker() (byte, error) {
	b, err := m.r.ReadByte()
	if err != nil {
		return 0, unexpected(err)
	}
	if b != 0xFF {
		return 0, fmt.Errorf("%w: expected marker, got 0x%02x", ErrMalformedJPEG, b)
	}
	for {
		c, err := m.r.ReadByte()
		if err != nil {
			return 0, unexpected(err)
		}
		if c == 0xFF {
			continue
		}
		m.frame = append(m.frame, 0xFF, c)
		return c, nil
	}
}

func (m *MJPEGReader) copySegment() error {
	var hdr [2]byte
	if _, err := io.ReadFull(m.r, hdr[:]); err != nil {
		return unexpected(err)
	}
	length := int(hdr[0])<<8 | int(hdr[1])
	if length < 2 {
		return fmt.Errorf("%w: segment length %d", ErrMalformedJPEG, length)
	}
	if len(m.frame)+length > m.maxBytes {
		return ErrFrameTooLarge
	}
	m.frame = append(m.frame, hdr[0], hdr[1])
	start := len(m.frame)
	m.frame = append(m.frame, make([]byte, length-2)...)
	if _, err := io.ReadFull(m.r, m.frame[start:]); err != nil {
		return unexpected(err)
	}
	return nil
}

// copyScan copies entropy-coded data up to the next real marker, which is left
// unread.
func (m *MJPEGReader) copyScan() error {
	for {
		b, err := m.r.ReadByte()
		if err != nil {
			return unexpected(err)
		}
		if b != 0xFF {
			m.frame = append(m.frame, b)
			if len(m.frame) > m.maxBytes {
				return ErrFrameTooLarge
			}
			continue
		}
		next, err := m.r.Peek(1)
		if err != nil {
			return unexpected(err)
		}
		if n := next[0]; n == 0x00 || (n >= 0xD0 && n <= 0xD7) {
			_, _ = m.r.ReadByte()
			m.frame = append(m.frame, 0xFF, n)
			continue
		}
		return m.r.UnreadByte()
	}
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

type MJPEGOptions struct {
	// FPS stamps file frames as start + index/FPS. Ignored for live streams.
	FPS    float64
	Live   bool
	Logger *slog.Logger
}

// MJPEGSource decodes frames from a Motion-JPEG stream: a file of
// concatenated JPEGs or a multipart camera feed.
type MJPEGSource struct {
	reader *MJPEGReader
	closer io.Closer
	opts   MJPEGOptions
	logger *slog.Logger
	start  time.Time
	now    func() time.Time
	next   int
}

func NewMJPEGSource(r io.Reader, opts MJPEGOptions) *MJPEGSource {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &MJPEGSource{
		reader: NewMJPEGReader(r),
		opts:   opts,
		logger: opts.Logger.With("component", "mjpeg-source"),
		start:  time.Unix(0, 0),
		now:    time.Now,
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Next returns the next decodable frame. Frames that fail to decode are
// skipped but still consume an index so timestamps stay aligned.
func (s *MJPEGSource) Next(ctx context.Context) (Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		data, err := s.reader.NextJPEG()
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				s.logger.Warn("stream ended mid-frame", "frame", s.next)
				return Frame{}, io.EOF
			}
			return Frame{}, err
		}

		idx := s.next
		s.next++
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			s.logger.Warn("skipping undecodable frame", "frame", idx, "error", err)
			continue
		}
		return Frame{Index: idx, CapturedAt: s.stamp(idx), Image: img}, nil
	}
}

func (s *MJPEGSource) stamp(idx int) time.Time {
	if s.opts.Live {
		return s.now()
	}
	return s.start.Add(time.Duration(float64(idx) * float64(time.Second) / s.opts.FPS))
}

func (s *MJPEGSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
