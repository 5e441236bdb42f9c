package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4/pkg/media/samplebuilder"
)

const (
	rtpMaxLate       = 64
	rtpVideoClock    = 90000
	rtpMaxPacketSize = 1500
)

type RTPOptions struct {
	// MinInterval throttles decoding; samples arriving sooner are dropped.
	MinInterval time.Duration
	QueueSize   int
	Logger      *slog.Logger
}

// RTPSource listens for a VP8 RTP stream on UDP and yields decoded key
// frames. It is a live source: when the consumer falls behind, frames are
// dropped rather than queued.
type RTPSource struct {
	conn        net.PacketConn
	decoder     *VP8Decoder
	logger      *slog.Logger
	minInterval time.Duration
	frames      chan Frame
	now         func() time.Time

	mu          sync.Mutex
	builder     *samplebuilder.SampleBuilder
	lastCapture time.Time
	next        int
	closed      bool
	err         error
}

func ListenRTP(addr string, opts RTPOptions) (*RTPSource, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: listen %s: %v", ErrCaptureFailed, addr, err)
	}
	s := newRTPSource(conn, opts)
	go s.readLoop()
	return s, nil
}

func newRTPSource(conn net.PacketConn, opts RTPOptions) *RTPSource {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &RTPSource{
		conn:        conn,
		decoder:     NewVP8Decoder(),
		logger:      opts.Logger.With("component", "rtp-source"),
		minInterval: opts.MinInterval,
		frames:      make(chan Frame, opts.QueueSize),
		now:         time.Now,
		builder:     samplebuilder.New(rtpMaxLate, &codecs.VP8Packet{}, rtpVideoClock),
	}
}

func (s *RTPSource) Addr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *RTPSource) readLoop() {
	defer close(s.frames)

	buf := make([]byte, rtpMaxPacketSize)
	for {
		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			s.mu.Lock()
			if !s.closed && !errors.Is(err, net.ErrClosed) {
				s.err = err
			}
			s.mu.Unlock()
			return
		}

		pkt := &rtp.Packet{}
		if err := pkt.Unmarshal(append([]byte(nil), buf[:n]...)); err != nil {
			s.logger.Debug("dropping malformed rtp packet", "error", err)
			continue
		}
		s.HandlePacket(pkt)
	}
}

// HandlePacket feeds one RTP packet through the sample builder and emits any
// completed, decodable frames.
func (s *RTPSource) HandlePacket(pkt *rtp.Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.builder.Push(pkt)

	for {
		sample := s.builder.Pop()
		if sample == nil {
			return
		}

		now := s.now()
		if s.minInterval > 0 && now.Sub(s.lastCapture) < s.minInterval {
			continue
		}

		img, err := s.decoder.Decode(sample.Data)
		if err != nil {
			if !errors.Is(err, errNotKeyFrame) {
				s.logger.Debug("frame decode failed", "error", err)
			}
			continue
		}
		s.lastCapture = now

		frame := Frame{Index: s.next, CapturedAt: now, Image: img}
		s.next++
		select {
		case s.frames <- frame:
		default:
			s.logger.Debug("consumer behind, dropping frame", "frame", frame.Index)
		}
	}
}

func (s *RTPSource) Next(ctx context.Context) (Frame, error) {
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case f, ok := <-s.frames:
		if !ok {
			s.mu.Lock()
			err := s.err
			s.mu.Unlock()
			if err != nil {
				return Frame{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
			}
			return Frame{}, io.EOF
		}
		return f, nil
	}
}

func (s *RTPSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.conn.Close()
}
