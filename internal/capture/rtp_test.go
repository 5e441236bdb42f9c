package capture

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/pion/rtp"
)

func TestVP8Decoder_RejectsEmptyAndInterFrames(t *testing.T) {
	d := NewVP8Decoder()
	if _, err := d.Decode(nil); err == nil {
		t.Error("expected error for empty data")
	}
	if _, err := d.Decode([]byte{0x01, 0x00, 0x00}); !errors.Is(err, errNotKeyFrame) {
		t.Errorf("expected errNotKeyFrame, got %v", err)
	}
	if _, err := d.Decode([]byte{0x00, 0x00, 0x00, 0x00}); err == nil {
		t.Error("expected header error for truncated key frame")
	}
}

func TestListenRTP_InvalidAddress(t *testing.T) {
	_, err := ListenRTP("not-an-address", RTPOptions{Logger: discardLogger()})
	if !errors.Is(err, ErrCaptureFailed) {
		t.Errorf("expected ErrCaptureFailed, got %v", err)
	}
}

func TestRTPSource_CloseEndsStream(t *testing.T) {
	src, err := ListenRTP("127.0.0.1:0", RTPOptions{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("ListenRTP failed: %v", err)
	}
	if src.Addr() == nil {
		t.Fatal("expected bound address")
	}
	src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := src.Next(ctx); err != io.EOF {
		t.Errorf("expected io.EOF after close, got %v", err)
	}
}

func TestRTPSource_IgnoresUndecodablePayloads(t *testing.T) {
	src, err := ListenRTP("127.0.0.1:0", RTPOptions{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("ListenRTP failed: %v", err)
	}
	defer src.Close()

	conn, err := net.Dial("udp", src.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for seq := uint16(0); seq < 8; seq++ {
		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    96,
				SequenceNumber: seq,
				Timestamp:      uint32(seq) * 3000,
				Marker:         true,
			},
			// VP8 payload descriptor with S bit set, then an inter frame.
			Payload: []byte{0x10, 0x01, 0x02, 0x03},
		}
		raw, err := pkt.Marshal()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		conn.Write(raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected no frames from inter-frame payloads, got %v", err)
	}
}
