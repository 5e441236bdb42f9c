package capture

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
)

type CameraOptions struct {
	RTP    RTPOptions
	FPS    float64
	Client *http.Client
	Logger *slog.Logger
}

// OpenCamera opens a live source from a camera URL:
//
//	http(s)://...   MJPEG stream (multipart/x-mixed-replace or raw)
//	rtp://host:port VP8 over RTP, listened for on the given UDP address
//	file:///path    recorded MJPEG, replayed at opts.FPS
func OpenCamera(ctx context.Context, rawURL string, opts CameraOptions) (Source, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: no camera configured", ErrCaptureFailed)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse camera url: %v", ErrCaptureFailed, err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RTP.Logger == nil {
		opts.RTP.Logger = opts.Logger
	}

	switch u.Scheme {
	case "http", "https":
		client := opts.Client
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: connect camera: %v", ErrCaptureFailed, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: camera returned status %d", ErrCaptureFailed, resp.StatusCode)
		}
		return NewMJPEGSource(resp.Body, MJPEGOptions{Live: true, Logger: opts.Logger}), nil

	case "rtp", "udp":
		return ListenRTP(u.Host, opts.RTP)

	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
		}
		return NewMJPEGSource(f, MJPEGOptions{FPS: opts.FPS, Logger: opts.Logger}), nil

	default:
		return nil, fmt.Errorf("%w: unsupported camera scheme %q", ErrCaptureFailed, u.Scheme)
	}
}
