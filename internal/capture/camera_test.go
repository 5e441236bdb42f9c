package capture

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenCamera_Errors(t *testing.T) {
	ctx := context.Background()
	for _, url := range []string{"", "ftp://camera", "::bad"} {
		if _, err := OpenCamera(ctx, url, CameraOptions{Logger: discardLogger()}); !errors.Is(err, ErrCaptureFailed) {
			t.Errorf("%q: expected ErrCaptureFailed, got %v", url, err)
		}
	}
}

func TestOpenCamera_HTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := OpenCamera(context.Background(), server.URL, CameraOptions{Logger: discardLogger()})
	if !errors.Is(err, ErrCaptureFailed) {
		t.Errorf("expected ErrCaptureFailed, got %v", err)
	}
}

func TestOpenCamera_HTTPStream(t *testing.T) {
	frame := encodeJPEG(t, 12, 12, 50)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		for i := 0; i < 2; i++ {
			w.Write([]byte("--frame\r\nContent-Type: image/jpeg\r\n\r\n"))
			w.Write(frame)
			w.Write([]byte("\r\n"))
		}
	}))
	defer server.Close()

	src, err := OpenCamera(context.Background(), server.URL, CameraOptions{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("OpenCamera failed: %v", err)
	}
	defer src.Close()

	for i := 0; i < 2; i++ {
		f, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if f.Index != i || f.CapturedAt.IsZero() {
			t.Errorf("frame %d: unexpected frame %+v", i, f)
		}
	}
}

func TestOpenCamera_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mjpeg")
	data := append(encodeJPEG(t, 8, 8, 1), encodeJPEG(t, 8, 8, 2)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	src, err := OpenCamera(context.Background(), "file://"+path, CameraOptions{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("OpenCamera failed: %v", err)
	}
	defer src.Close()

	if _, err := src.Next(context.Background()); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
}
