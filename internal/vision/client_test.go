package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 64, 48))
}

func TestNewClient_Defaults(t *testing.T) {
	cfg := Config{SidecarURL: "http://localhost:5001"}
	client := NewClient(cfg)
	if client == nil {
		t.Fatal("NewClient should not return nil")
	}
	if client.baseURL != cfg.SidecarURL {
		t.Errorf("expected baseURL %s, got %s", cfg.SidecarURL, client.baseURL)
	}
	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", client.httpClient.Timeout)
	}
	if client.quality != 90 {
		t.Errorf("expected default quality 90, got %d", client.quality)
	}
}

func TestNewClient_CustomTimeout(t *testing.T) {
	client := NewClient(Config{SidecarURL: "http://localhost:5001", Timeout: 10 * time.Second})
	if client.httpClient.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", client.httpClient.Timeout)
	}
}

func TestClient_Detect_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/detect" {
			t.Errorf("expected /detect, got %s", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type application/json")
		}

		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		raw, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			t.Fatalf("image is not base64: %v", err)
		}
		if _, err := jpeg.Decode(bytes.NewReader(raw)); err != nil {
			t.Errorf("image is not a jpeg: %v", err)
		}

		json.NewEncoder(w).Encode(detectResponse{Boxes: [][]float64{{4, 5.6, 30, 40}, {0, 0, 1, 1}}})
	}))
	defer server.Close()

	client := NewClient(Config{SidecarURL: server.URL})
	box, err := client.Detect(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if box == nil {
		t.Fatal("expected a face box")
	}
	if *box != image.Rect(4, 6, 30, 40) {
		t.Errorf("expected first box rounded, got %v", *box)
	}
}

func TestClient_Detect_OffsetsSubImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(detectResponse{Boxes: [][]float64{{0, 0, 10, 10}}})
	}))
	defer server.Close()

	src := image.NewRGBA(image.Rect(0, 0, 100, 100)).SubImage(image.Rect(20, 30, 60, 70))
	box, err := NewClient(Config{SidecarURL: server.URL}).Detect(context.Background(), src)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if *box != image.Rect(20, 30, 30, 40) {
		t.Errorf("expected box in source coordinates, got %v", *box)
	}
}

func TestClient_Detect_NoFace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"boxes": []}`))
	}))
	defer server.Close()

	box, err := NewClient(Config{SidecarURL: server.URL}).Detect(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if box != nil {
		t.Errorf("expected nil box, got %v", box)
	}
}

func TestClient_Detect_MalformedBox(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"boxes": [[1, 2, 3]]}`))
	}))
	defer server.Close()

	_, err := NewClient(Config{SidecarURL: server.URL}).Detect(context.Background(), testImage())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestClient_Classify_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Errorf("expected /classify, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"emotions": {"happy": 91.2, "surprise": 5.1, "neutral": 3.7}}`))
	}))
	defer server.Close()

	scores, err := NewClient(Config{SidecarURL: server.URL}).Classify(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if scores["happy"] != 91.2 || scores["surprise"] != 5.1 {
		t.Errorf("unexpected scores %v", scores)
	}
}

func TestClient_Classify_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"emotions": {}}`))
	}))
	defer server.Close()

	_, err := NewClient(Config{SidecarURL: server.URL}).Classify(context.Background(), testImage())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestClient_NoImage(t *testing.T) {
	client := NewClient(Config{SidecarURL: "http://localhost"})
	if _, err := client.Detect(context.Background(), nil); err == nil {
		t.Error("expected error for nil image")
	}
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{SidecarURL: server.URL})
	if _, err := client.Classify(context.Background(), testImage()); err == nil {
		t.Error("expected error for server error response")
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(Config{SidecarURL: server.URL})
	if _, err := client.Detect(context.Background(), testImage()); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{"boxes": []}`))
	}))
	defer server.Close()

	client := NewClient(Config{SidecarURL: server.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Detect(ctx, testImage()); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestClient_IsAvailable_True(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/health" {
			t.Errorf("expected /health, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{SidecarURL: server.URL})
	if !client.IsAvailable(context.Background()) {
		t.Error("expected IsAvailable to return true")
	}
}

func TestClient_IsAvailable_ServerDown(t *testing.T) {
	client := NewClient(Config{SidecarURL: "http://localhost:99999"})
	if client.IsAvailable(context.Background()) {
		t.Error("expected IsAvailable to return false for unreachable server")
	}
}

func TestClient_IsAvailable_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{SidecarURL: server.URL})
	if client.IsAvailable(context.Background()) {
		t.Error("expected IsAvailable to return false for 503")
	}
}
