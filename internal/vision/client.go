package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"net/http"
	"time"
)

var ErrMalformedResponse = errors.New("malformed sidecar response")

// Client talks to the face detection and emotion classification sidecar.
// Images travel as base64 JPEG inside JSON bodies.
type Client struct {
	httpClient *http.Client
	baseURL    string
	quality    int
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	quality := cfg.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.SidecarURL,
		quality:    quality,
	}
}

// Detect returns the first face box reported by the sidecar, or nil when no
// face was found. Boxes are [x1, y1, x2, y2] in pixel coordinates of img.
func (c *Client) Detect(ctx context.Context, img image.Image) (*image.Rectangle, error) {
	var resp detectResponse
	if err := c.post(ctx, "/detect", img, &resp); err != nil {
		return nil, err
	}
	if len(resp.Boxes) == 0 {
		return nil, nil
	}

	box := resp.Boxes[0]
	if len(box) != 4 {
		return nil, fmt.Errorf("%w: box has %d coordinates", ErrMalformedResponse, len(box))
	}
	origin := img.Bounds().Min
	r := image.Rect(
		int(math.Round(box[0])), int(math.Round(box[1])),
		int(math.Round(box[2])), int(math.Round(box[3])),
	).Add(origin)
	return &r, nil
}

// Classify returns the raw label→score map for a face crop.
func (c *Client) Classify(ctx context.Context, img image.Image) (map[string]float64, error) {
	var resp classifyResponse
	if err := c.post(ctx, "/classify", img, &resp); err != nil {
		return nil, err
	}
	if len(resp.Emotions) == 0 {
		return nil, fmt.Errorf("%w: no emotions", ErrMalformedResponse)
	}
	return resp.Emotions, nil
}

func (c *Client) post(ctx context.Context, path string, img image.Image, out any) error {
	if img == nil {
		return fmt.Errorf("no image provided")
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}

	body, err := json.Marshal(imageRequest{Image: base64.StdEncoding.EncodeToString(buf.Bytes())})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sidecar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sidecar %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
