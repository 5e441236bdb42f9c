package vision

import "time"

type Config struct {
	SidecarURL  string
	Timeout     time.Duration
	JPEGQuality int
}

type imageRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	Boxes [][]float64 `json:"boxes"`
}

type classifyResponse struct {
	Emotions map[string]float64 `json:"emotions"`
}
