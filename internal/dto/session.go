package dto

import "encoding/json"

type LiveSessionResponse struct {
	ID           string   `json:"id" example:"ses_0192f0c4-8a4e-7c1a-9e53-5b8f3c2d1a00"`
	SourceType   string   `json:"source_type" example:"webcam"`
	Mode         string   `json:"mode" example:"continuous"`
	Status       string   `json:"status" example:"active"`
	Labels       []string `json:"labels"`
	StartedAt    string   `json:"started_at" example:"2024-01-15T14:30:00Z"`
	LastActiveAt string   `json:"last_active_at" example:"2024-01-15T14:31:10Z"`
	ResultID     string   `json:"result_id,omitempty"`
}

type LiveSessionListResponse struct {
	Sessions []LiveSessionResponse `json:"sessions"`
}

type MessageResponse struct {
	Message string `json:"message" example:"No result received yet."`
}

type ReceiptResponse struct {
	Status string `json:"status" example:"received"`
}

type LastResultResponse struct {
	LastResult json.RawMessage `json:"last_result" swaggertype:"object"`
	ReceivedAt string          `json:"received_at" example:"2024-01-15T14:30:00Z"`
}
