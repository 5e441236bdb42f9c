package dto

import "encoding/json"

type ResultMeta struct {
	ID         string  `json:"id" example:"0192f0c4-8a4e-7c1a-9e53-5b8f3c2d1a00"`
	Timestamp  string  `json:"timestamp" example:"2024-01-15T14:30:00Z"`
	SourceType string  `json:"source_type" example:"image"`
	SourceName *string `json:"source_name" example:"selfie.jpg"`
	Summary    string  `json:"summary" example:"You seem strongly happy (91.2%)."`
	Thumbnail  *string `json:"thumbnail" example:"thumbnails/0192f0c4-8a4e-7c1a-9e53-5b8f3c2d1a00.jpg"`
}

type ResultResponse struct {
	ResultMeta
	Results json.RawMessage `json:"results" swaggertype:"object"`
}

type ResultListResponse struct {
	Results []ResultMeta `json:"results"`
}
