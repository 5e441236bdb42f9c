package dto

import "github.com/eleven-am/moodlens/internal/mood"

// MoodSummary is the API rendering of a summary. When Determined is false
// only Reason is set.
type MoodSummary struct {
	Determined  bool               `json:"determined" example:"true"`
	Reason      string             `json:"reason,omitempty" example:"insufficient data: no samples contributed"`
	Summary     string             `json:"summary,omitempty" example:"You seem strongly happy (91.2%)."`
	Mood        string             `json:"mood,omitempty" example:"happy"`
	Narrative   string             `json:"narrative,omitempty" example:"dominant"`
	Qualifier   string             `json:"qualifier,omitempty" example:"strongly"`
	Commentary  string             `json:"commentary,omitempty" example:"It's great to see you in good spirits!"`
	TopEmotions []mood.Score       `json:"top_emotions,omitempty" swaggertype:"array,object"`
	AllEmotions map[string]float64 `json:"all_emotions,omitempty"`
	Samples     int                `json:"samples,omitempty" example:"12"`
}

type ImageAnalysisResponse struct {
	ResultID      string `json:"result_id,omitempty" example:"0192f0c4-8a4e-7c1a-9e53-5b8f3c2d1a00"`
	StorageError  string `json:"storage_error,omitempty"`
	SourceName    string `json:"source_name,omitempty" example:"selfie.jpg"`
	FaceDetected  bool   `json:"face_detected" example:"true"`
	LowConfidence bool   `json:"low_confidence" example:"false"`
	MoodSummary
}

type VideoAnalysisResponse struct {
	ResultID       string             `json:"result_id,omitempty"`
	StorageError   string             `json:"storage_error,omitempty"`
	SourceName     string             `json:"source_name,omitempty" example:"clip.mjpeg"`
	SampleRate     int                `json:"sample_rate" example:"3"`
	FramesRead     int                `json:"frames_read" example:"90"`
	FramesAnalyzed int                `json:"frames_analyzed" example:"30"`
	EmotionScores  map[string]float64 `json:"emotion_scores,omitempty"`
	MoodSummary
}

type WebcamAnalysisRequest struct {
	Mode       string `json:"mode" example:"manual" enums:"manual,continuous"`
	DurationMs int    `json:"duration_ms" example:"10000"`
	Bursts     int    `json:"bursts" example:"3"`
}

type WebcamAnalysisResponse struct {
	ResultID         string             `json:"result_id,omitempty"`
	StorageError     string             `json:"storage_error,omitempty"`
	Discrete         MoodSummary        `json:"discrete_emotions"`
	Continuous       []MoodSummary      `json:"continuous_emotions"`
	ContinuousScores map[string]float64 `json:"continuous_emotion_scores,omitempty"`
	RawEmotionLog    []string           `json:"raw_emotion_log"`
	FramesRead       int                `json:"frames_read" example:"300"`
	FramesAnalyzed   int                `json:"frames_analyzed" example:"42"`
	FramesDropped    int                `json:"frames_dropped" example:"3"`
}

// LiveCommand is sent by websocket clients during a live webcam session.
type LiveCommand struct {
	Command string `json:"command" example:"burst" enums:"burst,snapshot,toggle,quit"`
}

// LiveResultMessage is the last message of a live webcam session.
type LiveResultMessage struct {
	Type      string                  `json:"type" example:"result"`
	SessionID string                  `json:"session_id,omitempty"`
	Result    *WebcamAnalysisResponse `json:"result,omitempty"`
	Error     string                  `json:"error,omitempty"`
}
