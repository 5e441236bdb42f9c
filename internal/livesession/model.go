package livesession

import (
	"time"

	"github.com/eleven-am/moodlens/internal/dto"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
	StatusError  Status = "error"
)

const keyPrefix = "moodlens:session:"

// Session is the registry entry for a running or recently finished capture
// session.
type Session struct {
	ID           string    `json:"id"`
	SourceType   string    `json:"source_type"`
	Mode         string    `json:"mode"`
	Status       Status    `json:"status"`
	Labels       []string  `json:"labels"`
	ResultID     string    `json:"result_id,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

func (s *Session) RedisKey() string {
	return keyPrefix + s.ID
}

func (s *Session) ToResponse() dto.LiveSessionResponse {
	labels := s.Labels
	if labels == nil {
		labels = []string{}
	}
	return dto.LiveSessionResponse{
		ID:           s.ID,
		SourceType:   s.SourceType,
		Mode:         s.Mode,
		Status:       string(s.Status),
		Labels:       labels,
		StartedAt:    s.StartedAt.UTC().Format(time.RFC3339),
		LastActiveAt: s.LastActiveAt.UTC().Format(time.RFC3339),
		ResultID:     s.ResultID,
	}
}
