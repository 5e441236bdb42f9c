package result

import (
	"encoding/json"
	"image"
	"time"

	"github.com/eleven-am/moodlens/internal/dto"
	"github.com/eleven-am/moodlens/internal/shared"
	"gorm.io/datatypes"
)

// Result is one persisted analysis. Rows are never updated after insert.
type Result struct {
	ID         string            `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"timestamp"`
	SourceType shared.SourceType `gorm:"size:16;not null;index" json:"source_type"`
	SourceName *string           `gorm:"size:512" json:"source_name"`
	Summary    string            `gorm:"type:text;not null" json:"summary"`
	Results    datatypes.JSON    `gorm:"not null" json:"results"`
	Thumbnail  *string           `gorm:"size:255" json:"thumbnail"`
}

func (Result) TableName() string {
	return "results"
}

func (r *Result) Meta() dto.ResultMeta {
	return dto.ResultMeta{
		ID:         r.ID,
		Timestamp:  r.CreatedAt.UTC().Format(time.RFC3339),
		SourceType: r.SourceType.String(),
		SourceName: r.SourceName,
		Summary:    r.Summary,
		Thumbnail:  r.Thumbnail,
	}
}

func (r *Result) ToResponse() dto.ResultResponse {
	return dto.ResultResponse{
		ResultMeta: r.Meta(),
		Results:    json.RawMessage(r.Results),
	}
}

// New describes a result to be saved. Payload is marshalled to JSON as-is.
type New struct {
	SourceType shared.SourceType
	SourceName string
	Summary    string
	Payload    any
	Thumbnail  image.Image
}
