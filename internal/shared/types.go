package shared

import (
	"github.com/google/uuid"
)

// NewID returns a prefixed, time-ordered identifier.
func NewID(prefix string) string {
	return prefix + NewUUID()
}

// NewUUID returns a UUIDv7 string, falling back to a random v4 if the clock
// source fails.
func NewUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

type SourceType string

const (
	SourceImage  SourceType = "image"
	SourceVideo  SourceType = "video"
	SourceWebcam SourceType = "webcam"
)

func (s SourceType) String() string {
	return string(s)
}

func (s SourceType) Valid() bool {
	switch s {
	case SourceImage, SourceVideo, SourceWebcam:
		return true
	}
	return false
}
