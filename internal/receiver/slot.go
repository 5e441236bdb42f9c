package receiver

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/eleven-am/moodlens/internal/events"
)

// Slot holds the most recently received result document.
type Slot struct {
	mu         sync.RWMutex
	data       json.RawMessage
	receivedAt time.Time
}

func NewSlot() *Slot {
	return &Slot{}
}

func (s *Slot) Set(data json.RawMessage) {
	cp := append(json.RawMessage(nil), data...)
	s.mu.Lock()
	s.data = cp
	s.receivedAt = time.Now().UTC()
	s.mu.Unlock()
}

// Last returns the stored document, or false when nothing was received yet.
func (s *Slot) Last() (json.RawMessage, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, time.Time{}, false
	}
	return append(json.RawMessage(nil), s.data...), s.receivedAt, true
}

// Publish stores a locally produced analysis as the last result.
func (s *Slot) Publish(_ context.Context, event events.ResultEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.Set(data)
	return nil
}
