package livesession

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/eleven-am/moodlens/internal/shared"
	"github.com/redis/go-redis/v9"
)

const sessionTTL = 24 * time.Hour

type Store struct {
	redis *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = shared.NewID("ses_")
	}
	now := time.Now().UTC()
	sess.Status = StatusActive
	sess.StartedAt = now
	sess.LastActiveAt = now
	return s.put(ctx, sess)
}

func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SetMode records a mode transition.
func (s *Store) SetMode(ctx context.Context, id, mode string) error {
	return s.update(ctx, id, func(sess *Session) {
		sess.Mode = mode
	})
}

// AppendLabel adds a per-frame or per-burst label to the session log.
func (s *Store) AppendLabel(ctx context.Context, id, label string) error {
	return s.update(ctx, id, func(sess *Session) {
		sess.Labels = append(sess.Labels, label)
	})
}

func (s *Store) End(ctx context.Context, id string, status Status, resultID string) error {
	return s.update(ctx, id, func(sess *Session) {
		sess.Status = status
		sess.ResultID = resultID
	})
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.redis.Del(ctx, keyPrefix+id).Err()
}

// List returns every known session, most recently started first.
func (s *Store) List(ctx context.Context) ([]*Session, error) {
	keys, err := s.redis.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(keys))
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		sessions = append(sessions, &sess)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].ID > sessions[j].ID
		}
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
	return sessions, nil
}

func (s *Store) update(ctx context.Context, id string, fn func(*Session)) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	fn(sess)
	sess.LastActiveAt = time.Now().UTC()
	return s.put(ctx, sess)
}

func (s *Store) put(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sess.RedisKey(), data, sessionTTL).Err()
}
