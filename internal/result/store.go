package result

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eleven-am/moodlens/internal/shared"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

const listCacheKey = "results:list"

type Store struct {
	db      *gorm.DB
	dataDir string
	cache   *cache.Cache
	logger  *slog.Logger

	// serializes writes; reads go straight to the database
	mu sync.Mutex
	// bumped under mu by every write; List only caches what it read within
	// one generation
	gen atomic.Uint64
}

func NewStore(db *gorm.DB, dataDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:      db,
		dataDir: dataDir,
		cache:   cache.New(5*time.Minute, 10*time.Minute),
		logger:  logger.With("component", "result-store"),
	}
}

func (s *Store) Migrate() error {
	if err := os.MkdirAll(filepath.Join(s.dataDir, thumbnailDir), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return s.db.AutoMigrate(&Result{})
}

// Save persists a result and its optional thumbnail. Every failure wraps
// shared.ErrStorageWrite.
func (s *Store) Save(ctx context.Context, in New) (*Result, error) {
	if !in.SourceType.Valid() {
		return nil, fmt.Errorf("%w: invalid source type %q", shared.ErrStorageWrite, in.SourceType)
	}
	payload, err := json.Marshal(in.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal results: %v", shared.ErrStorageWrite, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &Result{
		ID:         shared.NewUUID(),
		CreatedAt:  time.Now().UTC(),
		SourceType: in.SourceType,
		Summary:    in.Summary,
		Results:    payload,
	}
	if in.SourceName != "" {
		name := in.SourceName
		rec.SourceName = &name
	}

	if in.Thumbnail != nil {
		rel, err := writeThumbnail(s.dataDir, rec.ID, in.Thumbnail)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrStorageWrite, err)
		}
		rec.Thumbnail = &rel
	}

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if rec.Thumbnail != nil {
			os.Remove(filepath.Join(s.dataDir, *rec.Thumbnail))
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrStorageWrite, err)
	}

	s.gen.Add(1)
	s.cache.Delete(listCacheKey)
	s.logger.Debug("result saved", "id", rec.ID, "source_type", rec.SourceType)
	return rec, nil
}

// Get looks up a result by full id, then by unique id prefix.
func (s *Store) Get(ctx context.Context, id string) (*Result, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `%_\`) {
		return nil, shared.ErrNotFound
	}

	var rec Result
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var matches []Result
	if err := s.db.WithContext(ctx).
		Where("id LIKE ?", id+"%").
		Order("created_at DESC").
		Limit(2).
		Find(&matches).Error; err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, shared.ErrNotFound
	case 1:
		return &matches[0], nil
	default:
		return nil, shared.ErrConflict
	}
}

// List returns result metadata, newest first, without the results payload.
func (s *Store) List(ctx context.Context) ([]Result, error) {
	if cached, ok := s.cache.Get(listCacheKey); ok {
		return append([]Result(nil), cached.([]Result)...), nil
	}

	gen := s.gen.Load()
	var recs []Result
	err := s.db.WithContext(ctx).
		Select("id", "created_at", "source_type", "source_name", "summary", "thumbnail").
		Order("created_at DESC, id DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.gen.Load() == gen {
		s.cache.Set(listCacheKey, recs, cache.DefaultExpiration)
	}
	s.mu.Unlock()
	return append([]Result(nil), recs...), nil
}

// ThumbnailPath resolves a thumbnail file name to its absolute path. Only
// bare file names are accepted.
func (s *Store) ThumbnailPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsRune(name, '\\') {
		return "", shared.ErrNotFound
	}
	path := filepath.Join(s.dataDir, thumbnailDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", shared.ErrNotFound
	}
	return path, nil
}
