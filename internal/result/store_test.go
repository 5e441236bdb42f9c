package result

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/eleven-am/moodlens/internal/shared"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	return db
}

func setupTestStore(t *testing.T) *Store {
	store := NewStore(setupTestDB(t), t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := store.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return store
}

func TestStore_Migrate(t *testing.T) {
	store := setupTestStore(t)
	if !store.db.Migrator().HasTable(&Result{}) {
		t.Error("expected results table to exist")
	}
	if _, err := os.Stat(filepath.Join(store.dataDir, thumbnailDir)); err != nil {
		t.Errorf("expected thumbnail dir: %v", err)
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec, err := store.Save(ctx, New{
		SourceType: shared.SourceImage,
		SourceName: "selfie.jpg",
		Summary:    "You seem strongly happy (91.0%).",
		Payload:    map[string]any{"mood": "happy"},
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected ID to be set")
	}
	if rec.Thumbnail != nil {
		t.Error("expected no thumbnail")
	}

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Summary != rec.Summary {
		t.Errorf("expected summary %q, got %q", rec.Summary, got.Summary)
	}
	if got.SourceName == nil || *got.SourceName != "selfie.jpg" {
		t.Errorf("expected source name selfie.jpg, got %v", got.SourceName)
	}

	var payload map[string]any
	if err := json.Unmarshal(got.Results, &payload); err != nil {
		t.Fatalf("results not json: %v", err)
	}
	if payload["mood"] != "happy" {
		t.Errorf("expected payload mood happy, got %v", payload["mood"])
	}
}

func TestStore_SaveRejectsBadInput(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, New{SourceType: "audio", Summary: "x"})
	if !errors.Is(err, shared.ErrStorageWrite) {
		t.Errorf("expected ErrStorageWrite for bad source type, got %v", err)
	}

	_, err = store.Save(ctx, New{SourceType: shared.SourceImage, Payload: make(chan int)})
	if !errors.Is(err, shared.ErrStorageWrite) {
		t.Errorf("expected ErrStorageWrite for unmarshalable payload, got %v", err)
	}
}

func TestStore_SaveWritesThumbnail(t *testing.T) {
	store := setupTestStore(t)

	rec, err := store.Save(context.Background(), New{
		SourceType: shared.SourceImage,
		Summary:    "s",
		Payload:    map[string]any{},
		Thumbnail:  image.NewRGBA(image.Rect(0, 0, 640, 480)),
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if rec.Thumbnail == nil {
		t.Fatal("expected thumbnail path")
	}
	if *rec.Thumbnail != "thumbnails/"+rec.ID+".jpg" {
		t.Errorf("unexpected thumbnail path %s", *rec.Thumbnail)
	}

	f, err := os.Open(filepath.Join(store.dataDir, *rec.Thumbnail))
	if err != nil {
		t.Fatalf("open thumbnail: %v", err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("thumbnail is not a jpeg: %v", err)
	}
	if cfg.Width != 300 || cfg.Height != 225 {
		t.Errorf("expected 300x225, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestStore_SaveThumbnailFailure(t *testing.T) {
	store := setupTestStore(t)
	blocker := filepath.Join(t.TempDir(), "file")
	os.WriteFile(blocker, []byte("x"), 0o644)
	store.dataDir = blocker

	_, err := store.Save(context.Background(), New{
		SourceType: shared.SourceImage,
		Summary:    "s",
		Thumbnail:  image.NewRGBA(image.Rect(0, 0, 10, 10)),
	})
	if !errors.Is(err, shared.ErrStorageWrite) {
		t.Errorf("expected ErrStorageWrite, got %v", err)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	store := setupTestStore(t)
	for _, id := range []string{"", "missing", "%", "0_"} {
		if _, err := store.Get(context.Background(), id); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("Get(%q): expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestStore_GetByPrefix(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"aaaa1111", "aaaa2222", "bbbb3333"} {
		store.db.Create(&Result{ID: id, SourceType: shared.SourceVideo, Summary: id, Results: []byte(`{}`)})
	}

	got, err := store.Get(ctx, "bbbb")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "bbbb3333" {
		t.Errorf("expected bbbb3333, got %s", got.ID)
	}

	if _, err := store.Get(ctx, "aaaa"); !errors.Is(err, shared.ErrConflict) {
		t.Errorf("expected ErrConflict for ambiguous prefix, got %v", err)
	}

	got, err = store.Get(ctx, "aaaa1111")
	if err != nil || got.ID != "aaaa1111" {
		t.Errorf("expected exact match, got %v (%v)", got, err)
	}
}

func TestStore_ListNewestFirstAndInvalidates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	empty, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no results, got %d", len(empty))
	}

	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := store.Save(ctx, New{SourceType: shared.SourceWebcam, Summary: "s", Payload: i})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		ids = append(ids, rec.ID)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected cache invalidated and 3 results, got %d", len(list))
	}
	if list[0].ID != ids[2] || list[2].ID != ids[0] {
		t.Errorf("expected newest first, got %s..%s", list[0].ID, list[2].ID)
	}
	if len(list[0].Results) != 0 {
		t.Error("expected list to omit results payload")
	}
}

func TestStore_ListDoesNotCacheAcrossSave(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	paused := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	err := store.db.Callback().Query().After("gorm:query").Register("test:pause_list", func(*gorm.DB) {
		once.Do(func() {
			close(paused)
			<-release
		})
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	first := make(chan []Result, 1)
	go func() {
		list, err := store.List(ctx)
		if err != nil {
			t.Errorf("List() error = %v", err)
		}
		first <- list
	}()

	<-paused
	rec, err := store.Save(ctx, New{SourceType: shared.SourceImage, Summary: "s", Payload: 1})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	close(release)

	if list := <-first; len(list) != 0 {
		t.Fatalf("expected the paused list to predate the save, got %d results", len(list))
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Errorf("expected list to include %s, got %+v", rec.ID, list)
	}
}

func TestStore_ConcurrentSaves(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Save(ctx, New{SourceType: shared.SourceImage, Summary: "s", Payload: i})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	list, _ := store.List(ctx)
	if len(list) != 20 {
		t.Errorf("expected 20 results, got %d", len(list))
	}
	seen := map[string]bool{}
	for _, r := range list {
		if seen[r.ID] {
			t.Errorf("duplicate id %s", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestStore_ThumbnailPath(t *testing.T) {
	store := setupTestStore(t)
	name := "abc.jpg"
	os.WriteFile(filepath.Join(store.dataDir, thumbnailDir, name), []byte("x"), 0o644)

	path, err := store.ThumbnailPath(name)
	if err != nil {
		t.Fatalf("ThumbnailPath() error = %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(thumbnailDir, name)) {
		t.Errorf("unexpected path %s", path)
	}

	for _, bad := range []string{"", "..", "../secret", "missing.jpg", "a/b.jpg"} {
		if _, err := store.ThumbnailPath(bad); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("ThumbnailPath(%q): expected ErrNotFound, got %v", bad, err)
		}
	}
}

func TestScaleToFit(t *testing.T) {
	tests := []struct {
		w, h   int
		ww, wh int
	}{
		{640, 480, 300, 225},
		{480, 640, 225, 300},
		{200, 100, 200, 100},
		{3000, 5, 300, 1},
	}
	for _, tt := range tests {
		out := scaleToFit(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), thumbnailMaxSide)
		if out.Bounds().Dx() != tt.ww || out.Bounds().Dy() != tt.wh {
			t.Errorf("%dx%d: expected %dx%d, got %v", tt.w, tt.h, tt.ww, tt.wh, out.Bounds())
		}
	}
}
