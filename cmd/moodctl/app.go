package main

import (
	"fmt"
	"log/slog"

	"github.com/eleven-am/moodlens/internal/analysis"
	"github.com/eleven-am/moodlens/internal/capture"
	"github.com/eleven-am/moodlens/internal/events"
	"github.com/eleven-am/moodlens/internal/mood"
	"github.com/eleven-am/moodlens/internal/result"
	"github.com/eleven-am/moodlens/internal/vision"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type app struct {
	service *analysis.Service
	logger  *slog.Logger
	close   func()
}

// newApp builds an analysis service from the resolved flags. Storage and
// upload are optional.
func newApp(v *viper.Viper, cfg analysis.Config) (*app, error) {
	log := newLogger(v)
	client := vision.NewClient(vision.Config{
		SidecarURL: v.GetString("sidecar-url"),
		Timeout:    v.GetDuration("sidecar-timeout"),
	})
	analyzer := capture.NewAnalyzer(client, client, mood.DefaultCategories, log)

	cfg.BufferSize = v.GetInt("buffer-size")
	cfg.BurstSize = v.GetInt("burst-size")
	cfg.BurstDelay = v.GetDuration("burst-delay")

	closeFn := func() {}
	var results analysis.ResultSaver
	if dsn := v.GetString("dsn"); dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		store := result.NewStore(db, v.GetString("data-dir"), log)
		if err := store.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			closeFn = func() { sqlDB.Close() }
		}
		results = store
	}

	var sink events.Sink
	if url := v.GetString("upload-url"); url != "" {
		sink = events.NewWebhookSink(url, 0)
	}

	return &app{
		service: analysis.NewService(analyzer, mood.DefaultCategories, results, nil, sink, cfg, log),
		logger:  log,
		close:   closeFn,
	}, nil
}
