package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/moodlens/internal/events"
	"github.com/eleven-am/moodlens/internal/vision"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ProvideRedisClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func ProvideDatabase(cfg *Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func ProvideVisionClient(cfg *Config) *vision.Client {
	return vision.NewClient(vision.Config{
		SidecarURL: cfg.SidecarURL,
		Timeout:    cfg.SidecarTimeout,
	})
}

// ProvidePublisher connects to NATS when NATS_URL is set. Without it results
// are only delivered in-process.
func ProvidePublisher(lc fx.Lifecycle, cfg *Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		logger.Info("NATS_URL not set, result events stay in-process")
		return events.NopPublisher{}, nil
	}

	pub, err := events.NewNATSPublisher(cfg.NATSURL, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			pub.Close()
			return nil
		},
	})
	return pub, nil
}

var InfrastructureModule = fx.Options(
	fx.Provide(
		ProvideRedisClient,
		ProvideDatabase,
		ProvideVisionClient,
		ProvidePublisher,
	),
)
