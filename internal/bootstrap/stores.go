package bootstrap

import (
	"log/slog"

	"github.com/eleven-am/moodlens/internal/livesession"
	"github.com/eleven-am/moodlens/internal/receiver"
	"github.com/eleven-am/moodlens/internal/result"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideResultStore(db *gorm.DB, cfg *Config, logger *slog.Logger) *result.Store {
	return result.NewStore(db, cfg.DataDir, logger)
}

func ProvideLiveSessionStore(redisClient *redis.Client) *livesession.Store {
	return livesession.NewStore(redisClient)
}

func ProvideReceiverSlot() *receiver.Slot {
	return receiver.NewSlot()
}

func RunMigrations(resultStore *result.Store) error {
	return resultStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideResultStore,
		ProvideLiveSessionStore,
		ProvideReceiverSlot,
	),
	fx.Invoke(RunMigrations),
)
