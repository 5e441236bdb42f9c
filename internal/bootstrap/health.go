package bootstrap

import (
	"github.com/eleven-am/moodlens/internal/events"
	"github.com/eleven-am/moodlens/internal/health"
	"github.com/eleven-am/moodlens/internal/vision"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const version = "1.0.0"

func ProvideHealthHandler(
	db *gorm.DB,
	redis *redis.Client,
	sidecar *vision.Client,
	publisher events.Publisher,
) *health.Handler {
	var broker health.Broker
	if b, ok := publisher.(health.Broker); ok {
		broker = b
	}
	return health.NewHandler(db, redis, sidecar, broker, version)
}

func metricsMiddleware(h *health.Handler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h.IncrementRequests()
			h.IncrementConnections()
			defer h.DecrementConnections()
			return next(c)
		}
	}
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler) {
	e.Use(metricsMiddleware(h))
	h.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
