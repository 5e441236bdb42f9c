package bootstrap

import (
	"log/slog"
	"os"

	"github.com/eleven-am/moodlens/internal/analysis"
	"github.com/eleven-am/moodlens/internal/capture"
	"github.com/eleven-am/moodlens/internal/events"
	"github.com/eleven-am/moodlens/internal/livesession"
	"github.com/eleven-am/moodlens/internal/mood"
	"github.com/eleven-am/moodlens/internal/receiver"
	"github.com/eleven-am/moodlens/internal/result"
	"github.com/eleven-am/moodlens/internal/vision"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"
)

type HandlerParams struct {
	fx.In

	ResultHandler      *result.Handler
	ReceiverHandler    *receiver.Handler
	LiveSessionHandler *livesession.Handler
	AnalysisHandler    *analysis.Handler
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	root := e.Group("")
	params.ResultHandler.RegisterRoutes(root)
	params.ReceiverHandler.RegisterRoutes(root)
	params.LiveSessionHandler.RegisterRoutes(e.Group("/sessions"))
	params.AnalysisHandler.RegisterRoutes(e.Group("/analyze"))

	e.GET("/swagger/*", echoSwagger.EchoWrapHandlerV3())
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideAnalyzer(client *vision.Client, logger *slog.Logger) capture.FrameAnalyzer {
	return capture.NewAnalyzer(client, client, mood.DefaultCategories, logger)
}

func ProvideAnalysisService(
	analyzer capture.FrameAnalyzer,
	results *result.Store,
	sessions *livesession.Store,
	slot *receiver.Slot,
	publisher events.Publisher,
	cfg *Config,
	logger *slog.Logger,
) *analysis.Service {
	return analysis.NewService(
		analyzer,
		mood.DefaultCategories,
		results,
		sessions,
		events.Fanout{slot, publisher},
		analysis.Config{
			BufferSize:      cfg.BufferSize,
			BurstSize:       cfg.BurstSize,
			BurstDelay:      cfg.BurstDelay,
			VideoSampleRate: cfg.VideoSampleRate,
			VideoFPS:        cfg.VideoFPS,
			WebcamDuration:  cfg.WebcamDuration,
			CameraURL:       cfg.CameraURL,
			Camera: capture.CameraOptions{
				FPS:    cfg.VideoFPS,
				Logger: logger,
			},
		},
		logger,
	)
}

func ProvideResultHandler(store *result.Store, logger *slog.Logger) *result.Handler {
	return result.NewHandler(store, logger.With("handler", "result"))
}

func ProvideReceiverHandler(slot *receiver.Slot, logger *slog.Logger) *receiver.Handler {
	return receiver.NewHandler(slot, logger.With("handler", "receiver"))
}

func ProvideLiveSessionHandler(store *livesession.Store, logger *slog.Logger) *livesession.Handler {
	return livesession.NewHandler(store, logger.With("handler", "livesession"))
}

func ProvideAnalysisHandler(service *analysis.Service, logger *slog.Logger) *analysis.Handler {
	return analysis.NewHandler(service, logger.With("handler", "analysis"))
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideAnalyzer,
		ProvideAnalysisService,
		ProvideResultHandler,
		ProvideReceiverHandler,
		ProvideLiveSessionHandler,
		ProvideAnalysisHandler,
	),
	fx.Invoke(RegisterRoutes),
)
