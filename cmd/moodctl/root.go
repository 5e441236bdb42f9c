package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "MOODLENS"

func newRootCmd(v *viper.Viper) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "moodctl",
		Short:         "Analyze facial mood in images, videos and webcam sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile, cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./moodctl.yaml if present)")
	flags.String("sidecar-url", "http://localhost:8000", "face detection and classification sidecar")
	flags.Duration("sidecar-timeout", 30*time.Second, "sidecar request timeout")
	flags.String("dsn", "", "postgres DSN; results are saved when set")
	flags.String("data-dir", "./data", "directory for thumbnails")
	flags.String("upload-url", "", "receiver endpoint that each result is posted to")
	flags.Int("buffer-size", 5, "frames in the continuous buffer")
	flags.Int("burst-size", 5, "frames per manual burst")
	flags.Duration("burst-delay", 500*time.Millisecond, "spacing between burst frames")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("json", false, "print raw JSON instead of a summary")

	root.AddCommand(
		newImageCmd(v),
		newVideoCmd(v),
		newWebcamCmd(v),
	)
	return root
}

func initConfig(v *viper.Viper, cfgFile string, cmd *cobra.Command) error {
	godotenv.Load()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("moodctl")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// cmd.Flags() holds the inherited persistent flags once cobra has parsed them
	return v.BindPFlags(cmd.Flags())
}

func newLogger(v *viper.Viper) *slog.Logger {
	var level slog.Level
	switch v.GetString("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
