package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/eleven-am/moodlens/internal/analysis"
	"github.com/eleven-am/moodlens/internal/capture"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newWebcamCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webcam",
		Short: "Run an interactive webcam session",
		Long: `Run an interactive webcam session on a camera URL
(http MJPEG stream, rtp://host:port VP8, or file:// MJPEG replay).

Commands, one per line:
  e  take a snapshot burst
  c  toggle between manual and continuous mode
  q  quit and summarize`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			camera := v.GetString("camera-url")
			if camera == "" {
				return fmt.Errorf("--camera-url is required")
			}
			mode, err := capture.ParseMode(v.GetString("mode"))
			if err != nil {
				return err
			}

			fps := v.GetFloat64("fps")
			a, err := newApp(v, analysis.Config{
				VideoFPS: fps,
				Camera:   capture.CameraOptions{FPS: fps},
			})
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			src, err := capture.OpenCamera(ctx, camera, capture.CameraOptions{FPS: fps, Logger: a.logger})
			if err != nil {
				return err
			}

			out := newPrinter(cmd.OutOrStdout(), v.GetBool("json"))
			live, err := a.service.NewLive(context.Background(), src, analysis.LiveOptions{
				Mode:    mode,
				OnEvent: out.event,
			})
			if err != nil {
				src.Close()
				return err
			}

			out.info("Session started in %s mode. e = snapshot, c = toggle mode, q = quit.", mode)
			go readCommands(ctx, cmd.InOrStdin(), live, out)

			resp, err := live.Run(ctx)
			if err != nil {
				return err
			}
			return out.webcam(resp)
		},
	}

	flags := cmd.Flags()
	flags.String("camera-url", "", "camera URL")
	flags.String("mode", "manual", "initial mode (manual or continuous)")
	flags.Float64("fps", 30, "replay rate for file:// cameras")
	return cmd
}

// readCommands forwards stdin lines to the session until quit or EOF.
func readCommands(ctx context.Context, in io.Reader, live *analysis.Live, out *printer) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, err := capture.ParseCommand(strings.ToLower(line))
		if err != nil {
			out.warn("%v (use e, c or q)", err)
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = live.Send(sendCtx, cmd)
		cancel()
		if err != nil || cmd == capture.CmdQuit {
			return
		}
	}
	// stdin closed: end the session rather than capture forever
	live.Send(ctx, capture.CmdQuit)
}
