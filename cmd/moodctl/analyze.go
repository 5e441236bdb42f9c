package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/eleven-am/moodlens/internal/analysis"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newImageCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "image <path>",
		Short: "Analyze a still image (JPEG, PNG or WebP)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			defer f.Close()

			img, err := analysis.DecodeImage(f)
			if err != nil {
				return err
			}

			a, err := newApp(v, analysis.Config{})
			if err != nil {
				return err
			}
			defer a.close()

			resp, err := a.service.AnalyzeImage(cmd.Context(), analysis.ImageInput{
				Name:  filepath.Base(args[0]),
				Image: img,
			})
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), v.GetBool("json")).image(resp)
		},
	}
}

func newVideoCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video <path>",
		Short: "Analyze a recorded Motion-JPEG video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open video: %w", err)
			}

			a, err := newApp(v, analysis.Config{})
			if err != nil {
				f.Close()
				return err
			}
			defer a.close()

			resp, err := a.service.AnalyzeVideo(cmd.Context(), analysis.VideoInput{
				Name:       filepath.Base(args[0]),
				Reader:     f,
				SampleRate: v.GetInt("sample-rate"),
			})
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), v.GetBool("json")).video(resp)
		},
	}
	cmd.Flags().Int("sample-rate", 30, "analyze every Nth frame")
	return cmd
}
