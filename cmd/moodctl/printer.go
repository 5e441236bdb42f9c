package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/eleven-am/moodlens/internal/capture"
	"github.com/eleven-am/moodlens/internal/dto"
	"github.com/fatih/color"
)

type printer struct {
	w    io.Writer
	json bool
	mu   sync.Mutex

	heading *color.Color
	good    *color.Color
	bad     *color.Color
	dim     *color.Color
}

func newPrinter(w io.Writer, asJSON bool) *printer {
	return &printer{
		w:       w,
		json:    asJSON,
		heading: color.New(color.FgCyan, color.Bold),
		good:    color.New(color.FgGreen),
		bad:     color.New(color.FgRed),
		dim:     color.New(color.Faint),
	}
}

func (p *printer) info(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heading.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) warn(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bad.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) raw(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) summary(title string, s dto.MoodSummary) {
	p.heading.Fprintf(p.w, "%s\n", title)
	if !s.Determined {
		p.bad.Fprintf(p.w, "  Could not determine mood: %s\n", s.Reason)
		return
	}
	p.good.Fprintf(p.w, "  %s\n", s.Summary)
	if s.Commentary != "" {
		fmt.Fprintf(p.w, "  %s\n", s.Commentary)
	}
	for _, score := range s.TopEmotions {
		fmt.Fprintf(p.w, "  %-10s %6.2f%%\n", score.Category, score.Percent)
	}
}

func (p *printer) stored(id, storageErr string) {
	switch {
	case storageErr != "":
		p.bad.Fprintf(p.w, "  %s\n", storageErr)
	case id != "":
		p.dim.Fprintf(p.w, "  saved as %s\n", id)
	}
}

func (p *printer) image(resp *dto.ImageAnalysisResponse) error {
	if p.json {
		return p.raw(resp)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !resp.FaceDetected {
		p.bad.Fprintln(p.w, "No face detected.")
		return nil
	}
	p.summary("Image: "+resp.SourceName, resp.MoodSummary)
	if resp.LowConfidence {
		p.dim.Fprintln(p.w, "  (low confidence)")
	}
	p.stored(resp.ResultID, resp.StorageError)
	return nil
}

func (p *printer) video(resp *dto.VideoAnalysisResponse) error {
	if p.json {
		return p.raw(resp)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	title := fmt.Sprintf("Video: %s (%d frames read, %d analyzed)", resp.SourceName, resp.FramesRead, resp.FramesAnalyzed)
	p.summary(title, resp.MoodSummary)
	p.stored(resp.ResultID, resp.StorageError)
	return nil
}

func (p *printer) webcam(resp *dto.WebcamAnalysisResponse) error {
	if p.json {
		return p.raw(resp)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary("Snapshot bursts", resp.Discrete)
	if n := len(resp.Continuous); n > 0 {
		p.summary("Continuous", resp.Continuous[n-1])
	}
	p.dim.Fprintf(p.w, "  %d frames read, %d analyzed, %d dropped\n", resp.FramesRead, resp.FramesAnalyzed, resp.FramesDropped)
	p.stored(resp.ResultID, resp.StorageError)
	return nil
}

// event prints live progress. It is called from the session loop.
func (p *printer) event(e capture.Event) {
	if p.json {
		p.raw(e)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch e.Kind {
	case capture.EventMode:
		p.heading.Fprintf(p.w, "mode: %s\n", e.Mode)
	case capture.EventBurst:
		if e.Error != "" {
			p.bad.Fprintf(p.w, "snapshot failed: %s\n", e.Error)
			return
		}
		p.good.Fprintf(p.w, "snapshot: %s\n", e.Label)
	case capture.EventSummary:
		if e.Summary != nil {
			p.dim.Fprintf(p.w, "%s\n", e.Summary.Statement)
		}
	case capture.EventError:
		p.bad.Fprintf(p.w, "error: %s\n", e.Error)
	}
}
