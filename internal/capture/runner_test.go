package capture

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/eleven-am/moodlens/internal/mood"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type funcAnalyzer func(ctx context.Context, f Frame) (mood.FrameSample, error)

func (fn funcAnalyzer) Analyze(ctx context.Context, f Frame) (mood.FrameSample, error) {
	return fn(ctx, f)
}

type recordingAnalyzer struct {
	mu      sync.Mutex
	indices []int
	fn      func(f Frame) mood.FrameSample
}

func (a *recordingAnalyzer) Analyze(_ context.Context, f Frame) (mood.FrameSample, error) {
	a.mu.Lock()
	a.indices = append(a.indices, f.Index)
	a.mu.Unlock()
	return a.fn(f), nil
}

func (a *recordingAnalyzer) seen() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]int(nil), a.indices...)
}

func grayFrames(n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		out[i] = image.NewGray(image.Rect(0, 0, 32, 32))
	}
	return out
}

func eventSink() (func(Event), <-chan Event) {
	ch := make(chan Event, 128)
	return func(e Event) { ch <- e }, ch
}

func waitFor(t *testing.T, events <-chan Event, kind EventKind) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Kind == kind {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", kind)
			return Event{}
		}
	}
}

func TestRunner_VideoHappyPath(t *testing.T) {
	analyzer := &recordingAnalyzer{fn: func(f Frame) mood.FrameSample {
		return usable(f.Index, mood.Distribution{mood.Happy: 100})
	}}
	source := NewSliceSource(grayFrames(9), time.Second/30)

	runner, err := NewRunner(source, analyzer, RunnerConfig{
		Session: SessionConfig{Kind: Video, SampleRate: 3, InitialMode: Continuous},
		Logger:  discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	seen := analyzer.seen()
	if len(seen) != 3 || seen[0] != 0 || seen[1] != 3 || seen[2] != 6 {
		t.Errorf("expected frames [0 3 6] analyzed, got %v", seen)
	}
	if report.FramesRead != 9 {
		t.Errorf("expected 9 frames read, got %d", report.FramesRead)
	}
	if report.Weighted == nil {
		t.Fatalf("expected weighted summary, got error %v", report.WeightedErr)
	}
	if report.Weighted.Narrative != mood.Dominant {
		t.Errorf("expected dominant, got %s", report.Weighted.Narrative)
	}
	if report.Weighted.Qualifier != "strongly" {
		t.Errorf("expected strongly, got %s", report.Weighted.Qualifier)
	}
	if report.Weighted.Samples != 3 {
		t.Errorf("expected 3 samples, got %d", report.Weighted.Samples)
	}
}

func TestRunner_NoFacesIsInsufficient(t *testing.T) {
	analyzer := funcAnalyzer(func(_ context.Context, f Frame) (mood.FrameSample, error) {
		return mood.FrameSample{Index: f.Index}, ErrNoFaceDetected
	})
	runner, _ := NewRunner(NewSliceSource(grayFrames(6), time.Millisecond), analyzer, RunnerConfig{
		Session: SessionConfig{Kind: Video, SampleRate: 1, InitialMode: Continuous},
		Logger:  discardLogger(),
	})

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Determined() {
		t.Error("expected undetermined report")
	}
	if !errors.Is(report.WeightedErr, mood.ErrNoSamples) {
		t.Errorf("expected ErrNoSamples, got %v", report.WeightedErr)
	}
	if report.Analyzed != 6 {
		t.Errorf("expected 6 analyzed frames, got %d", report.Analyzed)
	}
}

func TestRunner_ManualBurst(t *testing.T) {
	labels := []mood.Category{mood.Happy, mood.Sad, mood.Happy}
	analyzer := &recordingAnalyzer{fn: func(f Frame) mood.FrameSample {
		return usable(f.Index, mood.Distribution{labels[f.Index%len(labels)]: 1})
	}}
	images := make(chan image.Image)
	onEvent, events := eventSink()

	runner, _ := NewRunner(NewChanSource(images), analyzer, RunnerConfig{
		BurstSize: 3,
		OnEvent:   onEvent,
		Logger:    discardLogger(),
	})
	if err := runner.Send(context.Background(), CmdBurst); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	done := make(chan *Report, 1)
	go func() {
		report, err := runner.Run(context.Background())
		if err != nil {
			t.Errorf("Run failed: %v", err)
		}
		done <- report
	}()

	for _, img := range grayFrames(3) {
		images <- img
	}
	burst := waitFor(t, events, EventBurst)
	if burst.Label != mood.Happy {
		t.Errorf("expected burst label happy, got %s", burst.Label)
	}
	close(images)

	report := <-done
	if len(report.Log) != 1 || report.Log[0] != mood.Happy {
		t.Errorf("expected log [happy], got %v", report.Log)
	}
	if report.Discrete == nil || report.Discrete.Narrative != mood.Dominant {
		t.Errorf("expected dominant discrete summary, got %+v", report.Discrete)
	}
}

func TestRunner_FailedBurstReportsError(t *testing.T) {
	analyzer := funcAnalyzer(func(_ context.Context, f Frame) (mood.FrameSample, error) {
		return mood.FrameSample{Index: f.Index}, ErrNoFaceDetected
	})
	images := make(chan image.Image)
	onEvent, events := eventSink()

	runner, _ := NewRunner(NewChanSource(images), analyzer, RunnerConfig{
		BurstSize: 2,
		OnEvent:   onEvent,
		Logger:    discardLogger(),
	})
	runner.Send(context.Background(), CmdBurst)

	done := make(chan *Report, 1)
	go func() {
		report, _ := runner.Run(context.Background())
		done <- report
	}()

	for _, img := range grayFrames(2) {
		images <- img
	}
	burst := waitFor(t, events, EventBurst)
	if burst.Error == "" || burst.Label != "" {
		t.Errorf("expected failed burst event, got %+v", burst)
	}
	close(images)

	report := <-done
	if len(report.Log) != 0 {
		t.Errorf("expected empty log, got %v", report.Log)
	}
	if !errors.Is(report.DiscreteErr, mood.ErrInsufficientData) {
		t.Errorf("expected insufficient discrete summary, got %v", report.DiscreteErr)
	}
}

func TestRunner_BurstSpacing(t *testing.T) {
	analyzer := &recordingAnalyzer{fn: func(f Frame) mood.FrameSample {
		return usable(f.Index, mood.Distribution{mood.Neutral: 1})
	}}
	// 10 fps with a 250ms delay takes every third frame.
	runner, _ := NewRunner(NewSliceSource(grayFrames(12), 100*time.Millisecond), analyzer, RunnerConfig{
		BurstSize:  3,
		BurstDelay: 250 * time.Millisecond,
		Logger:     discardLogger(),
	})
	runner.Send(context.Background(), CmdBurst)

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	seen := analyzer.seen()
	if len(seen) != 3 || seen[0] != 0 || seen[1] != 3 || seen[2] != 6 {
		t.Errorf("expected burst frames [0 3 6], got %v", seen)
	}
	if len(report.Log) != 1 {
		t.Errorf("expected one burst in log, got %v", report.Log)
	}
}

func TestRunner_SnapshotAndQueuedBursts(t *testing.T) {
	analyzer := &recordingAnalyzer{fn: func(f Frame) mood.FrameSample {
		return usable(f.Index, mood.Distribution{mood.Surprised: 1})
	}}
	images := make(chan image.Image)
	onEvent, events := eventSink()

	runner, _ := NewRunner(NewChanSource(images), analyzer, RunnerConfig{
		BurstSize: 2,
		OnEvent:   onEvent,
		Logger:    discardLogger(),
	})
	runner.Send(context.Background(), CmdSnapshot)
	runner.Send(context.Background(), CmdBurst)

	done := make(chan *Report, 1)
	go func() {
		report, _ := runner.Run(context.Background())
		done <- report
	}()

	frames := grayFrames(3)
	images <- frames[0]
	waitFor(t, events, EventBurst)
	images <- frames[1]
	images <- frames[2]
	waitFor(t, events, EventBurst)
	close(images)

	report := <-done
	if got := len(analyzer.seen()); got != 3 {
		t.Errorf("expected 1+2 analyzed frames, got %d", got)
	}
	if len(report.Log) != 2 {
		t.Errorf("expected two log entries, got %v", report.Log)
	}
}

func TestRunner_ToggleContinuousWebcam(t *testing.T) {
	analyzer := &recordingAnalyzer{fn: func(f Frame) mood.FrameSample {
		return usable(f.Index, mood.Distribution{mood.Happy: 0.8, mood.Neutral: 0.2})
	}}
	images := make(chan image.Image)
	onEvent, events := eventSink()

	runner, _ := NewRunner(NewChanSource(images), analyzer, RunnerConfig{
		Session: SessionConfig{Kind: Webcam, BufferSize: 3},
		OnEvent: onEvent,
		Logger:  discardLogger(),
	})
	runner.Send(context.Background(), CmdToggle)

	done := make(chan *Report, 1)
	go func() {
		report, _ := runner.Run(context.Background())
		done <- report
	}()

	for _, img := range grayFrames(5) {
		images <- img
	}
	for i := 0; i < 3; i++ {
		waitFor(t, events, EventSample)
	}

	runner.Send(context.Background(), CmdToggle)
	summary := waitFor(t, events, EventSummary)
	if summary.Summary == nil || summary.Summary.Primary != mood.Happy {
		t.Fatalf("expected happy continuous summary, got %+v", summary.Summary)
	}
	if summary.Summary.Samples != 3 {
		t.Errorf("expected 3 samples in window, got %d", summary.Summary.Samples)
	}
	close(images)

	report := <-done
	if len(report.Continuous) != 1 {
		t.Errorf("expected one finalized window, got %d", len(report.Continuous))
	}
	if report.Weighted != nil {
		t.Error("expected no weighted summary after leaving continuous mode")
	}
	if seen := analyzer.seen(); len(seen) != 3 || seen[0] != 1 {
		t.Errorf("expected midpoints [1 2 3], got %v", seen)
	}
}

func TestRunner_QuitDiscardsInFlight(t *testing.T) {
	started := make(chan struct{}, 1)
	analyzer := funcAnalyzer(func(ctx context.Context, f Frame) (mood.FrameSample, error) {
		started <- struct{}{}
		<-ctx.Done()
		return mood.FrameSample{Index: f.Index}, ctx.Err()
	})
	images := make(chan image.Image, 1)
	runner, _ := NewRunner(NewChanSource(images), analyzer, RunnerConfig{
		Session: SessionConfig{Kind: Video, SampleRate: 1, InitialMode: Continuous},
		Logger:  discardLogger(),
	})

	done := make(chan *Report, 1)
	go func() {
		report, err := runner.Run(context.Background())
		if err != nil {
			t.Errorf("Run failed: %v", err)
		}
		done <- report
	}()

	images <- image.NewGray(image.Rect(0, 0, 4, 4))
	<-started
	runner.Send(context.Background(), CmdQuit)

	select {
	case report := <-done:
		if report.Weighted != nil || report.Analyzed != 0 {
			t.Errorf("expected in-flight analysis to be discarded, got %+v", report)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after quit")
	}
}

func TestRunner_ContextCancelStops(t *testing.T) {
	images := make(chan image.Image)
	runner, _ := NewRunner(NewChanSource(images), &recordingAnalyzer{fn: func(f Frame) mood.FrameSample {
		return mood.FrameSample{Index: f.Index}
	}}, RunnerConfig{Logger: discardLogger()})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report == nil {
		t.Fatal("expected a report")
	}
}

func TestRunner_ContextCancelDiscardsInFlight(t *testing.T) {
	// The source closes on cancellation, so end of stream and ctx.Done are
	// ready together; either way the late sample must not be folded in.
	for i := 0; i < 10; i++ {
		started := make(chan struct{}, 1)
		analyzer := funcAnalyzer(func(ctx context.Context, f Frame) (mood.FrameSample, error) {
			started <- struct{}{}
			<-ctx.Done()
			time.Sleep(20 * time.Millisecond)
			return mood.FrameSample{
				Index:        f.Index,
				HasFace:      true,
				Distribution: mood.Distribution{"happy": 90},
			}, nil
		})
		images := make(chan image.Image, 1)
		runner, _ := NewRunner(NewChanSource(images), analyzer, RunnerConfig{
			Session: SessionConfig{Kind: Video, SampleRate: 1, InitialMode: Continuous},
			Logger:  discardLogger(),
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan *Report, 1)
		go func() {
			report, err := runner.Run(ctx)
			if err != nil {
				t.Errorf("Run failed: %v", err)
			}
			done <- report
		}()

		images <- image.NewGray(image.Rect(0, 0, 4, 4))
		<-started
		cancel()

		select {
		case report := <-done:
			if report.Analyzed != 0 || report.Weighted != nil {
				t.Fatalf("run %d: expected in-flight analysis to be discarded, got %+v", i, report)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("runner did not stop after cancel")
		}
	}
}

type failingSource struct {
	frames int
	err    error
	next   int
}

func (s *failingSource) Next(ctx context.Context) (Frame, error) {
	if s.next >= s.frames {
		return Frame{}, s.err
	}
	s.next++
	return frameAt(s.next - 1), nil
}

func (s *failingSource) Close() error { return nil }

func TestRunner_CaptureFailure(t *testing.T) {
	source := &failingSource{frames: 3, err: errors.New("camera unplugged")}
	analyzer := &recordingAnalyzer{fn: func(f Frame) mood.FrameSample {
		return usable(f.Index, mood.Distribution{mood.Fearful: 1})
	}}
	runner, _ := NewRunner(source, analyzer, RunnerConfig{
		Session: SessionConfig{Kind: Video, SampleRate: 1, InitialMode: Continuous},
		Logger:  discardLogger(),
	})

	report, err := runner.Run(context.Background())
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("expected ErrCaptureFailed, got %v", err)
	}
	if report == nil || report.Weighted == nil {
		t.Fatal("expected partial report with the frames read before the failure")
	}
	if report.Weighted.Primary != mood.Fearful {
		t.Errorf("expected fearful, got %s", report.Weighted.Primary)
	}
}

func TestRunner_LiveSourceDropsWhenBusy(t *testing.T) {
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	analyzer := funcAnalyzer(func(ctx context.Context, f Frame) (mood.FrameSample, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			<-release
		}
		return usable(f.Index, mood.Distribution{mood.Happy: 1}), nil
	})

	images := make(chan image.Image)
	runner, _ := NewRunner(NewChanSource(images), analyzer, RunnerConfig{
		Session:   SessionConfig{Kind: Video, SampleRate: 1, InitialMode: Continuous},
		Live:      true,
		QueueSize: 1,
		Logger:    discardLogger(),
	})

	done := make(chan *Report, 1)
	go func() {
		report, _ := runner.Run(context.Background())
		done <- report
	}()

	for _, img := range grayFrames(8) {
		images <- img
	}
	close(release)
	close(images)

	report := <-done
	if report.FramesDropped == 0 {
		t.Error("expected frames to be dropped while analysis was blocked")
	}
	if report.FramesRead != 8 {
		t.Errorf("expected 8 frames read, got %d", report.FramesRead)
	}
}
