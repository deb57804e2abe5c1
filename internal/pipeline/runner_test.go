package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mp3space/internal/encoder"
	"mp3space/internal/failure"
	"mp3space/internal/model"
	"mp3space/internal/naming"
	"mp3space/internal/probe"
	"mp3space/internal/progress"
	"mp3space/internal/util"
)

const (
	ffmpegBin  = "/bin/ffmpeg"
	ffprobeBin = "/bin/ffprobe"
)

type recordingReporter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *recordingReporter) Report(e progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingReporter) ofKind(k progress.Kind) []progress.Event {
	var out []progress.Event
	for _, e := range r.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

type fakeRunner struct {
	mu          sync.Mutex
	ffmpegCalls [][]string
	probeCalls  []string
	bitRate     int64   // reported by ffprobe
	duration    float64 // reported by ffprobe
	failFor     string  // ffmpeg fails when this input is referenced
	block       chan struct{}
}

// Run simulates ffprobe (JSON on stdout) and ffmpeg (writes the output
// positional argument).
func (f *fakeRunner) Run(ctx context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	switch spec.Path {
	case ffprobeBin:
		f.mu.Lock()
		f.probeCalls = append(f.probeCalls, spec.Args[len(spec.Args)-1])
		f.mu.Unlock()
		out := fmt.Sprintf(`{"format":{"duration":"%g","bit_rate":"%d","tags":{"artist":"A","title":"T"}}}`, f.duration, f.bitRate)
		return util.CmdResult{Stdout: []byte(out)}, nil

	case ffmpegBin:
		if f.block != nil {
			<-f.block
		}
		f.mu.Lock()
		f.ffmpegCalls = append(f.ffmpegCalls, append([]string(nil), spec.Args...))
		f.mu.Unlock()
		if f.failFor != "" && contains(spec.Args, f.failFor) {
			return util.CmdResult{Code: 1, Stderr: []byte("Invalid data found when processing input\n")}, errors.New("command failed (exit 1)")
		}
		out := spec.Args[len(spec.Args)-2]
		if err := os.WriteFile(out, []byte("mp3"), 0o644); err != nil {
			return util.CmdResult{}, err
		}
		if spec.StdoutLine != nil {
			spec.StdoutLine("out_time_us=50000000")
			spec.StdoutLine("speed=40x")
			spec.StdoutLine("progress=end")
		}
		return util.CmdResult{}, nil
	}
	return util.CmdResult{}, errors.New("unexpected tool path: " + spec.Path)
}

func contains(ss []string, q string) bool {
	for _, s := range ss {
		if s == q {
			return true
		}
	}
	return false
}

func newTestRunner(t *testing.T, fr *fakeRunner, extra ...Option) *Runner {
	t.Helper()
	pr := probe.New(ffprobeBin, fr)
	opts := []Option{
		WithProber(pr),
		WithCompositor(&encoder.Compositor{FFmpegPath: ffmpegBin, Runner: fr, TempDir: filepath.Join(t.TempDir(), "scratch")}),
		WithPlanner(naming.New(naming.WithTagReader(pr))),
	}
	return NewRunner(append(opts, extra...)...)
}

func writeInputs(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var paths []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("ID3"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func presetConfig(kbps int) model.ProcessingConfig {
	cfg := model.DefaultConfig()
	p, _ := model.PresetForKbps(kbps)
	cfg.Bitrate = model.BitrateSelector{Mode: model.BitratePreset, Preset: p}
	return cfg
}

func TestRun_CounterNamingBatch(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, "one.mp3", "two.mp3", "three.mp3")
	fr := &fakeRunner{}
	rep := &recordingReporter{}

	cfg := presetConfig(128)
	cfg.NamePattern = "{filename}_{counter}"

	out, err := newTestRunner(t, fr).Run(context.Background(), inputs, cfg, rep)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Succeeded != 3 || out.Failed != 0 {
		t.Fatalf("outcome = %+v, want 3/0", out)
	}
	for _, name := range []string{"one_01.mp3", "two_02.mp3", "three_03.mp3"} {
		if !util.IsRegular(filepath.Join(dir, name)) {
			t.Errorf("missing output %s", name)
		}
	}
	if len(fr.ffmpegCalls) != 3 {
		t.Errorf("ffmpeg calls = %d, want 3", len(fr.ffmpegCalls))
	}
	for _, call := range fr.ffmpegCalls {
		if !strings.Contains(strings.Join(call, " "), "-b:a 128k") {
			t.Errorf("call missing 128k: %v", call)
		}
	}
	if len(fr.probeCalls) != 0 {
		t.Errorf("preset mode probed %d files", len(fr.probeCalls))
	}

	files := rep.ofKind(progress.KindFile)
	if len(files) != 3 {
		t.Fatalf("file events = %d, want 3", len(files))
	}
	for i, e := range files {
		if e.Index != i || e.Err != nil || e.Stage != progress.StageCompleted {
			t.Errorf("file event %d = %+v", i, e)
		}
	}
	last := rep.events[len(rep.events)-1]
	if last.Kind != progress.KindSucceeded || last.Succeeded != 3 || last.Failed != 0 {
		t.Errorf("terminal = %+v", last)
	}
	terminals := 0
	for _, e := range rep.events {
		if e.Kind.Terminal() {
			terminals++
		}
	}
	if terminals != 1 {
		t.Errorf("terminal events = %d, want 1", terminals)
	}
}

func TestRun_MissingInput(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, "here.mp3")
	missing := filepath.Join(dir, "gone.mp3")
	inputs = append(inputs, missing)

	fr := &fakeRunner{}
	rep := &recordingReporter{}
	out, err := newTestRunner(t, fr).Run(context.Background(), inputs, presetConfig(192), rep)
	if err != nil {
		t.Fatal(err)
	}
	if out.Succeeded != 1 || out.Failed != 1 {
		t.Fatalf("outcome = %+v, want 1/1", out)
	}
	if len(out.Failures) != 1 || out.Failures[0].Input != missing || !strings.Contains(out.Failures[0].Reason, missing) {
		t.Errorf("failures = %+v", out.Failures)
	}
	for _, call := range fr.ffmpegCalls {
		if contains(call, missing) {
			t.Errorf("tool invoked for missing input: %v", call)
		}
	}
	files := rep.ofKind(progress.KindFile)
	if !failure.Is(files[1].Err, failure.CodeMissingInput) || files[1].Output != "" {
		t.Errorf("missing file event = %+v", files[1])
	}
	if last := rep.events[len(rep.events)-1]; last.Kind != progress.KindSucceeded || last.Failed != 1 {
		t.Errorf("terminal = %+v", last)
	}
}

func TestRun_AllFailed(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, "bad.mp3")
	fr := &fakeRunner{failFor: inputs[0]}
	rep := &recordingReporter{}

	out, err := newTestRunner(t, fr).Run(context.Background(), inputs, presetConfig(128), rep)
	if err != nil {
		t.Fatal(err)
	}
	if out.Succeeded != 0 || out.Failed != 1 {
		t.Fatalf("outcome = %+v", out)
	}
	if !strings.Contains(out.Failures[0].Reason, "Invalid data found") {
		t.Errorf("reason = %q", out.Failures[0].Reason)
	}
	if last := rep.events[len(rep.events)-1]; last.Kind != progress.KindFailed {
		t.Errorf("terminal = %+v", last)
	}
	if util.Exists(filepath.Join(dir, "bad_edited.mp3")) {
		t.Error("partial output left behind")
	}
}

func TestRun_FailureDoesNotStopBatch(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, "a.mp3", "b.mp3", "c.mp3")
	fr := &fakeRunner{failFor: inputs[1]}

	out, err := newTestRunner(t, fr).Run(context.Background(), inputs, presetConfig(128), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Succeeded != 2 || out.Failed != 1 {
		t.Fatalf("outcome = %+v", out)
	}
	if !util.IsRegular(filepath.Join(dir, "c_edited.mp3")) {
		t.Error("file after the failure was not processed")
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestRun_InPlaceOverwrite(t *testing.T) {
	tests := []struct {
		name        string
		fail        bool
		wantContent string
	}{
		{"success replaces input", false, "mp3"},
		{"failure keeps input", true, "ID3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			inputs := writeInputs(t, dir, "song.mp3")
			fr := &fakeRunner{}
			if tt.fail {
				fr.failFor = inputs[0]
			}
			cfg := presetConfig(192)
			cfg.NamePattern = "{filename}"
			cfg.OverwriteExisting = true
			rep := &recordingReporter{}

			out, err := newTestRunner(t, fr).Run(context.Background(), inputs, cfg, rep)
			if err != nil {
				t.Fatal(err)
			}
			if (out.Failed == 1) != tt.fail {
				t.Fatalf("outcome = %+v", out)
			}
			if files := rep.ofKind(progress.KindFile); len(files) != 1 || files[0].Output != inputs[0] {
				t.Fatalf("file events = %+v", files)
			}
			if got := readFile(t, inputs[0]); got != tt.wantContent {
				t.Errorf("input content = %q, want %q", got, tt.wantContent)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("dir entries = %d, want only the input", len(entries))
			}
		})
	}
}

func TestRun_FailureKeepsExistingOutput(t *testing.T) {
	for _, overwrite := range []bool{false, true} {
		t.Run(fmt.Sprintf("overwrite=%v", overwrite), func(t *testing.T) {
			dir := t.TempDir()
			inputs := writeInputs(t, dir, "song.mp3")
			existing := filepath.Join(dir, "song_edited.mp3")
			if err := os.WriteFile(existing, []byte("keep"), 0o644); err != nil {
				t.Fatal(err)
			}
			cfg := presetConfig(128)
			cfg.OverwriteExisting = overwrite
			cfg.SilenceEnd = time.Second

			fr := &fakeRunner{failFor: inputs[0]}
			out, err := newTestRunner(t, fr).Run(context.Background(), inputs, cfg, nil)
			if err != nil {
				t.Fatal(err)
			}
			if out.Failed != 1 {
				t.Fatalf("outcome = %+v", out)
			}
			if got := readFile(t, existing); got != "keep" {
				t.Errorf("existing output = %q, want it untouched", got)
			}
			if got := readFile(t, inputs[0]); got != "ID3" {
				t.Errorf("input = %q, want it untouched", got)
			}
			if util.Exists(filepath.Join(dir, "song_edited_1.mp3")) {
				t.Error("partial output left behind")
			}
		})
	}
}

func TestRun_OriginalBitrateProbes(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, "song.mp3")
	fr := &fakeRunner{bitRate: 192000, duration: 100}

	cfg := model.DefaultConfig()
	cfg.NamePattern = "{filename}_{bitrate}"
	cfg.SilenceStart = 2500 * time.Millisecond

	out, err := newTestRunner(t, fr).Run(context.Background(), inputs, cfg, nil)
	if err != nil || out.Succeeded != 1 {
		t.Fatalf("Run = %+v, %v", out, err)
	}
	if len(fr.ffmpegCalls) != 2 {
		t.Fatalf("ffmpeg calls = %d, want 2", len(fr.ffmpegCalls))
	}
	concat := strings.Join(fr.ffmpegCalls[1], " ")
	if !strings.Contains(concat, "-b:a 192k") {
		t.Errorf("concat missing probed bitrate: %s", concat)
	}
	if !util.IsRegular(filepath.Join(dir, "song_original.mp3")) {
		t.Error("output not named with the original label")
	}
}

func TestRun_Rejections(t *testing.T) {
	r := newTestRunner(t, &fakeRunner{})
	if _, err := r.Run(context.Background(), nil, model.DefaultConfig(), nil); !errors.Is(err, ErrNoInputs) {
		t.Errorf("empty inputs err = %v", err)
	}
	bad := model.DefaultConfig()
	bad.SilenceEnd = -time.Second
	if _, err := r.Run(context.Background(), []string{"x.mp3"}, bad, nil); err == nil {
		t.Error("negative silence accepted")
	}
	if r.Busy() {
		t.Error("rejected run left the runner busy")
	}
}

func TestStart_BusyAndQueue(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, "a.mp3", "b.mp3")
	fr := &fakeRunner{block: make(chan struct{})}
	r := newTestRunner(t, fr)

	q, err := r.Start(context.Background(), inputs, presetConfig(128))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Start(context.Background(), inputs, presetConfig(128)); !errors.Is(err, ErrBusy) {
		t.Fatalf("second Start err = %v, want ErrBusy", err)
	}
	if _, err := r.Run(context.Background(), inputs, presetConfig(128), nil); !errors.Is(err, ErrBusy) {
		t.Fatalf("Run while busy err = %v, want ErrBusy", err)
	}
	close(fr.block)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var events []progress.Event
	for {
		e, err := q.Next(ctx)
		if err != nil {
			break
		}
		events = append(events, e)
	}
	if len(events) == 0 || events[len(events)-1].Kind != progress.KindSucceeded {
		t.Fatalf("events = %+v", events)
	}
	if !q.Done() {
		t.Error("queue not closed after terminal event")
	}
	// busy is released after the queue closes; Run must be accepted again.
	deadline := time.Now().Add(5 * time.Second)
	for r.Busy() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if _, err := r.Run(context.Background(), inputs, presetConfig(128), nil); err != nil {
		t.Fatalf("Run after batch: %v", err)
	}
}

func TestRun_InputSliceCopied(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, "a.mp3")
	fr := &fakeRunner{block: make(chan struct{})}
	r := newTestRunner(t, fr)

	q, err := r.Start(context.Background(), inputs, presetConfig(128))
	if err != nil {
		t.Fatal(err)
	}
	inputs[0] = filepath.Join(dir, "mutated.mp3")
	close(fr.block)

	for {
		e, err := q.Next(context.Background())
		if err != nil {
			break
		}
		if e.Kind == progress.KindFile && e.Err != nil {
			t.Fatalf("caller mutation reached the worker: %+v", e)
		}
	}
}

func TestRun_CancelledContextIsUnexpected(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, "a.mp3")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := &recordingReporter{}
	_, err := newTestRunner(t, &fakeRunner{}).Run(ctx, inputs, presetConfig(128), rep)
	if !failure.Is(err, failure.CodeUnexpected) {
		t.Fatalf("err = %v", err)
	}
	if len(rep.events) != 1 || rep.events[0].Kind != progress.KindError {
		t.Fatalf("events = %+v", rep.events)
	}
}

type panickingCompositor struct{}

func (panickingCompositor) Process(context.Context, encoder.Job) error {
	panic("boom")
}

func TestRun_PanicIsUnexpected(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, "a.mp3", "b.mp3")
	rep := &recordingReporter{}
	r := newTestRunner(t, &fakeRunner{}, WithCompositor(panickingCompositor{}))

	_, err := r.Run(context.Background(), inputs, presetConfig(128), rep)
	if !failure.Is(err, failure.CodeUnexpected) {
		t.Fatalf("err = %v", err)
	}
	last := rep.events[len(rep.events)-1]
	if last.Kind != progress.KindError || !strings.Contains(last.Message, "boom") {
		t.Errorf("terminal = %+v", last)
	}
	if len(rep.ofKind(progress.KindFile)) != 0 {
		t.Error("file event reported for the panicking item")
	}
	if r.Busy() {
		t.Error("runner still busy after panic")
	}
}

func TestRun_EncodingProgress(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, "a.mp3")
	fr := &fakeRunner{bitRate: 128000, duration: 100}
	rep := &recordingReporter{}

	_, err := newTestRunner(t, fr, WithEncodingProgress(true)).Run(context.Background(), inputs, presetConfig(128), rep)
	if err != nil {
		t.Fatal(err)
	}
	var ticks []progress.Event
	for _, e := range rep.ofKind(progress.KindStage) {
		if e.Stage == progress.StageEncoding && e.Percent >= 0 {
			ticks = append(ticks, e)
		}
	}
	if len(ticks) != 1 || ticks[0].Percent != 50 || ticks[0].Speed != "40x" {
		t.Fatalf("ticks = %+v", ticks)
	}
}
