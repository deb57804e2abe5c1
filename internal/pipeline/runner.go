// Package pipeline runs batches: for each input it plans an output path,
// resolves the encoding rate and hands the file to the compositor, reporting
// progress as it goes. It also previews plans and output sizes without
// writing anything.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"

	"mp3space/internal/encoder"
	"mp3space/internal/failure"
	"mp3space/internal/model"
	"mp3space/internal/naming"
	"mp3space/internal/probe"
	"mp3space/internal/progress"
	"mp3space/internal/util"
	"mp3space/internal/util/bitrate"
)

var (
	// ErrBusy is returned when a batch is already in flight on the Runner.
	ErrBusy = errors.New("a batch is already running")
	// ErrNoInputs is returned for an empty input list.
	ErrNoInputs = errors.New("no input files")
)

// Prober reads media information. probe.Prober satisfies it.
type Prober interface {
	Probe(ctx context.Context, path string) (model.MediaInfo, error)
}

// Compositor produces one output file. encoder.Compositor satisfies it.
type Compositor interface {
	Process(ctx context.Context, job encoder.Job) error
}

// Runner executes batches one at a time.
type Runner struct {
	prober           Prober
	compositor       Compositor
	planner          *naming.Planner
	log              *zap.Logger
	encodingProgress bool

	busy atomic.Bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithProber sets the metadata prober.
func WithProber(p Prober) Option {
	return func(r *Runner) {
		r.prober = p
	}
}

// WithCompositor sets the ffmpeg compositor.
func WithCompositor(c Compositor) Option {
	return func(r *Runner) {
		r.compositor = c
	}
}

// WithPlanner sets the output path planner.
func WithPlanner(p *naming.Planner) Option {
	return func(r *Runner) {
		r.planner = p
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// WithEncodingProgress forwards ffmpeg progress as stage events. Files are
// probed for their duration so ticks carry a percentage.
func WithEncodingProgress(on bool) Option {
	return func(r *Runner) {
		r.encodingProgress = on
	}
}

// NewRunner constructs a Runner. Missing components default to the real
// ffprobe/ffmpeg found on PATH.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.prober == nil {
		r.prober = probe.New("", nil)
	}
	if r.compositor == nil {
		r.compositor = &encoder.Compositor{Logger: r.log}
	}
	if r.planner == nil {
		r.planner = naming.New(naming.WithTagReader(r.prober), naming.WithLogger(r.log))
	}
	return r
}

// Busy reports whether a batch is in flight.
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Run processes inputs in order on the calling goroutine and reports every
// event to rep, which may be nil. File-level failures are counted in the
// outcome; the returned error is non-nil only for rejected runs (ErrBusy,
// ErrNoInputs, invalid config) and failure.CodeUnexpected aborts.
func (r *Runner) Run(ctx context.Context, inputs []string, cfg model.ProcessingConfig, rep progress.Reporter) (model.BatchOutcome, error) {
	if err := r.acquire(inputs, cfg); err != nil {
		return model.BatchOutcome{}, err
	}
	defer r.busy.Store(false)
	return r.run(ctx, append([]string(nil), inputs...), cfg, rep)
}

// Start runs the batch on its own goroutine and returns the queue its events
// arrive on. The queue is closed after the terminal event.
func (r *Runner) Start(ctx context.Context, inputs []string, cfg model.ProcessingConfig) (*progress.Queue, error) {
	if err := r.acquire(inputs, cfg); err != nil {
		return nil, err
	}
	items := append([]string(nil), inputs...)
	q := progress.NewQueue()
	go func() {
		defer r.busy.Store(false)
		defer q.Close()
		_, _ = r.run(ctx, items, cfg, q)
	}()
	return q, nil
}

// acquire validates the request and marks the runner busy. On error nothing
// has changed.
func (r *Runner) acquire(inputs []string, cfg model.ProcessingConfig) error {
	if len(inputs) == 0 {
		return ErrNoInputs
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !r.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (r *Runner) run(ctx context.Context, inputs []string, cfg model.ProcessingConfig, rep progress.Reporter) (out model.BatchOutcome, err error) {
	if rep == nil {
		rep = progress.Discard
	}
	total := len(inputs)
	log := r.log.With(zap.Int("total", total))
	log.Info("batch started", zap.String("bitrate", bitrate.FormatSelector(cfg.Bitrate)))

	defer func() {
		if p := recover(); p != nil {
			err = failure.Unexpected("batch aborted", fmt.Errorf("panic: %v", p))
			log.Error("batch aborted", zap.Any("panic", p), zap.Stack("stack"))
		}
		rep.Report(terminalEvent(out, err, total))
		log.Info("batch finished", zap.Int("succeeded", out.Succeeded), zap.Int("failed", out.Failed), zap.Error(err))
	}()

	batch := r.planner.Begin(inputs, cfg)
	for i, input := range inputs {
		if cerr := ctx.Err(); cerr != nil {
			return out, failure.Unexpected("batch interrupted", cerr)
		}

		item := model.BatchItem{Input: input, Index: i}
		ferr := r.processOne(ctx, batch, &item, cfg, total, rep)

		ev := progress.Event{
			Kind:   progress.KindFile,
			Index:  i,
			Total:  total,
			Input:  input,
			Output: item.Output,
		}
		if ferr != nil {
			out.Failed++
			out.Failures = append(out.Failures, model.ItemFailure{Input: input, Reason: ferr.Error()})
			ev.Stage = progress.StageError
			ev.Percent = -1
			ev.Err = ferr
			ev.Message = fmt.Sprintf("Failed: %s", filepath.Base(input))
			log.Warn("file failed", zap.String("input", input), zap.Error(ferr))
		} else {
			out.Succeeded++
			ev.Stage = progress.StageCompleted
			ev.Percent = 100
			ev.Message = fmt.Sprintf("Saved: %s", filepath.Base(item.Output))
			log.Debug("file done", zap.String("input", input), zap.String("output", item.Output))
		}
		rep.Report(ev)
	}
	return out, nil
}

func (r *Runner) processOne(ctx context.Context, batch *naming.Batch, item *model.BatchItem, cfg model.ProcessingConfig, total int, rep progress.Reporter) error {
	name := filepath.Base(item.Input)
	stage := func(s progress.Stage, msg string) {
		rep.Report(progress.Event{
			Kind:    progress.KindStage,
			Index:   item.Index,
			Total:   total,
			Input:   item.Input,
			Output:  item.Output,
			Stage:   s,
			Percent: -1,
			Message: msg,
		})
	}

	stage(progress.StageChecking, fmt.Sprintf("Processing %d/%d: %s", item.Index+1, total, name))
	if !util.IsRegular(item.Input) {
		return failure.MissingInput(item.Input)
	}

	stage(progress.StagePlanning, fmt.Sprintf("Planning %s", name))
	item.Output = batch.Plan(ctx, item.Input, item.Index)

	var info *model.MediaInfo
	if cfg.Bitrate.Mode == model.BitrateOriginal || r.encodingProgress {
		stage(progress.StageProbing, fmt.Sprintf("Reading %s", name))
		mi, err := r.prober.Probe(ctx, item.Input)
		if err != nil {
			r.log.Debug("probe failed, using defaults", zap.String("input", item.Input), zap.Error(err))
		} else {
			info = &mi
		}
	}
	spec := bitrate.Resolve(cfg.Bitrate, info)

	job := encoder.Job{
		Input:            item.Input,
		Output:           item.Output,
		Spec:             spec,
		SilenceStart:     cfg.SilenceStart,
		SilenceEnd:       cfg.SilenceEnd,
		PreserveMetadata: cfg.PreserveMetadata,
	}
	if info != nil {
		job.Duration = info.Duration
	}
	if r.encodingProgress {
		job.OnProgress = func(t encoder.Tick) {
			rep.Report(progress.Event{
				Kind:    progress.KindStage,
				Index:   item.Index,
				Total:   total,
				Input:   item.Input,
				Output:  item.Output,
				Stage:   progress.StageEncoding,
				Percent: t.Percent,
				Speed:   t.Speed,
				Message: t.Step,
			})
		}
	}

	stage(progress.StageEncoding, fmt.Sprintf("Encoding %s (%s)", name, spec))
	return r.compositor.Process(ctx, job)
}

func terminalEvent(out model.BatchOutcome, err error, total int) progress.Event {
	ev := progress.Event{
		Index:     -1,
		Total:     total,
		Percent:   -1,
		Succeeded: out.Succeeded,
		Failed:    out.Failed,
	}
	switch {
	case err != nil:
		ev.Kind = progress.KindError
		ev.Stage = progress.StageError
		ev.Err = err
		ev.Message = fmt.Sprintf("Unexpected error: %v", err)
	case out.Succeeded > 0:
		ev.Kind = progress.KindSucceeded
		ev.Stage = progress.StageCompleted
		ev.Percent = 100
		ev.Message = fmt.Sprintf("Processed %d of %d files", out.Succeeded, total)
		if out.Failed > 0 {
			ev.Message += fmt.Sprintf(", %d failed", out.Failed)
		}
	default:
		ev.Kind = progress.KindFailed
		ev.Stage = progress.StageError
		ev.Message = fmt.Sprintf("All %d files failed", total)
	}
	return ev
}
