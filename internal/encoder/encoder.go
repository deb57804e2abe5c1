// Package encoder drives ffmpeg to produce one output file: a plain
// re-encode, or silence padding at the start and/or end joined to the
// re-encoded source.
package encoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mp3space/internal/failure"
	"mp3space/internal/model"
	"mp3space/internal/util"
	"mp3space/internal/util/media"
)

// Job is one file's compositing request.
type Job struct {
	Input            string
	Output           string
	Spec             model.EncodingSpec
	SilenceStart     time.Duration
	SilenceEnd       time.Duration
	PreserveMetadata bool

	// Duration is the source length in seconds, used only for progress
	// percentages. Zero means unknown.
	Duration float64

	// OnProgress, when set, receives ffmpeg progress for the steps that
	// carry source audio.
	OnProgress func(Tick)
}

// Compositor runs the ffmpeg steps for a Job.
type Compositor struct {
	FFmpegPath string
	Runner     util.CmdRunner
	TempDir    string // parent of per-file scratch dirs; empty = OS temp
	Verbose    bool
	Logger     *zap.Logger
}

// Process writes job.Output. The number of ffmpeg invocations depends on the
// padding: 1 with none, 2 with one side, 4 with both. Intermediate files live
// in a private scratch directory that is removed whatever the outcome. On
// failure a partially written output is removed too. When job.Output already
// exists, including when it is job.Input, ffmpeg writes to a staging file
// next to it that replaces the output only after every step succeeds, so a
// failure leaves the existing file as it was. Errors are
// failure.CodeTranscode.
func (c *Compositor) Process(ctx context.Context, job Job) (err error) {
	if job.Input == "" || job.Output == "" {
		return failure.Transcode("validate", job.Input, errors.New("input and output paths are required"))
	}
	if err := util.EnsureDir(filepath.Dir(job.Output)); err != nil {
		return failure.Transcode("ensure output dir", job.Output, err)
	}

	log := c.logger().With(zap.String("input", job.Input), zap.String("output", job.Output))
	startSec := job.SilenceStart.Seconds()
	endSec := job.SilenceEnd.Seconds()

	// dest is where ffmpeg writes the final result.
	dest := job.Output
	staged := util.Exists(job.Output)
	if staged {
		if dest, err = stagingPath(job.Output); err != nil {
			return failure.Transcode("create staging file", job.Output, err)
		}
		defer func() {
			if err == nil {
				if err = os.Rename(dest, job.Output); err == nil {
					return
				}
				err = failure.Transcode("replace output", job.Output, err)
			}
			if rmErr := util.RemoveIfExists(dest); rmErr != nil {
				log.Warn("staging file not removed", zap.String("path", dest), zap.Error(rmErr))
			}
		}()
	}

	touched := false
	defer func() {
		if err == nil || !touched || staged {
			return
		}
		if rmErr := util.RemoveIfExists(job.Output); rmErr != nil {
			log.Warn("partial output not removed", zap.Error(rmErr))
		}
	}()

	if startSec <= 0 && endSec <= 0 {
		touched = true
		args := BuildTranscodeArgs(job.Input, dest, job.Spec, job.PreserveMetadata, job.OnProgress != nil)
		return c.run(ctx, "transcode", job.Input, args, job.Duration, job.OnProgress)
	}

	sc, err := newScratch(c.TempDir, job.Input)
	if err != nil {
		return failure.Transcode("create scratch dir", job.Input, err)
	}
	defer func() {
		if cerr := sc.Close(); cerr != nil {
			log.Warn("scratch cleanup incomplete", zap.String("dir", sc.dir), zap.Error(cerr))
		}
	}()

	meta := func(i int) int {
		if job.PreserveMetadata {
			return i
		}
		return NoMetadata
	}
	progress := job.OnProgress != nil

	// body is the audio that the end padding is appended to.
	body := job.Input
	bodyLen := job.Duration

	if startSec > 0 {
		clip := sc.path("start_silence.mp3")
		if err := c.run(ctx, "generate start silence", job.Input, BuildSilenceArgs(startSec, clip), 0, nil); err != nil {
			return err
		}
		dst := dest
		if endSec > 0 {
			dst = sc.path("with_start.mp3")
		} else {
			touched = true
		}
		args := BuildConcatArgs(clip, job.Input, dst, job.Spec, meta(1), progress)
		if job.Duration > 0 {
			bodyLen = job.Duration + startSec
		}
		if err := c.run(ctx, "concat start silence", job.Input, args, bodyLen, job.OnProgress); err != nil {
			return err
		}
		body = dst
	}

	if endSec > 0 {
		clip := sc.path("end_silence.mp3")
		if err := c.run(ctx, "generate end silence", job.Input, BuildSilenceArgs(endSec, clip), 0, nil); err != nil {
			return err
		}
		touched = true
		expected := 0.0
		if bodyLen > 0 {
			expected = bodyLen + endSec
		}
		args := BuildConcatArgs(body, clip, dest, job.Spec, meta(0), progress)
		if err := c.run(ctx, "concat end silence", job.Input, args, expected, job.OnProgress); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compositor) run(ctx context.Context, step, input string, args []string, expected float64, onProgress func(Tick)) error {
	bin := c.FFmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}
	runner := c.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}

	spec := util.CmdSpec{Path: bin, Args: args, Verbose: c.Verbose}
	if onProgress != nil {
		var ps ProgressState
		spec.StdoutLine = func(line string) {
			if t, ok := ps.UpdateFromLine(line); ok {
				t.Step = step
				t.Percent = percentOf(t.OutTime, expected)
				onProgress(t)
			}
		}
	}

	c.logger().Debug("ffmpeg", zap.String("step", step), zap.String("cmd", util.ShellQuote(bin, args)))
	res, err := runner.Run(ctx, spec)
	if err != nil {
		return failure.Transcode(step, input, &failure.ToolError{
			Tool:     "ffmpeg",
			Args:     args,
			ExitCode: res.Code,
			Stderr:   string(res.Stderr),
			Cause:    err,
		})
	}
	return nil
}

func (c *Compositor) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// stagingPath creates an empty hidden file beside output to encode into.
// Keeping it in the same directory makes the final rename atomic.
func stagingPath(output string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	f, err := os.CreateTemp(filepath.Dir(output), "."+media.Sanitize(base)+".*.mp3")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// scratch is a per-file temporary directory and the files placed in it.
type scratch struct {
	dir   string
	files []string
}

func newScratch(base, input string) (*scratch, error) {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	dir, err := util.MakeTempWorkdir(base, media.Sanitize(stem))
	if err != nil {
		return nil, err
	}
	return &scratch{dir: dir}, nil
}

func (s *scratch) path(name string) string {
	p := filepath.Join(s.dir, name)
	s.files = append(s.files, p)
	return p
}

// Close removes every file handed out, then the directory.
func (s *scratch) Close() error {
	var err error
	for _, f := range s.files {
		err = multierr.Append(err, util.RemoveIfExists(f))
	}
	return multierr.Append(err, os.Remove(s.dir))
}
