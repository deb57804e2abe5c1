package naming

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"mp3space/internal/failure"
	"mp3space/internal/model"
	"mp3space/internal/probe"
	"mp3space/internal/util"
	"mp3space/internal/util/bitrate"
	"mp3space/internal/util/media"
)

// TagReader supplies artist and title for {artist}/{title}. probe.Prober
// satisfies it.
type TagReader interface {
	Probe(ctx context.Context, path string) (model.MediaInfo, error)
}

// Planner computes output paths.
type Planner struct {
	tags  TagReader
	now   func() time.Time
	log   *zap.Logger
	mkdir bool
}

// Option configures a Planner.
type Option func(*Planner)

// WithTagReader sets the source of artist/title tags.
func WithTagReader(r TagReader) Option {
	return func(p *Planner) {
		p.tags = r
	}
}

// WithClock overrides the time source for {date} and {time}.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.now = now
	}
}

// WithLogger attaches a logger for recovered planning failures.
func WithLogger(l *zap.Logger) Option {
	return func(p *Planner) {
		p.log = l
	}
}

// WithoutMkdir disables directory creation, for dry runs.
func WithoutMkdir() Option {
	return func(p *Planner) {
		p.mkdir = false
	}
}

// New constructs a Planner.
func New(opts ...Option) *Planner {
	p := &Planner{mkdir: true}
	for _, o := range opts {
		o(p)
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// Batch holds the batch-wide planning state: the common ancestor of all
// inputs and the outputs already claimed. It is not safe to share between
// concurrent runs.
type Batch struct {
	p      *Planner
	cfg    model.ProcessingConfig
	total  int
	multi  bool
	root   string
	rootEr error
	label  string

	mu     sync.Mutex
	claims map[string]string // output path → input that owns it
}

// Begin starts planning a batch over inputs.
func (p *Planner) Begin(inputs []string, cfg model.ProcessingConfig) *Batch {
	b := &Batch{
		p:      p,
		cfg:    cfg,
		total:  len(inputs),
		multi:  len(inputs) > 1,
		label:  bitrate.Label(cfg.Bitrate),
		claims: make(map[string]string),
	}
	if cfg.PreserveFolderStructure && b.multi {
		dirs := make([]string, len(inputs))
		for i, in := range inputs {
			dirs[i] = filepath.Dir(in)
		}
		b.root, b.rootEr = CommonDir(dirs)
	}
	return b
}

// Plan is the one-shot form of Begin followed by Batch.Plan.
func (p *Planner) Plan(ctx context.Context, input string, index, total int, cfg model.ProcessingConfig, batchInputs []string) string {
	b := p.Begin(batchInputs, cfg)
	b.total = total
	return b.Plan(ctx, input, index)
}

// Plan returns the output path for the input at zero-based index. It never
// creates the output file itself.
func (b *Batch) Plan(ctx context.Context, input string, index int) string {
	dir := b.outputDir(input)
	name := media.RenderFilename(b.cfg.Pattern(), b.fields(ctx, input, index))

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.claim(input, filepath.Join(dir, name))
}

func (b *Batch) outputDir(input string) string {
	log := b.p.log.With(zap.String("input", input))

	dir := filepath.Dir(input)
	if b.cfg.OutputFolder != "" && util.IsDir(b.cfg.OutputFolder) {
		dir = b.cfg.OutputFolder
	}
	if !b.cfg.PreserveFolderStructure {
		return dir
	}

	target := dir
	if b.multi {
		if b.rootEr != nil {
			log.Warn("folder structure not preserved",
				zap.Error(failure.Planning("find common ancestor", input, b.rootEr)))
		} else if rel, err := filepath.Rel(b.root, filepath.Dir(input)); err != nil {
			log.Warn("folder structure not preserved",
				zap.Error(failure.Planning("relate input to common ancestor", input, err)))
		} else {
			target = filepath.Join(dir, rel)
		}
	}

	if b.p.mkdir {
		if err := os.MkdirAll(target, 0o755); err != nil {
			log.Warn("folder structure not preserved",
				zap.Error(failure.Planning("create output directory", target, err)))
			return dir
		}
	}
	return target
}

func (b *Batch) fields(ctx context.Context, input string, index int) media.NameFields {
	f := media.NameFields{
		Input:   input,
		Bitrate: b.label,
		Now:     b.p.now(),
		Index:   index,
		Total:   b.total,
		Artist:  probe.UnknownTag,
		Title:   probe.UnknownTag,
	}
	if b.p.tags == nil || !media.UsesTags(b.cfg.Pattern()) {
		return f
	}
	info, err := b.p.tags.Probe(ctx, input)
	if err != nil {
		b.p.log.Debug("tags unavailable, using defaults", zap.String("input", input), zap.Error(err))
		return f
	}
	f.Artist = info.Tag("artist", probe.UnknownTag)
	f.Title = info.Tag("title", probe.UnknownTag)
	return f
}

// claim reserves path for input, suffixing it when another input already
// holds it or, without overwrite, when it exists on disk. Callers hold b.mu.
func (b *Batch) claim(input, path string) string {
	taken := func(p string) bool {
		if owner, ok := b.claims[p]; ok {
			return owner != input
		}
		return !b.cfg.OverwriteExisting && util.Exists(p)
	}
	final := NextFree(path, taken)
	b.claims[final] = input
	return final
}

// AvoidCollision returns path, or the first free "_N" variant of it when it
// exists on disk and overwrite is false.
func AvoidCollision(path string, overwrite bool) string {
	if overwrite {
		return path
	}
	return NextFree(path, util.Exists)
}

// NextFree returns path if !taken(path), else the first of stem_1.ext,
// stem_2.ext, … that is not taken.
func NextFree(path string, taken func(string) bool) string {
	if !taken(path) {
		return path
	}
	ext := filepath.Ext(path)
	stem := path[:len(path)-len(ext)]
	for n := 1; ; n++ {
		candidate := stem + "_" + strconv.Itoa(n) + ext
		if !taken(candidate) {
			return candidate
		}
	}
}
