package pipeline

import (
	"context"
	"math"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mp3space/internal/model"
	"mp3space/internal/util/bitrate"
)

// DefaultProbeLimit bounds concurrent ffprobe processes.
const DefaultProbeLimit = 4

// SizeEstimate is the aggregate size preview of a batch.
type SizeEstimate struct {
	OriginalBytes  int64
	EstimatedBytes int64
	Files          int // inputs that contributed
	Skipped        int // missing or unprobeable inputs
}

// Difference is EstimatedBytes - OriginalBytes.
func (s SizeEstimate) Difference() int64 {
	return s.EstimatedBytes - s.OriginalBytes
}

// FileInfo is the inspection result of one input.
type FileInfo struct {
	Path string
	Size int64
	Info model.MediaInfo
	Err  error // stat or probe failure
}

// Estimator previews sizes and metadata. It never writes files.
type Estimator struct {
	Prober Prober
	Limit  int // concurrent probes; <= 0 means DefaultProbeLimit
	Logger *zap.Logger
}

// Estimate sums bitrate × duration / 8 for each input before and after
// processing with cfg. Inputs that are missing or fail to probe are skipped.
// The only error is ctx's.
func (e *Estimator) Estimate(ctx context.Context, inputs []string, cfg model.ProcessingConfig) (SizeEstimate, error) {
	added := cfg.AddedSeconds()

	var (
		mu  sync.Mutex
		est SizeEstimate
	)
	err := e.each(ctx, inputs, func(i int, fi FileInfo) {
		mu.Lock()
		defer mu.Unlock()
		if fi.Err != nil {
			est.Skipped++
			return
		}
		info := fi.Info
		est.Files++
		est.OriginalBytes += bytesFor(float64(info.BitRate), info.Duration)
		est.EstimatedBytes += bytesFor(float64(bitrate.EstimateBps(cfg.Bitrate, &info)), info.Duration+added)
	})
	return est, err
}

// Inspect stats and probes every input. Results keep input order.
func (e *Estimator) Inspect(ctx context.Context, inputs []string) ([]FileInfo, error) {
	out := make([]FileInfo, len(inputs))
	err := e.each(ctx, inputs, func(i int, fi FileInfo) {
		out[i] = fi
	})
	return out, err
}

func (e *Estimator) each(ctx context.Context, inputs []string, fn func(int, FileInfo)) error {
	limit := e.Limit
	if limit <= 0 {
		limit = DefaultProbeLimit
	}
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fi := FileInfo{Path: in}
			st, err := os.Stat(in)
			if err != nil {
				fi.Err = err
			} else if !st.Mode().IsRegular() {
				fi.Err = &os.PathError{Op: "stat", Path: in, Err: os.ErrInvalid}
			} else {
				fi.Size = st.Size()
				fi.Info, fi.Err = e.Prober.Probe(gctx, in)
			}
			if fi.Err != nil {
				log.Debug("skipping input", zap.String("input", in), zap.Error(fi.Err))
			}
			fn(i, fi)
			return nil
		})
	}
	return g.Wait()
}

func bytesFor(bps, seconds float64) int64 {
	if bps <= 0 || seconds <= 0 {
		return 0
	}
	return int64(math.Round(bps * seconds / 8))
}
