package pipeline

import (
	"context"

	"mp3space/internal/model"
	"mp3space/internal/naming"
	"mp3space/internal/util"
	"mp3space/internal/util/bitrate"
)

// PlannedItem is the dry-run view of one input.
type PlannedItem struct {
	model.BatchItem
	Spec    model.EncodingSpec
	Missing bool
}

// PlanBatch computes what Run would do for each input without running
// ffmpeg. Use a planner built with naming.WithoutMkdir to keep it free of
// side effects. Missing inputs are flagged and get no output path.
func PlanBatch(ctx context.Context, planner *naming.Planner, prober Prober, inputs []string, cfg model.ProcessingConfig) []PlannedItem {
	batch := planner.Begin(inputs, cfg)
	items := make([]PlannedItem, len(inputs))
	for i, in := range inputs {
		it := PlannedItem{BatchItem: model.BatchItem{Input: in, Index: i}}
		if !util.IsRegular(in) {
			it.Missing = true
			items[i] = it
			continue
		}
		it.Output = batch.Plan(ctx, in, i)

		var info *model.MediaInfo
		if cfg.Bitrate.Mode == model.BitrateOriginal && prober != nil {
			if mi, err := prober.Probe(ctx, in); err == nil {
				info = &mi
			}
		}
		it.Spec = bitrate.Resolve(cfg.Bitrate, info)
		items[i] = it
	}
	return items
}
