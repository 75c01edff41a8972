package engine

import (
	"cmp"
	"slices"

	"github.com/hupe1980/logdb/internal/manifest"
)

// CompactionTask describes a compaction unit of work.
type CompactionTask struct {
	Segments    []uint64
	TargetLevel int
}

// CompactionPolicy determines which segments should be compacted.
type CompactionPolicy interface {
	// Pick selects segments to compact.
	// Returns a task or nil if no compaction is needed.
	Pick(segments []manifest.SegmentInfo) *CompactionTask
}

// TieredCompactionPolicy implements a size-tiered compaction strategy.
// Segments of one level are merged into a single segment of the next level
// once there are at least Threshold of them. Lower levels are checked first.
type TieredCompactionPolicy struct {
	Threshold int
	// MaxLevel caps promotion. Segments at MaxLevel merge into MaxLevel.
	MaxLevel int
}

func (p *TieredCompactionPolicy) Pick(segments []manifest.SegmentInfo) *CompactionTask {
	threshold := max(p.Threshold, 2)
	maxLevel := p.MaxLevel
	if maxLevel <= 0 {
		maxLevel = 8
	}

	levels := make(map[int][]manifest.SegmentInfo)
	for _, s := range segments {
		levels[min(s.Level, maxLevel)] = append(levels[min(s.Level, maxLevel)], s)
	}

	for lvl := 0; lvl <= maxLevel; lvl++ {
		segs := levels[lvl]
		if len(segs) < threshold {
			continue
		}

		slices.SortFunc(segs, func(a, b manifest.SegmentInfo) int {
			return cmp.Compare(a.MinSeq, b.MinSeq)
		})

		ids := make([]uint64, len(segs))
		for i, s := range segs {
			ids[i] = s.ID
		}

		return &CompactionTask{
			Segments:    ids,
			TargetLevel: min(lvl+1, maxLevel),
		}
	}

	return nil
}
