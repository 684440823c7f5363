package meaning

import (
	"context"
	"sort"

	"github.com/japaniel/lexigraph/pkg/telemetry"
)

// MergeStats counts the work done by Merge.
type MergeStats struct {
	Merges int
	// Iterations is the number of pairs examined.
	Iterations int
}

// Merge repeatedly looks for two meanings to merge and replaces them with
// their union. A pair merges when the union is denser than threshold, or
// when one meaning contains the other whatever the threshold. Pairs are
// scanned in slice order and the first mergeable pair wins, after which the
// scan starts over. Merge stops after a full scan without merge, which
// happens after at most len(meanings)-1 merges. The input slice is not modified.
func Merge(ctx context.Context, s *SynGraph, meanings []Meaning, threshold float64) ([]Meaning, MergeStats, error) {
	ms := append([]Meaning(nil), meanings...)
	var stats MergeStats
	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		i, j, both, ok := firstMergeable(s, ms, threshold, &stats)
		if !ok {
			return ms, stats, nil
		}
		ms[i] = both
		ms = append(ms[:j], ms[j+1:]...)
		stats.Merges++
	}
}

func firstMergeable(s *SynGraph, ms []Meaning, threshold float64, stats *MergeStats) (int, int, Meaning, bool) {
	for i := 0; i < len(ms); i++ {
		for j := i + 1; j < len(ms); j++ {
			stats.Iterations++
			a, b := ms[i], ms[j]
			if a.Contains(b) || b.Contains(a) {
				return i, j, a.Union(b), true
			}
			if both := a.Union(b); s.Density(both) > threshold {
				return i, j, both, true
			}
		}
	}
	return 0, 0, nil, false
}

// Summarize describes each meaning by a sample of at most sampleSize words.
// The sample takes the words found in no other meaning first, then pads with
// the other words of the meaning. Summarize does not modify meanings.
func Summarize(meanings []Meaning, sampleSize int) []telemetry.MeaningSample {
	out := make([]telemetry.MeaningSample, len(meanings))
	for i, m := range meanings {
		var specifics, shared []string
		for _, w := range m {
			if inOthers(meanings, i, w) {
				shared = append(shared, w)
			} else {
				specifics = append(specifics, w)
			}
		}
		sample := make([]string, 0, sampleSize)
		for _, w := range append(specifics, shared...) {
			if len(sample) == sampleSize {
				break
			}
			sample = append(sample, w)
		}
		out[i] = telemetry.MeaningSample{
			Sample:    sample,
			Remaining: len(m) - len(sample),
			Specifics: len(specifics),
			Size:      len(m),
		}
	}
	return out
}

// Specifics returns the words of meanings[i] that belong to no other meaning.
func Specifics(meanings []Meaning, i int) []string {
	var out []string
	for _, w := range meanings[i] {
		if !inOthers(meanings, i, w) {
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out
}

func inOthers(meanings []Meaning, i int, w string) bool {
	for k, o := range meanings {
		if k != i && o.Has(w) {
			return true
		}
	}
	return false
}
