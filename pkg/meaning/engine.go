package meaning

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/japaniel/lexigraph/pkg/telemetry"
	"github.com/japaniel/lexigraph/pkg/wordgraph"
	"go.uber.org/zap"
)

// DefaultThreshold is the density above which two meanings merge.
const DefaultThreshold = 0.3

// DefaultSampleSize is the number of words shown per meaning.
const DefaultSampleSize = 5

// Engine analyzes completed word graphs.
type Engine struct {
	SampleSize int
	// ExportDir, when set, receives the similarity graph of every analyzed
	// word as syngraph-<word>.lp.
	ExportDir string
	Sink      telemetry.Sink
	log       *zap.Logger
}

// NewEngine returns an engine with the default sample size.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		SampleSize: DefaultSampleSize,
		log:        logger.Named("meaning"),
	}
}

// Round is the outcome of merging at one threshold.
type Round struct {
	Threshold float64
	Meanings  []Meaning
	Stats     MergeStats
	Report    telemetry.AnalysisReport
}

// Analysis is the full result for one target word.
type Analysis struct {
	Classification
	Graph   *SynGraph
	Cliques []Meaning
	Rounds  []Round
}

// Final returns the meanings of the last round.
func (a *Analysis) Final() []Meaning {
	if len(a.Rounds) == 0 {
		return a.Cliques
	}
	return a.Rounds[len(a.Rounds)-1].Meanings
}

// Analyze splits the synonyms of target into meanings. Each threshold is a
// round starting from the meanings left by the previous one; without
// thresholds a single round at DefaultThreshold runs. Every round emits one
// report to the sink. A target that is not a key fails with
// wordgraph.ErrNotFound before any other work.
func (e *Engine) Analyze(ctx context.Context, g *wordgraph.Graph, target string, thresholds ...float64) (*Analysis, error) {
	if len(thresholds) == 0 {
		thresholds = []float64{DefaultThreshold}
	}
	for _, th := range thresholds {
		if th <= 0 || th > 1 {
			return nil, fmt.Errorf("threshold %v outside (0, 1]", th)
		}
	}

	c, err := Classify(g, target)
	if err != nil {
		return nil, err
	}
	log := e.log.With(zap.String("target", c.Target))
	log.Debug("Synonyms classified", zap.Int("trivial", len(c.Trivial)), zap.Int("useful", len(c.Useful)))

	a := &Analysis{Classification: c}
	a.Graph = BuildSynGraph(g, c)
	if e.ExportDir != "" {
		path, err := e.export(a.Graph, c.Target)
		if err != nil {
			return nil, err
		}
		log.Info("Similarity graph written", zap.String("path", path))
	}
	a.Cliques = MaximalCliques(a.Graph)
	components := a.Graph.ComponentSummaries()

	meanings := a.Cliques
	sink := telemetry.OrNop(e.Sink)
	for _, th := range thresholds {
		start := time.Now()
		merged, stats, err := Merge(ctx, a.Graph, meanings, th)
		if err != nil {
			return nil, err
		}
		meanings = merged
		r := Round{
			Threshold: th,
			Meanings:  merged,
			Stats:     stats,
			Report: telemetry.AnalysisReport{
				Target:     c.Target,
				Trivial:    len(c.Trivial),
				Useful:     len(c.Useful),
				Edges:      a.Graph.Edges(),
				Components: components,
				Threshold:  th,
				Merges:     stats.Merges,
				Iterations: stats.Iterations,
				Meanings:   Summarize(merged, e.sampleSize()),
			},
		}
		a.Rounds = append(a.Rounds, r)
		log.Debug("Meanings merged",
			zap.Float64("threshold", th),
			zap.Int("meanings", len(merged)),
			zap.Int("merges", stats.Merges),
			zap.Duration("took", time.Since(start)))
		sink.Analysis(r.Report)
	}
	return a, nil
}

func (e *Engine) sampleSize() int {
	if e.SampleSize <= 0 {
		return DefaultSampleSize
	}
	return e.SampleSize
}

func (e *Engine) export(s *SynGraph, target string) (string, error) {
	if err := os.MkdirAll(e.ExportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	name := strings.ReplaceAll(target, string(filepath.Separator), "_")
	path := filepath.Join(e.ExportDir, "syngraph-"+name+".lp")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := s.WriteASP(f); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}

// Result pairs a target with its analysis or the error that stopped it.
type Result struct {
	Target   string
	Analysis *Analysis
	Err      error
}

// AnalyzeAll analyzes several targets in parallel on workers goroutines. The
// graph is only read. Results come back in the order of targets; targets
// left over after ctx is done carry ctx's error.
func (e *Engine) AnalyzeAll(ctx context.Context, g *wordgraph.Graph, targets []string, workers int, thresholds ...float64) []Result {
	results := make([]Result, len(targets))
	for i, t := range targets {
		results[i] = Result{Target: t}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wp := NewWorkerPool(workers, len(targets))
	wp.Start(ctx)
	ran := make([]bool, len(targets))
	for i := range targets {
		idx := i
		err := wp.SubmitCtx(ctx, func(ctx context.Context) error {
			a, err := e.Analyze(ctx, g, targets[idx], thresholds...)
			results[idx].Analysis, results[idx].Err = a, err
			ran[idx] = true
			return err
		})
		if err != nil {
			break
		}
	}
	wp.Close()

	for i := range results {
		if !ran[i] {
			results[i].Err = ctx.Err()
			if results[i].Err == nil {
				results[i].Err = ErrPoolClosed
			}
		}
	}
	return results
}
