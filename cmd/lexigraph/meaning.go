package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/japaniel/lexigraph/pkg/meaning"
	"github.com/japaniel/lexigraph/pkg/telemetry"
	"github.com/japaniel/lexigraph/pkg/wordgraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMeaningCmd(a *app) *cobra.Command {
	var thresholds []float64
	var exportDir, metricsFile string

	cmd := &cobra.Command{
		Use:   "meaning <word>...",
		Short: "Split the synonyms of words into meanings",
		Long: `Loads the collected graph, classifies the synonyms of each word, finds the
maximal cliques of the useful ones and merges dense cliques into meanings.
Several --threshold values run successive merge rounds.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("threshold") {
				a.cfg.Meaning.Thresholds = thresholds
			}
			if cmd.Flags().Changed("export-dir") {
				a.cfg.Meaning.ExportDir = exportDir
			}
			if cmd.Flags().Changed("metrics-file") {
				a.cfg.Meaning.MetricsFile = metricsFile
			}
			return a.meaning(cmd, args)
		},
	}
	cmd.Flags().Float64SliceVar(&thresholds, "threshold", nil, "merge density threshold, repeat for successive rounds")
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "write the similarity graph of each word as ASP facts")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write analysis metrics in the Prometheus text format")
	return cmd
}

func (a *app) meaning(cmd *cobra.Command, words []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	out := cmd.OutOrStdout()

	st, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	g, err := st.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}
	wordgraph.Complete(g)

	e := meaning.NewEngine(a.log)
	e.SampleSize = a.cfg.Meaning.SampleSize
	e.ExportDir = a.cfg.Meaning.ExportDir
	reg := prometheus.NewRegistry()
	metrics, err := telemetry.NewPrometheus(reg)
	if err != nil {
		return err
	}
	e.Sink = telemetry.Multi{telemetry.NewLog(a.log), metrics}

	results := e.AnalyzeAll(ctx, g, words, a.cfg.Meaning.Workers, a.cfg.Meaning.Thresholds...)

	// Analyses are short-lived; a textfile collector picks the metrics up.
	if path := a.cfg.Meaning.MetricsFile; path != "" {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		a.log.Info("Analysis metrics written", zap.String("path", path))
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			if errors.Is(r.Err, wordgraph.ErrNotFound) {
				fmt.Fprintf(out, "unknown word %s. Abort.\n", r.Target)
			}
			a.log.Warn("Analysis failed", zap.String("target", r.Target), zap.Error(r.Err))
			errs = append(errs, fmt.Errorf("%s: %w", r.Target, r.Err))
			continue
		}
		for _, round := range r.Analysis.Rounds {
			telemetry.WriteAnalysis(out, round.Report)
		}
	}
	return errors.Join(errs...)
}
