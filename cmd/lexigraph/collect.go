package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/japaniel/lexigraph/pkg/db"
	"github.com/japaniel/lexigraph/pkg/explore"
	"github.com/japaniel/lexigraph/pkg/telemetry"
	"github.com/japaniel/lexigraph/pkg/wordgraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newCollectCmd(a *app) *cobra.Command {
	var forcePrompt, eager bool

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Grow the word graph from the lexical source",
		Long: `Explores unexplored words one after the other and saves the graph on exit.
When no word is left to explore, a word is read from standard input.
Ctrl-C switches to asking for every word; a second Ctrl-C stops.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("prompt") {
				a.cfg.Explore.ForcePrompt = forcePrompt
			}
			if cmd.Flags().Changed("eager") {
				a.cfg.Explore.EagerExpand = eager
			}
			return a.collect(cmd)
		},
	}
	cmd.Flags().BoolVar(&forcePrompt, "prompt", false, "ask for every word instead of following the frontier")
	cmd.Flags().BoolVar(&eager, "eager", false, "explore newly discovered words right away")
	return cmd
}

func (a *app) collect(cmd *cobra.Command) error {
	ctx := cmd.Context()
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
	a.log.Info("Graph loaded",
		zap.String("path", a.cfg.StorePath()),
		zap.Int("keys", g.Len()),
		zap.Int("unexplored", g.FrontierLen()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := telemetry.NewPrometheus(reg)
	if err != nil {
		return err
	}

	term := telemetry.NewTerminal(out)
	sinks := telemetry.Multi{term, telemetry.NewLog(a.log), metrics}

	if path := a.cfg.Explore.RecordSteps; path != "" {
		conn, err := db.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open step log: %w", err)
		}
		defer conn.Close()
		rec, err := db.NewStepRecorder(conn, a.cfg.Target, a.log)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				a.log.Warn("Step log incomplete", zap.Error(err))
			}
		}()
		sinks = append(sinks, rec)
		a.log.Info("Recording exploration steps", zap.String("path", path), zap.String("session", rec.SessionID))
	}

	prompter := explore.NewLinePrompter(cmd.InOrStdin(), out)
	prompter.OnPrompt = term.Break
	defer prompter.Close()

	ex := explore.New(g, a.newSource(), st)
	ex.Prompter = prompter
	ex.Sink = sinks
	ex.Logger = a.log.Named("explore")
	ex.ForcePrompt = a.cfg.Explore.ForcePrompt
	ex.EagerExpand = a.cfg.Explore.EagerExpand

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	grp, gctx := errgroup.WithContext(ctx)
	exploring, stopped := context.WithCancel(gctx)
	grp.Go(func() error {
		defer stopped()
		return ex.Run(gctx, interrupts)
	})
	if addr := a.cfg.Metrics.Addr; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		grp.Go(func() error {
			<-exploring.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		grp.Go(func() error {
			a.log.Info("Serving metrics", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	term.Break()
	added := wordgraph.Complete(g)
	a.log.Debug("Graph completed", zap.Int("edges_added", added))
	if err := writeStats(out, g); err != nil {
		return err
	}
	fmt.Fprintln(out, "done")
	return nil
}
