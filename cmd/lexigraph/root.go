package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/japaniel/lexigraph/internal/config"
	"github.com/japaniel/lexigraph/internal/observability"
	"github.com/japaniel/lexigraph/pkg/lexicon"
	"github.com/japaniel/lexigraph/pkg/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app carries what every subcommand needs once the configuration is loaded.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "lexigraph",
		Short: "Collect word associations and split the synonyms of a word into meanings.",
		Long: `lexigraph crawls a synonym (or antonym) website one word at a time, keeps the
collected word graph on disk, and finds the distinct meanings of a word by
clustering its synonyms.`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./lexigraph.yaml)")
	rootCmd.PersistentFlags().StringP("target", "t", "", "lexical source to use: synonyme or antonyme")
	_ = a.v.BindPFlag("target", rootCmd.PersistentFlags().Lookup("target"))

	rootCmd.AddCommand(
		newCollectCmd(a),
		newMeaningCmd(a),
		newStatsCmd(a),
		newWalkCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// initialize reads the config file and LEXIGRAPH_* variables, validates the
// result and sets up the logger.
func (a *app) initialize() error {
	config.SetDefaults(a.v)

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName("lexigraph")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix("LEXIGRAPH")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		// A missing config file is fine; a broken one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "lexigraph"})
		return err
	}
	a.cfg = cfg

	observability.InitializeLogger(cfg.Logger)
	a.log = observability.GetLogger()
	a.log.Debug("Configuration loaded",
		zap.String("target", cfg.Target),
		zap.String("store", cfg.Store.Driver),
		zap.String("path", cfg.StorePath()))
	return nil
}

// openStore returns the configured graph store and a function releasing it.
func (a *app) openStore() (store.Store, func() error, error) {
	path := a.cfg.StorePath()
	switch a.cfg.Store.Driver {
	case "sqlite":
		s, err := store.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return store.NewJSONFile(path), func() error { return nil }, nil
	}
}

func (a *app) newSource() *lexicon.HTTPSource {
	fc := a.cfg.Fetch
	return lexicon.NewHTTPSource(a.cfg.Selected().BaseURL,
		lexicon.WithClient(&http.Client{Timeout: fc.Timeout}),
		lexicon.WithUserAgent(fc.UserAgent),
		lexicon.WithRate(fc.RatePerSecond, fc.Burst),
		lexicon.WithMaxBodySize(fc.MaxBodyBytes),
		lexicon.WithLogger(a.log),
	)
}

// Execute runs the command line with ctx as the root context.
func Execute(ctx context.Context, args []string) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
