package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CTAG07/langmodel/pkg/corpus"
	"github.com/CTAG07/langmodel/pkg/langmodel"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const (
	modeRandom = "random"
	modeFixed  = "fixed"
)

// app carries the state shared by every command once the config is loaded.
type app struct {
	configPath string
	dbPath     string
	logLevel   string

	cfg    *Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "langmodel <windowLength> <seedText> <length> <random|fixed> <corpusPath>",
		Short: "Character window language model",
		Long: "Trains a character window language model on a corpus and extends the seed text\n" +
			"with generated characters. Subcommands keep trained models in a SQLite database.",
		Version:           fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
		Args:              cobra.ExactArgs(5),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runOneShot,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "./langmodel.json", "config file (.json or .toml)")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "model database path")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(a.newTrainCmd())
	rootCmd.AddCommand(a.newGenerateCmd())
	rootCmd.AddCommand(a.newDumpCmd())
	rootCmd.AddCommand(a.newStatsCmd())
	rootCmd.AddCommand(a.newExportCmd())
	rootCmd.AddCommand(a.newImportCmd())
	rootCmd.AddCommand(a.newPruneCmd())
	rootCmd.AddCommand(a.newListCmd())
	rootCmd.AddCommand(a.newRemoveCmd())

	return rootCmd
}

// setup loads the config file and applies flag overrides before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DatabasePath = a.dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}))
	return nil
}

// modelOptions builds the model options for a random or fixed seed run.
func (a *app) modelOptions(mode string) ([]langmodel.Option, error) {
	opts := []langmodel.Option{langmodel.WithLogger(a.logger)}
	switch mode {
	case modeRandom:
	case modeFixed:
		opts = append(opts, langmodel.WithSeed(a.cfg.FixedSeed))
	default:
		return nil, fmt.Errorf("unknown generation mode %q, expected %q or %q", mode, modeRandom, modeFixed)
	}
	return opts, nil
}

// trainFiles trains m on each corpus file in turn.
func (a *app) trainFiles(ctx context.Context, m *langmodel.Model, paths []string) error {
	for _, path := range paths {
		r, err := corpus.Open(path, corpus.WithNormalization(a.cfg.NormalizeCorpus))
		if err != nil {
			return err
		}
		err = m.Train(ctx, r)
		_ = r.Close()
		if err != nil {
			return fmt.Errorf("failed to train on %s: %w", path, err)
		}
	}
	return nil
}

// runOneShot trains a fresh model on the corpus and prints the generated text.
func (a *app) runOneShot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	windowLength, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid window length %q: %w", args[0], err)
	}
	seed := args[1]
	length, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid length %q: %w", args[2], err)
	}
	opts, err := a.modelOptions(args[3])
	if err != nil {
		return err
	}

	m, err := langmodel.NewModel(windowLength, opts...)
	if err != nil {
		return err
	}
	if err = a.trainFiles(ctx, m, args[4:5]); err != nil {
		return err
	}
	if err = m.CalculateProbabilities(ctx); err != nil {
		return err
	}

	text, err := m.Generate(ctx, seed, length)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
