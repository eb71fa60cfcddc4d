package main

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/CTAG07/langmodel/pkg/langmodel"
)

func (a *app) newTrainCmd() *cobra.Command {
	var windowLength int
	var appendData bool

	cmd := &cobra.Command{
		Use:   "train <name> <corpus>...",
		Short: "Train a stored model on one or more corpus files",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := openStore(a.cfg.DatabasePath, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			name := args[0]
			var m *langmodel.Model
			if appendData {
				m, err = store.LoadModel(ctx, name, langmodel.WithLogger(a.logger))
				if err != nil && !errors.Is(err, sql.ErrNoRows) {
					return err
				}
				if m != nil && cmd.Flags().Changed("window") && m.WindowLength() != windowLength {
					return fmt.Errorf("%w: model '%s' has %d, --window is %d",
						langmodel.ErrWindowLengthMismatch, name, m.WindowLength(), windowLength)
				}
			}
			if m == nil {
				if m, err = langmodel.NewModel(windowLength, langmodel.WithLogger(a.logger)); err != nil {
					return err
				}
			}

			if err = a.trainFiles(ctx, m, args[1:]); err != nil {
				return err
			}
			return store.SaveModel(ctx, name, m)
		},
	}
	cmd.Flags().IntVarP(&windowLength, "window", "w", 4, "window length in characters")
	cmd.Flags().BoolVar(&appendData, "append", false, "add to the counts of an existing model instead of replacing it")
	return cmd
}

func (a *app) newGenerateCmd() *cobra.Command {
	var length int
	var fixed bool
	var seedValue uint64
	var deadEndError bool

	cmd := &cobra.Command{
		Use:   "generate <name> <seedText>",
		Short: "Extend the seed text with a stored model",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("length") {
				length = a.cfg.DefaultLength
			}
			mode := modeRandom
			if fixed {
				mode = modeFixed
			}
			opts, err := a.modelOptions(mode)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, langmodel.WithSeed(seedValue))
			}

			m, err := a.loadCalculated(cmd, args[0], opts...)
			if err != nil {
				return err
			}
			text, err := m.Generate(ctx, args[1], length, langmodel.WithDeadEndError(deadEndError))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().IntVarP(&length, "length", "n", 0, "number of characters to generate (default from config)")
	cmd.Flags().BoolVar(&fixed, "fixed", false, "use the configured fixed seed for reproducible output")
	cmd.Flags().Uint64Var(&seedValue, "seed", 0, "use this random seed for reproducible output")
	cmd.Flags().BoolVar(&deadEndError, "dead-end-error", false, "fail when generation reaches a window with no successors")
	return cmd
}

// loadCalculated loads a stored model and prepares it for generation.
func (a *app) loadCalculated(cmd *cobra.Command, name string, opts ...langmodel.Option) (*langmodel.Model, error) {
	ctx := cmd.Context()
	store, closeStore, err := openStore(a.cfg.DatabasePath, a.logger)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	if len(opts) == 0 {
		opts = []langmodel.Option{langmodel.WithLogger(a.logger)}
	}
	m, err := store.LoadModel(ctx, name, opts...)
	if err != nil {
		return nil, err
	}
	if err = m.CalculateProbabilities(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (a *app) newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <name>",
		Short: "Print every window of a stored model with its probabilities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadCalculated(cmd, args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), m.String())
			return err
		},
	}
}

func (a *app) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <name>",
		Short: "Print statistics of a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadCalculated(cmd, args[0])
			if err != nil {
				return err
			}
			stats := m.Stats()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "window length\t%d\n", stats.WindowLength)
			_, _ = fmt.Fprintf(w, "windows\t%d\n", stats.Windows)
			_, _ = fmt.Fprintf(w, "entries\t%d\n", stats.Entries)
			_, _ = fmt.Fprintf(w, "transitions\t%d\n", stats.Transitions)
			_, _ = fmt.Fprintf(w, "distinct characters\t%d\n", stats.DistinctChars)
			_, _ = fmt.Fprintf(w, "max branching\t%d\n", stats.MaxBranching)
			return w.Flush()
		},
	}
}

func (a *app) newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <name> [file]",
		Short: "Export a stored model as JSON to a file or stdout",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadCalculated(cmd, args[0])
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return m.Export(cmd.OutOrStdout())
			}
			var buf bytes.Buffer
			if err = m.Export(&buf); err != nil {
				return err
			}
			if err = atomic.WriteFile(args[1], &buf); err != nil {
				return fmt.Errorf("failed to write export file: %w", err)
			}
			a.logger.Info("Model exported", "model_name", args[0], "file", args[1])
			return nil
		},
	}
}

func (a *app) newImportCmd() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <name> <file>",
		Short: "Import a JSON export, merging it into the stored model of that name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			store, closeStore, err := openStore(a.cfg.DatabasePath, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer func(f *os.File) {
				_ = f.Close()
			}(f)

			var m *langmodel.Model
			if !replace {
				m, err = store.LoadModel(ctx, name, langmodel.WithLogger(a.logger))
				if err != nil && !errors.Is(err, sql.ErrNoRows) {
					return err
				}
			}
			if m == nil {
				m, err = langmodel.ImportModel(f, langmodel.WithLogger(a.logger))
			} else {
				err = m.Import(f)
			}
			if err != nil {
				return err
			}
			return store.SaveModel(ctx, name, m)
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the stored model instead of merging into it")
	return cmd
}

func (a *app) newPruneCmd() *cobra.Command {
	var minCount int

	cmd := &cobra.Command{
		Use:   "prune <name>",
		Short: "Remove rare transitions from a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := openStore(a.cfg.DatabasePath, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			m, err := store.LoadModel(ctx, args[0], langmodel.WithLogger(a.logger))
			if err != nil {
				return err
			}
			removed, err := m.Prune(ctx, minCount)
			if err != nil {
				return err
			}
			if err = store.SaveModel(ctx, args[0], m); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", removed)
			return err
		},
	}
	cmd.Flags().IntVar(&minCount, "min-count", 1, "remove entries seen this many times or fewer")
	return cmd
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := openStore(a.cfg.DatabasePath, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			infos, err := store.ModelInfos(cmd.Context())
			if err != nil {
				return err
			}
			names := make([]string, 0, len(infos))
			for name := range infos {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tWINDOW")
			for _, name := range names {
				_, _ = fmt.Fprintf(w, "%s\t%d\n", name, infos[name].WindowLength)
			}
			return w.Flush()
		},
	}
}

func (a *app) newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(a.cfg.DatabasePath, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()
			return store.RemoveModel(cmd.Context(), args[0])
		},
	}
}
