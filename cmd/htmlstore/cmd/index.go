package cmd

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pjamar/htmls-to-datasette/internal/errors"
	"github.com/pjamar/htmls-to-datasette/internal/index"
	"github.com/pjamar/htmls-to-datasette/internal/output"
	"github.com/pjamar/htmls-to-datasette/internal/store"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	storeBinary bool
	workers     int
	exclude     []string
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index <dir>...",
		Short: "Index HTML files under one or more directories",
		Long: `Index all .html and .htm files found under the given directories
(recursively) into the SQLite store.

Re-running index over the same directories updates existing documents in
place. With --store-binary the original HTML bytes are stored inside the
database; without it only the extracted title and text are kept and the
file is referenced by path.

Examples:
  htmlstore index ./archive
  htmlstore index ./archive ./old-archive -d archive.db
  htmlstore index ./archive --store-binary`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.storeBinary, "store-binary", "b", false, "Store raw HTML content inside the database")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Number of extraction workers (0 = number of CPUs)")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Glob patterns of file names to skip (repeatable)")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, dirs []string, opts indexOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("store-binary") || opts.storeBinary {
		cfg.StoreBinary = opts.storeBinary
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}
	exclude := append(append([]string{}, cfg.Exclude...), opts.exclude...)

	// One mutating run per store at a time. A second invocation fails
	// fast instead of interleaving writes.
	release, err := acquireStoreLock(cfg.Database)
	if err != nil {
		return err
	}
	defer release()

	st, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	mode := "reference"
	if cfg.StoreBinary {
		mode = "inline"
	}
	out.Statusf("", "Indexing %s into %s (%s mode)", strings.Join(dirs, ", "), cfg.Database, mode)

	runner := index.NewRunner(index.RunnerConfig{
		Roots:       dirs,
		StoreBinary: cfg.StoreBinary,
		Exclude:     exclude,
		Workers:     cfg.Workers,
	}, st, out)

	result, err := runner.Run(ctx)
	if err != nil {
		slog.Error("index_failed",
			slog.String("code", errors.GetCode(err)),
			slog.String("error", err.Error()))
		return err
	}

	out.Newline()
	out.Successf("Indexed %d new, updated %d, failed %d (%d scanned in %s)",
		result.Indexed, result.Updated, result.Failed,
		result.Scanned, result.Duration.Round(time.Millisecond))
	if result.Degraded > 0 {
		out.Warningf("%d files indexed with fallback fields after extraction errors", result.Degraded)
	}

	stats, err := st.Stats(ctx)
	if err == nil {
		out.Statusf("", "Store now holds %d documents (%s of source)",
			stats.Documents, humanize.Bytes(uint64(stats.SourceBytes)))
	}

	return nil
}
