package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pjamar/htmls-to-datasette/internal/output"
	"github.com/pjamar/htmls-to-datasette/internal/store"
)

// extractOptions holds CLI flags for extract.
type extractOptions struct {
	outputDir string
	dryRun    bool
}

func newExtractCmd() *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Write inline document content back to disk",
		Long: `Write the raw HTML of every inline document to files in the output
directory. File names come from the original source path's base name;
existing destination files are never overwritten.

Examples:
  htmlstore extract -o ./restored
  htmlstore extract --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "extracted", "Directory to write extracted files into")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "List files that would be written without writing them")

	return cmd
}

func runExtract(ctx context.Context, cmd *cobra.Command, opts extractOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	refs, err := st.ListByMode(ctx, true)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		out.Status("", "No inline documents in the store")
		return nil
	}

	if !opts.dryRun {
		if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
			return err
		}
	}

	written, skipped := 0, 0
	for i, ref := range refs {
		dest := filepath.Join(opts.outputDir, filepath.Base(ref.SourcePath))

		if _, err := os.Stat(dest); err == nil {
			slog.Debug("extract_skip_existing", slog.String("dest", dest))
			skipped++
			continue
		}

		if opts.dryRun {
			out.Statusf("", "would write %s", dest)
			written++
			continue
		}

		raw, err := st.RawContent(ctx, ref.ID)
		if err != nil {
			return err
		}

		if err := os.WriteFile(dest, raw, 0o644); err != nil {
			return err
		}
		slog.Info("extract_written", slog.String("dest", dest), slog.String("id", ref.ID))
		written++
		out.Progress(i+1, len(refs), "extracting")
	}

	if opts.dryRun {
		out.Successf("%d files would be written to %s (%d already exist)", written, opts.outputDir, skipped)
	} else {
		out.Successf("Wrote %d files to %s (%d already existed)", written, opts.outputDir, skipped)
	}
	return nil
}
