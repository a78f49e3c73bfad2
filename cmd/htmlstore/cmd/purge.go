package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pjamar/htmls-to-datasette/internal/output"
	"github.com/pjamar/htmls-to-datasette/internal/store"
)

func newPurgeCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove reference-mode documents whose source file is gone",
		Long: `Remove documents that reference a source file that no longer exists
on disk. Inline documents are never purged: their content lives in the
store and stays searchable regardless of the filesystem.

Examples:
  htmlstore purge --dry-run
  htmlstore purge -d archive.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPurge(cmd.Context(), cmd, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List documents that would be removed without removing them")

	return cmd
}

func runPurge(ctx context.Context, cmd *cobra.Command, dryRun bool) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !dryRun {
		release, err := acquireStoreLock(cfg.Database)
		if err != nil {
			return err
		}
		defer release()
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	refs, err := st.ListByMode(ctx, false)
	if err != nil {
		return err
	}

	removed := 0
	for _, ref := range refs {
		if _, err := os.Stat(ref.SourcePath); err == nil {
			continue
		}

		if dryRun {
			out.Statusf("", "would remove %s", ref.SourcePath)
			removed++
			continue
		}

		if err := st.Delete(ctx, ref.ID); err != nil {
			return err
		}
		slog.Info("purge_removed", slog.String("path", ref.SourcePath), slog.String("id", ref.ID))
		out.Statusf("", "removed %s", ref.SourcePath)
		removed++
	}

	if dryRun {
		out.Successf("%d of %d reference documents would be removed", removed, len(refs))
	} else {
		out.Successf("Removed %d of %d reference documents", removed, len(refs))
	}
	return nil
}
