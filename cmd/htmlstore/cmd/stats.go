package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pjamar/htmls-to-datasette/internal/output"
	"github.com/pjamar/htmls-to-datasette/internal/store"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Long:  `Show document counts by storage mode and total stored sizes.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output stats as JSON")

	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
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

	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}

	var dbSize int64
	if info, err := os.Stat(cfg.Database); err == nil {
		dbSize = info.Size()
	}

	if jsonOutput {
		type jsonStats struct {
			Documents          int    `json:"documents"`
			InlineDocuments    int    `json:"inline_documents"`
			ReferenceDocuments int    `json:"reference_documents"`
			SourceBytes        int64  `json:"source_bytes"`
			InlineBytes        int64  `json:"inline_bytes"`
			Database           string `json:"database"`
			DatabaseBytes      int64  `json:"database_bytes"`
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(jsonStats{
			Documents:          stats.Documents,
			InlineDocuments:    stats.InlineDocuments,
			ReferenceDocuments: stats.ReferenceDocuments,
			SourceBytes:        stats.SourceBytes,
			InlineBytes:        stats.InlineBytes,
			Database:           cfg.Database,
			DatabaseBytes:      dbSize,
		})
	}

	out.Statusf("", "Store: %s (%s)", cfg.Database, humanize.Bytes(uint64(dbSize)))
	out.Statusf("", "Documents: %d (%d inline, %d reference)",
		stats.Documents, stats.InlineDocuments, stats.ReferenceDocuments)
	out.Statusf("", "Source size: %s", humanize.Bytes(uint64(stats.SourceBytes)))
	if stats.InlineBytes > 0 {
		out.Statusf("", "Inline content: %s", humanize.Bytes(uint64(stats.InlineBytes)))
	}
	return nil
}
