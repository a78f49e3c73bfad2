package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pjamar/htmls-to-datasette/internal/output"
	"github.com/pjamar/htmls-to-datasette/internal/store"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit  int
	format string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over indexed documents",
		Long: `Search indexed documents by title and text using SQLite FTS5 with
porter stemming. Results are ranked by BM25 relevance.

Examples:
  htmlstore search "hello world"
  htmlstore search "database migration" --limit 5
  htmlstore search sqlite --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
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

	slog.Info("search_started", slog.String("query", query), slog.Int("limit", opts.limit))
	results, err := st.Search(ctx, query, opts.limit)
	if err != nil {
		return err
	}
	slog.Info("search_complete", slog.Int("results", len(results)))

	if opts.format == "json" {
		return formatSearchJSON(cmd, results)
	}
	return formatSearchText(out, query, results)
}

// formatSearchText outputs results in human-readable form.
func formatSearchText(out *output.Writer, query string, results []*store.SearchResult) error {
	if len(results) == 0 {
		out.Statusf("", "No results found for %q", query)
		return nil
	}

	out.Statusf("", "Found %d results for %q:", len(results), query)
	out.Newline()
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		out.Statusf("", "%d. %s (score: %.2f)", i+1, title, r.Score)
		out.Statusf("", "   %s (%s, indexed %s)",
			r.SourcePath, humanize.Bytes(uint64(r.Size)), humanize.Time(r.IndexedAt))
	}
	return nil
}

// formatSearchJSON outputs results as a JSON array.
func formatSearchJSON(cmd *cobra.Command, results []*store.SearchResult) error {
	type jsonResult struct {
		ID         string  `json:"id"`
		Title      string  `json:"title"`
		SourcePath string  `json:"source_path"`
		Size       int64   `json:"size"`
		IndexedAt  string  `json:"indexed_at"`
		Score      float64 `json:"score"`
	}

	rows := make([]jsonResult, 0, len(results))
	for _, r := range results {
		rows = append(rows, jsonResult{
			ID:         r.ID,
			Title:      r.Title,
			SourcePath: r.SourcePath,
			Size:       r.Size,
			IndexedAt:  r.IndexedAt.Format("2006-01-02T15:04:05Z07:00"),
			Score:      r.Score,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
