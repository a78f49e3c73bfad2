// Package index orchestrates an indexing run: locate HTML files, extract
// title and text concurrently, and write documents to the store through a
// single serialized writer. Each document commits independently, so a
// failure partway through a run leaves every already-written document
// fully indexed and searchable.
package index

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pjamar/htmls-to-datasette/internal/errors"
	"github.com/pjamar/htmls-to-datasette/internal/extract"
	"github.com/pjamar/htmls-to-datasette/internal/locator"
	"github.com/pjamar/htmls-to-datasette/internal/output"
	"github.com/pjamar/htmls-to-datasette/internal/store"
)

// RunnerConfig controls a single indexing run.
type RunnerConfig struct {
	// Roots are the directories to index. At least one is required.
	Roots []string

	// StoreBinary selects inline mode: raw HTML bytes are persisted in
	// the store alongside the extracted fields.
	StoreBinary bool

	// Exclude lists glob patterns of file base names to skip.
	Exclude []string

	// Workers is the number of concurrent extraction workers.
	// Zero means runtime.NumCPU().
	Workers int
}

// RunnerResult summarizes a completed run.
type RunnerResult struct {
	// Scanned counts HTML files the locator produced.
	Scanned int
	// Indexed counts newly created documents.
	Indexed int
	// Updated counts documents that already existed and were rewritten.
	Updated int
	// Failed counts files that produced no document.
	Failed int
	// Degraded counts files indexed with fallback fields after an
	// extraction failure.
	Degraded int
	// Duration is the wall-clock run time.
	Duration time.Duration
}

// Runner executes indexing runs against a store.
type Runner struct {
	cfg       RunnerConfig
	store     *store.Store
	extractor *extract.Extractor
	out       *output.Writer
}

// NewRunner creates a Runner. The store and output writer are owned by
// the caller.
func NewRunner(cfg RunnerConfig, st *store.Store, out *output.Writer) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Runner{
		cfg:       cfg,
		store:     st,
		extractor: extract.New(),
		out:       out,
	}
}

// writeItem carries one extracted document to the writer goroutine.
type writeItem struct {
	doc      *store.Document
	degraded bool
}

// Run performs the indexing run.
// Per-file failures are logged, counted, and skipped; only invocation
// and store errors abort the run.
func (r *Runner) Run(ctx context.Context) (*RunnerResult, error) {
	start := time.Now()

	loc, err := locator.New(locator.Options{
		Roots:   r.cfg.Roots,
		Exclude: r.cfg.Exclude,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("index_start",
		slog.Any("roots", loc.Roots()),
		slog.Bool("store_binary", r.cfg.StoreBinary),
		slog.Int("workers", r.cfg.Workers))

	result := &RunnerResult{}
	var scanned, failed, degraded atomic.Int64

	files := loc.Locate(ctx)
	items := make(chan writeItem, r.cfg.Workers*2)

	g, gctx := errgroup.WithContext(ctx)

	// Extraction fans out; the store write stays single-file serialized.
	workers, wctx := errgroup.WithContext(gctx)
	for i := 0; i < r.cfg.Workers; i++ {
		workers.Go(func() error {
			for res := range files {
				if res.Error != nil {
					return res.Error
				}
				scanned.Add(1)

				item, err := r.process(res.File)
				if err != nil {
					if errors.IsFatal(err) {
						return err
					}
					failed.Add(1)
					slog.Warn("index_file_failed",
						slog.String("path", res.File.Path),
						slog.String("error", err.Error()))
					r.out.Warningf("skipped %s: %v", res.File.Path, err)
					continue
				}
				if item.degraded {
					degraded.Add(1)
				}

				select {
				case items <- item:
				case <-wctx.Done():
					return wctx.Err()
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(items)
		return workers.Wait()
	})

	g.Go(func() error {
		for item := range items {
			created, err := r.store.Upsert(gctx, item.doc)
			if err != nil {
				// Store failures are fatal: continuing would silently
				// drop documents.
				return err
			}
			if created {
				result.Indexed++
			} else {
				result.Updated++
			}
			r.out.Count(result.Indexed+result.Updated, "files indexed")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.out.CountDone()

	result.Scanned = int(scanned.Load())
	result.Failed = int(failed.Load())
	result.Degraded = int(degraded.Load())
	result.Duration = time.Since(start)

	slog.Info("index_done",
		slog.Int("scanned", result.Scanned),
		slog.Int("indexed", result.Indexed),
		slog.Int("updated", result.Updated),
		slog.Int("failed", result.Failed),
		slog.Int("degraded", result.Degraded),
		slog.Duration("duration", result.Duration))

	return result, nil
}

// process reads and extracts one file into a writable document.
// A read failure returns an error and produces no document. An
// extraction failure still produces a document with fallback fields so
// the file stays discoverable by path and title.
func (r *Runner) process(file *locator.FileInfo) (writeItem, error) {
	id, err := store.DocumentID(file.Path)
	if err != nil {
		return writeItem{}, errors.New(errors.ErrCodeInvalidPath, "resolving document identity", err).WithPath(file.Path)
	}

	raw, err := os.ReadFile(file.Path)
	if err != nil {
		return writeItem{}, errors.New(errors.ErrCodeFileUnreadable, "reading file", err).WithPath(file.Path)
	}

	doc := &store.Document{
		ID:         id,
		SourcePath: file.Path,
		Size:       int64(len(raw)),
		IndexedAt:  time.Now().UTC(),
	}
	if r.cfg.StoreBinary {
		doc.RawContent = raw
	}

	extracted, err := r.extractor.Extract(raw, file.Path)
	item := writeItem{doc: doc}
	if err != nil {
		slog.Warn("extract_degraded",
			slog.String("path", file.Path),
			slog.String("error", err.Error()))
		item.degraded = true
	}
	doc.Title = extracted.Title
	doc.Text = extracted.Text

	return item, nil
}
