package locator

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pjamar/htmls-to-datasette/internal/errors"
)

// Locator discovers HTML files under configured roots.
type Locator struct {
	opts Options
}

// New creates a Locator after validating every root.
// A missing or non-directory root is an invocation error: it is reported
// here, before any walking starts, not skipped mid-run.
func New(opts Options) (*Locator, error) {
	if len(opts.Roots) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPath, "at least one input directory is required", nil)
	}

	resolved := make([]string, 0, len(opts.Roots))
	for _, root := range opts.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidPath, "cannot resolve input directory", err).WithPath(root)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, errors.InputError("input directory does not exist", err).WithPath(root)
		}
		if !info.IsDir() {
			return nil, errors.InputError("input path is not a directory", nil).WithPath(root)
		}
		resolved = append(resolved, abs)
	}

	opts.Roots = resolved
	return &Locator{opts: opts}, nil
}

// Roots returns the validated absolute root directories.
func (l *Locator) Roots() []string {
	return l.opts.Roots
}

// Locate walks all roots recursively and streams matching files.
// The channel is closed when walking is complete. Order is directory
// iteration order and is not stable across platforms; consumers must not
// rely on it for correctness.
func (l *Locator) Locate(ctx context.Context) <-chan Result {
	results := make(chan Result, 64)

	go func() {
		defer close(results)
		for _, root := range l.opts.Roots {
			l.walk(ctx, root, results)
		}
	}()

	return results
}

// walk traverses a single root.
func (l *Locator) walk(ctx context.Context, root string, results chan<- Result) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			// Unreadable subdirectories are per-file territory: log and
			// keep walking the rest of the tree.
			slog.Warn("locate_skip", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}

		if d.IsDir() {
			return nil
		}

		// Symlinks are skipped: WalkDir does not descend symlinked
		// directories, and a link to a file inside the roots would
		// index the same content under a second identity.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if !IsHTMLFile(path) {
			return nil
		}

		if l.excluded(filepath.Base(path)) {
			slog.Debug("locate_excluded", slog.String("path", path))
			return nil
		}

		info, err := d.Info()
		if err != nil {
			slog.Warn("locate_stat_failed", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}

		select {
		case results <- Result{File: &FileInfo{Path: path, Size: info.Size(), ModTime: info.ModTime()}}:
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})

	if err != nil && err != context.Canceled {
		select {
		case results <- Result{Error: errors.Wrap(errors.ErrCodeInputNotFound, fmt.Errorf("walking %s: %w", root, err))}:
		case <-ctx.Done():
		}
	}
}

// excluded checks a base name against the exclude patterns.
func (l *Locator) excluded(name string) bool {
	for _, pattern := range l.opts.Exclude {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// IsHTMLFile reports whether the path carries a recognized HTML extension.
func IsHTMLFile(path string) bool {
	return htmlExtensions[strings.ToLower(filepath.Ext(path))]
}
