// Package locator discovers archived HTML files under one or more root
// directories. It streams candidates over a channel so large archives
// never need to be held in memory, and validates every root up front so
// a bad invocation fails before any indexing work begins.
package locator

import "time"

// FileInfo contains metadata about a discovered HTML file.
type FileInfo struct {
	// Path is the absolute path to the file.
	Path string
	// Size is the file size in bytes.
	Size int64
	// ModTime is the last modification time.
	ModTime time.Time
}

// Result is returned from the locator channel.
type Result struct {
	File  *FileInfo
	Error error
}

// Options configures the locator behavior.
type Options struct {
	// Roots are the directories to walk. At least one is required and
	// every entry must exist.
	Roots []string

	// Exclude lists glob patterns matched against file base names.
	Exclude []string
}

// htmlExtensions are the recognized archive extensions, matched
// case-insensitively.
var htmlExtensions = map[string]bool{
	".html": true,
	".htm":  true,
}
