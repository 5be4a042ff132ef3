package builtin

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"loom/internal/agent/ports"
)

// maxSearchResults caps search output before the truncation marker.
const maxSearchResults = 100

// scanConcurrency bounds the parallel file scan in search_code.
const scanConcurrency = 8

// skippedDirs are conventional generated/vendor directories excluded from
// every recursive search.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
	"out":          true,
	"target":       true,
	"vendor":       true,
	"coverage":     true,
	".next":        true,
	"__pycache__":  true,
}

// walkFiles visits every regular file under root, skipped dirs excluded,
// calling visit with the slash-separated path relative to root.
func walkFiles(root string, visit func(relPath string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		return visit(filepath.ToSlash(rel))
	})
}

type searchFiles struct{}

// NewSearchFiles returns the search_files tool.
func NewSearchFiles() ports.Tool {
	return &searchFiles{}
}

func (t *searchFiles) Execute(ctx context.Context, args map[string]any, taskCtx ports.AgentContext) (string, error) {
	pattern, err := stringArg(args, "pattern")
	if err != nil {
		return "", err
	}

	re, err := compileGlob(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	hasSlash := strings.Contains(pattern, "/")

	var matches []string
	walkErr := walkFiles(taskCtx.WorkingDir, func(relPath string) error {
		if matchGlob(re, relPath, hasSlash) {
			matches = append(matches, relPath)
		}
		return nil
	})
	if walkErr != nil {
		return "", fmt.Errorf("search failed: %w", walkErr)
	}

	if len(matches) == 0 {
		return fmt.Sprintf("No files found matching %q", pattern), nil
	}

	sort.Strings(matches)
	truncated := false
	if len(matches) > maxSearchResults {
		matches = matches[:maxSearchResults]
		truncated = true
	}

	result := fmt.Sprintf("Found %d file(s):\n%s", len(matches), strings.Join(matches, "\n"))
	if truncated {
		result += fmt.Sprintf("\n... (results truncated at %d matches)", maxSearchResults)
	}
	return result, nil
}

func (t *searchFiles) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "search_files",
		Description: "Find files by glob pattern (*, ** and ? supported), skipping generated and vendor directories.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"pattern": {Type: "string", Description: "Glob pattern, e.g. **/*.go or src/*.ts"},
			},
			Required: []string{"pattern"},
		},
	}
}

type searchCode struct{}

// NewSearchCode returns the search_code tool.
func NewSearchCode() ports.Tool {
	return &searchCode{}
}

type fileMatches struct {
	path  string
	lines []string
}

func (t *searchCode) Execute(ctx context.Context, args map[string]any, taskCtx ports.AgentContext) (string, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}

	var fileRe *regexp.Regexp
	hasSlash := false
	if filePattern := optionalStringArg(args, "file_pattern", ""); filePattern != "" {
		re, err := compileGlob(filePattern)
		if err != nil {
			return "", fmt.Errorf("invalid file_pattern %q: %w", filePattern, err)
		}
		fileRe = re
		hasSlash = strings.Contains(filePattern, "/")
	}

	var candidates []string
	walkErr := walkFiles(taskCtx.WorkingDir, func(relPath string) error {
		if fileRe != nil && !matchGlob(fileRe, relPath, hasSlash) {
			return nil
		}
		candidates = append(candidates, relPath)
		return nil
	})
	if walkErr != nil {
		return "", fmt.Errorf("search failed: %w", walkErr)
	}

	// Scan files in parallel, then order by path so output is deterministic.
	var mu sync.Mutex
	perFile := make([]fileMatches, 0, len(candidates))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(scanConcurrency)
	for _, relPath := range candidates {
		relPath := relPath
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			lines := scanFile(filepath.Join(taskCtx.WorkingDir, filepath.FromSlash(relPath)), relPath, query)
			if len(lines) == 0 {
				return nil
			}
			mu.Lock()
			perFile = append(perFile, fileMatches{path: relPath, lines: lines})
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return "", err
	}

	sort.Slice(perFile, func(i, j int) bool { return perFile[i].path < perFile[j].path })

	var results []string
	for _, fm := range perFile {
		results = append(results, fm.lines...)
	}
	if len(results) == 0 {
		return fmt.Sprintf("No matches found for %q", query), nil
	}

	truncated := false
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
		truncated = true
	}

	result := strings.Join(results, "\n")
	if truncated {
		result += fmt.Sprintf("\n... (results truncated at %d matches)", maxSearchResults)
	}
	return result, nil
}

// scanFile greps one file line by line. Unreadable and binary files are
// skipped silently.
func scanFile(absPath, relPath, query string) []string {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil
	}
	if bytes.IndexByte(data, 0) != -1 {
		return nil
	}

	var matches []string
	for i, line := range strings.Split(string(data), "\n") {
		if strings.Contains(line, query) {
			matches = append(matches, fmt.Sprintf("%s:%d: %s", relPath, i+1, strings.TrimRight(line, "\r")))
		}
	}
	return matches
}

func (t *searchCode) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "search_code",
		Description: "Search file contents for a literal string, optionally limited to files matching a glob pattern. Results are capped at 100 matches.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"query":        {Type: "string", Description: "Literal text to search for"},
				"file_pattern": {Type: "string", Description: "Glob pattern limiting which files are scanned"},
			},
			Required: []string{"query"},
		},
	}
}
