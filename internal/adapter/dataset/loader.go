package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// frontMatter is the optional YAML block a dataset file may open with.
// Only the id matters to the loader; titles and tags are for humans.
type frontMatter struct {
	ID string `yaml:"id"`
}

// Loader reads datasets from disk. A dataset is one subdirectory under
// the root; each matching file yields one document per section, with
// sections split on the separator line. File order is sorted, so
// document order is stable across runs.
type Loader struct {
	root      string
	separator string
	walker    port.FileWalker
	logger    *slog.Logger
}

func NewLoader(root, separator string, walker port.FileWalker, logger *slog.Logger) *Loader {
	if separator == "" {
		separator = "---"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		root:      root,
		separator: separator,
		walker:    walker,
		logger:    logger,
	}
}

func (l *Loader) Load(ctx context.Context, datasetID string) ([]domain.Document, error) {
	if datasetID == "" || datasetID == "." || datasetID == ".." || datasetID != filepath.Base(datasetID) {
		return nil, fmt.Errorf("invalid dataset id %q", datasetID)
	}

	files, err := l.walker.Walk(filepath.Join(l.root, datasetID))
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset %s: %w", datasetID, err)
	}
	sort.Strings(files)

	var docs []domain.Document
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileDocs, err := l.parseFile(datasetID, path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, fileDocs...)
	}

	l.logger.DebugContext(ctx, "dataset loaded",
		"dataset", datasetID, "files", len(files), "documents", len(docs))
	return docs, nil
}

func (l *Loader) parseFile(datasetID, path string) ([]domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	fm, body := l.splitFrontMatter(path, string(raw))

	baseID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if fm.ID != "" {
		baseID = fm.ID
	}

	sections := splitSections(body, l.separator)

	var docs []domain.Document
	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		id := fmt.Sprintf("%s/%s", datasetID, baseID)
		if len(sections) > 1 {
			id = fmt.Sprintf("%s/%s#%d", datasetID, baseID, len(docs))
		}
		docs = append(docs, domain.Document{ID: id, Text: section})
	}
	return docs, nil
}

// splitFrontMatter strips a leading "---" fenced YAML block. Text without
// an opening fence on the first line, or without a closing fence, passes
// through whole.
func (l *Loader) splitFrontMatter(path, text string) (frontMatter, string) {
	var fm frontMatter

	first, rest, found := strings.Cut(text, "\n")
	if !found || strings.TrimRight(first, "\r") != "---" {
		return fm, text
	}

	lines := strings.Split(rest, "\n")
	for i, line := range lines {
		if strings.TrimRight(line, "\r") != "---" {
			continue
		}
		block := strings.Join(lines[:i], "\n")
		body := strings.Join(lines[i+1:], "\n")
		if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
			l.logger.Warn("ignoring malformed front matter", "file", path, "error", err)
			fm = frontMatter{}
		}
		return fm, body
	}
	return fm, text
}

func splitSections(body, separator string) []string {
	lines := strings.Split(body, "\n")

	var sections []string
	var current []string
	for _, line := range lines {
		if strings.TrimRight(line, "\r") == separator {
			sections = append(sections, strings.Join(current, "\n"))
			current = current[:0]
			continue
		}
		current = append(current, line)
	}
	return append(sections, strings.Join(current, "\n"))
}
