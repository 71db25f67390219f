package service

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/relive/relive/internal/markdown"
	"github.com/relive/relive/internal/model"
)

// ImportResult summarizes a Markdown import.
type ImportResult struct {
	Imported int
	Skipped  map[string]error
}

// Importer turns Markdown journal files with YAML front matter into memories.
type Importer struct {
	memoryService *MemoryService
	parser        *markdown.Parser
}

func NewImporter(memoryService *MemoryService) *Importer {
	return &Importer{
		memoryService: memoryService,
		parser:        markdown.NewParser(),
	}
}

// ImportDir imports every *.md file in fsys for userID. Files that fail
// are recorded in the result and do not stop the import.
func (i *Importer) ImportDir(ctx context.Context, userID string, fsys fs.FS) (*ImportResult, error) {
	result := &ImportResult{Skipped: map[string]error{}}

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		source, err := fs.ReadFile(fsys, path)
		if err != nil {
			result.Skipped[path] = err
			return nil
		}

		input, err := i.Parse(path, source)
		if err != nil {
			result.Skipped[path] = err
			return nil
		}

		memory, err := i.memoryService.Create(ctx, userID, input)
		if err != nil {
			result.Skipped[path] = err
			return nil
		}

		result.Imported++
		slog.Debug("memory imported", "path", path, "memory_id", memory.ID)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to walk import directory: %w", err)
	}

	return result, nil
}

// Parse reads front matter keys title, date, mood, location and tags.
// The title falls back to the file name; the date is required.
func (i *Importer) Parse(path string, source []byte) (MemoryInput, error) {
	doc, err := i.parser.Parse(source)
	if err != nil {
		return MemoryInput{}, fmt.Errorf("failed to parse markdown: %w", err)
	}
	meta := doc.Meta

	input := MemoryInput{
		Title:         metaString(meta, "title"),
		Content:       string(doc.Body),
		ContentFormat: model.ContentFormatMarkdown,
		Mood:          metaString(meta, "mood"),
		Location:      metaString(meta, "location"),
		Tags:          metaStrings(meta, "tags"),
	}
	if input.Title == "" {
		input.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	switch date := meta["date"].(type) {
	case time.Time:
		input.Date = date.Format(dateLayout)
	case string:
		input.Date = date
	case nil:
		return MemoryInput{}, fmt.Errorf("date: missing from front matter")
	default:
		input.Date = fmt.Sprint(date)
	}

	return input, nil
}

func metaString(meta map[string]any, key string) string {
	v, ok := meta[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// metaStrings accepts a YAML list or a comma-separated string.
func metaStrings(meta map[string]any, key string) []string {
	switch v := meta[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case []string:
		return v
	case string:
		return strings.Split(v, ",")
	}
	return nil
}
