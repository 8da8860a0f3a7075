package rag

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mwiater/docent/internal/logging"
)

// DocumentSink receives chunked documents.
type DocumentSink interface {
	Add(ctx context.Context, docs []Document) error
}

// IndexOptions controls corpus discovery and chunking.
type IndexOptions struct {
	DataDir      string
	ChunkSize    int
	ChunkOverlap int
	Extensions   []string
}

// IndexStats summarises one indexing run.
type IndexStats struct {
	Files    int
	Sections int
	Chunks   int
	Elapsed  time.Duration
}

var defaultExtensions = []string{".txt", ".md"}

// skippedFiles are bookkeeping files that live next to the corpus.
var skippedFiles = map[string]struct{}{"metadata.txt": {}}

// BuildIndex chunks every corpus file under DataDir and adds the chunks to sink.
// Files whose name contains "llms" are split into "# " sections first.
func BuildIndex(ctx context.Context, sink DocumentSink, opts IndexOptions, out io.Writer) (IndexStats, error) {
	if sink == nil {
		return IndexStats{}, fmt.Errorf("index sink is nil")
	}
	if strings.TrimSpace(opts.DataDir) == "" {
		return IndexStats{}, fmt.Errorf("data directory is required")
	}
	if opts.ChunkSize <= 0 {
		return IndexStats{}, fmt.Errorf("chunk size must be greater than zero")
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		return IndexStats{}, fmt.Errorf("chunk overlap must be in [0, chunk size)")
	}
	if out == nil {
		out = io.Discard
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = defaultExtensions
	}

	start := time.Now()
	status := func(format string, args ...any) {
		elapsed := time.Since(start).Truncate(time.Millisecond)
		msg := fmt.Sprintf("[%s] %s", elapsed, fmt.Sprintf(format, args...))
		logging.LogEvent("%s", msg)
		fmt.Fprintln(out, msg)
	}
	status("[RAG] Indexing corpus: %s", opts.DataDir)
	status("[RAG] Chunk size: %d chars, overlap: %d chars", opts.ChunkSize, opts.ChunkOverlap)

	files, err := discoverCorpusFiles(opts.DataDir, exts)
	if err != nil {
		return IndexStats{}, err
	}
	if len(files) == 0 {
		return IndexStats{}, fmt.Errorf("no corpus files found under %s", opts.DataDir)
	}
	status("[RAG] Discovered %d corpus files", len(files))

	stats := IndexStats{Files: len(files)}
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return stats, fmt.Errorf("read corpus file %s: %w", path, err)
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			status("[RAG] Skipping empty file: %s", path)
			continue
		}

		base := filepath.Base(path)
		source := strings.TrimSuffix(base, filepath.Ext(base))
		var sections []Section
		if strings.Contains(strings.ToLower(base), "llms") {
			sections = ParseSections(text, source)
		} else {
			sections = []Section{{Source: source, Title: source, Text: text}}
		}

		var docs []Document
		for si, section := range sections {
			for ci, c := range ChunkText(section.Text, opts.ChunkSize, opts.ChunkOverlap) {
				docs = append(docs, Document{
					ID:   fmt.Sprintf("%s:%d:%d", source, si, ci),
					Text: c.Text,
					Metadata: map[string]string{
						"source":  source,
						"section": section.Title,
						"chunk":   strconv.Itoa(ci),
					},
				})
			}
		}
		status("[RAG] %s: %d sections, %d chunks", base, len(sections), len(docs))
		if err := sink.Add(ctx, docs); err != nil {
			return stats, fmt.Errorf("index %s: %w", base, err)
		}
		stats.Sections += len(sections)
		stats.Chunks += len(docs)
	}

	stats.Elapsed = time.Since(start)
	status("[RAG] Index complete: %d chunks in %s", stats.Chunks, stats.Elapsed.Truncate(time.Millisecond))
	return stats, nil
}

func discoverCorpusFiles(root string, allowed []string) ([]string, error) {
	allowedMap := make(map[string]struct{}, len(allowed))
	for _, ext := range allowed {
		allowedMap[strings.ToLower(ext)] = struct{}{}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, skip := skippedFiles[strings.ToLower(d.Name())]; skip {
			return nil
		}
		if _, ok := allowedMap[strings.ToLower(filepath.Ext(path))]; ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}
