package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	chromem "github.com/philippgille/chromem-go"
)

// StoreConfig locates the vector store on disk.
type StoreConfig struct {
	// PersistPath is a directory; empty keeps the store in memory.
	PersistPath string
	Collection  string
}

// ChromemIndex is a chromem-go collection used as the vector index.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	embed      chromem.EmbeddingFunc
}

// OpenChromemIndex opens, or creates, the configured collection.
func OpenChromemIndex(cfg StoreConfig, embed chromem.EmbeddingFunc) (*ChromemIndex, error) {
	if embed == nil {
		return nil, fmt.Errorf("vector store requires an embedding function")
	}
	name := cfg.Collection
	if name == "" {
		name = "docs"
	}

	var (
		db  *chromem.DB
		err error
	)
	if cfg.PersistPath != "" {
		db, err = chromem.NewPersistentDB(filepath.Join(cfg.PersistPath, "chromem"), false)
		if err != nil {
			return nil, fmt.Errorf("open vector store %s: %w", cfg.PersistPath, err)
		}
	} else {
		db = chromem.NewDB()
	}

	collection, err := db.GetOrCreateCollection(name, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", name, err)
	}
	return &ChromemIndex{db: db, collection: collection, name: name, embed: embed}, nil
}

// Search queries at most min(k, Count()) nearest documents.
func (c *ChromemIndex) Search(ctx context.Context, query string, k int) ([]Candidate, error) {
	n := k
	if count := c.collection.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}
	results, err := c.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}
	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, Candidate{
			ID:       r.ID,
			Text:     r.Content,
			Score:    float64(r.Similarity),
			Metadata: r.Metadata,
		})
	}
	return candidates, nil
}

// Add embeds and stores documents.
func (c *ChromemIndex) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	batch := make([]chromem.Document, len(docs))
	for i, d := range docs {
		batch[i] = chromem.Document{ID: d.ID, Content: d.Text, Metadata: d.Metadata}
	}
	if err := c.collection.AddDocuments(ctx, batch, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Reset drops every stored document and recreates an empty collection.
func (c *ChromemIndex) Reset() error {
	if err := c.db.DeleteCollection(c.name); err != nil {
		return fmt.Errorf("delete collection %s: %w", c.name, err)
	}
	collection, err := c.db.GetOrCreateCollection(c.name, nil, c.embed)
	if err != nil {
		return fmt.Errorf("recreate collection %s: %w", c.name, err)
	}
	c.collection = collection
	return nil
}

func (c *ChromemIndex) Count() int {
	return c.collection.Count()
}
