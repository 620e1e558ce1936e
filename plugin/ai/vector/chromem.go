package vector

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	chromem "github.com/philippgille/chromem-go"

	"github.com/hrygo/lexagent/plugin/ai"
)

const (
	// DefaultCollection holds the legal reference passages.
	DefaultCollection = "legal_docs"

	metaSource = "source"
)

// ChromemConfig holds embedded vector store configuration.
type ChromemConfig struct {
	PersistPath string // Directory for chromem.gob; empty keeps data in memory
	Collection  string
}

// ChromemStore implements Store on the embedded chromem-go database.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemStore opens (or creates) a persistent chromem collection.
func NewChromemStore(cfg ChromemConfig, embedder ai.EmbeddingService) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedding service is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	var db *chromem.DB
	var err error
	if cfg.PersistPath != "" {
		db, err = chromem.NewPersistentDB(filepath.Join(cfg.PersistPath, "chromem.gob"), false)
		if err != nil {
			return nil, fmt.Errorf("create persistent DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	return newChromemStore(db, cfg.Collection, embedder.Embed)
}

func newChromemStore(db *chromem.DB, name string, embed chromem.EmbeddingFunc) (*ChromemStore, error) {
	collection, err := db.GetOrCreateCollection(name, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &ChromemStore{db: db, collection: collection}, nil
}

// Index embeds and adds documents to the collection.
func (s *ChromemStore) Index(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromemDocs := make([]chromem.Document, 0, len(docs))
	for _, doc := range docs {
		chromemDocs = append(chromemDocs, chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: map[string]string{metaSource: doc.Source},
		})
	}
	if err := s.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Count returns the number of indexed passages.
func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// Search queries the collection by text.
func (s *ChromemStore) Search(ctx context.Context, query string, limit int) ([]Passage, error) {
	if limit <= 0 {
		limit = 5
	}
	// chromem rejects nResults larger than the collection.
	count := s.collection.Count()
	if count == 0 {
		return []Passage{}, nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	passages := make([]Passage, 0, len(results))
	for _, r := range results {
		passages = append(passages, Passage{
			Text:   r.Content,
			Source: r.Metadata[metaSource],
			Score:  roundScore(r.Similarity),
		})
	}
	return passages, nil
}

var _ Store = (*ChromemStore)(nil)
