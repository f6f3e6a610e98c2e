// Package retrieval turns free-text queries into ranked corpus
// passages and assembles them into prompt context blocks with their
// parallel citation lists.
package retrieval

import (
	"context"
	"fmt"

	"letrado/internal/logging"
	"letrado/internal/store"
	"letrado/internal/types"
)

// Retriever abstracts passage retrieval for testability.
type Retriever interface {
	// Retrieve returns at most topK passages ordered by descending
	// relevance; ties break by underlying index order. May return
	// fewer than topK when the corpus is small.
	Retrieve(ctx context.Context, query string, topK int) ([]types.Passage, error)
}

// StoreRetriever implements Retriever over the local sqlite store.
type StoreRetriever struct {
	store *store.LegalStore
}

// NewStoreRetriever creates a retriever backed by the given store.
func NewStoreRetriever(s *store.LegalStore) *StoreRetriever {
	return &StoreRetriever{store: s}
}

func (r *StoreRetriever) Retrieve(ctx context.Context, query string, topK int) ([]types.Passage, error) {
	if topK <= 0 {
		return nil, nil
	}

	passages, err := r.store.SearchPassages(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("passage search: %w", err)
	}

	logging.RetrievalDebug("Retrieve: query_len=%d topK=%d results=%d", len(query), topK, len(passages))
	return passages, nil
}

// FilterBySource keeps only passages whose source is in kinds,
// preserving ranking order. Used by the jurisprudence-enrichment path
// after over-fetching.
func FilterBySource(passages []types.Passage, kinds ...types.SourceKind) []types.Passage {
	allowed := make(map[types.SourceKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}

	filtered := make([]types.Passage, 0, len(passages))
	for _, p := range passages {
		if allowed[p.Source] {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
