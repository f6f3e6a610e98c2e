package pipeline

import (
	"context"
	"fmt"

	"letrado/internal/logging"
	"letrado/internal/types"
)

// PassageStore is the ingestion surface of the store.
type PassageStore interface {
	StorePassage(ctx context.Context, item types.IngestItem) error
}

// Ingestor stores corpus passages with their embeddings.
type Ingestor struct {
	store PassageStore
}

func NewIngestor(store PassageStore) *Ingestor {
	return &Ingestor{store: store}
}

// IngestResult reports how many items were stored.
type IngestResult struct {
	Stored int `json:"stored"`
}

// Ingest validates the whole batch up front, then stores items in
// order. A storage failure aborts mid-batch; already stored items
// stay, and the error names the failing index.
func (in *Ingestor) Ingest(ctx context.Context, req *types.IngestRequest) (*IngestResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	timer := logging.StartTimer(logging.CategoryStore, "ingest")
	defer timer.Stop()

	for i, item := range req.Items {
		if err := in.store.StorePassage(ctx, item); err != nil {
			return nil, types.NewPersistenceError(fmt.Sprintf("store items[%d]", i), err)
		}
	}

	logging.Store("Ingested %d passages", len(req.Items))
	return &IngestResult{Stored: len(req.Items)}, nil
}
