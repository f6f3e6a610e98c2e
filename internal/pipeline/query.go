package pipeline

import (
	"context"
	"fmt"

	"letrado/internal/llm"
	"letrado/internal/logging"
	"letrado/internal/types"
)

// Querier answers follow-up questions about a persisted document. The
// answer is closed-book: the prompt carries only the stored document
// content, never fresh retrieval, and the stored document is not
// modified.
type Querier struct {
	store  DocumentStore
	client llm.Client
}

func NewQuerier(store DocumentStore, client llm.Client) *Querier {
	return &Querier{store: store, client: client}
}

func (q *Querier) Query(ctx context.Context, req *types.DocumentQueryRequest) (*types.DocumentQueryResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	doc, err := q.store.GetDocument(req.DocumentID)
	if err != nil {
		return nil, err
	}

	system := "Eres un asistente jurídico. Responde la consulta usando exclusivamente el contenido del documento provisto. Si el documento no contiene la respuesta, dilo explícitamente."
	user := fmt.Sprintf("Documento %q (%s):\n\n%s\n\nConsulta: %s", doc.Title, doc.Type, doc.Content, req.Query)

	answer, err := q.client.CompleteWithSystem(ctx, system, user)
	if err != nil {
		return nil, types.NewModelError("document query failed", err)
	}

	logging.Pipeline("Answered query on document %s (%d chars)", doc.ID, len(answer))
	return &types.DocumentQueryResult{
		DocumentID: doc.ID,
		Query:      req.Query,
		Response:   answer,
	}, nil
}
