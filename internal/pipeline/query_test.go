package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"letrado/internal/types"
)

func TestQueryClosedBook(t *testing.T) {
	sink := &mockSink{docs: map[string]*types.ComposedDocument{
		"doc-1": {ID: "doc-1", Type: types.DocDictamen, Title: "Rescisión", Content: "Contenido persistido del dictamen."},
	}}
	client := &mockClient{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		return "Respuesta basada en el documento.", nil
	}}
	q := NewQuerier(sink, client)

	result, err := q.Query(context.Background(), &types.DocumentQueryRequest{
		DocumentID: "doc-1",
		Query:      "¿Qué concluye el dictamen?",
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if result.Response != "Respuesta basada en el documento." {
		t.Errorf("Unexpected response: %q", result.Response)
	}
	// The prompt carries only the persisted content, no retrieval.
	if !strings.Contains(client.lastUser, "Contenido persistido del dictamen.") {
		t.Error("Prompt missing the stored document content")
	}
	// The stored document is untouched.
	if sink.docs["doc-1"].Content != "Contenido persistido del dictamen." {
		t.Error("Stored document was mutated")
	}
}

func TestQueryUnknownDocument(t *testing.T) {
	q := NewQuerier(&mockSink{}, &mockClient{})

	_, err := q.Query(context.Background(), &types.DocumentQueryRequest{
		DocumentID: "missing", Query: "¿Qué dice?",
	})
	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Category != types.ErrCatNotFound {
		t.Fatalf("Expected not_found error, got %v", err)
	}
}

func TestQueryValidation(t *testing.T) {
	q := NewQuerier(&mockSink{}, &mockClient{})

	for i, req := range []*types.DocumentQueryRequest{
		{DocumentID: "", Query: "pregunta"},
		{DocumentID: "doc-1", Query: "  "},
	} {
		_, err := q.Query(context.Background(), req)
		var appErr *types.AppError
		if !errors.As(err, &appErr) || appErr.Category != types.ErrCatValidation {
			t.Errorf("Case %d: expected validation error, got %v", i, err)
		}
	}
}
