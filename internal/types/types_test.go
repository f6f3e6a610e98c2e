package types

import (
	"errors"
	"testing"
)

func mustValidationError(t *testing.T, err error, context string) {
	t.Helper()
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Category != ErrCatValidation {
		t.Errorf("%s: expected validation error, got %v", context, err)
	}
}

func TestGenerateRequestValidate(t *testing.T) {
	valid := GenerateRequest{Type: DocDictamen, Title: "Título", Instructions: "Instrucciones suficientes."}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Valid request rejected: %v", err)
	}

	// An explicit k=0 is valid: it requests generation without retrieval.
	zero := 0
	valid.TopK = &zero
	if err := valid.Validate(); err != nil {
		t.Fatalf("Explicit k=0 rejected: %v", err)
	}

	negative := -1
	cases := map[string]GenerateRequest{
		"missing type":       {Title: "Título", Instructions: "Instrucciones suficientes."},
		"short title":        {Type: DocMemo, Title: "ab", Instructions: "Instrucciones suficientes."},
		"whitespace title":   {Type: DocMemo, Title: "   a   ", Instructions: "Instrucciones suficientes."},
		"short instructions": {Type: DocMemo, Title: "Título", Instructions: "corto"},
		"negative k":         {Type: DocMemo, Title: "Título", Instructions: "Instrucciones suficientes.", TopK: &negative},
	}
	for name, req := range cases {
		mustValidationError(t, req.Validate(), name)
	}
}

func TestIngestRequestValidate(t *testing.T) {
	valid := IngestRequest{Items: []IngestItem{
		{Text: "Texto con longitud más que suficiente.", Source: SourceNormativa},
	}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Valid request rejected: %v", err)
	}

	mustValidationError(t, (&IngestRequest{}).Validate(), "empty items")

	short := IngestRequest{Items: []IngestItem{{Text: "corto", Source: SourceJuris}}}
	mustValidationError(t, short.Validate(), "short text")

	// doctrina and otra are valid source kinds but not ingestable.
	badSource := IngestRequest{Items: []IngestItem{
		{Text: "Texto con longitud más que suficiente.", Source: SourceDoctrina},
	}}
	mustValidationError(t, badSource.Validate(), "non-ingestable source")

	// One bad item rejects the whole batch.
	mixed := IngestRequest{Items: []IngestItem{
		{Text: "Texto con longitud más que suficiente.", Source: SourceInterno},
		{Text: "x", Source: SourceInterno},
	}}
	mustValidationError(t, mixed.Validate(), "mixed batch")
}

func TestDocumentQueryRequestValidate(t *testing.T) {
	valid := DocumentQueryRequest{DocumentID: "doc-1", Query: "¿Qué concluye?"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Valid request rejected: %v", err)
	}

	mustValidationError(t, (&DocumentQueryRequest{Query: "q"}).Validate(), "missing id")
	mustValidationError(t, (&DocumentQueryRequest{DocumentID: "doc-1", Query: " "}).Validate(), "blank query")
}

func TestDegradedClassification(t *testing.T) {
	d := DegradedClassification()
	if d.Type != ContractOther || d.Confidence != ConfidenceLow {
		t.Errorf("Unexpected degraded classification: %+v", d)
	}
}

func TestChecklistKeysStable(t *testing.T) {
	keys := ChecklistKeys()
	if len(keys) != 8 {
		t.Fatalf("Expected 8 dimensions, got %d", len(keys))
	}
	if keys[0] != KeySalesTargets || keys[7] != KeyTerritorialRestrictions {
		t.Errorf("Unexpected dimension order: %v", keys)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := NewPersistenceError("save document", inner)
	if !errors.Is(err, inner) {
		t.Error("AppError should unwrap to the inner error")
	}
}
