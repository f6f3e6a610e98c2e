package template

import (
	"os"
	"strings"
	"testing"

	"letrado/internal/types"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func TestCompileFields(t *testing.T) {
	tmpl, err := Compile("test", "# {{titulo}}\n{{cuerpo}}\n{{titulo}}\n{{citas}}")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	fields := tmpl.Fields()
	if len(fields) != 2 {
		t.Fatalf("Expected 2 fields, got %v", fields)
	}
	// Sorted, deduplicated, and the reserved placeholder excluded.
	if fields[0] != "cuerpo" || fields[1] != "titulo" {
		t.Errorf("Unexpected field set: %v", fields)
	}
}

func TestCompileEmpty(t *testing.T) {
	if _, err := Compile("empty", "   "); err == nil {
		t.Fatal("Expected error for empty template")
	}
}

func TestFillReplacesEveryOccurrence(t *testing.T) {
	tmpl, err := Compile("test", "{{x}} and {{x}} again, plus {{y}}")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	out := tmpl.Fill(types.GeneratedFields{"x": "A", "y": "B"}, nil)
	if out != "A and A again, plus B" {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestFillMissingFieldDefaultsToEmpty(t *testing.T) {
	tmpl, err := Compile("test", "start{{missing}}end")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	out := tmpl.Fill(types.GeneratedFields{}, nil)
	if out != "startend" {
		t.Errorf("Expected missing field to render empty, got %q", out)
	}
	if strings.Contains(out, "{{") {
		t.Errorf("Residual placeholder in output: %q", out)
	}
}

// A value that itself contains placeholder syntax must be emitted
// verbatim: substitution is node-based and never rescans values.
func TestFillValueContainingBracesIsNotRescanned(t *testing.T) {
	tmpl, err := Compile("test", "{{a}}-{{b}}")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	out := tmpl.Fill(types.GeneratedFields{"a": "{{b}}", "b": "plain"}, nil)
	if out != "{{b}}-plain" {
		t.Errorf("Value was rescanned: %q", out)
	}
}

func TestFillIsIdempotentOnSubstitutedText(t *testing.T) {
	tmpl, err := Compile("test", "# {{titulo}}\n\n{{cuerpo}}\n\n{{citas}}")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	fields := types.GeneratedFields{"titulo": "Dictamen", "cuerpo": "Texto del análisis."}
	citations := []types.Citation{{Source: types.SourceNormativa, Title: "CCyC art. 1077"}}

	once := tmpl.Fill(fields, citations)

	// Re-compiling the output and filling again must not change it:
	// the substituted text contains no placeholder tokens.
	again, err := Compile("refill", once)
	if err != nil {
		t.Fatalf("Recompile failed: %v", err)
	}
	if got := again.Fill(fields, citations); got != once {
		t.Errorf("Re-fill changed output:\nfirst:  %q\nsecond: %q", once, got)
	}
}

func TestFillCitationsPlaceholder(t *testing.T) {
	tmpl, err := Compile("test", "## Fuentes\n\n{{citas}}")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	citations := []types.Citation{
		{Source: types.SourceNormativa, Title: "Ley 24.240", URL: "https://example.org/ley"},
		{Source: types.SourceJuris, Title: "CSJN Fallos 300:100"},
	}
	out := tmpl.Fill(nil, citations)

	if !strings.Contains(out, "- Ley 24.240 (normativa) https://example.org/ley") {
		t.Errorf("First citation not rendered: %q", out)
	}
	if !strings.Contains(out, "- CSJN Fallos 300:100 (juris)") {
		t.Errorf("Second citation not rendered: %q", out)
	}
}

func TestRenderCitationsEmpty(t *testing.T) {
	out := RenderCitations(nil)
	if out == "" {
		t.Error("Empty citation list should render a visible placeholder line")
	}
}

func TestRegistryBuiltins(t *testing.T) {
	r, err := NewRegistry("")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	for _, docType := range []types.DocumentType{
		types.DocDictamen, types.DocContrato, types.DocMemo, types.DocEscrito,
	} {
		tmpl, ok := r.Get(docType)
		if !ok {
			t.Fatalf("Missing built-in template for %s", docType)
		}
		if len(tmpl.Fields()) == 0 {
			t.Errorf("Template %s has no fields", docType)
		}
	}

	if _, ok := r.Get("unknown"); ok {
		t.Error("Unknown type should not resolve")
	}

	got := r.Types()
	want := []types.DocumentType{types.DocContrato, types.DocDictamen, types.DocEscrito, types.DocMemo}
	if len(got) != len(want) {
		t.Fatalf("Types: expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Types[%d]: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRegistryOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/templates.yaml"
	content := "templates:\n  memo: |\n    # {{titulo}}\n    {{unico}}\n    {{citas}}\n"
	if err := writeFile(path, content); err != nil {
		t.Fatalf("write override: %v", err)
	}

	r, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("NewRegistry with override failed: %v", err)
	}

	tmpl, _ := r.Get(types.DocMemo)
	fields := tmpl.Fields()
	if len(fields) != 2 || fields[0] != "titulo" || fields[1] != "unico" {
		t.Errorf("Override not applied, fields: %v", fields)
	}

	// Other built-ins are untouched.
	if _, ok := r.Get(types.DocDictamen); !ok {
		t.Error("Built-in dictamen lost after override")
	}
}

func TestRegistryOverrideUnknownType(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/templates.yaml"
	if err := writeFile(path, "templates:\n  carta: \"{{x}}\"\n"); err != nil {
		t.Fatalf("write override: %v", err)
	}

	if _, err := NewRegistry(path); err == nil {
		t.Fatal("Expected error for unknown document type in override file")
	}
}
