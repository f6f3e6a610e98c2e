package llm

import (
	"errors"
	"testing"
)

func TestDecodeObjectPlain(t *testing.T) {
	var out map[string]interface{}
	if err := DecodeObject(`{"a": "b"}`, &out); err != nil {
		t.Fatalf("DecodeObject failed: %v", err)
	}
	if out["a"] != "b" {
		t.Errorf("Unexpected value: %v", out)
	}
}

func TestDecodeObjectFenced(t *testing.T) {
	raw := "```json\n{\"titulo\": \"Dictamen\"}\n```"
	var out map[string]interface{}
	if err := DecodeObject(raw, &out); err != nil {
		t.Fatalf("DecodeObject failed on fenced input: %v", err)
	}
	if out["titulo"] != "Dictamen" {
		t.Errorf("Unexpected value: %v", out)
	}
}

func TestDecodeObjectWithSurroundingProse(t *testing.T) {
	raw := "Aquí está el resultado:\n{\"x\": 1}\nEspero que sirva."
	var out map[string]interface{}
	if err := DecodeObject(raw, &out); err != nil {
		t.Fatalf("DecodeObject failed on prose-wrapped input: %v", err)
	}
}

func TestDecodeObjectBracesInsideStrings(t *testing.T) {
	raw := `{"text": "usar {{plantilla}} y \"comillas\" con } dentro"}`
	var out map[string]string
	if err := DecodeObject(raw, &out); err != nil {
		t.Fatalf("DecodeObject confused by braces in string: %v", err)
	}
	if out["text"] != `usar {{plantilla}} y "comillas" con } dentro` {
		t.Errorf("Unexpected value: %q", out["text"])
	}
}

func TestDecodeObjectEmpty(t *testing.T) {
	var out map[string]interface{}
	err := DecodeObject("   ", &out)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestDecodeObjectNoObject(t *testing.T) {
	var out map[string]interface{}
	err := DecodeObject("no hay json aquí", &out)
	if !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("Expected ErrMalformedOutput, got %v", err)
	}
}

func TestDecodeObjectTruncated(t *testing.T) {
	var out map[string]interface{}
	err := DecodeObject(`{"a": "b"`, &out)
	if !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("Expected ErrMalformedOutput for truncated object, got %v", err)
	}
}

func TestDecodeStringMapCoercions(t *testing.T) {
	raw := `{"s": "texto", "n": 42, "f": 1.5, "b": true, "nul": null, "nested": {"k": "v"}}`
	out, err := DecodeStringMap(raw)
	if err != nil {
		t.Fatalf("DecodeStringMap failed: %v", err)
	}

	cases := map[string]string{
		"s":      "texto",
		"n":      "42",
		"f":      "1.5",
		"b":      "true",
		"nul":    "",
		"nested": `{"k":"v"}`,
	}
	for k, want := range cases {
		if out[k] != want {
			t.Errorf("Key %q: expected %q, got %q", k, want, out[k])
		}
	}
}

func TestDecodeStringMapRejectsArray(t *testing.T) {
	if _, err := DecodeStringMap(`["a", "b"]`); err == nil {
		t.Fatal("Expected error for top-level array")
	}
}
