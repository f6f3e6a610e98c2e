package extract

import (
	"errors"
	"testing"

	"letrado/internal/types"
)

func TestExtractPlainText(t *testing.T) {
	e := NewPlainText()

	text, err := e.Extract("contrato.txt", []byte("  Cláusula primera.  \n"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if text != "Cláusula primera." {
		t.Errorf("Unexpected text: %q", text)
	}
}

func TestExtractMarkdown(t *testing.T) {
	e := NewPlainText()
	if _, err := e.Extract("contrato.md", []byte("# Contrato\n\nTexto.")); err != nil {
		t.Fatalf("Extract failed for .md: %v", err)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	e := NewPlainText()

	for _, name := range []string{"contrato.pdf", "contrato.docx", "contrato"} {
		_, err := e.Extract(name, []byte("data"))
		var appErr *types.AppError
		if !errors.As(err, &appErr) || appErr.Category != types.ErrCatFormat {
			t.Errorf("%s: expected format error, got %v", name, err)
		}
	}
}

func TestExtractInvalidUTF8(t *testing.T) {
	e := NewPlainText()
	_, err := e.Extract("contrato.txt", []byte{0xff, 0xfe, 0xfd})
	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Category != types.ErrCatFormat {
		t.Fatalf("Expected format error for invalid UTF-8, got %v", err)
	}
}

func TestExtractEmptyFile(t *testing.T) {
	e := NewPlainText()
	if _, err := e.Extract("contrato.txt", []byte("   \n  ")); err == nil {
		t.Fatal("Expected error for empty file")
	}
}
