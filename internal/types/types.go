// Package types holds the shared domain types for letrado: retrieved
// passages, citations, generated documents, and the contract-analysis
// result shapes. Request validation lives next to the request types so
// the transport layers (HTTP, CLI) share one contract.
package types

import (
	"fmt"
	"strings"
	"time"
)

// SourceKind classifies where a corpus passage comes from.
type SourceKind string

const (
	SourceNormativa SourceKind = "normativa" // statutes, codes, regulations
	SourceJuris     SourceKind = "juris"     // case law
	SourceInterno   SourceKind = "interno"   // firm-internal material
	SourceDoctrina  SourceKind = "doctrina"  // scholarly commentary
	SourceOtra      SourceKind = "otra"
)

// ValidSourceKind reports whether s is one of the known source kinds.
func ValidSourceKind(s SourceKind) bool {
	switch s {
	case SourceNormativa, SourceJuris, SourceInterno, SourceDoctrina, SourceOtra:
		return true
	}
	return false
}

// Passage is one retrieved text chunk plus its source metadata.
// Passages are produced fresh per query and never persisted as-is;
// only the derived Citation survives into a document.
type Passage struct {
	Text     string
	Title    string
	Source   SourceKind
	URL      string
	Score    float64
	Metadata map[string]interface{}
}

// Citation is the user-facing, persisted projection of a passage's
// provenance. The citation list attached to a document preserves
// retrieval ranking order.
type Citation struct {
	Source SourceKind `json:"source"`
	Title  string     `json:"title"`
	URL    string     `json:"url,omitempty"`
}

// CitationOf projects a passage down to its citation.
func CitationOf(p Passage) Citation {
	return Citation{Source: p.Source, Title: p.Title, URL: p.URL}
}

// DocumentType identifies which template a generation request fills.
type DocumentType string

const (
	DocDictamen DocumentType = "dictamen"
	DocContrato DocumentType = "contrato"
	DocMemo     DocumentType = "memo"
	DocEscrito  DocumentType = "escrito"
)

// GeneratedFields maps template placeholder names to model-generated
// values. Keys are exactly the placeholder set of the chosen template,
// minus the reserved citations placeholder.
type GeneratedFields map[string]string

// ComposedDocument is the final output of a generation run: a fully
// substituted markdown body plus its supporting citations. Immutable
// once persisted; follow-up queries produce new response strings.
type ComposedDocument struct {
	ID        string       `json:"id"`
	Type      DocumentType `json:"type"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Citations []Citation   `json:"citations"`
	CreatedAt time.Time    `json:"created_at"`
}

// GenerateRequest is the logical generation request contract. TopK is
// a pointer so an explicit zero (no retrieval, answer uninformed) is
// distinguishable from an absent k, which means the configured default.
type GenerateRequest struct {
	Type         DocumentType `json:"type"`
	Title        string       `json:"title"`
	Instructions string       `json:"instructions"`
	TopK         *int         `json:"k,omitempty"`
}

// Validate checks required fields. Malformed input is rejected before
// any retrieval or generation work begins.
func (r *GenerateRequest) Validate() error {
	if strings.TrimSpace(string(r.Type)) == "" {
		return NewValidationError("type is required")
	}
	if len(strings.TrimSpace(r.Title)) < 3 {
		return NewValidationError("title must be at least 3 characters")
	}
	if len(strings.TrimSpace(r.Instructions)) < 10 {
		return NewValidationError("instructions must be at least 10 characters")
	}
	if r.TopK != nil && *r.TopK < 0 {
		return NewValidationError("k must not be negative")
	}
	return nil
}

// GenerateResult is the transport-agnostic generation response.
type GenerateResult struct {
	DocumentID string     `json:"document_id"`
	Markdown   string     `json:"markdown"`
	Citations  []Citation `json:"citations"`
}

// IngestItem is one corpus entry submitted for ingestion.
type IngestItem struct {
	Text   string                 `json:"text"`
	Source SourceKind             `json:"source"`
	Title  string                 `json:"title,omitempty"`
	URL    string                 `json:"url,omitempty"`
	Meta   map[string]interface{} `json:"meta,omitempty"`
}

// IngestRequest carries a batch of corpus entries.
type IngestRequest struct {
	Items []IngestItem `json:"items"`
}

// Validate checks every item before any of them is stored.
func (r *IngestRequest) Validate() error {
	if len(r.Items) == 0 {
		return NewValidationError("items must not be empty")
	}
	for i, item := range r.Items {
		if len(strings.TrimSpace(item.Text)) < 20 {
			return NewValidationError(fmt.Sprintf("items[%d].text must be at least 20 characters", i))
		}
		switch item.Source {
		case SourceNormativa, SourceJuris, SourceInterno:
		default:
			return NewValidationError(fmt.Sprintf("items[%d].source must be one of normativa, juris, interno", i))
		}
	}
	return nil
}

// DocumentQueryRequest is a closed-book follow-up over a persisted
// document: the answer uses only the stored content, no new retrieval.
type DocumentQueryRequest struct {
	DocumentID string `json:"document_id"`
	Query      string `json:"query"`
}

// Validate checks required fields.
func (r *DocumentQueryRequest) Validate() error {
	if strings.TrimSpace(r.DocumentID) == "" {
		return NewValidationError("document_id is required")
	}
	if strings.TrimSpace(r.Query) == "" {
		return NewValidationError("query is required")
	}
	return nil
}

// DocumentQueryResult echoes the query alongside the model's answer.
type DocumentQueryResult struct {
	DocumentID string `json:"document_id"`
	Query      string `json:"query"`
	Response   string `json:"response"`
}
