package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"letrado/internal/logging"
	"letrado/internal/types"
)

// SaveDocument persists a composed document and returns its id.
// Called only after generation succeeds; there is no partial persist.
func (s *LegalStore) SaveDocument(docType types.DocumentType, title, content string, citations []types.Citation) (string, error) {
	timer := logging.StartTimer(logging.CategoryStore, "SaveDocument")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return "", fmt.Errorf("failed to serialize citations: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT INTO documents (id, type, title, content_md, citations) VALUES (?, ?, ?, ?, ?)",
		id, string(docType), title, content, string(citationsJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save document: %w", err)
	}

	logging.Store("Saved document %s (type=%s, title=%q, citations=%d)", id, docType, title, len(citations))
	return id, nil
}

// GetDocument loads a persisted document by id.
func (s *LegalStore) GetDocument(id string) (*types.ComposedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc types.ComposedDocument
	var docType, citationsJSON string
	var createdAt time.Time

	err := s.db.QueryRow(
		"SELECT id, type, title, content_md, citations, created_at FROM documents WHERE id = ?",
		id,
	).Scan(&doc.ID, &docType, &doc.Title, &doc.Content, &citationsJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, types.NewNotFoundError(fmt.Sprintf("document %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	doc.Type = types.DocumentType(docType)
	doc.CreatedAt = createdAt
	if err := json.Unmarshal([]byte(citationsJSON), &doc.Citations); err != nil {
		return nil, fmt.Errorf("failed to parse citations: %w", err)
	}

	return &doc, nil
}

// SaveAnalysis upserts the analysis row for a document. Re-analysis
// replaces the prior row, never appends.
func (s *LegalStore) SaveAnalysis(result *types.AnalysisResult) error {
	timer := logging.StartTimer(logging.CategoryStore, "SaveAnalysis")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	translatedJSON, err := json.Marshal(result.Clauses)
	if err != nil {
		return fmt.Errorf("failed to serialize clauses: %w", err)
	}
	classificationJSON, err := json.Marshal(result.Classification)
	if err != nil {
		return fmt.Errorf("failed to serialize classification: %w", err)
	}
	checklistJSON, err := json.Marshal(result.Checklist)
	if err != nil {
		return fmt.Errorf("failed to serialize checklist: %w", err)
	}
	citationsJSON, err := json.Marshal(result.Citations)
	if err != nil {
		return fmt.Errorf("failed to serialize citations: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO analyses (document_id, state, original, translated, classification, checklist, citations, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			state = excluded.state,
			original = excluded.original,
			translated = excluded.translated,
			classification = excluded.classification,
			checklist = excluded.checklist,
			citations = excluded.citations,
			report = excluded.report,
			created_at = CURRENT_TIMESTAMP`,
		result.DocumentID, string(result.State), result.Original,
		string(translatedJSON), string(classificationJSON), string(checklistJSON),
		string(citationsJSON), result.Report,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	logging.Store("Saved analysis for document %s (state=%s)", result.DocumentID, result.State)
	return nil
}

// GetAnalysis loads the analysis row for a document.
func (s *LegalStore) GetAnalysis(documentID string) (*types.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result types.AnalysisResult
	var state, translatedJSON, classificationJSON, checklistJSON, citationsJSON string
	var createdAt time.Time

	err := s.db.QueryRow(`
		SELECT document_id, state, original, translated, classification, checklist, citations, report, created_at
		FROM analyses WHERE document_id = ?`,
		documentID,
	).Scan(&result.DocumentID, &state, &result.Original, &translatedJSON,
		&classificationJSON, &checklistJSON, &citationsJSON, &result.Report, &createdAt)
	if err == sql.ErrNoRows {
		return nil, types.NewNotFoundError(fmt.Sprintf("analysis for document %s not found", documentID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	result.State = types.AnalysisState(state)
	result.CreatedAt = createdAt
	if err := json.Unmarshal([]byte(translatedJSON), &result.Clauses); err != nil {
		return nil, fmt.Errorf("failed to parse clauses: %w", err)
	}
	if err := json.Unmarshal([]byte(classificationJSON), &result.Classification); err != nil {
		return nil, fmt.Errorf("failed to parse classification: %w", err)
	}
	if err := json.Unmarshal([]byte(checklistJSON), &result.Checklist); err != nil {
		return nil, fmt.Errorf("failed to parse checklist: %w", err)
	}
	if err := json.Unmarshal([]byte(citationsJSON), &result.Citations); err != nil {
		return nil, fmt.Errorf("failed to parse citations: %w", err)
	}

	return &result, nil
}
