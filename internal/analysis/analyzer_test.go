package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"letrado/internal/config"
	"letrado/internal/extract"
	"letrado/internal/types"
)

type mockClient struct {
	completeFunc func(ctx context.Context, system, user string) (string, error)
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

func (m *mockClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, system, user)
	}
	return "ok", nil
}

func (m *mockClient) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	return m.CompleteWithSystem(ctx, system, user)
}

type mockRetriever struct {
	retrieveFunc func(ctx context.Context, query string, topK int) ([]types.Passage, error)
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, topK int) ([]types.Passage, error) {
	if m.retrieveFunc != nil {
		return m.retrieveFunc(ctx, query, topK)
	}
	return nil, nil
}

type mockStore struct {
	saveDocErr error
	docCount   int
	analyses   map[string]*types.AnalysisResult
	states     []types.AnalysisState
}

func (m *mockStore) SaveDocument(docType types.DocumentType, title, content string, citations []types.Citation) (string, error) {
	if m.saveDocErr != nil {
		return "", m.saveDocErr
	}
	m.docCount++
	return fmt.Sprintf("doc-%d", m.docCount), nil
}

func (m *mockStore) SaveAnalysis(result *types.AnalysisResult) error {
	if m.analyses == nil {
		m.analyses = make(map[string]*types.AnalysisResult)
	}
	copied := *result
	m.analyses[result.DocumentID] = &copied
	m.states = append(m.states, result.State)
	return nil
}

func (m *mockStore) GetAnalysis(documentID string) (*types.AnalysisResult, error) {
	r, ok := m.analyses[documentID]
	if !ok {
		return nil, types.NewNotFoundError("analysis not found")
	}
	return r, nil
}

type noopAdmission struct {
	acquired, released int
}

func (a *noopAdmission) Acquire(ctx context.Context, runID string) error {
	a.acquired++
	return nil
}

func (a *noopAdmission) Release(runID string) { a.released++ }

// fullChecklistJSON builds a checklist response covering every
// dimension.
func fullChecklistJSON() string {
	var items []string
	for _, k := range types.ChecklistKeys() {
		items = append(items, fmt.Sprintf(
			`{"key":"%s","found":"yes","clauses":["3"],"text":"hallado","risk":"medium","comment":"revisar"}`, k))
	}
	return `{"items":[` + strings.Join(items, ",") + `]}`
}

// dispatchingClient answers each stage by recognizing its system
// prompt.
func dispatchingClient(t *testing.T, classifyResponse string) *mockClient {
	t.Helper()
	return &mockClient{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		switch {
		case strings.Contains(system, "traductor"):
			return `{"clauses":[
				{"number":"1","original":"First clause.","text":"Primera cláusula."},
				{"number":"2","original":"Second clause.","text":"Segunda cláusula."}]}`, nil
		case strings.Contains(system, "Clasifica"):
			return classifyResponse, nil
		case strings.Contains(system, "dimensiones de riesgo"):
			return fullChecklistJSON(), nil
		case strings.Contains(system, "informe"):
			return "# Informe\n\nResumen del análisis.", nil
		default:
			return "", fmt.Errorf("unexpected prompt: %s", system)
		}
	}}
}

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		TranslateTimeout: "5s", ClassifyTimeout: "5s", ChecklistTimeout: "5s", ReportTimeout: "5s",
	}
}

func newTestAnalyzer(client *mockClient, retriever *mockRetriever, st *mockStore, adm *noopAdmission) *Analyzer {
	return NewAnalyzer(client, retriever, extract.NewPlainText(), st, adm,
		config.RetrievalConfig{DefaultTopK: 6, MaxTopK: 20, OverFetchFactor: 2},
		testAnalysisConfig())
}

func TestRunFullPipeline(t *testing.T) {
	client := dispatchingClient(t, `{"type":"distribution","confidence":"high"}`)
	retriever := &mockRetriever{retrieveFunc: func(ctx context.Context, query string, topK int) ([]types.Passage, error) {
		return []types.Passage{
			{Title: "Fallo A", Source: types.SourceJuris},
			{Title: "Interno", Source: types.SourceInterno},
			{Title: "Ley B", Source: types.SourceNormativa},
		}, nil
	}}
	st := &mockStore{}
	adm := &noopAdmission{}

	result, err := newTestAnalyzer(client, retriever, st, adm).Run(
		context.Background(), "contract.txt", "Contrato de distribución",
		[]byte("First clause. Second clause. Long enough contract body."))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.State != types.StateDone {
		t.Errorf("Expected state done, got %s", result.State)
	}
	if len(result.Clauses) != 2 {
		t.Errorf("Expected 2 clauses, got %d", len(result.Clauses))
	}
	if result.Classification.Type != types.ContractDistribution {
		t.Errorf("Unexpected classification: %+v", result.Classification)
	}
	if len(result.Checklist) != len(types.ChecklistKeys()) {
		t.Errorf("Expected %d checklist items, got %d", len(types.ChecklistKeys()), len(result.Checklist))
	}
	// Internal material is filtered out of jurisprudence citations.
	if len(result.Citations) != 2 {
		t.Errorf("Expected 2 citable citations, got %v", result.Citations)
	}
	if !strings.Contains(result.Report, "Informe") {
		t.Errorf("Unexpected report: %q", result.Report)
	}

	// Every state transition was persisted, ending in done.
	wantStates := []types.AnalysisState{
		types.StateExtracted, types.StateTranslated, types.StateClassified,
		types.StateChecklisted, types.StateJurisQueried, types.StateReported, types.StateDone,
	}
	if len(st.states) != len(wantStates) {
		t.Fatalf("Expected %d persisted states, got %v", len(wantStates), st.states)
	}
	for i, want := range wantStates {
		if st.states[i] != want {
			t.Errorf("State %d: expected %s, got %s", i, want, st.states[i])
		}
	}

	if adm.acquired != 1 || adm.released != 1 {
		t.Errorf("Admission acquire/release mismatch: %d/%d", adm.acquired, adm.released)
	}
}

// A classifier failure must not abort the run: the documented
// fallback {other, low} is recorded and later stages still execute.
func TestRunClassifierDegrades(t *testing.T) {
	client := dispatchingClient(t, "respuesta no estructurada")
	st := &mockStore{}

	result, err := newTestAnalyzer(client, &mockRetriever{}, st, &noopAdmission{}).Run(
		context.Background(), "contract.txt", "Contrato",
		[]byte("First clause. Second clause. Long enough contract body."))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Classification.Type != types.ContractOther {
		t.Errorf("Expected degraded type other, got %s", result.Classification.Type)
	}
	if result.Classification.Confidence != types.ConfidenceLow {
		t.Errorf("Expected degraded confidence low, got %s", result.Classification.Confidence)
	}
	if result.State != types.StateDone {
		t.Errorf("Degraded run should still finish, got state %s", result.State)
	}
	if len(result.Checklist) == 0 {
		t.Error("Checklist stage should still run after degraded classification")
	}
}

func TestRunOutOfSetClassificationDegrades(t *testing.T) {
	client := dispatchingClient(t, `{"type":"sale_of_goods","confidence":"high"}`)
	st := &mockStore{}

	result, err := newTestAnalyzer(client, &mockRetriever{}, st, &noopAdmission{}).Run(
		context.Background(), "contract.txt", "Contrato",
		[]byte("First clause. Second clause. Long enough contract body."))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Classification != types.DegradedClassification() {
		t.Errorf("Expected degraded classification, got %+v", result.Classification)
	}
}

func TestRunTranslateFailurePropagates(t *testing.T) {
	client := &mockClient{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		return "", errors.New("model unavailable")
	}}
	st := &mockStore{}

	result, err := newTestAnalyzer(client, &mockRetriever{}, st, &noopAdmission{}).Run(
		context.Background(), "contract.txt", "Contrato",
		[]byte("Some contract text long enough to extract."))
	if err == nil {
		t.Fatal("Expected error when translation fails")
	}

	if result == nil || result.State != types.StateFailed {
		t.Fatalf("Expected failed terminal state, got %+v", result)
	}
	// The terminal state is persisted with a visible reason.
	persisted, perr := st.GetAnalysis(result.DocumentID)
	if perr != nil {
		t.Fatalf("Failed state not persisted: %v", perr)
	}
	if persisted.State != types.StateFailed || !strings.Contains(persisted.Report, "fallido") {
		t.Errorf("Persisted failure incomplete: %+v", persisted)
	}
}

func TestRunReportFailureEmbedsError(t *testing.T) {
	client := &mockClient{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		switch {
		case strings.Contains(system, "traductor"):
			return `{"clauses":[{"number":"1","original":"Clause.","text":"Cláusula."}]}`, nil
		case strings.Contains(system, "Clasifica"):
			return `{"type":"services","confidence":"medium"}`, nil
		case strings.Contains(system, "dimensiones de riesgo"):
			return fullChecklistJSON(), nil
		default:
			return "", errors.New("report model down")
		}
	}}
	st := &mockStore{}

	result, err := newTestAnalyzer(client, &mockRetriever{}, st, &noopAdmission{}).Run(
		context.Background(), "contract.txt", "Contrato",
		[]byte("Some contract text long enough to extract."))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.State != types.StateDone {
		t.Errorf("Report failure must not abort, got state %s", result.State)
	}
	if !strings.Contains(result.Report, "report model down") {
		t.Errorf("Report should embed the stage error, got %q", result.Report)
	}
}

func TestRunJurisprudenceFailureDegrades(t *testing.T) {
	client := dispatchingClient(t, `{"type":"agency","confidence":"medium"}`)
	retriever := &mockRetriever{retrieveFunc: func(ctx context.Context, query string, topK int) ([]types.Passage, error) {
		return nil, errors.New("index offline")
	}}
	st := &mockStore{}

	result, err := newTestAnalyzer(client, retriever, st, &noopAdmission{}).Run(
		context.Background(), "contract.txt", "Contrato",
		[]byte("Some contract text long enough to extract."))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Citations) != 0 {
		t.Errorf("Expected zero citations on retrieval failure, got %v", result.Citations)
	}
	if result.State != types.StateDone {
		t.Errorf("Run should still finish, got %s", result.State)
	}
}

func TestRunUnsupportedFormatNothingPersisted(t *testing.T) {
	st := &mockStore{}
	adm := &noopAdmission{}

	_, err := newTestAnalyzer(&mockClient{}, &mockRetriever{}, st, adm).Run(
		context.Background(), "contract.pdf", "Contrato", []byte("%PDF-1.4"))

	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Category != types.ErrCatFormat {
		t.Fatalf("Expected format error, got %v", err)
	}
	if st.docCount != 0 || len(st.analyses) != 0 {
		t.Error("Nothing must be persisted when extraction rejects the file")
	}
	if adm.released != adm.acquired {
		t.Errorf("Slot leaked on early failure: acquired=%d released=%d", adm.acquired, adm.released)
	}
}
