package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"letrado/internal/types"
)

func reportFixture() *types.AnalysisResult {
	return &types.AnalysisResult{
		DocumentID: "doc-1",
		Original:   "El distribuidor podrá rescindir el contrato sin preaviso alguno.",
		Clauses: []types.Clause{
			{Number: "1", Original: "First clause.", Text: "Primera cláusula."},
			{Number: "2", Original: "Second clause.", Text: "Segunda cláusula."},
		},
		Classification: types.Classification{Type: types.ContractDistribution, Confidence: types.ConfidenceHigh},
		Checklist: []types.ChecklistItem{
			{Key: types.KeyTerminationWithoutCause, Found: types.FoundYes, Clauses: []string{"1"}, Risk: types.RiskHigh, Comment: "Sin preaviso."},
		},
	}
}

// The report prompt must carry the original text and the translated
// clauses, and the system prompt must demand a closing sources section
// even when no jurisprudence was retrieved.
func TestReportPromptComposition(t *testing.T) {
	var gotSystem, gotUser string
	client := &mockClient{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		gotSystem, gotUser = system, user
		return "# Informe\n\nResumen.", nil
	}}
	a := newTestAnalyzer(client, &mockRetriever{}, &mockStore{}, &noopAdmission{})

	result := reportFixture()
	if _, err := a.report(context.Background(), result); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	for _, want := range []string{
		result.Original,
		"Primera cláusula.",
		"Segunda cláusula.",
		noJurisMarker,
	} {
		if !strings.Contains(gotUser, want) {
			t.Errorf("Report prompt missing %q:\n%s", want, gotUser)
		}
	}
	if !strings.Contains(gotSystem, "Fuentes y referencias") {
		t.Error("System prompt must require a closing sources section")
	}
	if !strings.Contains(gotSystem, "SAIJ") {
		t.Error("System prompt must point at the jurisdiction's legal portals")
	}
}

// With citations present the prompt carries them instead of the
// missing-jurisprudence marker.
func TestReportPromptWithCitations(t *testing.T) {
	var gotUser string
	client := &mockClient{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		gotUser = user
		return "# Informe\n\nResumen.", nil
	}}
	a := newTestAnalyzer(client, &mockRetriever{}, &mockStore{}, &noopAdmission{})

	result := reportFixture()
	result.Citations = []types.Citation{{Source: types.SourceJuris, Title: "CSJN 300:100"}}
	if _, err := a.report(context.Background(), result); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	if !strings.Contains(gotUser, "CSJN 300:100") {
		t.Errorf("Report prompt missing citation:\n%s", gotUser)
	}
	if strings.Contains(gotUser, noJurisMarker) {
		t.Error("Marker must not appear when jurisprudence was retrieved")
	}
}

// The degraded fallback still closes with a sources section: retrieved
// citations when there are any, the reference portals plus the
// missing-jurisprudence marker otherwise.
func TestDegradedReportSourcesSection(t *testing.T) {
	result := reportFixture()
	out := degradedReport(result, errors.New("model down"))

	for _, want := range []string{
		"Fuentes y referencias",
		noJurisMarker,
		"SAIJ",
		"InfoLEG",
		string(types.KeyTerminationWithoutCause),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Degraded report missing %q:\n%s", want, out)
		}
	}

	result.Citations = []types.Citation{{Source: types.SourceJuris, Title: "CSJN 300:100"}}
	out = degradedReport(result, errors.New("model down"))
	if !strings.Contains(out, "CSJN 300:100") {
		t.Errorf("Degraded report missing citations:\n%s", out)
	}
	if strings.Contains(out, noJurisMarker) {
		t.Error("Marker must not appear when citations exist")
	}
}
