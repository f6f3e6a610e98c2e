package analysis

import (
	"context"
	"fmt"
	"time"

	"letrado/internal/config"
	"letrado/internal/extract"
	"letrado/internal/llm"
	"letrado/internal/logging"
	"letrado/internal/retrieval"
	"letrado/internal/types"
)

// Store is the persistence surface of a run: the contract becomes a
// document, and the analysis row is upserted after every state
// transition so progress survives a crash.
type Store interface {
	SaveDocument(docType types.DocumentType, title, content string, citations []types.Citation) (string, error)
	SaveAnalysis(result *types.AnalysisResult) error
	GetAnalysis(documentID string) (*types.AnalysisResult, error)
}

// Admission gates how many full runs execute at once.
type Admission interface {
	Acquire(ctx context.Context, runID string) error
	Release(runID string)
}

// Analyzer runs the contract-analysis pipeline.
type Analyzer struct {
	client    llm.Client
	retriever retrieval.Retriever
	extractor extract.Extractor
	store     Store
	admission Admission
	retCfg    config.RetrievalConfig
	cfg       config.AnalysisConfig
}

func NewAnalyzer(client llm.Client, r retrieval.Retriever, ex extract.Extractor, store Store, admission Admission, retCfg config.RetrievalConfig, cfg config.AnalysisConfig) *Analyzer {
	return &Analyzer{
		client:    client,
		retriever: r,
		extractor: ex,
		store:     store,
		admission: admission,
		retCfg:    retCfg,
		cfg:       cfg,
	}
}

// Run executes the full pipeline for one uploaded contract. Stages
// advance uploaded → extracted → translated → classified →
// checklisted → jurisprudence_queried → reported → done; a propagating
// stage failure ends the run in the failed state with the reason
// persisted. Degrading stages record their documented fallback and
// continue, so a report is produced whenever translation succeeds.
func (a *Analyzer) Run(ctx context.Context, filename, title string, data []byte) (*types.AnalysisResult, error) {
	runID := fmt.Sprintf("analysis-%s", filename)
	if err := a.admission.Acquire(ctx, runID); err != nil {
		return nil, types.NewInternalError("analysis admission", err)
	}
	defer a.admission.Release(runID)

	timer := logging.StartTimer(logging.CategoryAnalysis, "analysis run")
	defer timer.Stop()

	// uploaded → extracted. Nothing is persisted until extraction
	// succeeds; a rejected file leaves no trace.
	text, err := a.extractor.Extract(filename, data)
	if err != nil {
		logging.AnalysisWarn("Extraction failed for %s: %v", filename, err)
		return nil, err
	}

	docID, err := a.store.SaveDocument(types.DocContrato, title, text, nil)
	if err != nil {
		return nil, types.NewPersistenceError("save contract document", err)
	}

	result := &types.AnalysisResult{
		DocumentID: docID,
		State:      types.StateExtracted,
		Original:   text,
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.persist(result); err != nil {
		return nil, err
	}
	logging.Analysis("Run %s: extracted %d chars from %s", docID, len(text), filename)

	// extracted → translated. Translation is load-bearing: every later
	// stage consumes clauses, so its failure propagates.
	clauses, err := a.runTranslate(ctx, result)
	if err != nil {
		return a.fail(result, err)
	}
	result.Clauses = clauses
	result.State = types.StateTranslated
	if err := a.persist(result); err != nil {
		return nil, err
	}

	// translated → classified, degrading to {other, low}.
	st := stage{name: "classify", next: types.StateClassified,
		timeout: config.StageTimeout(a.cfg.ClassifyTimeout, defaultClassifyTimeout), onFailure: Degrade}
	class, err := a.classifyStage(ctx, st, result.Clauses)
	if err != nil {
		return a.fail(result, err)
	}
	result.Classification = class
	result.State = st.next
	if err := a.persist(result); err != nil {
		return nil, err
	}

	// classified → checklisted, degrading to an empty checklist.
	st = stage{name: "checklist", next: types.StateChecklisted,
		timeout: config.StageTimeout(a.cfg.ChecklistTimeout, defaultChecklistTimeout), onFailure: Degrade}
	items, err := a.checklistStage(ctx, st, result)
	if err != nil {
		return a.fail(result, err)
	}
	result.Checklist = items
	result.State = st.next
	if err := a.persist(result); err != nil {
		return nil, err
	}

	// checklisted → jurisprudence_queried, degrading to no citations.
	st = stage{name: "jurisprudence", next: types.StateJurisQueried,
		timeout: defaultJurisTimeout, onFailure: Degrade}
	citations, err := a.jurisprudenceStage(ctx, st, result)
	if err != nil {
		return a.fail(result, err)
	}
	result.Citations = citations
	result.State = st.next
	if err := a.persist(result); err != nil {
		return nil, err
	}

	// jurisprudence_queried → reported. The report stage never aborts:
	// its error becomes a visible note inside the fallback report.
	st = stage{name: "report", next: types.StateReported,
		timeout: config.StageTimeout(a.cfg.ReportTimeout, defaultReportTimeout), onFailure: Degrade}
	result.Report = a.reportStage(ctx, st, result)
	result.State = st.next
	if err := a.persist(result); err != nil {
		return nil, err
	}

	result.State = types.StateDone
	if err := a.persist(result); err != nil {
		return nil, err
	}
	logging.Analysis("Run %s done: type=%s checklist=%d citations=%d",
		docID, result.Classification.Type, len(result.Checklist), len(result.Citations))
	return result, nil
}

func (a *Analyzer) runTranslate(ctx context.Context, result *types.AnalysisResult) ([]types.Clause, error) {
	timeout := config.StageTimeout(a.cfg.TranslateTimeout, defaultTranslateTimeout)
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clauses, err := a.translate(sctx, result.Original)
	if err != nil {
		return nil, fmt.Errorf("translate stage: %w", err)
	}
	return clauses, nil
}

func (a *Analyzer) classifyStage(ctx context.Context, st stage, clauses []types.Clause) (types.Classification, error) {
	sctx, cancel := context.WithTimeout(ctx, st.timeout)
	defer cancel()

	class, err := a.classify(sctx, clauses)
	if err != nil {
		if st.onFailure == Degrade {
			logging.AnalysisWarn("Stage %s degraded: %v", st.name, err)
			return types.DegradedClassification(), nil
		}
		return types.Classification{}, fmt.Errorf("classify stage: %w", err)
	}
	return class, nil
}

func (a *Analyzer) checklistStage(ctx context.Context, st stage, result *types.AnalysisResult) ([]types.ChecklistItem, error) {
	sctx, cancel := context.WithTimeout(ctx, st.timeout)
	defer cancel()

	items, err := a.checklist(sctx, result.Clauses, result.Classification)
	if err != nil {
		if st.onFailure == Degrade {
			logging.AnalysisWarn("Stage %s degraded: %v", st.name, err)
			return []types.ChecklistItem{}, nil
		}
		return nil, fmt.Errorf("checklist stage: %w", err)
	}
	return items, nil
}

func (a *Analyzer) jurisprudenceStage(ctx context.Context, st stage, result *types.AnalysisResult) ([]types.Citation, error) {
	sctx, cancel := context.WithTimeout(ctx, st.timeout)
	defer cancel()

	citations, err := a.jurisprudence(sctx, result.Classification, result.Original, result.Checklist)
	if err != nil {
		if st.onFailure == Degrade {
			logging.AnalysisWarn("Stage %s degraded: %v", st.name, err)
			return []types.Citation{}, nil
		}
		return nil, fmt.Errorf("jurisprudence stage: %w", err)
	}
	return citations, nil
}

func (a *Analyzer) reportStage(ctx context.Context, st stage, result *types.AnalysisResult) string {
	sctx, cancel := context.WithTimeout(ctx, st.timeout)
	defer cancel()

	out, err := a.report(sctx, result)
	if err != nil {
		logging.AnalysisWarn("Stage %s degraded: %v", st.name, err)
		return degradedReport(result, err)
	}
	return out
}

// fail marks the run failed, embeds the reason where the client can
// see it, and persists the terminal state.
func (a *Analyzer) fail(result *types.AnalysisResult, stageErr error) (*types.AnalysisResult, error) {
	logging.AnalysisWarn("Run %s failed in state %s: %v", result.DocumentID, result.State, stageErr)
	result.State = types.StateFailed
	result.Report = fmt.Sprintf("Análisis fallido: %v", stageErr)
	if err := a.persist(result); err != nil {
		return nil, err
	}
	return result, types.NewModelError("analysis failed", stageErr)
}

func (a *Analyzer) persist(result *types.AnalysisResult) error {
	if err := a.store.SaveAnalysis(result); err != nil {
		return types.NewPersistenceError("save analysis", err)
	}
	logging.AnalysisDebug("Run %s persisted in state %s", result.DocumentID, result.State)
	return nil
}

// Get returns a persisted analysis by document id.
func (a *Analyzer) Get(documentID string) (*types.AnalysisResult, error) {
	return a.store.GetAnalysis(documentID)
}
