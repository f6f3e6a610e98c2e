// Package analysis runs the contract-analysis specialization: an
// uploaded contract is extracted, translated clause by clause,
// classified, evaluated against a fixed legal-risk checklist, enriched
// with jurisprudence citations, and summarized into a report. Stages
// run strictly in sequence under per-stage timeouts; each stage
// declares whether its failure degrades the result or aborts the run.
package analysis

import (
	"time"

	"letrado/internal/types"
)

// FailurePolicy declares what a stage failure does to the run.
type FailurePolicy int

const (
	// Propagate aborts the run; the analysis ends in the failed state.
	Propagate FailurePolicy = iota
	// Degrade records a documented fallback value and continues.
	Degrade
)

func (p FailurePolicy) String() string {
	if p == Degrade {
		return "degrade"
	}
	return "propagate"
}

// stage binds one pipeline step to its target state, timeout, and
// failure policy.
type stage struct {
	name      string
	next      types.AnalysisState
	timeout   time.Duration
	onFailure FailurePolicy
}

// defaultStageTimeouts are the fallbacks when config omits a value.
const (
	defaultTranslateTimeout = 90 * time.Second
	defaultClassifyTimeout  = 30 * time.Second
	defaultChecklistTimeout = 60 * time.Second
	defaultJurisTimeout     = 30 * time.Second
	defaultReportTimeout    = 90 * time.Second
)
