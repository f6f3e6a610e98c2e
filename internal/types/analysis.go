package types

import "time"

// AnalysisState tracks where a contract analysis run is in its
// lifecycle. Stages advance strictly in sequence; any state may
// transition to StateFailed.
type AnalysisState string

const (
	StateUploaded     AnalysisState = "uploaded"
	StateExtracted    AnalysisState = "extracted"
	StateTranslated   AnalysisState = "translated"
	StateClassified   AnalysisState = "classified"
	StateChecklisted  AnalysisState = "checklisted"
	StateJurisQueried AnalysisState = "jurisprudence_queried"
	StateReported     AnalysisState = "reported"
	StateDone         AnalysisState = "done"
	StateFailed       AnalysisState = "failed"
)

// ContractType is the closed set of contract classifications.
type ContractType string

const (
	ContractDistribution ContractType = "distribution"
	ContractAgency       ContractType = "agency"
	ContractFranchise    ContractType = "franchise"
	ContractSupply       ContractType = "supply"
	ContractServices     ContractType = "services"
	ContractLicense      ContractType = "license"
	ContractEmployment   ContractType = "employment"
	ContractOther        ContractType = "other"
)

// Confidence expresses how sure the classifier is.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Classification is the classifier stage output. On any classifier
// failure the pipeline degrades to {ContractOther, ConfidenceLow}
// instead of aborting.
type Classification struct {
	Type       ContractType `json:"type"`
	Confidence Confidence   `json:"confidence"`
}

// DegradedClassification is the documented classifier fallback.
func DegradedClassification() Classification {
	return Classification{Type: ContractOther, Confidence: ConfidenceLow}
}

// ChecklistKey is one fixed legal-risk dimension evaluated against a
// contract. Exactly one item per dimension is expected per run.
type ChecklistKey string

const (
	KeySalesTargets            ChecklistKey = "salesTargets"
	KeyTerminationWithoutCause ChecklistKey = "terminationWithoutCause"
	KeyInventoryBuyBack        ChecklistKey = "inventoryBuyBack"
	KeyPaymentTerms            ChecklistKey = "paymentTerms"
	KeyJurisdiction            ChecklistKey = "jurisdiction"
	KeyAfterSales              ChecklistKey = "afterSales"
	KeyIntellectualProperty    ChecklistKey = "intellectualProperty"
	KeyTerritorialRestrictions ChecklistKey = "territorialRestrictions"
)

// ChecklistKeys lists every dimension in evaluation order.
func ChecklistKeys() []ChecklistKey {
	return []ChecklistKey{
		KeySalesTargets,
		KeyTerminationWithoutCause,
		KeyInventoryBuyBack,
		KeyPaymentTerms,
		KeyJurisdiction,
		KeyAfterSales,
		KeyIntellectualProperty,
		KeyTerritorialRestrictions,
	}
}

// Found indicates whether a checklist dimension was located in the
// contract clauses.
type Found string

const (
	FoundYes     Found = "yes"
	FoundNo      Found = "no"
	FoundPartial Found = "partial"
)

// Risk grades the legal exposure of a checklist finding.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// ChecklistItem is one evaluated dimension. Missing dimensions in a
// run are a data-quality defect, not a fatal error.
type ChecklistItem struct {
	Key     ChecklistKey `json:"key"`
	Found   Found        `json:"found"`
	Clauses []string     `json:"clauses"`
	Text    string       `json:"text"`
	Risk    Risk         `json:"risk"`
	Comment string       `json:"comment"`
}

// Clause is one numbered, translated contract clause. Translation must
// preserve every clause; dropping clauses is a correctness defect.
type Clause struct {
	Number   string `json:"number"`
	Original string `json:"original"`
	Text     string `json:"text"`
}

// AnalysisResult is the full output of a contract analysis run,
// persisted one-to-one with its document via upsert.
type AnalysisResult struct {
	DocumentID     string          `json:"document_id"`
	State          AnalysisState   `json:"state"`
	Original       string          `json:"original"`
	Clauses        []Clause        `json:"clauses"`
	Classification Classification  `json:"classification"`
	Checklist      []ChecklistItem `json:"checklist"`
	Citations      []Citation      `json:"citations"`
	Report         string          `json:"report"`
	CreatedAt      time.Time       `json:"created_at"`
}
