package analysis

import (
	"context"
	"fmt"
	"strings"

	"letrado/internal/llm"
	"letrado/internal/logging"
	"letrado/internal/types"
)

const classifySystem = `Clasifica el tipo de contrato. Responde únicamente con un objeto JSON:
{"type":"...","confidence":"..."}
"type" debe ser exactamente uno de: distribution, agency, franchise, supply, services, license, employment, other.
"confidence" debe ser exactamente uno de: low, medium, high.`

// classify determines the contract type from the translated clauses.
// Any failure, including an out-of-set answer, is reported to the
// caller, which degrades to {other, low} instead of aborting.
func (a *Analyzer) classify(ctx context.Context, clauses []types.Clause) (types.Classification, error) {
	var b strings.Builder
	for _, c := range clauses {
		fmt.Fprintf(&b, "%s. %s\n", c.Number, c.Text)
	}

	raw, err := a.client.CompleteJSON(ctx, classifySystem, b.String())
	if err != nil {
		return types.Classification{}, fmt.Errorf("classify call: %w", err)
	}

	var out types.Classification
	if err := llm.DecodeObject(raw, &out); err != nil {
		return types.Classification{}, fmt.Errorf("classify decode: %w", err)
	}
	if !validContractType(out.Type) {
		return types.Classification{}, fmt.Errorf("classifier returned unknown type %q", out.Type)
	}
	if !validConfidence(out.Confidence) {
		return types.Classification{}, fmt.Errorf("classifier returned unknown confidence %q", out.Confidence)
	}

	logging.Analysis("Classified contract as %s (%s confidence)", out.Type, out.Confidence)
	return out, nil
}

func validContractType(t types.ContractType) bool {
	switch t {
	case types.ContractDistribution, types.ContractAgency, types.ContractFranchise,
		types.ContractSupply, types.ContractServices, types.ContractLicense,
		types.ContractEmployment, types.ContractOther:
		return true
	}
	return false
}

func validConfidence(c types.Confidence) bool {
	switch c {
	case types.ConfidenceLow, types.ConfidenceMedium, types.ConfidenceHigh:
		return true
	}
	return false
}
