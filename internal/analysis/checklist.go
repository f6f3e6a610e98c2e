package analysis

import (
	"context"
	"fmt"
	"strings"

	"letrado/internal/llm"
	"letrado/internal/logging"
	"letrado/internal/types"
)

// checklistWire is the canonical checklist response shape.
type checklistWire struct {
	Items []types.ChecklistItem `json:"items"`
}

const checklistSystem = `Evalúa el contrato contra una lista fija de dimensiones de riesgo legal.
Responde únicamente con un objeto JSON:
{"items":[{"key":"...","found":"...","clauses":["..."],"text":"...","risk":"...","comment":"..."}]}
Reglas:
- Produce exactamente un item por cada una de estas claves, en este orden: %s.
- "found" es yes, no o partial. "risk" es low, medium o high.
- "clauses" lista los números de cláusula relevantes; vacía si found es no.
- "text" cita o resume la disposición hallada; "comment" evalúa el riesgo para el cliente.`

// checklist evaluates the eight fixed risk dimensions. The response is
// normalized to canonical dimension order; unknown keys are dropped
// and missing dimensions are logged, not fatal. A failed stage
// degrades to an empty checklist at the caller.
func (a *Analyzer) checklist(ctx context.Context, clauses []types.Clause, class types.Classification) ([]types.ChecklistItem, error) {
	keys := types.ChecklistKeys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	system := fmt.Sprintf(checklistSystem, strings.Join(names, ", "))

	var b strings.Builder
	fmt.Fprintf(&b, "Tipo de contrato: %s\n\n", class.Type)
	for _, c := range clauses {
		fmt.Fprintf(&b, "%s. %s\n", c.Number, c.Text)
	}

	raw, err := a.client.CompleteJSON(ctx, system, b.String())
	if err != nil {
		return nil, fmt.Errorf("checklist call: %w", err)
	}

	var wire checklistWire
	if err := llm.DecodeObject(raw, &wire); err != nil {
		return nil, fmt.Errorf("checklist decode: %w", err)
	}

	return normalizeChecklist(wire.Items), nil
}

// normalizeChecklist reorders items to the canonical dimension order,
// keeping the first item per known key.
func normalizeChecklist(items []types.ChecklistItem) []types.ChecklistItem {
	byKey := make(map[types.ChecklistKey]types.ChecklistItem, len(items))
	for _, it := range items {
		if _, dup := byKey[it.Key]; !dup {
			byKey[it.Key] = it
		}
	}

	out := make([]types.ChecklistItem, 0, len(types.ChecklistKeys()))
	for _, key := range types.ChecklistKeys() {
		it, ok := byKey[key]
		if !ok {
			logging.AnalysisWarn("Checklist missing dimension %s", key)
			continue
		}
		if it.Clauses == nil {
			it.Clauses = []string{}
		}
		out = append(out, it)
	}
	return out
}
