package analysis

import (
	"context"
	"fmt"

	"letrado/internal/llm"
	"letrado/internal/logging"
	"letrado/internal/types"
)

// translateWire is the canonical translator response shape.
type translateWire struct {
	Clauses []types.Clause `json:"clauses"`
}

const translateSystem = `Eres un traductor jurídico. Traduce el contrato al español rioplatense, cláusula por cláusula.
Responde únicamente con un objeto JSON: {"clauses":[{"number":"...","original":"...","text":"..."}]}.
Reglas:
- Conserva TODAS las cláusulas del original, en el mismo orden. No omitas, fusiones ni resumas ninguna.
- "number" es la numeración de la cláusula tal como aparece, o su posición si no está numerada.
- "original" es el texto fuente de la cláusula sin modificar.
- "text" es la traducción fiel, en registro jurídico formal.`

// translate converts the extracted contract text into numbered,
// translated clauses. An empty clause list is treated as a failure
// because translation must preserve every clause.
func (a *Analyzer) translate(ctx context.Context, original string) ([]types.Clause, error) {
	raw, err := a.client.CompleteJSON(ctx, translateSystem, original)
	if err != nil {
		return nil, fmt.Errorf("translate call: %w", err)
	}

	var wire translateWire
	if err := llm.DecodeObject(raw, &wire); err != nil {
		return nil, fmt.Errorf("translate decode: %w", err)
	}
	if len(wire.Clauses) == 0 {
		return nil, fmt.Errorf("translator returned no clauses")
	}

	for i := range wire.Clauses {
		if wire.Clauses[i].Number == "" {
			wire.Clauses[i].Number = fmt.Sprintf("%d", i+1)
		}
	}

	logging.Analysis("Translated %d clauses", len(wire.Clauses))
	return wire.Clauses, nil
}
