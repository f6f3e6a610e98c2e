package analysis

import (
	"context"
	"fmt"
	"strings"

	"letrado/internal/logging"
	"letrado/internal/retrieval"
	"letrado/internal/types"
)

// maxJurisExcerpt caps how much contract text feeds the retrieval
// query; the embedding only needs the opening clauses for topicality.
const maxJurisExcerpt = 500

// jurisprudence retrieves supporting case law from the classified
// contract type and the original text, weighted toward the riskiest
// findings. Retrieval over-fetches by the configured factor, then
// filters to citable source kinds, because source filtering happens
// after ranking. Failures degrade to zero citations at the caller.
func (a *Analyzer) jurisprudence(ctx context.Context, class types.Classification, original string, checklist []types.ChecklistItem) ([]types.Citation, error) {
	var risky []string
	for _, it := range checklist {
		if it.Risk == types.RiskHigh || it.Risk == types.RiskMedium {
			risky = append(risky, string(it.Key))
		}
	}

	query := fmt.Sprintf("jurisprudencia sobre contratos de tipo %s", class.Type)
	if len(risky) > 0 {
		query += ": " + strings.Join(risky, ", ")
	}
	if text := strings.TrimSpace(original); text != "" {
		query += "\n\n" + excerpt(text, maxJurisExcerpt)
	}

	topK := a.retCfg.DefaultTopK
	overFetch := topK * a.retCfg.OverFetchFactor
	passages, err := a.retriever.Retrieve(ctx, query, overFetch)
	if err != nil {
		return nil, fmt.Errorf("jurisprudence retrieval: %w", err)
	}

	filtered := retrieval.FilterBySource(passages,
		types.SourceJuris, types.SourceNormativa, types.SourceDoctrina)
	if len(filtered) > topK {
		filtered = filtered[:topK]
	}

	citations := make([]types.Citation, 0, len(filtered))
	for _, p := range filtered {
		citations = append(citations, types.CitationOf(p))
	}

	logging.Analysis("Jurisprudence query: %d passages fetched, %d citable", len(passages), len(citations))
	return citations, nil
}
