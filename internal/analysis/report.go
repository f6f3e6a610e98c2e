package analysis

import (
	"context"
	"fmt"
	"strings"

	"letrado/internal/template"
	"letrado/internal/types"
)

const reportSystem = `Redacta un informe de análisis contractual en markdown, en español rioplatense y registro formal, para un cliente no abogado.
Estructura: resumen ejecutivo, tipo de contrato, hallazgos por dimensión de riesgo (con número de cláusula), y recomendaciones.
No inventes hallazgos: usa solo la información provista.
Cierra siempre con una sección «Fuentes y referencias». Incluye allí las fuentes provistas y los portales jurídicos de consulta de la jurisdicción (SAIJ, InfoLEG, fallos de la CSJN), aun cuando no se haya provisto jurisprudencia.`

// noJurisMarker flags the gap when jurisprudence retrieval came back
// empty, so the reader knows the sources section is reference-only.
const noJurisMarker = "No se encontró jurisprudencia aplicable; usar las fuentes de referencia indicadas."

// maxReportExcerpt caps how much of the original contract travels in
// the report prompt.
const maxReportExcerpt = 2000

// report produces the final client-facing summary from the original
// text excerpt and the translated clauses. The report stage never
// aborts the run: when the model call fails the caller embeds the
// error as a visible note so the analysis still ends reported.
func (a *Analyzer) report(ctx context.Context, result *types.AnalysisResult) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Tipo de contrato: %s (confianza %s)\n\n", result.Classification.Type, result.Classification.Confidence)

	fmt.Fprintf(&b, "Extracto del texto original:\n%s\n\n", excerpt(result.Original, maxReportExcerpt))

	fmt.Fprintf(&b, "Cláusulas traducidas (%d):\n", len(result.Clauses))
	for _, c := range result.Clauses {
		fmt.Fprintf(&b, "%s. %s\n", c.Number, c.Text)
	}
	b.WriteString("\n")

	if len(result.Checklist) == 0 {
		b.WriteString("Checklist: no disponible para esta corrida.\n\n")
	} else {
		b.WriteString("Hallazgos:\n")
		for _, it := range result.Checklist {
			fmt.Fprintf(&b, "- %s: found=%s risk=%s clauses=%s. %s\n",
				it.Key, it.Found, it.Risk, strings.Join(it.Clauses, ","), it.Comment)
		}
		b.WriteString("\n")
	}
	if len(result.Citations) > 0 {
		b.WriteString("Fuentes relacionadas:\n")
		b.WriteString(template.RenderCitations(result.Citations))
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "Sin jurisprudencia recuperada. Indica en el informe: %s\n", noJurisMarker)
	}

	out, err := a.client.CompleteWithSystem(ctx, reportSystem, b.String())
	if err != nil {
		return "", fmt.Errorf("report call: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("report stage returned empty output")
	}
	return out, nil
}

// degradedReport is the fallback body when the report stage fails: a
// minimal factual summary with the stage error embedded where the
// reader can see it.
func degradedReport(result *types.AnalysisResult, stageErr error) string {
	var b strings.Builder
	b.WriteString("# Informe de análisis (parcial)\n\n")
	fmt.Fprintf(&b, "**Nota:** la redacción del informe falló: %v\n\n", stageErr)
	fmt.Fprintf(&b, "- Tipo de contrato: %s (confianza %s)\n", result.Classification.Type, result.Classification.Confidence)
	fmt.Fprintf(&b, "- Cláusulas analizadas: %d\n", len(result.Clauses))
	fmt.Fprintf(&b, "- Dimensiones evaluadas: %d\n", len(result.Checklist))
	for _, it := range result.Checklist {
		if it.Risk == types.RiskHigh {
			fmt.Fprintf(&b, "- Riesgo alto en %s (cláusulas %s)\n", it.Key, strings.Join(it.Clauses, ","))
		}
	}
	b.WriteString("\n## Fuentes y referencias\n\n")
	if len(result.Citations) > 0 {
		b.WriteString(template.RenderCitations(result.Citations))
	} else {
		fmt.Fprintf(&b, "%s\n", noJurisMarker)
		b.WriteString("- SAIJ (https://www.saij.gob.ar)\n")
		b.WriteString("- InfoLEG (https://www.infoleg.gob.ar)\n")
		b.WriteString("- Fallos CSJN (https://sjconsulta.csjn.gov.ar)\n")
	}
	return b.String()
}

// excerpt truncates s on a rune boundary.
func excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + " […]"
}
