// Package pipeline orchestrates the generation flow: retrieve
// supporting passages, assemble context and citations, call the model
// for the template's field set, fill the template, and persist the
// composed document. It also hosts corpus ingestion, closed-book
// document queries, and the admission scheduler for analysis runs.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"letrado/internal/config"
	"letrado/internal/llm"
	"letrado/internal/logging"
	"letrado/internal/retrieval"
	"letrado/internal/template"
	"letrado/internal/types"
)

// citationDirective is appended to every retrieval query so ranking
// favors citable material.
const citationDirective = "Prioriza fuentes citables: normativa vigente, jurisprudencia y doctrina con referencia verificable."

// reviewMarkerInstruction tells the model how to flag claims the
// retrieved context does not support.
const reviewMarkerInstruction = "Cuando el contexto no respalde una afirmación necesaria, escribe la afirmación seguida del marcador [REVISAR] en lugar de inventar una fuente."

// DocumentStore is the persistence surface the orchestrator needs.
type DocumentStore interface {
	SaveDocument(docType types.DocumentType, title, content string, citations []types.Citation) (string, error)
	GetDocument(id string) (*types.ComposedDocument, error)
}

// Generator runs single-shot document generation.
type Generator struct {
	retriever retrieval.Retriever
	client    llm.Client
	registry  *template.Registry
	sink      DocumentStore
	retCfg    config.RetrievalConfig
	pipeCfg   config.PipelineConfig
}

// NewGenerator wires the orchestrator.
func NewGenerator(r retrieval.Retriever, c llm.Client, reg *template.Registry, sink DocumentStore, retCfg config.RetrievalConfig, pipeCfg config.PipelineConfig) *Generator {
	return &Generator{
		retriever: r,
		client:    c,
		registry:  reg,
		sink:      sink,
		retCfg:    retCfg,
		pipeCfg:   pipeCfg,
	}
}

// Generate runs the full retrieve/assemble/generate/fill/persist flow.
// Any stage failure aborts the request and nothing is persisted.
func (g *Generator) Generate(ctx context.Context, req *types.GenerateRequest) (*types.GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	timer := logging.StartTimer(logging.CategoryPipeline, "generate")
	defer timer.Stop()

	topK := g.retCfg.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	if topK > g.retCfg.MaxTopK {
		topK = g.retCfg.MaxTopK
	}

	tmpl, ok := g.registry.Get(req.Type)
	if !ok {
		logging.PipelineWarn("Unknown document type %q, falling back to %s", req.Type, types.DocDictamen)
		req.Type = types.DocDictamen
		tmpl, _ = g.registry.Get(types.DocDictamen)
	}

	// An explicit k of zero skips retrieval entirely: the caller asked
	// for an uninformed draft, so the empty-context policy does not
	// apply and the citation list stays empty.
	var passages []types.Passage
	if topK > 0 {
		query := fmt.Sprintf("%s\n\n%s\n%s", req.Instructions, citationDirective, reviewMarkerInstruction)
		var err error
		passages, err = g.retriever.Retrieve(ctx, query, topK)
		if err != nil {
			return nil, types.NewRetrievalError("passage retrieval failed", err)
		}
	}

	contextBlock, citations := retrieval.BuildContext(passages)
	if topK > 0 && contextBlock == "" && !g.pipeCfg.AllowEmptyContext {
		return nil, types.NewRetrievalError("no supporting passages found and empty context is disabled", nil)
	}
	logging.Pipeline("Generate %s %q: %d passages, template fields %v",
		req.Type, req.Title, len(passages), tmpl.Fields())

	raw, err := g.client.CompleteJSON(ctx, g.systemPrompt(tmpl), g.userPrompt(req, contextBlock))
	if err != nil {
		return nil, types.NewModelError("model call failed", err)
	}

	fields, err := llm.DecodeStringMap(raw)
	if err != nil {
		return nil, types.NewModelError("model returned malformed output", err)
	}
	for _, name := range tmpl.Fields() {
		if _, ok := fields[name]; !ok {
			logging.PipelineDebug("Field %q missing from model output, defaulting to empty", name)
			fields[name] = ""
		}
	}

	content := tmpl.Fill(fields, citations)

	id, err := g.sink.SaveDocument(req.Type, req.Title, content, citations)
	if err != nil {
		return nil, types.NewPersistenceError("save document", err)
	}

	logging.Pipeline("Generated document %s (%s, %d citations, %d chars)",
		id, req.Type, len(citations), len(content))
	return &types.GenerateResult{DocumentID: id, Markdown: content, Citations: citations}, nil
}

func (g *Generator) systemPrompt(tmpl *template.Template) string {
	fields := tmpl.Fields()
	var b strings.Builder
	b.WriteString("Eres un asistente jurídico que redacta documentos legales en español rioplatense, con registro formal.\n")
	b.WriteString("Responde únicamente con un objeto JSON plano cuyas claves sean exactamente:\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "  - %q\n", f)
	}
	b.WriteString("Cada valor es texto markdown para esa sección. Sin claves adicionales, sin objetos anidados, sin texto fuera del JSON.\n")
	b.WriteString("Basa cada afirmación en el contexto provisto. ")
	b.WriteString(reviewMarkerInstruction)
	return b.String()
}

func (g *Generator) userPrompt(req *types.GenerateRequest, contextBlock string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tipo de documento: %s\n", req.Type)
	fmt.Fprintf(&b, "Título: %s\n\n", req.Title)
	fmt.Fprintf(&b, "Instrucciones:\n%s\n\n", req.Instructions)
	if contextBlock != "" {
		b.WriteString("Contexto recuperado:\n\n")
		b.WriteString(contextBlock)
	} else {
		b.WriteString("No se recuperó contexto de apoyo. Marca con [REVISAR] toda afirmación que requiera fuente.")
	}
	return b.String()
}
