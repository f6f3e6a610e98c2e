package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"letrado/internal/analysis"
	"letrado/internal/config"
	"letrado/internal/embedding"
	"letrado/internal/extract"
	"letrado/internal/llm"
	"letrado/internal/logging"
	"letrado/internal/pipeline"
	"letrado/internal/retrieval"
	"letrado/internal/store"
	"letrado/internal/template"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "letrado",
	Short: "letrado - Legal document generation with retrieval-backed citations",
	Long: `letrado generates legal documents (dictámenes, contratos, memos,
escritos) grounded in a local corpus of statutes, case law, and firm
material.

Each generation run retrieves supporting passages, asks the model to
draft every template section as structured JSON, fills the document
template, and persists the result with its citation list. A separate
analysis pipeline translates, classifies, and risk-checks uploaded
contracts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// app bundles the wired components a command needs.
type app struct {
	cfg       *config.Config
	store     *store.LegalStore
	client    llm.Client
	registry  *template.Registry
	scheduler *pipeline.Scheduler
	generator *pipeline.Generator
	ingestor  *pipeline.Ingestor
	querier   *pipeline.Querier
	analyzer  *analysis.Analyzer
}

// buildApp loads config and wires the full component graph. Commands
// that touch the store or the model all go through here so wiring
// stays in one place.
func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := logging.Initialize(cfg.DataDir, logging.Settings{
		DebugMode:  cfg.Logging.DebugMode,
		Categories: cfg.Logging.Categories,
		Level:      cfg.Logging.Level,
	}); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}

	st, err := store.NewLegalStore(cfg.Store.DatabasePath, cfg.Store.RequireVec)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	engine, err := embedding.NewEngine(embedding.Config{
		Provider:       cfg.Embedding.Provider,
		OllamaEndpoint: cfg.Embedding.OllamaEndpoint,
		OllamaModel:    cfg.Embedding.OllamaModel,
		GenAIAPIKey:    cfg.Embedding.GenAIAPIKey,
		GenAIModel:     cfg.Embedding.GenAIModel,
	})
	if err != nil {
		logger.Warn("Embedding engine unavailable, retrieval falls back to keyword search", zap.Error(err))
	} else {
		st.SetEmbeddingEngine(engine)
	}

	timeout := config.StageTimeout(cfg.LLM.Timeout, 90*time.Second)
	client := llm.NewGeminiClient(llm.GeminiConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Timeout:     timeout,
		Temperature: cfg.LLM.Temperature,
	})

	registry, err := template.NewRegistry(cfg.Pipeline.TemplateFile)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	logging.Boot("Templates ready: %v", registry.Types())

	retriever := retrieval.NewStoreRetriever(st)
	scheduler := pipeline.NewScheduler(cfg.Pipeline.MaxConcurrent)

	return &app{
		cfg:       cfg,
		store:     st,
		client:    client,
		registry:  registry,
		scheduler: scheduler,
		generator: pipeline.NewGenerator(retriever, client, registry, st, cfg.Retrieval, cfg.Pipeline),
		ingestor:  pipeline.NewIngestor(st),
		querier:   pipeline.NewQuerier(st, client),
		analyzer: analysis.NewAnalyzer(client, retriever, extract.NewPlainText(),
			st, scheduler, cfg.Retrieval, cfg.Analysis),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("Closing store", zap.Error(err))
	}
	logging.CloseAll()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "letrado.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(reembedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
