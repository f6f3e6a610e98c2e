package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"letrado/internal/types"
)

var analyzeTitle string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [contract-file]",
	Short: "Run the contract-analysis pipeline on a file",
	Long: `Extracts, translates, classifies, and risk-checks a contract,
then prints the client-facing report. The analysis is persisted and can
be fetched again via the API.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeTitle, "title", "", "document title (defaults to the file name)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	title := analyzeTitle
	if title == "" {
		title = filepath.Base(args[0])
	}

	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	result, err := app.analyzer.Run(cmd.Context(), filepath.Base(args[0]), title, data)
	if err != nil {
		if result != nil && result.State == types.StateFailed {
			fmt.Println(result.Report)
			fmt.Printf("\nDocument ID: %s (state %s)\n", result.DocumentID, result.State)
		}
		return err
	}

	logger.Info("Analysis complete",
		zap.String("document_id", result.DocumentID),
		zap.String("type", string(result.Classification.Type)),
		zap.Int("checklist", len(result.Checklist)))

	fmt.Println(renderMarkdown(result.Report))
	fmt.Printf("\nDocument ID: %s\n", result.DocumentID)
	return nil
}
