package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"letrado/internal/types"
)

var (
	genType  string
	genTitle string
	genTopK  int
)

var generateCmd = &cobra.Command{
	Use:   "generate [instructions]",
	Short: "Generate a document from instructions",
	Long: `Runs one retrieval-backed generation and prints the resulting
markdown document with its citation list.

Example:
  letrado generate --type dictamen --title "Rescisión de distribución" \
    "Analizar la validez de la cláusula de rescisión unilateral sin preaviso"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genType, "type", "t", "dictamen", "document type (dictamen, contrato, memo, escrito)")
	generateCmd.Flags().StringVar(&genTitle, "title", "", "document title (required)")
	generateCmd.Flags().IntVarP(&genTopK, "k", "k", 0, "passages to retrieve (0 = no retrieval, omit for default)")
	_ = generateCmd.MarkFlagRequired("title")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	req := &types.GenerateRequest{
		Type:         types.DocumentType(genType),
		Title:        genTitle,
		Instructions: strings.Join(args, " "),
	}
	// Only an explicitly passed -k reaches the pipeline; k=0 means
	// "generate without retrieval", not "use the default".
	if cmd.Flags().Changed("k") {
		req.TopK = &genTopK
	}

	result, err := app.generator.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}

	logger.Info("Document generated",
		zap.String("id", result.DocumentID),
		zap.Int("citations", len(result.Citations)))

	fmt.Println(renderMarkdown(result.Markdown))
	fmt.Printf("\nDocument ID: %s\n", result.DocumentID)
	return nil
}

// renderMarkdown pretty-prints markdown for the terminal, falling back
// to the raw text when the renderer is unavailable.
func renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
