package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"letrado/internal/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.json]",
	Short: "Ingest corpus passages from a JSON file",
	Long: `Reads a JSON file with the ingest request shape and stores every
item with its embedding:

  {"items": [{"text": "...", "source": "normativa", "title": "...", "url": "..."}]}

Valid sources: normativa, juris, interno.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	var req types.IngestRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	result, err := app.ingestor.Ingest(cmd.Context(), &req)
	if err != nil {
		return err
	}

	logger.Info("Ingest complete", zap.Int("stored", result.Stored))
	fmt.Printf("Stored %d passages\n", result.Stored)
	return nil
}
