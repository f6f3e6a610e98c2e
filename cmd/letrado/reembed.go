package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reembedCmd = &cobra.Command{
	Use:   "reembed",
	Short: "Generate embeddings for passages that lack them",
	Long: `Backfills embeddings for passages ingested while no embedding
engine was configured, so they become reachable by semantic search
instead of keyword matching only.`,
	RunE: runReembed,
}

func runReembed(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.store.ReembedAllPassages(cmd.Context()); err != nil {
		return err
	}

	stats, err := app.store.Stats()
	if err != nil {
		return err
	}
	logger.Info("Reembedding complete",
		zap.Any("passages", stats["passages"]),
		zap.Any("with_embeddings", stats["with_embeddings"]))
	return nil
}
