package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"letrado/internal/types"
)

var queryCmd = &cobra.Command{
	Use:   "query [document-id] [question]",
	Short: "Ask a question about a persisted document",
	Long: `Answers a follow-up question using only the stored document
content. No new retrieval happens and the document is not modified.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	req := &types.DocumentQueryRequest{
		DocumentID: args[0],
		Query:      strings.Join(args[1:], " "),
	}

	result, err := app.querier.Query(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Println(renderMarkdown(result.Response))
	return nil
}
