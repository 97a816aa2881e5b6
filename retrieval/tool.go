package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/alanpramil7/agent-v1/agent"
)

// DefaultTopK is the number of passages retrieved per query.
const DefaultTopK = 5

// NoDocumentsResult is returned when similarity search finds nothing. It is
// an ordinary result, never an error: the model answers from its own
// knowledge instead.
const NoDocumentsResult = "No documents are found."

// Searcher is the piece of Store the tool needs.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Document, error)
}

// Tool wraps a Searcher as the retrieve_documents adapter. Hits are
// numbered so the model can attribute claims to individual documents.
func Tool(s Searcher) agent.Tool {
	return &agent.FuncTool{
		ToolName: "retrieve_documents",
		ToolDesc: "Retrieve relevant documents from the vector store based on the query. Use this tool when you need to find information from documents rather than from the database.",
		ToolParams: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query to find relevant documents",
				},
			},
			"required": []string{"query"},
		},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			if strings.TrimSpace(query) == "" {
				return "", fmt.Errorf("query argument is required")
			}

			docs, err := s.Search(ctx, query, DefaultTopK)
			if err != nil {
				return "", err
			}
			if len(docs) == 0 {
				return NoDocumentsResult, nil
			}

			parts := make([]string, len(docs))
			for i, doc := range docs {
				parts[i] = fmt.Sprintf("Document %d:\n%s", i+1, doc.Content)
			}
			return strings.Join(parts, "\n\n"), nil
		},
	}
}
