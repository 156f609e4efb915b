package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question about the manuals"`
	DocumentID *int   `json:"document_id,omitempty" jsonschema:"numeric id of one manual to restrict retrieval to"`
	Collection string `json:"collection,omitempty" jsonschema:"collection to query (default from configuration)"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"number of passages to retrieve (default 4)"`
	Reference  string `json:"reference,omitempty" jsonschema:"expected answer; when set the answer is scored against it"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources"`
	Scores  *ScoresOutput  `json:"scores,omitempty"`
	Warning string         `json:"warning,omitempty"`
}

// SourceOutput is one retrieved passage.
type SourceOutput struct {
	DocumentID string  `json:"document_id"`
	Pages      []int   `json:"pages"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// ScoresOutput holds answer-quality metrics in [0, 1].
type ScoresOutput struct {
	Faithfulness     float64 `json:"faithfulness"`
	AnswerRelevancy  float64 `json:"answer_relevancy"`
	ContextPrecision float64 `json:"context_precision"`
	ContextRecall    float64 `json:"context_recall"`
}

// ListCollectionsInput is the (empty) input of list_collections.
type ListCollectionsInput struct{}

// ListCollectionsOutput lists collection names.
type ListCollectionsOutput struct {
	Collections []string `json:"collections"`
	Count       int      `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed technical manuals",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List the vector collections available for questions",
	}, s.handleListCollections)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	resp, err := s.ports.Answer.Ask(ctx, driving.AskRequest{
		Question:   input.Question,
		Reference:  input.Reference,
		FileID:     input.DocumentID,
		Collection: input.Collection,
		TopK:       input.TopK,
		Evaluate:   input.Reference != "",
	})
	if err != nil {
		return nil, AskOutput{}, err
	}
	if resp == nil || resp.Result == nil {
		return nil, AskOutput{}, fmt.Errorf("ask: empty response")
	}

	output := AskOutput{
		Answer:  resp.Result.Answer,
		Sources: make([]SourceOutput, len(resp.Result.Documents)),
		Warning: resp.EvaluationError,
	}
	for i, d := range resp.Result.Documents {
		output.Sources[i] = SourceOutput{
			DocumentID: d.Chunk.DocumentID,
			Pages:      d.Chunk.Pages,
			Score:      d.Score,
			Content:    d.Chunk.Content,
		}
	}
	if sc := resp.Scores; sc != nil {
		output.Scores = &ScoresOutput{
			Faithfulness:     sc.Faithfulness,
			AnswerRelevancy:  sc.AnswerRelevancy,
			ContextPrecision: sc.ContextPrecision,
			ContextRecall:    sc.ContextRecall,
		}
	}
	return nil, output, nil
}

// handleListCollections handles the list_collections tool invocation.
func (s *Server) handleListCollections(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListCollectionsInput,
) (*mcp.CallToolResult, ListCollectionsOutput, error) {
	if s.ports.Collections == nil {
		return nil, ListCollectionsOutput{Collections: []string{}}, nil
	}
	names, err := s.ports.Collections.List(ctx)
	if err != nil {
		return nil, ListCollectionsOutput{}, fmt.Errorf("listing collections: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return nil, ListCollectionsOutput{Collections: names, Count: len(names)}, nil
}
