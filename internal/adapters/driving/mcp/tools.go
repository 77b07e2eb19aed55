package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
	"github.com/Qq88537794/Xingyun/internal/core/services"
)

// ChatInput is the input schema for the chat tool.
type ChatInput struct {
	Message          string `json:"message" jsonschema:"the user message for the assistant"`
	SessionID        string `json:"session_id,omitempty" jsonschema:"conversation id; generated when empty"`
	ProjectID        int    `json:"project_id,omitempty" jsonschema:"project whose knowledge base informs the reply"`
	Mode             string `json:"mode,omitempty" jsonschema:"chat mode: simple (default) or agent"`
	DocumentID       string `json:"document_id,omitempty" jsonschema:"identifier of the document being edited"`
	DocumentContent  string `json:"document_content,omitempty" jsonschema:"current document text; required for agent mode"`
	SelectedText     string `json:"selected_text,omitempty" jsonschema:"the user's current selection"`
	DisableRetrieval bool   `json:"disable_retrieval,omitempty" jsonschema:"skip knowledge-base retrieval"`
}

// ChatOutput is the output schema for the chat tool.
type ChatOutput struct {
	Message              string            `json:"message"`
	Operations           []OperationOutput `json:"operations,omitempty"`
	Sources              []SourceOutput    `json:"sources,omitempty"`
	SessionID            string            `json:"session_id"`
	TokensUsed           int               `json:"tokens_used"`
	RequiresConfirmation bool              `json:"requires_confirmation"`
}

// OperationOutput represents one proposed document mutation.
type OperationOutput struct {
	Type       string `json:"type"`
	TargetFile string `json:"target_file,omitempty"`
	Content    string `json:"content,omitempty"`
}

// SourceOutput represents one knowledge-base hit that informed the reply.
type SourceOutput struct {
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	ResourceID int     `json:"resource_id"`
}

// KBIndexInput is the input schema for the kb_index tool.
type KBIndexInput struct {
	ProjectID  int    `json:"project_id" jsonschema:"project owning the knowledge base"`
	ResourceID int    `json:"resource_id" jsonschema:"identifier of the resource being indexed"`
	Text       string `json:"text" jsonschema:"the resource text to chunk and embed"`
	Filename   string `json:"filename,omitempty" jsonschema:"resource filename for provenance"`
}

// KBIndexOutput is the output schema for the kb_index tool.
type KBIndexOutput struct {
	Chunks int `json:"chunks"`
}

// KBSearchInput is the input schema for the kb_search tool.
type KBSearchInput struct {
	ProjectID int    `json:"project_id" jsonschema:"project whose knowledge base to search"`
	Query     string `json:"query" jsonschema:"the similarity search query"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"maximum number of results (default 5)"`
}

// KBSearchOutput is the output schema for the kb_search tool.
type KBSearchOutput struct {
	Results []SourceOutput `json:"results"`
	Count   int            `json:"count"`
}

// KBRemoveInput is the input schema for the kb_remove tool.
type KBRemoveInput struct {
	ProjectID  int `json:"project_id" jsonschema:"project owning the knowledge base"`
	ResourceID int `json:"resource_id" jsonschema:"identifier of the resource to remove"`
}

// KBRemoveOutput is the output schema for the kb_remove tool.
type KBRemoveOutput struct {
	Removed bool `json:"removed"`
}

var errKnowledgeUnavailable = errors.New("knowledge base is not configured")

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chat",
		Description: "Chat with the writing assistant; returns a reply and proposed document operations",
	}, s.handleChat)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kb_index",
		Description: "Index a resource text into a project knowledge base",
	}, s.handleKBIndex)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kb_search",
		Description: "Search a project knowledge base by semantic similarity",
	}, s.handleKBSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kb_remove",
		Description: "Remove a resource from a project knowledge base",
	}, s.handleKBRemove)
}

// handleChat handles the chat tool invocation.
func (s *Server) handleChat(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChatInput,
) (*mcp.CallToolResult, ChatOutput, error) {
	resp, err := s.ports.Assistant.Chat(ctx, domain.AssistantRequest{
		Message:          input.Message,
		SessionID:        input.SessionID,
		ProjectID:        input.ProjectID,
		Mode:             domain.ChatMode(input.Mode),
		DocumentID:       input.DocumentID,
		DocumentContent:  input.DocumentContent,
		SelectedText:     input.SelectedText,
		DisableRetrieval: input.DisableRetrieval,
	})
	if err != nil {
		return nil, ChatOutput{}, err
	}

	output := ChatOutput{
		Message:              resp.Message,
		SessionID:            resp.SessionID,
		TokensUsed:           resp.TokensUsed,
		RequiresConfirmation: resp.RequiresConfirmation,
	}
	for _, op := range resp.Operations {
		output.Operations = append(output.Operations, OperationOutput{
			Type:       op.Type.String(),
			TargetFile: op.TargetFile,
			Content:    op.Content,
		})
	}
	output.Sources = toSourceOutputs(resp.Sources)

	return nil, output, nil
}

// handleKBIndex handles the kb_index tool invocation.
func (s *Server) handleKBIndex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input KBIndexInput,
) (*mcp.CallToolResult, KBIndexOutput, error) {
	if s.ports.Knowledge == nil {
		return nil, KBIndexOutput{}, errKnowledgeUnavailable
	}

	chunks, err := s.ports.Knowledge.IndexResource(ctx,
		input.ProjectID, input.ResourceID, input.Text, input.Filename)
	if err != nil {
		return nil, KBIndexOutput{}, err
	}
	return nil, KBIndexOutput{Chunks: chunks}, nil
}

// handleKBSearch handles the kb_search tool invocation.
func (s *Server) handleKBSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input KBSearchInput,
) (*mcp.CallToolResult, KBSearchOutput, error) {
	if s.ports.Knowledge == nil {
		return nil, KBSearchOutput{}, errKnowledgeUnavailable
	}

	topK := input.TopK
	if topK <= 0 {
		topK = services.DefaultTopK
	}

	results, err := s.ports.Knowledge.Search(ctx, input.ProjectID, input.Query, topK)
	if err != nil {
		return nil, KBSearchOutput{}, err
	}

	return nil, KBSearchOutput{
		Results: toSourceOutputs(results),
		Count:   len(results),
	}, nil
}

// handleKBRemove handles the kb_remove tool invocation.
func (s *Server) handleKBRemove(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input KBRemoveInput,
) (*mcp.CallToolResult, KBRemoveOutput, error) {
	if s.ports.Knowledge == nil {
		return nil, KBRemoveOutput{}, errKnowledgeUnavailable
	}

	if err := s.ports.Knowledge.RemoveResource(ctx, input.ProjectID, input.ResourceID); err != nil {
		return nil, KBRemoveOutput{}, err
	}
	return nil, KBRemoveOutput{Removed: true}, nil
}

func toSourceOutputs(results []domain.RetrievalResult) []SourceOutput {
	if len(results) == 0 {
		return nil
	}
	out := make([]SourceOutput, len(results))
	for i, r := range results {
		out[i] = SourceOutput{
			Text:       r.Text,
			Score:      r.Score,
			ResourceID: r.ResourceID,
		}
	}
	return out
}
