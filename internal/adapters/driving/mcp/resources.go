package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
)

const (
	// uriScheme is the custom URI scheme for Xingyun resources.
	uriScheme = "xingyun://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource listing the well-known prompt names.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "prompts",
		Name:        "prompts",
		Description: "List of the assistant's system prompt names",
		MIMEType:    "application/json",
	}, s.handlePromptsResource)

	// Template for prompt content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "prompts/{name}",
		Name:        "prompt-content",
		Description: "The active system prompt text for a prompt name",
		MIMEType:    "text/plain",
	}, s.handlePromptContentResource)

	// Template for knowledge-base status.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "projects/{projectId}/knowledge",
		Name:        "project-knowledge",
		Description: "Whether a project has an indexed knowledge base",
		MIMEType:    "application/json",
	}, s.handleKnowledgeStatusResource)
}

// handlePromptsResource returns the list of well-known prompt names.
func (s *Server) handlePromptsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	names := []string{driven.PromptSimpleSystem, driven.PromptAgentSystem}
	data, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("marshalling prompt names: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handlePromptContentResource returns the active text of one prompt.
func (s *Server) handlePromptContentResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Prompts == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract the name from a URI like xingyun://prompts/{name}.
	name := strings.TrimPrefix(req.Params.URI, uriScheme+"prompts/")
	if name == "" || name == req.Params.URI {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	content, err := s.ports.Prompts.Load(name)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     content,
		}},
	}, nil
}

// handleKnowledgeStatusResource reports whether a project has an indexed
// knowledge base.
func (s *Server) handleKnowledgeStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Knowledge == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	projectID := extractProjectID(req.Params.URI)
	if projectID == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	status := struct {
		ProjectID int  `json:"project_id"`
		Exists    bool `json:"exists"`
	}{
		ProjectID: projectID,
		Exists:    s.ports.Knowledge.HasKnowledgeBase(ctx, projectID),
	}

	data, err := json.Marshal(status)
	if err != nil {
		return nil, fmt.Errorf("marshalling knowledge status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractProjectID extracts the project id from a URI like
// xingyun://projects/{projectId}/knowledge. Returns 0 when the URI does
// not match.
func extractProjectID(uri string) int {
	const prefix = uriScheme + "projects/"
	const suffix = "/knowledge"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return 0
	}

	id, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix))
	if err != nil || id < 0 {
		return 0
	}
	return id
}
