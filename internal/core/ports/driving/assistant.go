package driving

import (
	"context"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

// AssistantService is the unified chat entry point.
type AssistantService interface {
	// Chat handles one request: optional knowledge-base retrieval,
	// simple or agent mode, and the unified response envelope.
	// The response message is always populated, even on partial failure.
	Chat(ctx context.Context, req domain.AssistantRequest) (*domain.AssistantResponse, error)
}
