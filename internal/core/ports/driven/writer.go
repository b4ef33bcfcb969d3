package driven

import (
	"context"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
)

// ResultWriter emits one tabular artifact per ConversationResult.
// Failed conversations never reach the writer; a conversation either
// produces a complete artifact or none at all.
type ResultWriter interface {
	// Write persists the result in record order with the columns
	// time, speaker, role, message. Returns the artifact location.
	Write(ctx context.Context, result *domain.ConversationResult) (string, error)
}
