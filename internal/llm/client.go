package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Conversation is one ongoing multi-turn exchange with a model. A failed Send
// must leave the conversation history unchanged so the same message can be
// retried without duplication.
type Conversation interface {
	Send(ctx context.Context, text string) (Response, error)
}

type Client interface {
	// ListModels returns the models usable for multi-turn generation.
	ListModels(ctx context.Context) ([]string, error)
	// StartChat opens a conversation seeded with the given history.
	StartChat(ctx context.Context, model string, seed []Message) (Conversation, error)
}
