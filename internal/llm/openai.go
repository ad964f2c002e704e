package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client *openai.Client
}

func NewOpenAI(apiKey, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(config)}
}

func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	var out []string
	for _, m := range list.Models {
		// Only chat-capable models make sense for a tutoring conversation.
		if strings.Contains(m.ID, "gpt") {
			out = append(out, m.ID)
		}
	}
	return out, nil
}

func (c *OpenAIClient) StartChat(_ context.Context, model string, seed []Message) (Conversation, error) {
	conv := &openAIConversation{client: c.client, model: model}
	for _, m := range seed {
		conv.msgs = append(conv.msgs, openai.ChatCompletionMessage{Role: mapOpenAIRole(m.Role), Content: m.Content})
	}
	return conv, nil
}

// openAIConversation keeps the turn history client-side since the chat
// completion API is stateless.
type openAIConversation struct {
	client *openai.Client
	model  string
	msgs   []openai.ChatCompletionMessage
}

func (c *openAIConversation) Send(ctx context.Context, text string) (Response, error) {
	msgs := append(c.msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	})
	if err != nil {
		return Response{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("chat completion returned no choices")
	}

	out := Response{Content: resp.Choices[0].Message.Content, Model: c.model}
	out.PromptTokens = resp.Usage.PromptTokens
	out.CompletionTokens = resp.Usage.CompletionTokens
	out.TotalTokens = resp.Usage.TotalTokens

	// History advances only on success.
	c.msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: out.Content})
	return out, nil
}

func mapOpenAIRole(role string) string {
	switch role {
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
