package llm

import (
	"context"
	"fmt"

	"github.com/Morwran/yagpt"
)

type YandexClient struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	// Create IAM token from OAuth token
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create iam token: %w", err)
	}

	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	return &YandexClient{
		ya:       ya,
		iamToken: resp.IamToken,
	}, nil
}

func (c *YandexClient) ListModels(_ context.Context) ([]string, error) {
	return []string{yagpt.YaModelLite}, nil
}

func (c *YandexClient) StartChat(_ context.Context, model string, seed []Message) (Conversation, error) {
	conv := &yandexConversation{ya: c.ya, iamToken: c.iamToken, model: model}
	for _, m := range seed {
		conv.msgs = append(conv.msgs, yagpt.Message{Role: m.Role, Content: m.Content})
	}
	return conv, nil
}

// yandexConversation replays the full history on every completion call.
type yandexConversation struct {
	ya       yagpt.YaGPTFace
	iamToken string
	model    string
	msgs     []yagpt.Message
}

func (c *yandexConversation) Send(ctx context.Context, text string) (Response, error) {
	msgs := append(c.msgs, yagpt.Message{Role: RoleUser, Content: text})
	resp, err := c.ya.CompletionWithCtx(ctx, c.iamToken, msgs)
	if err != nil {
		return Response{}, fmt.Errorf("yagpt completion failed: %w", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, fmt.Errorf("yagpt returned empty response")
	}
	out := Response{Content: resp.Alternatives[0].Message.Content, Model: c.model}
	out.PromptTokens = int(resp.Usage.InputTextTokens)
	out.CompletionTokens = int(resp.Usage.CompletionTokens)
	out.TotalTokens = int(resp.Usage.TotalTokens)

	c.msgs = append(msgs, yagpt.Message{Role: RoleAssistant, Content: out.Content})
	return out, nil
}
