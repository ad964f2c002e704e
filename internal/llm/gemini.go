package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
}

// Safety thresholds are forced to their least-restrictive setting for every
// harm category: the tutor discusses trauma-related course material that the
// default filters routinely block. Explicit product decision.
var geminiSafetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
}

func NewGemini(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) ListModels(ctx context.Context) ([]string, error) {
	var out []string
	for model, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to list models: %w", err)
		}
		for _, action := range model.SupportedActions {
			if action == "generateContent" {
				out = append(out, strings.TrimPrefix(model.Name, "models/"))
				break
			}
		}
	}
	return out, nil
}

func (c *GeminiClient) StartChat(ctx context.Context, model string, seed []Message) (Conversation, error) {
	history := make([]*genai.Content, 0, len(seed))
	for _, m := range seed {
		var role genai.Role = genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(m.Content, role))
	}
	chat, err := c.client.Chats.Create(ctx, model, &genai.GenerateContentConfig{
		SafetySettings: geminiSafetySettings,
	}, history)
	if err != nil {
		return nil, fmt.Errorf("failed to start gemini chat: %w", err)
	}
	return &geminiConversation{chat: chat, model: model}, nil
}

type geminiConversation struct {
	chat  *genai.Chat
	model string
}

func (g *geminiConversation) Send(ctx context.Context, text string) (Response, error) {
	resp, err := g.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return Response{}, fmt.Errorf("gemini send failed: %w", err)
	}
	out := Response{Content: resp.Text(), Model: g.model}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		out.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}
