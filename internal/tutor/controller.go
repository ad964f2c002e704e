package tutor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ryanhsiao89/trauma-tutor-bot/internal/llm"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/session"
)

var ErrNotStarted = errors.New("conversation not started")

// DefaultPersonaPrompt is used when no persona prompt file is configured.
const DefaultPersonaPrompt = `You are a trauma-informed care (TIC) tutor for professional learners.
Teaching style: Socratic. For every concept question you must (1) explain the
concept grounded in the course material, (2) give one concrete example, then
(3) ask one short comprehension-check question back to the learner.
If the learner asks for advice about a real clinical case, reply exactly:
"抱歉，我無法針對真實個案提供臨床建議。讓我們回到概念學習，您想多了解哪個創傷知情的概念呢？"
and redirect to concept questions. Answer only from the course material; if
the material does not cover a topic, say so.`

const acknowledgement = "Ready."

// Controller owns the single active conversation per learner session.
type Controller struct {
	store       *session.Store
	persona     string
	prefixLimit int
	attempts    int
	delay       time.Duration
}

func New(store *session.Store, persona string, prefixLimit, attempts int, delay time.Duration) *Controller {
	if persona == "" {
		persona = DefaultPersonaPrompt
	}
	return &Controller{
		store:       store,
		persona:     persona,
		prefixLimit: prefixLimit,
		attempts:    attempts,
		delay:       delay,
	}
}

// EnsureStarted seeds the model conversation for sess unless one is already
// live, in which case the existing handle is reused. The seed carries only a
// bounded prefix of the material; the remainder is never sent to the model.
func (c *Controller) EnsureStarted(ctx context.Context, client llm.Client, sess *session.Session, model, materialText string) error {
	if sess.Conv != nil {
		return nil
	}
	conv, err := client.StartChat(ctx, model, c.SeedMessages(materialText, sess.Language))
	if err != nil {
		return fmt.Errorf("failed to start chat: %w", err)
	}
	sess.Conv = conv
	sess.Model = model
	return nil
}

func (c *Controller) SeedMessages(materialText, language string) []llm.Message {
	prompt := fmt.Sprintf("%s\n\nCourse material:\n%s\n\nAnswer in: %s",
		c.persona, prefix(materialText, c.prefixLimit), language)
	return []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
		{Role: llm.RoleAssistant, Content: acknowledgement},
	}
}

// Send forwards one learner message through the retry wrapper and records the
// exchange. The user turn and the assistant turn are appended together only
// after the call succeeds, so the transcript can never hold an orphaned user
// turn.
func (c *Controller) Send(ctx context.Context, sess *session.Session, text string) (string, error) {
	if sess.Conv == nil {
		return "", ErrNotStarted
	}
	resp, err := llm.SendWithRetry(ctx, sess.Conv, text, c.attempts, c.delay)
	if err != nil {
		return "", err
	}
	if err := c.store.AppendTurns(sess.Identity,
		session.Turn{Role: llm.RoleUser, Content: text},
		session.Turn{Role: llm.RoleAssistant, Content: resp.Content},
	); err != nil {
		return "", err
	}
	return resp.Content, nil
}

func prefix(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
