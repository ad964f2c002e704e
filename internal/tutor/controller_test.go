package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ryanhsiao89/trauma-tutor-bot/internal/llm"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/session"
)

type fakeConversation struct {
	replies []string
	fail    bool
	calls   int
}

func (f *fakeConversation) Send(_ context.Context, text string) (llm.Response, error) {
	f.calls++
	if f.fail {
		return llm.Response{}, errors.New("service unavailable")
	}
	reply := "answer to " + text
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	return llm.Response{Content: reply}, nil
}

type fakeClient struct {
	conv   *fakeConversation
	seeds  [][]llm.Message
	models []string
}

func (f *fakeClient) ListModels(_ context.Context) ([]string, error) {
	return f.models, nil
}

func (f *fakeClient) StartChat(_ context.Context, _ string, seed []llm.Message) (llm.Conversation, error) {
	f.seeds = append(f.seeds, seed)
	if f.conv == nil {
		f.conv = &fakeConversation{}
	}
	return f.conv, nil
}

func newController(store *session.Store) *Controller {
	return New(store, "", 30000, 3, 0)
}

func TestEnsureStartedIsIdempotentPerSession(t *testing.T) {
	store := session.NewStore()
	c := newController(store)
	client := &fakeClient{}

	sess, err := store.Login("001")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	sess.Language = "English"

	if err := c.EnsureStarted(context.Background(), client, sess, "m1", "material"); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	first := sess.Conv
	if err := c.EnsureStarted(context.Background(), client, sess, "m1", "material"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if sess.Conv != first {
		t.Fatalf("second EnsureStarted replaced the live handle")
	}
	if len(client.seeds) != 1 {
		t.Fatalf("want 1 seeding, got %d", len(client.seeds))
	}
}

func TestEnsureStartedAfterLogoutSeedsFresh(t *testing.T) {
	store := session.NewStore()
	c := newController(store)
	client := &fakeClient{}

	sess, _ := store.Login("001")
	if err := c.EnsureStarted(context.Background(), client, sess, "m1", "material"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	store.End("001")

	sess2, _ := store.Login("001")
	if sess2.Conv != nil {
		t.Fatalf("fresh session carries a stale handle")
	}
	if err := c.EnsureStarted(context.Background(), client, sess2, "m1", "material"); err != nil {
		t.Fatalf("ensure after relogin: %v", err)
	}
	if len(client.seeds) != 2 {
		t.Fatalf("want a fresh seed after relogin, got %d seedings", len(client.seeds))
	}
}

func TestSeedMessagesTruncateMaterialAndCarryLanguage(t *testing.T) {
	store := session.NewStore()
	c := New(store, "", 10, 3, 0)

	long := strings.Repeat("甲", 50)
	seed := c.SeedMessages(long, "粵語")
	if len(seed) != 2 {
		t.Fatalf("want system turn + acknowledgement, got %d messages", len(seed))
	}
	if !strings.Contains(seed[0].Content, strings.Repeat("甲", 10)) {
		t.Fatalf("seed missing material prefix")
	}
	if strings.Contains(seed[0].Content, strings.Repeat("甲", 11)) {
		t.Fatalf("material not truncated to the configured prefix")
	}
	if !strings.Contains(seed[0].Content, "粵語") {
		t.Fatalf("seed missing language choice")
	}
	if seed[1].Role != llm.RoleAssistant || seed[1].Content != "Ready." {
		t.Fatalf("unexpected acknowledgement turn: %+v", seed[1])
	}
}

func TestSendAppendsPairedTurnsInOrder(t *testing.T) {
	store := session.NewStore()
	c := newController(store)
	client := &fakeClient{conv: &fakeConversation{replies: []string{"A is X"}}}

	sess, _ := store.Login("001")
	if err := c.EnsureStarted(context.Background(), client, sess, "m1", "material"); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	reply, err := c.Send(context.Background(), sess, "What is Concept A?")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply != "A is X" {
		t.Fatalf("unexpected reply: %q", reply)
	}

	turns := store.Turns("001")
	if len(turns) != 2 {
		t.Fatalf("want exactly 2 turns, got %d", len(turns))
	}
	if turns[0].Role != llm.RoleUser || turns[0].Content != "What is Concept A?" {
		t.Fatalf("unexpected user turn: %+v", turns[0])
	}
	if turns[1].Role != llm.RoleAssistant || turns[1].Content != "A is X" {
		t.Fatalf("unexpected assistant turn: %+v", turns[1])
	}

	// A second send must preserve prior order.
	if _, err := c.Send(context.Background(), sess, "And B?"); err != nil {
		t.Fatalf("second send: %v", err)
	}
	turns = store.Turns("001")
	if len(turns) != 4 || turns[0].Content != "What is Concept A?" {
		t.Fatalf("prior order not preserved: %+v", turns)
	}
}

func TestSendFailureAppendsNothing(t *testing.T) {
	store := session.NewStore()
	c := newController(store)
	client := &fakeClient{conv: &fakeConversation{fail: true}}

	sess, _ := store.Login("001")
	if err := c.EnsureStarted(context.Background(), client, sess, "m1", "material"); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if _, err := c.Send(context.Background(), sess, "hello"); err == nil {
		t.Fatalf("expected send failure")
	}
	if client.conv.calls != 3 {
		t.Fatalf("want 3 attempts through the retry wrapper, got %d", client.conv.calls)
	}
	if turns := store.Turns("001"); len(turns) != 0 {
		t.Fatalf("failed send must not leave turns behind: %+v", turns)
	}
}

func TestSendWithoutConversationFails(t *testing.T) {
	store := session.NewStore()
	c := newController(store)
	sess, _ := store.Login("001")
	if _, err := c.Send(context.Background(), sess, "hello"); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("want ErrNotStarted, got %v", err)
	}
}
