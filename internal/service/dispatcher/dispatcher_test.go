package dispatcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethicsbot/backend/internal/pkg/conversation"
	"github.com/ethicsbot/backend/internal/pkg/directive"
	"github.com/ethicsbot/backend/internal/pkg/oracle"
	"github.com/ethicsbot/backend/internal/pkg/retry"
)

type mockClient struct {
	ChatFunc func(ctx context.Context, req *oracle.Request) (string, error)
	requests []*oracle.Request
}

func (m *mockClient) Chat(ctx context.Context, req *oracle.Request) (string, error) {
	m.requests = append(m.requests, req)
	return m.ChatFunc(ctx, req)
}

// failingFirst 前 n 次调用失败
func failingFirst(n int, reply string) *mockClient {
	m := &mockClient{}
	m.ChatFunc = func(ctx context.Context, req *oracle.Request) (string, error) {
		if len(m.requests) <= n {
			return "", errors.New("status code: 500")
		}
		return reply, nil
	}
	return m
}

func newDispatcher(t *testing.T, c oracle.Client, opts Options) *Dispatcher {
	t.Helper()
	catalog, err := directive.Builtin()
	require.NoError(t, err)
	return New(c, catalog, opts)
}

func debate() *conversation.Conversation {
	return conversation.New(
		conversation.AssistantTurn("A nurse finds a medication error."),
		conversation.UserTurn("I would report it."),
	)
}

func TestAdvanceSucceedsOnThirdAttempt(t *testing.T) {
	c := failingFirst(2, "But what about loyalty?")
	conv := debate()

	res := newDispatcher(t, c, Options{}).Advance(context.Background(), conv, "alice@example.edu", directive.Rebuttal)

	assert.False(t, res.Fallback)
	assert.Equal(t, 3, res.Attempts)
	assert.Len(t, c.requests, 3, "恰好调用三次")
	assert.Equal(t, conversation.AssistantTurn("But what about loyalty?"), res.Turn)
	assert.Equal(t, 3, conv.Len())
	assert.Equal(t, res.Turn, conv.Turns()[2])
}

func TestAdvanceFallsBackAfterThreeFailures(t *testing.T) {
	c := failingFirst(100, "never")
	conv := debate()

	res := newDispatcher(t, c, Options{}).Advance(context.Background(), conv, "alice@example.edu", directive.Rebuttal)

	assert.True(t, res.Fallback)
	assert.Equal(t, 3, res.Attempts)
	assert.Len(t, c.requests, 3)
	assert.Equal(t, DefaultFallback, res.Turn.Content)
	assert.Equal(t, conversation.RoleAssistant, res.Turn.Role)
	assert.ErrorIs(t, res.Err, retry.ErrExhausted)
	assert.Equal(t, 3, conv.Len(), "固定回复同样追加到对话")
}

func TestAdvanceTreatsEmptyReplyAsFailure(t *testing.T) {
	c := &mockClient{ChatFunc: func(ctx context.Context, req *oracle.Request) (string, error) { return "  ", nil }}

	res := newDispatcher(t, c, Options{FallbackReply: "custom sorry"}).Advance(context.Background(), debate(), "", directive.Rebuttal)

	assert.True(t, res.Fallback)
	assert.Equal(t, "custom sorry", res.Turn.Content)
	assert.ErrorIs(t, res.Err, oracle.ErrEmptyReply)
}

func TestAdvanceRequestShape(t *testing.T) {
	c := failingFirst(0, "ok")
	conv := debate()
	mods := directive.NewModifiers(map[string]string{"alice@example.edu": "Speak like a pirate."})
	catalog, err := directive.Builtin()
	require.NoError(t, err)
	clarify, err := catalog.Get(directive.UserClarification)
	require.NoError(t, err)

	newDispatcher(t, c, Options{Modifiers: mods}).Advance(context.Background(), conv, "Alice@Example.edu", directive.UserClarification)

	require.Len(t, c.requests, 1)
	req := c.requests[0]
	assert.True(t, strings.HasPrefix(req.Directive, clarify.SystemPrompt[:40]))
	assert.True(t, strings.HasSuffix(req.Directive, "BONUS RULE:\n\nSpeak like a pirate."))
	assert.Equal(t, debate().Turns(), req.Turns, "发送完整对话，不含本轮回复")
}

func TestAdvanceNonRoutableUsesDefault(t *testing.T) {
	c := failingFirst(0, "ok")
	res := newDispatcher(t, c, Options{}).Advance(context.Background(), debate(), "", directive.Grader)
	assert.Equal(t, directive.Rebuttal, res.Directive)
}

func TestInitialize(t *testing.T) {
	c := failingFirst(0, "You are a nurse on a night shift...")
	conv := conversation.New()

	turn, err := newDispatcher(t, c, Options{}).Initialize(context.Background(), conv, "nurse", "")
	require.NoError(t, err)

	assert.Equal(t, conversation.RoleAssistant, turn.Role)
	assert.Equal(t, []conversation.Turn{turn}, conv.Turns(), "只写入场景回复，不保存请求")
	require.Len(t, c.requests, 1)
	assert.Contains(t, c.requests[0].Turns[0].Content, "nurse profession")
}

func TestInitializeFailureIsClassifiedAndLeavesConversationEmpty(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{errors.New("status code: 401, Incorrect API key"), oracle.ErrAuthentication},
		{errors.New("status code: 429"), oracle.ErrRateLimited},
		{errors.New("dial tcp: lookup api.openai.com: no such host"), oracle.ErrTransport},
		{errors.New("status code: 503"), oracle.ErrService},
	}
	for _, tt := range tests {
		c := &mockClient{ChatFunc: func(ctx context.Context, req *oracle.Request) (string, error) { return "", tt.err }}
		conv := conversation.New()

		_, err := newDispatcher(t, c, Options{}).Initialize(context.Background(), conv, "", "")

		assert.ErrorIs(t, err, tt.want)
		assert.Equal(t, 0, conv.Len())
		assert.Len(t, c.requests, 1, "场景生成不重试")
	}
}

func TestInitializeRejectsSeededConversation(t *testing.T) {
	c := failingFirst(0, "x")
	_, err := newDispatcher(t, c, Options{}).Initialize(context.Background(), debate(), "", "")
	assert.ErrorIs(t, err, ErrAlreadySeeded)
	assert.Empty(t, c.requests)
}
