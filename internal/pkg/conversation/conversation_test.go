package conversation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationAppendOnly(t *testing.T) {
	c := New(AssistantTurn("scenario"))
	c.Append(UserTurn("first"))

	turns := c.Turns()
	turns[0].Content = "changed"

	assert.Equal(t, "scenario", c.Turns()[0].Content, "Turns 返回副本，不影响原对话")
	assert.Equal(t, 2, c.Len())
}

func TestConversationLatestUser(t *testing.T) {
	c := New()
	_, ok := c.LatestUser()
	assert.False(t, ok)
	assert.False(t, c.HasUserTurn())

	c.Append(AssistantTurn("scenario"))
	assert.False(t, c.HasUserTurn(), "只有助手消息时不存在用户消息")

	c.Append(UserTurn("one"))
	c.Append(AssistantTurn("reply"))
	c.Append(UserTurn("two"))

	latest, ok := c.LatestUser()
	require.True(t, ok)
	assert.Equal(t, "two", latest)
	assert.Len(t, c.UserTurns(), 2)
}

func TestConversationNonSystem(t *testing.T) {
	c := New(Turn{Role: RoleSystem, Content: "directive"}, AssistantTurn("a"), UserTurn("u"))
	got := c.NonSystem()
	require.Len(t, got, 2)
	assert.Equal(t, RoleAssistant, got[0].Role)
	assert.Equal(t, RoleUser, got[1].Role)
}

func TestConversationReset(t *testing.T) {
	c := New(AssistantTurn("a"), UserTurn("u"))
	c.Reset()
	assert.Equal(t, 0, c.Len())
}

func TestConversationJSON(t *testing.T) {
	c := New(AssistantTurn("scenario"), UserTurn("answer"))

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"assistant","content":"scenario"},{"role":"user","content":"answer"}]`, string(data))

	var empty Conversation
	data, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	var decoded Conversation
	require.NoError(t, json.Unmarshal([]byte(`[{"role":"User","content":"hi"}]`), &decoded))
	assert.Equal(t, []Turn{UserTurn("hi")}, decoded.Turns())

	err = json.Unmarshal([]byte(`[{"role":"moderator","content":"x"}]`), &decoded)
	assert.True(t, errors.Is(err, ErrInvalidRole))
}

func TestTranscript(t *testing.T) {
	turns := []Turn{
		{Role: RoleSystem, Content: "hidden"},
		AssistantTurn("What is your decision and reasoning?"),
		UserTurn("I would report it."),
	}
	want := "AI Chatbot: What is your decision and reasoning?\n\nStudent: I would report it."
	assert.Equal(t, want, Transcript(turns))
	assert.Equal(t, "", Transcript(nil))
}
