package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethicsbot/backend/internal/pkg/conversation"
	"github.com/ethicsbot/backend/internal/pkg/obfuscate"
)

func TestExportFilename(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "alice-smith 05-03-2024_14-07-09.json", ExportFilename("alice.smith@example.edu", at))
	assert.Equal(t, "bob 05-03-2024_14-07-09.json", ExportFilename("bob", at))
}

func TestSessionExport(t *testing.T) {
	start := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	sess := &Session{
		ID:           "s1",
		Participant:  "alice@example.edu",
		Occupation:   "nurse",
		Topic:        "triage",
		Conversation: conversation.New(conversation.AssistantTurn("scenario"), conversation.UserTurn("answer")),
		StartTime:    start,
	}
	assert.False(t, sess.Ended())

	sess.EndTime = start.Add(90 * time.Second)
	assert.True(t, sess.Ended())

	rec := sess.Export()
	assert.Equal(t, "alice@example.edu", rec.Username)
	assert.Len(t, rec.Messages, 2)
	assert.Equal(t, start, rec.Started())
	assert.Equal(t, start.Add(90*time.Second), rec.Ended())

	// 导出记录不随会话后续变化
	sess.Conversation.Append(conversation.UserTurn("late"))
	assert.Len(t, rec.Messages, 2)
}

func TestEpochSecondsRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 0, 0, 250_000_000, time.UTC)
	assert.InDelta(t, float64(at.Unix())+0.25, EpochSeconds(at), 1e-9)
	assert.Equal(t, at, FromEpochSeconds(EpochSeconds(at)))
	assert.Equal(t, 0.0, EpochSeconds(time.Time{}))
}

func TestParseExport(t *testing.T) {
	data := []byte(`{
		"username": "alice@example.edu",
		"occupation": "nurse",
		"topic": "triage",
		"messages": [{"role": "Assistant", "content": "scenario"}, {"role": "USER", "content": "answer"}],
		"start_time": 1709647200.5,
		"end_time": 1709647740.5
	}`)

	rec, err := ParseExport(data)
	require.NoError(t, err)
	require.Len(t, rec.Messages, 2)
	assert.Equal(t, conversation.RoleAssistant, rec.Messages[0].Role)
	assert.Equal(t, conversation.RoleUser, rec.Messages[1].Role)
	assert.Equal(t, 9*time.Minute, rec.Ended().Sub(rec.Started()))
}

func TestParseExportErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing username", `{"messages": [], "start_time": 1, "end_time": 2}`},
		{"end before start", `{"username": "a", "messages": [], "start_time": 5, "end_time": 2}`},
		{"bad role", `{"username": "a", "messages": [{"role": "robot", "content": "x"}], "start_time": 1, "end_time": 2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExport([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidExport))
		})
	}
}

func TestStampJSON(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.FixedZone("CST", -6*3600))
	data, err := json.Marshal(Stamp(at))
	require.NoError(t, err)
	assert.Equal(t, `"05/03/2024, 20:07:09"`, string(data))

	var s Stamp
	require.NoError(t, json.Unmarshal(data, &s))
	assert.True(t, s.Time().Equal(at))

	assert.Error(t, json.Unmarshal([]byte(`"2024-03-05"`), &s))
}

func TestEvaluationRecordRationale(t *testing.T) {
	rec := &EvaluationRecord{GradeLogic: obfuscate.Encode("Thoughtful answers")}
	assert.Equal(t, "Thoughtful answers", rec.Rationale())

	rec.GradeLogic = "plain text"
	assert.Equal(t, "plain text", rec.Rationale())

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"grade_logic_":"plain text"`)
	assert.NotContains(t, string(data), "depth_")
}
