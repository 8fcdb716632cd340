package grading

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethicsbot/backend/internal/pkg/conversation"
)

const exportJSON = `{
  "username": "alice@example.edu",
  "occupation": "nurse",
  "topic": "",
  "messages": [
    {"role": "assistant", "content": "Scenario."},
    {"role": "User", "content": "I would report it."}
  ],
  "start_time": 1738600000.5,
  "end_time": 1738600540.5
}`

const legacyJSON = `{
  "user_name_": "Bob@Example.edu",
  "occupation_": null,
  "topic_": "privacy",
  "ms_": 12.5,
  "ur_": 7,
  "wc_": 410,
  "sc_": 30,
  "g_": 92,
  "gl_": "Strong defence of position.",
  "conversation_": [{"role": "ASSISTANT", "content": "Scenario."}],
  "generated_": "05/02/2025, 18:30:00"
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alice 03-02-2025_14-09-00.json", exportJSON)
	writeFile(t, dir, "bob.muef", legacyJSON)
	stray := writeFile(t, dir, "desktop.ini", "junk")
	writeFile(t, dir, "broken.json", "{not json")
	writeFile(t, dir, "other.json", `{"hello": "world"}`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	res, err := Scan(dir, ScanOptions{PruneStray: true})
	require.NoError(t, err)

	require.Len(t, res.Submissions, 2)
	alice, bob := res.Submissions[0], res.Submissions[1]

	require.NotNil(t, alice.Export)
	assert.Equal(t, "alice@example.edu", alice.Participant())
	assert.Equal(t, conversation.RoleUser, alice.Export.Messages[1].Role)
	assert.Equal(t, 1738600000.5, alice.Export.StartTime)

	require.NotNil(t, bob.Evaluation)
	assert.Equal(t, "bob@example.edu", bob.Participant())
	assert.Equal(t, 92, bob.Evaluation.Grade)
	assert.Equal(t, 12.5, bob.Evaluation.MinutesSpent)
	assert.Equal(t, 410, bob.Evaluation.WordCount)
	assert.Equal(t, "Strong defence of position.", bob.Evaluation.Rationale())
	assert.Equal(t, conversation.RoleAssistant, bob.Evaluation.Conversation[0].Role)
	assert.Equal(t, "2025-02-05T18:30:00Z", bob.Evaluation.Generated.Time().Format("2006-01-02T15:04:05Z07:00"))

	assert.Len(t, res.Skipped, 2)
	assert.Equal(t, []string{stray}, res.Removed)
	_, err = os.Stat(stray)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "broken.json"))
	assert.NoError(t, err, "能识别但无法解析的文件保留")
}

func TestScanKeepsStrayWithoutPrune(t *testing.T) {
	dir := t.TempDir()
	stray := writeFile(t, dir, "notes.txt", "keep me")

	res, err := Scan(dir, ScanOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Removed)
	_, err = os.Stat(stray)
	assert.NoError(t, err)
}

func TestParseLegacyErrors(t *testing.T) {
	_, err := ParseLegacy([]byte(`{"user_name_": "a@x.edu", "generated_": "05/02/2025, 18:30:00"}`))
	assert.ErrorIs(t, err, ErrUnrecognized)

	_, err = ParseLegacy([]byte(`{"user_name_": "a@x.edu", "g_": 1, "generated_": "2025-02-05"}`))
	assert.ErrorIs(t, err, ErrUnrecognized)

	_, err = ParseLegacy([]byte(`{"g_": 1, "generated_": "05/02/2025, 18:30:00"}`))
	assert.ErrorIs(t, err, ErrUnrecognized)
}
