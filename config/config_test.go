package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ORACLE_PROVIDER", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 3, cfg.Session.MaxAttempts)
	assert.Equal(t, "late submission", cfg.Grading.LateMessage)
	assert.Equal(t, 21.0, cfg.Grading.PointScale)
	assert.Equal(t, "./data/transcripts", cfg.Data.TranscriptDir)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9090"
oracle:
  provider: openai
  model: gpt-4o
  timeout: 30s
grading:
  deadline: "2025-02-05 23:59:59"
  point_scale: 10
style_modifiers:
  alice@example.edu: likes cats
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("OPENAI_MODEL_NAME", "gpt-4.1-mini")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ORACLE_PROVIDER", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "gpt-4.1-mini", cfg.Oracle.Model, "环境变量优先于配置文件")
	assert.Equal(t, "sk-test", cfg.Oracle.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, 10.0, cfg.Grading.PointScale)
	assert.Equal(t, 3, cfg.Grading.Assignments, "未设置的字段保留默认值")
	assert.Equal(t, "likes cats", cfg.StyleModifiers["alice@example.edu"])
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDeadlineUTC(t *testing.T) {
	g := GradingConfig{Deadline: "2025-02-05 23:59:59", Timezone: "UTC"}
	got, err := g.DeadlineUTC()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 5, 23, 59, 59, 0, time.UTC), got)

	g.Timezone = "America/Chicago"
	got, err = g.DeadlineUTC()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 6, 5, 59, 59, 0, time.UTC), got, "CST 比 UTC 晚 6 小时")

	empty, err := GradingConfig{}.DeadlineUTC()
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	_, err = GradingConfig{Deadline: "05/02/2025"}.DeadlineUTC()
	assert.Error(t, err)

	_, err = GradingConfig{Deadline: "2025-02-05 23:59:59", Timezone: "Mars/Base"}.DeadlineUTC()
	assert.Error(t, err)
}
