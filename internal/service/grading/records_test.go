package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethicsbot/backend/internal/domain"
	"github.com/ethicsbot/backend/internal/model"
)

func TestGroupEvaluations(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	rows := []model.Evaluation{
		{Username: "Alice@Example.edu", Grade: 90, GeneratedAt: at},
		{Username: "bob@example.edu", Grade: 70, GeneratedAt: at},
		{Username: "alice@example.edu", Grade: 80, GeneratedAt: at.Add(time.Hour)},
	}

	grouped := GroupEvaluations(rows)
	require.Len(t, grouped, 2)
	require.Len(t, grouped["alice@example.edu"], 2)
	assert.Equal(t, 90, grouped["alice@example.edu"][0].Grade)
	assert.Equal(t, 80, grouped["alice@example.edu"][1].Grade)
	assert.Equal(t, "alice@example.edu", grouped["alice@example.edu"][0].Username)
}

func TestPersistableEvaluations(t *testing.T) {
	legacy := &domain.EvaluationRecord{Username: "carol@example.edu", Grade: 75}
	stray := &domain.EvaluationRecord{Username: "mallory@example.edu", Grade: 100}
	fresh := &domain.EvaluationRecord{Username: "alice@example.edu", Grade: 90}

	subs := []Submission{
		{Path: "a.json", Export: &domain.ExportRecord{Username: "alice@example.edu"}},
		{Path: "c.muef", Evaluation: legacy},
		{Path: "m.muef", Evaluation: stray},
	}
	c := &Collection{
		Evaluated: []*domain.EvaluationRecord{fresh},
		Skipped:   []Skipped{{Path: "m.muef", Reason: "not on the roster"}},
	}

	rows := PersistableEvaluations(subs, c)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice@example.edu", rows[0].Username)
	assert.Equal(t, "carol@example.edu", rows[1].Username)
	for _, row := range rows {
		assert.Equal(t, model.EvaluationSourceImport, row.Source)
	}
}
