package grading

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethicsbot/backend/internal/domain"
	"github.com/ethicsbot/backend/internal/pkg/directive"
	"github.com/ethicsbot/backend/internal/pkg/oracle"
	"github.com/ethicsbot/backend/internal/service/orchestrator"
)

type fakeEvaluator struct {
	calls int32
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, rec *domain.ExportRecord) (*domain.EvaluationRecord, error) {
	atomic.AddInt32(&f.calls, 1)
	if rec.Topic == "fail" {
		return nil, errors.New("status code: 500")
	}
	return &domain.EvaluationRecord{
		Username:  rec.Username,
		Grade:     80,
		Generated: domain.Stamp(deadline.Add(-time.Hour)),
	}, nil
}

func newOrchestrator(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()
	o, err := orchestrator.NewOrchestrator(2)
	require.NoError(t, err)
	t.Cleanup(o.Stop)
	return o
}

func exportSub(path, user, topic string) Submission {
	return Submission{Path: path, Export: &domain.ExportRecord{Username: user, Topic: topic, StartTime: 1, EndTime: 2}}
}

func TestPipelineCollect(t *testing.T) {
	ev := &fakeEvaluator{}
	p := NewPipeline(newOrchestrator(t), ev, nil)

	subs := []Submission{
		exportSub("a1.json", "alice@example.edu", ""),
		exportSub("a2.json", "Alice@example.edu", ""),
		exportSub("a3.json", "alice@example.edu", "fail"),
		exportSub("m.json", "mallory@example.edu", ""),
		{Path: "b.muef", Evaluation: eval("bob@example.edu", 70, deadline)},
	}

	col, err := p.Collect(context.Background(), []string{"alice@example.edu", "bob@example.edu"}, subs)
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(&ev.calls), "名册外的导出记录不送评")
	assert.Len(t, col.Records["alice@example.edu"], 2)
	assert.Len(t, col.Records["bob@example.edu"], 1)
	assert.NotContains(t, col.Records, "mallory@example.edu")
	assert.Len(t, col.Evaluated, 2)
	require.Len(t, col.Skipped, 2)
	paths := []string{col.Skipped[0].Path, col.Skipped[1].Path}
	assert.ElementsMatch(t, []string{"m.json", "a3.json"}, paths)
}

type feedbackClient struct {
	err error
}

func (c feedbackClient) Chat(ctx context.Context, req *oracle.Request) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return `{"positive_feedback": "You defended your view with your own examples.", "reason_points_lost": "Short answers.", "ideas_for_improvement": "None"}`, nil
}

func TestPipelineGradeWithFeedback(t *testing.T) {
	catalog, err := directive.Builtin()
	require.NoError(t, err)
	records := map[string][]*domain.EvaluationRecord{
		"alice@example.edu": {eval("alice@example.edu", 90, deadline.Add(-time.Hour))},
	}
	roster := []string{"alice@example.edu", "carol@example.edu"}

	p := NewPipeline(newOrchestrator(t), &fakeEvaluator{}, NewSummarizer(feedbackClient{}, catalog))
	results, err := p.Grade(context.Background(), roster, records, Policy{Deadline: deadline})
	require.NoError(t, err)
	assert.Equal(t, "You defended your view with your own examples.", results[0].Feedback)
	assert.Equal(t, "You didn't turn in this assignment.", results[1].Feedback)

	failing := NewPipeline(newOrchestrator(t), &fakeEvaluator{}, NewSummarizer(feedbackClient{err: errors.New("status code: 429")}, catalog))
	results, err = failing.Grade(context.Background(), roster, records, Policy{Deadline: deadline})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(results[0].Feedback, "logic for alice@example.edu\n\nYou didn't turn in this assignment."))
}

func TestWriteGradebook(t *testing.T) {
	results := []*Result{
		{Participant: "alice@example.edu", FinalGrade: 21, Grades: []int{90, 80, 70}, Feedback: "Nice, \"quoted\" work", WordCounts: []int{300, 250, 200}, SentenceCounts: []int{20, 15, 10}, Responses: []int{6, 5, 5}},
		{Participant: "carol@example.edu", Feedback: "You didn't turn in this assignment."},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteGradebook(&buf, results))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, gradebookHeader, rows[0])
	assert.Equal(t, []string{"alice@example.edu", "21", "[90,80,70]", "Nice, \"quoted\" work", "[300,250,200]", "[20,15,10]", "[6,5,5]"}, rows[1])
	assert.Equal(t, []string{"carol@example.edu", "0", "[]", "You didn't turn in this assignment.", "[]", "[]", "[]"}, rows[2])
}
