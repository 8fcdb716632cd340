package grading

import (
	"github.com/ethicsbot/backend/internal/domain"
	"github.com/ethicsbot/backend/internal/model"
)

// GroupEvaluations 把落库的评估记录按参与者归档
func GroupEvaluations(rows []model.Evaluation) map[string][]*domain.EvaluationRecord {
	out := make(map[string][]*domain.EvaluationRecord)
	for i := range rows {
		rec := rows[i].Record()
		name := model.NormalizeUsername(rec.Username)
		rec.Username = name
		out[name] = append(out[name], rec)
	}
	return out
}

// PersistableEvaluations 返回需要落库的记录：本次评估的与直接导入的评估记录
func PersistableEvaluations(subs []Submission, c *Collection) []*model.Evaluation {
	var out []*model.Evaluation
	for _, rec := range c.Evaluated {
		out = append(out, model.NewEvaluation(rec, model.EvaluationSourceImport))
	}
	skipped := make(map[string]bool, len(c.Skipped))
	for _, s := range c.Skipped {
		skipped[s.Path] = true
	}
	for _, sub := range subs {
		if sub.Evaluation == nil || skipped[sub.Path] {
			continue
		}
		out = append(out, model.NewEvaluation(sub.Evaluation, model.EvaluationSourceImport))
	}
	return out
}
