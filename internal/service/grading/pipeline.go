package grading

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/internal/domain"
	"github.com/ethicsbot/backend/internal/model"
	"github.com/ethicsbot/backend/internal/service/orchestrator"
)

// Evaluator 评估导出记录
type Evaluator interface {
	Evaluate(ctx context.Context, rec *domain.ExportRecord) (*domain.EvaluationRecord, error)
}

// Pipeline 批量评分：并发评估每份提交，再由单一收集者按参与者归档
type Pipeline struct {
	orch       *orchestrator.Orchestrator
	evaluator  Evaluator
	summarizer *Summarizer
}

// NewPipeline summarizer 为空时不生成反馈，直接使用评分理由
func NewPipeline(orch *orchestrator.Orchestrator, evaluator Evaluator, summarizer *Summarizer) *Pipeline {
	return &Pipeline{orch: orch, evaluator: evaluator, summarizer: summarizer}
}

// Collection 按参与者归档的评估结果
type Collection struct {
	Records map[string][]*domain.EvaluationRecord
	// Evaluated 本次新评估的记录，调用方负责落库
	Evaluated []*domain.EvaluationRecord
	Skipped   []Skipped
}

// Collect 评估导出记录，评估记录直接归档
// 单个提交失败只记录并跳过；roster 非空时名册外的参与者同样跳过
func (p *Pipeline) Collect(ctx context.Context, roster []string, subs []Submission) (*Collection, error) {
	known := make(map[string]bool, len(roster))
	for _, name := range roster {
		known[model.NormalizeUsername(name)] = true
	}

	out := &Collection{Records: make(map[string][]*domain.EvaluationRecord)}
	onRoster := func(path, participant string) bool {
		name := model.NormalizeUsername(participant)
		if len(known) > 0 && !known[name] {
			klog.Warningf("参与者不在名册中，跳过: participant=%s, path=%s", name, path)
			out.Skipped = append(out.Skipped, Skipped{Path: path, Reason: fmt.Sprintf("%s is not on the roster", name)})
			return false
		}
		return true
	}
	file := func(rec *domain.EvaluationRecord) {
		name := model.NormalizeUsername(rec.Username)
		rec.Username = name
		out.Records[name] = append(out.Records[name], rec)
	}

	var exports []Submission
	for _, sub := range subs {
		if sub.Evaluation != nil {
			if onRoster(sub.Path, sub.Evaluation.Username) {
				file(sub.Evaluation)
			}
			continue
		}
		// 名册外的导出记录不送评
		if sub.Export != nil && onRoster(sub.Path, sub.Export.Username) {
			exports = append(exports, sub)
		}
	}

	err := orchestrator.Fanout(ctx, p.orch, exports,
		func(ctx context.Context, sub Submission) (*domain.EvaluationRecord, error) {
			return p.evaluator.Evaluate(ctx, sub.Export)
		},
		func(r orchestrator.Result[Submission, *domain.EvaluationRecord]) {
			if r.Err != nil {
				klog.Warningf("评估失败，跳过: path=%s, err=%v", r.Item.Path, r.Err)
				out.Skipped = append(out.Skipped, Skipped{Path: r.Item.Path, Reason: r.Err.Error()})
				return
			}
			out.Evaluated = append(out.Evaluated, r.Value)
			file(r.Value)
		})
	if err != nil {
		return out, err
	}
	klog.V(6).Infof("批量评估完成: participants=%d, evaluated=%d, skipped=%d", len(out.Records), len(out.Evaluated), len(out.Skipped))
	return out, nil
}

// Grade 汇总成绩并生成反馈
func (p *Pipeline) Grade(ctx context.Context, roster []string, records map[string][]*domain.EvaluationRecord, policy Policy) ([]*Result, error) {
	results := Aggregate(roster, records, policy)

	var submitted []*Result
	for _, r := range results {
		if !r.Submitted() {
			continue
		}
		if p.summarizer == nil {
			r.Feedback = joinText(r.Rationales...)
			continue
		}
		submitted = append(submitted, r)
	}
	if len(submitted) == 0 {
		return results, nil
	}

	err := orchestrator.Fanout(ctx, p.orch, submitted,
		func(ctx context.Context, r *Result) (string, error) {
			return p.summarizer.Summarize(ctx, r.Grades, r.Rationales), nil
		},
		func(res orchestrator.Result[*Result, string]) {
			if res.Err != nil {
				res.Item.Feedback = joinText(res.Item.Rationales...)
				return
			}
			res.Item.Feedback = res.Value
		})
	return results, err
}
