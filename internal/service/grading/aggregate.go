package grading

import (
	"fmt"
	"math"
	"sort"
	"time"

	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/internal/domain"
	"github.com/ethicsbot/backend/internal/model"
)

// Policy 汇总规则
type Policy struct {
	// Deadline 为零值时不做迟交判断，非零时按 UTC 比较
	Deadline       time.Time
	Assignments    int
	Scale          float64
	LateMessage    string
	MissingMessage string
}

func (p Policy) withDefaults() Policy {
	if p.Assignments <= 0 {
		p.Assignments = 3
	}
	if p.Scale <= 0 {
		p.Scale = 21
	}
	if p.LateMessage == "" {
		p.LateMessage = "late submission"
	}
	if p.MissingMessage == "" {
		p.MissingMessage = "You didn't turn in this assignment."
	}
	return p
}

// Result 一个参与者的汇总成绩
type Result struct {
	Participant    string
	FinalGrade     int
	Normalized     float64
	Grades         []int
	Rationales     []string
	Late           []bool
	Feedback       string
	WordCounts     []int
	SentenceCounts []int
	Responses      []int
	Minutes        []float64
	Warnings       []string
}

// Submitted 是否有任何提交
func (r *Result) Submitted() bool {
	return len(r.WordCounts) > 0
}

// Aggregate 按名册顺序汇总成绩
// 迟交的评估记零分；不足的作业以零分补齐；normalized = 总分 / (100 * 作业数)；
// 最高 normalized 小于 1 时所有人加上 1 - max；最终成绩 = round(scale * (normalized + curve))，normalized 为 0 时保持 0
func Aggregate(roster []string, records map[string][]*domain.EvaluationRecord, policy Policy) []*Result {
	p := policy.withDefaults()
	deadline := p.Deadline.UTC()

	results := make([]*Result, 0, len(roster))
	maxNormalized := 0.0
	for _, name := range roster {
		name = model.NormalizeUsername(name)
		r := &Result{Participant: name}
		results = append(results, r)

		recs := append([]*domain.EvaluationRecord(nil), records[name]...)
		if len(recs) == 0 {
			r.Feedback = p.MissingMessage
			continue
		}
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Generated.Time().Before(recs[j].Generated.Time())
		})
		if len(recs) > p.Assignments {
			w := fmt.Sprintf("%d submissions found, only the earliest %d count", len(recs), p.Assignments)
			klog.Warningf("提交数量超出作业数: participant=%s, %s", name, w)
			r.Warnings = append(r.Warnings, w)
			recs = recs[:p.Assignments]
		}

		sum := 0
		for _, rec := range recs {
			grade, rationale, late := rec.Grade, rec.Rationale(), false
			if !p.Deadline.IsZero() && rec.Generated.Time().UTC().After(deadline) {
				grade, rationale, late = 0, p.LateMessage, true
			}
			sum += grade
			r.Grades = append(r.Grades, grade)
			r.Rationales = append(r.Rationales, rationale)
			r.Late = append(r.Late, late)
			r.WordCounts = append(r.WordCounts, rec.WordCount)
			r.SentenceCounts = append(r.SentenceCounts, rec.SentenceCount)
			r.Responses = append(r.Responses, rec.UserResponses)
			r.Minutes = append(r.Minutes, rec.MinutesSpent)
		}
		for len(r.Grades) < p.Assignments {
			r.Grades = append(r.Grades, 0)
			r.Rationales = append(r.Rationales, p.MissingMessage)
			r.Late = append(r.Late, false)
		}

		r.Normalized = float64(sum) / float64(100*p.Assignments)
		if r.Normalized > maxNormalized {
			maxNormalized = r.Normalized
		}
	}

	curve := 0.0
	if maxNormalized < 1 {
		curve = 1 - maxNormalized
	}
	for _, r := range results {
		if r.Normalized != 0 {
			r.FinalGrade = int(math.RoundToEven(p.Scale * (r.Normalized + curve)))
		}
	}
	klog.V(6).Infof("成绩汇总完成: participants=%d, max=%.4f, curve=%.4f", len(results), maxNormalized, curve)
	return results
}
