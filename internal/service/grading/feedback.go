package grading

import (
	"context"
	"encoding/json"
	"strings"

	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/internal/pkg/conversation"
	"github.com/ethicsbot/backend/internal/pkg/directive"
	"github.com/ethicsbot/backend/internal/pkg/oracle"
)

var feedbackSchema = &oracle.Schema{
	Name: "final_feedback",
	Properties: map[string]oracle.Property{
		"positive_feedback":     {Type: oracle.TypeString, Description: "What went well, or None"},
		"reason_points_lost":    {Type: oracle.TypeString, Description: "Where points were lost, or None"},
		"ideas_for_improvement": {Type: oracle.TypeString, Description: "Suggestions for next time, or None"},
	},
	Required: []string{"positive_feedback", "ideas_for_improvement"},
}

type feedbackReply struct {
	PositiveFeedback    string `json:"positive_feedback"`
	ReasonPointsLost    string `json:"reason_points_lost"`
	IdeasForImprovement string `json:"ideas_for_improvement"`
}

// Summarizer 把多份评分理由合成为给学生的反馈
type Summarizer struct {
	client  oracle.Client
	catalog *directive.Catalog
}

func NewSummarizer(client oracle.Client, catalog *directive.Catalog) *Summarizer {
	return &Summarizer{client: client, catalog: catalog}
}

// Summarize 生成反馈文本：正面评价 + 改进建议
// 扣分原因不进入最终文本
// 模型失败时退回到逐条评分理由
func (s *Summarizer) Summarize(ctx context.Context, grades []int, rationales []string) string {
	fallback := joinText(rationales...)

	d, err := s.catalog.Get(directive.Feedback)
	if err != nil {
		return fallback
	}
	payload, err := json.Marshal(map[string]any{"grades": grades, "grade_logic": rationales})
	if err != nil {
		return fallback
	}

	var reply feedbackReply
	err = oracle.Structured(ctx, s.client, &oracle.Request{
		Directive: d.SystemPrompt,
		Turns:     []conversation.Turn{conversation.UserTurn(string(payload))},
		Schema:    feedbackSchema,
	}, &reply)
	if err != nil {
		klog.Warningf("[Feedback] 反馈生成失败，使用评分理由: err=%v", err)
		return fallback
	}

	text := joinText(reply.PositiveFeedback, reply.IdeasForImprovement)
	if text == "" {
		return fallback
	}
	return text
}

// joinText 以空行拼接非空段落，"None" 视为空
func joinText(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, "none") {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, "\n\n")
}
