package evaluator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/internal/domain"
	"github.com/ethicsbot/backend/internal/pkg/conversation"
	"github.com/ethicsbot/backend/internal/pkg/directive"
	"github.com/ethicsbot/backend/internal/pkg/obfuscate"
	"github.com/ethicsbot/backend/internal/pkg/oracle"
)

// Now 生成时间来源，测试中可替换
var Now = time.Now

const (
	RubricBasic    = "basic"
	RubricDetailed = "detailed"
)

const detailedRubric = `In addition to the overall grade, score the depth of the student's reasoning (0-100) and how seriously the student took the conversation (0-100).
Write comments addressed to the instructor that quote at least two of the student's own sentences word for word, in double quotes.`

var basicSchema = &oracle.Schema{
	Name: "evaluation",
	Properties: map[string]oracle.Property{
		"grade":       {Type: oracle.TypeInteger, Description: "Integer grade between 0 and 100", Example: 95},
		"grade_logic": {Type: oracle.TypeString, Description: "Short justification for the grade"},
	},
	Required: []string{"grade", "grade_logic"},
}

var detailedSchema = &oracle.Schema{
	Name: "detailed_evaluation",
	Properties: map[string]oracle.Property{
		"grade":       {Type: oracle.TypeInteger, Description: "Integer grade between 0 and 100", Example: 95},
		"grade_logic": {Type: oracle.TypeString, Description: "Short justification for the grade"},
		"depth":       {Type: oracle.TypeInteger, Description: "Depth of reasoning, 0-100", Example: 90},
		"seriousness": {Type: oracle.TypeInteger, Description: "Seriousness of engagement, 0-100", Example: 100},
		"comments":    {Type: oracle.TypeString, Description: "Comments quoting at least two literal student utterances"},
	},
	Required: []string{"grade", "grade_logic", "depth", "seriousness", "comments"},
}

type gradeReply struct {
	Grade       int    `json:"grade"`
	GradeLogic  string `json:"grade_logic"`
	Depth       *int   `json:"depth"`
	Seriousness *int   `json:"seriousness"`
	Comments    string `json:"comments"`
}

// Options 评分配置
type Options struct {
	Rubric              string
	Obfuscate           bool
	HighEffortMinutes   float64
	HighEffortResponses int
	HighEffortWords     int
}

// Evaluator 准备评分证据，由模型给出分数
type Evaluator struct {
	client  oracle.Client
	catalog *directive.Catalog
	opts    Options
}

func New(client oracle.Client, catalog *directive.Catalog, opts Options) *Evaluator {
	if opts.HighEffortMinutes <= 0 {
		opts.HighEffortMinutes = 10
	}
	if opts.HighEffortResponses <= 0 {
		opts.HighEffortResponses = 5
	}
	if opts.HighEffortWords <= 0 {
		opts.HighEffortWords = 300
	}
	if opts.Rubric == "" {
		opts.Rubric = RubricBasic
	}
	return &Evaluator{client: client, catalog: catalog, opts: opts}
}

// Request 构造评分请求，不调用模型
func (e *Evaluator) Request(rec *domain.ExportRecord) (*oracle.Request, Stats, error) {
	grader, err := e.catalog.Get(directive.Grader)
	if err != nil {
		return nil, Stats{}, err
	}

	prompt := strings.NewReplacer(
		"{high_effort_minutes}", strconv.FormatFloat(e.opts.HighEffortMinutes, 'f', -1, 64),
		"{high_effort_responses}", strconv.Itoa(e.opts.HighEffortResponses),
		"{high_effort_words}", strconv.Itoa(e.opts.HighEffortWords),
	).Replace(grader.SystemPrompt)
	schema := basicSchema
	if e.opts.Rubric == RubricDetailed {
		prompt = strings.TrimRight(prompt, "\n") + "\n" + detailedRubric
		schema = detailedSchema
	}

	stats := Compute(rec)
	evidence := BuildEvidence(stats, conversation.Transcript(rec.Messages))
	return &oracle.Request{
		Directive: prompt,
		Turns:     []conversation.Turn{conversation.UserTurn(evidence)},
		Schema:    schema,
	}, stats, nil
}

// Evaluate 评估一条导出记录
// 分数只来自模型；模型失败或回复不合约定时返回错误，不生成记录
func (e *Evaluator) Evaluate(ctx context.Context, rec *domain.ExportRecord) (*domain.EvaluationRecord, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	req, stats, err := e.Request(rec)
	if err != nil {
		return nil, err
	}

	var reply gradeReply
	if err := oracle.Structured(ctx, e.client, req, &reply); err != nil {
		klog.Errorf("[Evaluator] 评分失败: username=%s, err=%v", rec.Username, err)
		return nil, fmt.Errorf("evaluate %s: %w", rec.Username, err)
	}
	if reply.Grade < 0 || reply.Grade > 100 {
		return nil, fmt.Errorf("%w: grade %d outside 0-100", oracle.ErrMalformedReply, reply.Grade)
	}
	if e.opts.Rubric == RubricDetailed {
		if n := quotedUtterances(reply.Comments, rec.Conversation()); n < 2 {
			klog.Warningf("[Evaluator] 评语引用学生原话不足两处: username=%s, quotes=%d", rec.Username, n)
		}
	}

	logic := reply.GradeLogic
	if e.opts.Obfuscate {
		logic = obfuscate.Encode(logic)
	}

	out := &domain.EvaluationRecord{
		Username:      rec.Username,
		Occupation:    rec.Occupation,
		Topic:         rec.Topic,
		MinutesSpent:  stats.MinutesSpent,
		UserResponses: stats.UserResponses,
		WordCount:     stats.WordCount,
		SentenceCount: stats.SentenceCount,
		Grade:         reply.Grade,
		GradeLogic:    logic,
		Depth:         reply.Depth,
		Seriousness:   reply.Seriousness,
		Comments:      reply.Comments,
		Conversation:  append([]conversation.Turn(nil), rec.Messages...),
		Generated:     domain.Stamp(Now().UTC().Truncate(time.Second)),
	}
	klog.V(6).Infof("[Evaluator] 评分完成: username=%s, grade=%d, minutes=%.2f, responses=%d, words=%d",
		rec.Username, out.Grade, out.MinutesSpent, out.UserResponses, out.WordCount)
	return out, nil
}

// quotedUtterances 评语中逐字出现的学生原句数量
func quotedUtterances(comments string, conv *conversation.Conversation) int {
	n := 0
	for _, t := range conv.UserTurns() {
		for _, sentence := range splitSentences(t.Content) {
			if WordCount(sentence) >= 3 && strings.Contains(comments, sentence) {
				n++
			}
		}
	}
	return n
}

func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(sentenceTerminators, r) || r == '\n'
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
