package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethicsbot/backend/internal/pkg/conversation"
	"github.com/ethicsbot/backend/internal/pkg/obfuscate"
)

// GeneratedLayout 评估生成时间的文本格式（UTC）
const GeneratedLayout = "02/01/2006, 15:04:05"

// Stamp 以 GeneratedLayout 编码的时间
type Stamp time.Time

func (s Stamp) Time() time.Time {
	return time.Time(s)
}

func (s Stamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(s).UTC().Format(GeneratedLayout))
}

func (s *Stamp) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	t, err := time.ParseInLocation(GeneratedLayout, strings.TrimSpace(text), time.UTC)
	if err != nil {
		return fmt.Errorf("invalid generated_ timestamp %q: %w", text, err)
	}
	*s = Stamp(t)
	return nil
}

// EvaluationRecord 一次会话的评估结果，生成后不再修改
// GradeLogic 可能经过 obfuscate 编码，读取请用 Rationale
type EvaluationRecord struct {
	SessionID     string              `json:"session_id_,omitempty"`
	Username      string              `json:"user_name_"`
	Occupation    string              `json:"occupation_"`
	Topic         string              `json:"topic_"`
	MinutesSpent  float64             `json:"minutes_spent_"`
	UserResponses int                 `json:"user_responses_"`
	WordCount     int                 `json:"word_count_"`
	SentenceCount int                 `json:"sentence_count_"`
	Grade         int                 `json:"grade_"`
	GradeLogic    string              `json:"grade_logic_"`
	Depth         *int                `json:"depth_,omitempty"`
	Seriousness   *int                `json:"seriousness_,omitempty"`
	Comments      string              `json:"comments_,omitempty"`
	Conversation  []conversation.Turn `json:"conversation_"`
	Generated     Stamp               `json:"generated_"`
}

// Rationale 返回解码后的评分理由
func (e *EvaluationRecord) Rationale() string {
	return obfuscate.Reveal(e.GradeLogic)
}
