package model

import (
	"time"

	"github.com/ethicsbot/backend/internal/domain"
	"github.com/ethicsbot/backend/internal/pkg/conversation"
)

// 评估来源
const (
	EvaluationSourceLive   = "live"
	EvaluationSourceImport = "import"
)

// Evaluation 评估记录
type Evaluation struct {
	ID            uint                `json:"id" gorm:"primaryKey"`
	SessionID     string              `json:"session_id" gorm:"size:36;index"`
	Username      string              `json:"username" gorm:"size:255;index;not null"`
	Occupation    string              `json:"occupation" gorm:"size:255"`
	Topic         string              `json:"topic" gorm:"size:255"`
	MinutesSpent  float64             `json:"minutes_spent"`
	UserResponses int                 `json:"user_responses"`
	WordCount     int                 `json:"word_count"`
	SentenceCount int                 `json:"sentence_count"`
	Grade         int                 `json:"grade"`
	GradeLogic    string              `json:"grade_logic" gorm:"type:text"`
	Depth         *int                `json:"depth,omitempty"`
	Seriousness   *int                `json:"seriousness,omitempty"`
	Comments      string              `json:"comments,omitempty" gorm:"type:text"`
	Messages      []conversation.Turn `json:"messages" gorm:"type:text;serializer:json"`
	Source        string              `json:"source" gorm:"size:20;default:'live'"`
	GeneratedAt   time.Time           `json:"generated_at" gorm:"index"`
	CreatedAt     time.Time           `json:"created_at"`
}

// TableName 指定表名
func (Evaluation) TableName() string {
	return "evaluations"
}

// NewEvaluation 由评估结果生成记录
func NewEvaluation(rec *domain.EvaluationRecord, source string) *Evaluation {
	return &Evaluation{
		SessionID:     rec.SessionID,
		Username:      rec.Username,
		Occupation:    rec.Occupation,
		Topic:         rec.Topic,
		MinutesSpent:  rec.MinutesSpent,
		UserResponses: rec.UserResponses,
		WordCount:     rec.WordCount,
		SentenceCount: rec.SentenceCount,
		Grade:         rec.Grade,
		GradeLogic:    rec.GradeLogic,
		Depth:         rec.Depth,
		Seriousness:   rec.Seriousness,
		Comments:      rec.Comments,
		Messages:      rec.Conversation,
		Source:        source,
		GeneratedAt:   rec.Generated.Time().UTC(),
	}
}

// Record 还原为评估结果
func (e *Evaluation) Record() *domain.EvaluationRecord {
	return &domain.EvaluationRecord{
		SessionID:     e.SessionID,
		Username:      e.Username,
		Occupation:    e.Occupation,
		Topic:         e.Topic,
		MinutesSpent:  e.MinutesSpent,
		UserResponses: e.UserResponses,
		WordCount:     e.WordCount,
		SentenceCount: e.SentenceCount,
		Grade:         e.Grade,
		GradeLogic:    e.GradeLogic,
		Depth:         e.Depth,
		Seriousness:   e.Seriousness,
		Comments:      e.Comments,
		Conversation:  e.Messages,
		Generated:     domain.Stamp(e.GeneratedAt.UTC()),
	}
}
