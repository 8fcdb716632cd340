package model

import (
	"time"

	"github.com/ethicsbot/backend/internal/domain"
	"github.com/ethicsbot/backend/internal/pkg/conversation"
)

// 会话状态
const (
	SessionStatusActive    = "active"
	SessionStatusReset     = "reset"
	SessionStatusExported  = "exported"
	SessionStatusEvaluated = "evaluated"
)

// Session 会话快照
type Session struct {
	ID         string                    `json:"id" gorm:"primaryKey;size:36"`
	Username   string                    `json:"username" gorm:"size:255;index;not null"`
	Occupation string                    `json:"occupation" gorm:"size:255"`
	Topic      string                    `json:"topic" gorm:"size:255"`
	Messages   conversation.Conversation `json:"messages" gorm:"type:text;serializer:json"`
	Status     string                    `json:"status" gorm:"size:20;default:'active';index"`
	StartTime  time.Time                 `json:"start_time"`
	EndTime    *time.Time                `json:"end_time"`
	CreatedAt  time.Time                 `json:"created_at"`
	UpdatedAt  time.Time                 `json:"updated_at"`
}

// TableName 指定表名
func (Session) TableName() string {
	return "sessions"
}

// NewSessionSnapshot 由会话生成快照
func NewSessionSnapshot(s *domain.Session, status string) *Session {
	snap := &Session{
		ID:         s.ID,
		Username:   s.Participant,
		Occupation: s.Occupation,
		Topic:      s.Topic,
		Messages:   *conversation.New(s.Conversation.Turns()...),
		Status:     status,
		StartTime:  s.StartTime,
	}
	if s.Ended() {
		end := s.EndTime
		snap.EndTime = &end
	}
	return snap
}

// Export 快照转为导出记录
func (s *Session) Export() *domain.ExportRecord {
	rec := &domain.ExportRecord{
		Username:   s.Username,
		Occupation: s.Occupation,
		Topic:      s.Topic,
		Messages:   s.Messages.Turns(),
		StartTime:  domain.EpochSeconds(s.StartTime),
	}
	if s.EndTime != nil {
		rec.EndTime = domain.EpochSeconds(*s.EndTime)
	}
	return rec
}
