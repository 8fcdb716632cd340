package domain

import (
	"strings"
	"time"

	"github.com/ethicsbot/backend/internal/pkg/conversation"
)

// Session 一个参与者从开始到导出的完整交互
// 同一时刻只由一个调用方驱动，不做并发保护
type Session struct {
	ID           string
	Participant  string
	Occupation   string
	Topic        string
	Conversation *conversation.Conversation
	StartTime    time.Time
	EndTime      time.Time
}

// Ended 是否已盖上结束时间
func (s *Session) Ended() bool {
	return !s.EndTime.IsZero()
}

// Export 生成导出记录，不修改会话
func (s *Session) Export() *ExportRecord {
	return &ExportRecord{
		Username:   s.Participant,
		Occupation: s.Occupation,
		Topic:      s.Topic,
		Messages:   s.Conversation.Turns(),
		StartTime:  EpochSeconds(s.StartTime),
		EndTime:    EpochSeconds(s.EndTime),
	}
}

// ExportFilename 导出文件名："<本地部分，点换成短横线> dd-mm-YYYY_HH-MM-SS.json"
func ExportFilename(participant string, at time.Time) string {
	local := participant
	if i := strings.Index(local, "@"); i >= 0 {
		local = local[:i]
	}
	local = strings.ReplaceAll(local, ".", "-")
	return local + " " + at.Format("02-01-2006_15-04-05") + ".json"
}
