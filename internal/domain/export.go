package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ethicsbot/backend/internal/pkg/conversation"
)

// ErrInvalidExport 导出记录不完整
var ErrInvalidExport = errors.New("invalid session export")

// ExportRecord 会话导出记录，也是批量评分的输入
type ExportRecord struct {
	Username   string              `json:"username"`
	Occupation string              `json:"occupation"`
	Topic      string              `json:"topic"`
	Messages   []conversation.Turn `json:"messages"`
	StartTime  float64             `json:"start_time"`
	EndTime    float64             `json:"end_time"`
}

// EpochSeconds 转为带小数的 Unix 秒，零值为 0
func EpochSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

// FromEpochSeconds EpochSeconds 的逆运算，结果为 UTC
func FromEpochSeconds(s float64) time.Time {
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(math.Round(frac*float64(time.Second)))).UTC()
}

// Started 开始时间
func (r *ExportRecord) Started() time.Time {
	return FromEpochSeconds(r.StartTime)
}

// Ended 结束时间
func (r *ExportRecord) Ended() time.Time {
	return FromEpochSeconds(r.EndTime)
}

// Conversation 还原为对话
func (r *ExportRecord) Conversation() *conversation.Conversation {
	return conversation.New(r.Messages...)
}

// Validate 检查导出记录的基本约束
func (r *ExportRecord) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("%w: username is empty", ErrInvalidExport)
	}
	if r.EndTime < r.StartTime {
		return fmt.Errorf("%w: end_time before start_time", ErrInvalidExport)
	}
	return nil
}

// ParseExport 解析导出 JSON，角色统一为小写
func ParseExport(data []byte) (*ExportRecord, error) {
	var raw struct {
		ExportRecord
		Messages conversation.Conversation `json:"messages"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExport, err)
	}
	rec := raw.ExportRecord
	rec.Messages = raw.Messages.Turns()
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}
