package model

import (
	"strings"
	"time"
)

// Participant 名册中的参与者
type Participant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"size:255;uniqueIndex;not null"` // 小写
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Participant) TableName() string {
	return "participants"
}

// NormalizeUsername 名册按小写匹配
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
