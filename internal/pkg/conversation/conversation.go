package conversation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role 消息角色
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole 解析角色字符串，忽略大小写与首尾空白
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSystem, RoleUser, RoleAssistant:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Turn 对话中的一条消息，追加后不再修改
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn 创建用户消息
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn 创建助手消息
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// Conversation 只追加的对话日志
// 插入顺序即对话历史，也是发送给模型的上下文顺序
type Conversation struct {
	turns []Turn
}

// New 使用已有消息创建对话
func New(turns ...Turn) *Conversation {
	c := &Conversation{}
	for _, t := range turns {
		c.turns = append(c.turns, t)
	}
	return c
}

// Append 追加一条消息
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Turns 返回消息副本，调用方修改不会影响对话
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len 消息数量
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Reset 清空对话
func (c *Conversation) Reset() {
	c.turns = nil
}

// HasUserTurn 是否存在至少一条用户消息
func (c *Conversation) HasUserTurn() bool {
	_, ok := c.LatestUser()
	return ok
}

// LatestUser 返回最近一条用户消息内容
func (c *Conversation) LatestUser() (string, bool) {
	for i := len(c.turns) - 1; i >= 0; i-- {
		if c.turns[i].Role == RoleUser {
			return c.turns[i].Content, true
		}
	}
	return "", false
}

// UserTurns 按顺序返回所有用户消息
func (c *Conversation) UserTurns() []Turn {
	var out []Turn
	for _, t := range c.turns {
		if t.Role == RoleUser {
			out = append(out, t)
		}
	}
	return out
}

// NonSystem 按顺序返回所有非 system 消息
func (c *Conversation) NonSystem() []Turn {
	var out []Turn
	for _, t := range c.turns {
		if t.Role != RoleSystem {
			out = append(out, t)
		}
	}
	return out
}

// MarshalJSON 编码为消息数组，与导出记录的 messages 字段一致
func (c Conversation) MarshalJSON() ([]byte, error) {
	if c.turns == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.turns)
}

// UnmarshalJSON 从消息数组解码，角色统一为小写
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var raw []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	turns := make([]Turn, 0, len(raw))
	for _, r := range raw {
		role, err := ParseRole(r.Role)
		if err != nil {
			return err
		}
		turns = append(turns, Turn{Role: role, Content: r.Content})
	}
	c.turns = turns
	return nil
}
