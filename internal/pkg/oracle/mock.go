package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ethicsbot/backend/internal/pkg/conversation"
)

// MockClient 确定性的离线实现，不访问网络
// 文本请求回显最近的用户消息；结构化请求按 Schema 的 Example 构造 JSON
type MockClient struct {
	mu    sync.Mutex
	calls []Request
}

// NewMockClient 创建 mock 客户端
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Chat(ctx context.Context, req *Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.calls = append(m.calls, *req)
	m.mu.Unlock()

	if req.Schema != nil {
		return mockStructured(req.Schema)
	}

	latest := ""
	for i := len(req.Turns) - 1; i >= 0; i-- {
		if req.Turns[i].Role == conversation.RoleUser {
			latest = req.Turns[i].Content
			break
		}
	}
	if latest == "" {
		return "[mock] Consider the following dilemma: a colleague asks you to overlook a safety shortcut to meet a deadline. What do you do?", nil
	}
	return fmt.Sprintf("[mock] You said %q. What would happen if everyone acted that way?", strings.TrimSpace(latest)), nil
}

// Calls 已记录的请求
func (m *MockClient) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

func mockStructured(s *Schema) (string, error) {
	obj := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		if p.Example != nil {
			obj[name] = p.Example
			continue
		}
		switch p.Type {
		case TypeInteger, TypeNumber:
			obj[name] = 0
		case TypeBoolean:
			obj[name] = false
		default:
			obj[name] = "[mock] " + name
		}
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
