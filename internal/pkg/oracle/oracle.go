package oracle

import (
	"context"
	"encoding/json"

	"github.com/ethicsbot/backend/internal/pkg/conversation"
)

// Client 外部对话模型的统一抽象
// 返回模型回复的纯文本；结构化回复见 Structured
type Client interface {
	Chat(ctx context.Context, req *Request) (string, error)
}

// ClientFunc 函数适配器
type ClientFunc func(ctx context.Context, req *Request) (string, error)

func (f ClientFunc) Chat(ctx context.Context, req *Request) (string, error) {
	return f(ctx, req)
}

// Request 一次模型调用
type Request struct {
	// Directive 作为 system 指令发送
	Directive string
	// Turns 按对话顺序发送
	Turns []conversation.Turn
	// Schema 非空时要求模型返回符合该结构的 JSON 对象
	Schema *Schema
	// Temperature 为空时使用客户端默认值
	Temperature *float32
}

// Schema 结构化回复描述
type Schema struct {
	Name       string              `json:"-"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Property 字段描述，Example 会被 mock 客户端用作确定性的返回值
type Property struct {
	Type        string `json:"type"` // string, integer, number, boolean
	Description string `json:"description,omitempty"`
	Example     any    `json:"-"`
}

const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Contract 渲染为追加到指令末尾的输出约定
func (s *Schema) Contract() string {
	doc := struct {
		Type       string              `json:"type"`
		Properties map[string]Property `json:"properties"`
		Required   []string            `json:"required"`
	}{Type: "object", Properties: s.Properties, Required: s.Required}
	data, _ := json.MarshalIndent(doc, "", "  ")
	return "Respond ONLY with a single JSON object (" + s.Name + ") matching this JSON schema, with no other text:\n" + string(data)
}

// Float32 返回指针，便于设置 Request.Temperature
func Float32(v float32) *float32 {
	return &v
}
