package oracle

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/config"
	"github.com/ethicsbot/backend/internal/pkg/conversation"
)

// geminiOpening Gemini 要求首条内容来自用户，对话以助手场景开头时补一条
const geminiOpening = "Please begin."

// GeminiClient 基于 google genai SDK 的实现
// 结构化请求使用原生的 JSON 输出模式
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature *float32
}

// NewGeminiClient 创建 Gemini 客户端
func NewGeminiClient(ctx context.Context, cfg config.OracleConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, &Error{Kind: KindAuthentication, Provider: ProviderGemini, Err: fmt.Errorf("api key is not configured")}
	}
	modelName := cfg.Model
	if modelName == "" || strings.HasPrefix(modelName, "gpt-") {
		modelName = "gemini-2.5-flash"
	}
	klog.V(6).Infof("[Oracle] 创建 Gemini 客户端: model=%s", modelName)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c := &GeminiClient{client: client, model: modelName}
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		c.temperature = &t
	}
	return c, nil
}

func (c *GeminiClient) Chat(ctx context.Context, req *Request) (string, error) {
	gc := &genai.GenerateContentConfig{Temperature: c.temperature}
	if req.Temperature != nil {
		gc.Temperature = req.Temperature
	}

	system := []string{}
	if req.Directive != "" {
		system = append(system, req.Directive)
	}
	contents := make([]*genai.Content, 0, len(req.Turns)+1)
	for _, t := range req.Turns {
		switch t.Role {
		case conversation.RoleSystem:
			system = append(system, t.Content)
		case conversation.RoleUser:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleUser))
		case conversation.RoleAssistant:
			if len(contents) == 0 {
				contents = append(contents, genai.NewContentFromText(geminiOpening, genai.RoleUser))
			}
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleModel))
		}
	}
	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText(geminiOpening, genai.RoleUser))
	}
	if len(system) > 0 {
		gc.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if req.Schema != nil {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseSchema = toGenaiSchema(req.Schema)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, gc)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &Error{Kind: KindService, Provider: ProviderGemini, Err: ErrEmptyReply}
	}
	return text, nil
}

func toGenaiSchema(s *Schema) *genai.Schema {
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(s.Properties)),
		Required:   s.Required,
	}
	for name, p := range s.Properties {
		out.Properties[name] = &genai.Schema{
			Type:        genaiType(p.Type),
			Description: p.Description,
		}
	}
	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case TypeInteger:
		return genai.TypeInteger
	case TypeNumber:
		return genai.TypeNumber
	case TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
