package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/config"
	"github.com/ethicsbot/backend/internal/pkg/conversation"
)

// OpenAIClient 基于 Eino OpenAI ChatModel 的实现，兼容任意 OpenAI 协议的服务
type OpenAIClient struct {
	chatModel model.BaseChatModel
}

// NewOpenAIClient 创建 OpenAI 客户端
func NewOpenAIClient(ctx context.Context, cfg config.OracleConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, &Error{Kind: KindAuthentication, Provider: ProviderOpenAI, Err: fmt.Errorf("api key is not configured")}
	}
	klog.V(6).Infof("[Oracle] 创建 OpenAI ChatModel: model=%s, baseURL=%s", cfg.Model, cfg.APIURL)

	mc := &openai.ChatModelConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
	}
	if cfg.APIURL != "" {
		mc.BaseURL = cfg.APIURL
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		mc.MaxTokens = &maxTokens
	}
	if cfg.Temperature > 0 {
		temperature := cfg.Temperature
		mc.Temperature = &temperature
	}

	chatModel, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		klog.Errorf("[Oracle] 创建 ChatModel 失败: %v", err)
		return nil, err
	}
	return &OpenAIClient{chatModel: chatModel}, nil
}

func (c *OpenAIClient) Chat(ctx context.Context, req *Request) (string, error) {
	var opts []model.Option
	if req.Temperature != nil {
		opts = append(opts, model.WithTemperature(*req.Temperature))
	}

	resp, err := c.chatModel.Generate(ctx, toSchemaMessages(req), opts...)
	if err != nil {
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", &Error{Kind: KindService, Provider: ProviderOpenAI, Err: ErrEmptyReply}
	}
	return resp.Content, nil
}

func toSchemaMessages(req *Request) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(req.Turns)+1)
	if req.Directive != "" {
		msgs = append(msgs, schema.SystemMessage(req.Directive))
	}
	for _, t := range req.Turns {
		switch t.Role {
		case conversation.RoleSystem:
			msgs = append(msgs, schema.SystemMessage(t.Content))
		case conversation.RoleUser:
			msgs = append(msgs, schema.UserMessage(t.Content))
		case conversation.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(t.Content, nil))
		}
	}
	return msgs
}
