package oracle

import (
	"context"
	"fmt"
	"os"
	"strings"

	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"

	// EnvMode 设置为 MOCK 时无论配置如何都使用 mock 客户端
	EnvMode  = "ORACLE_MODE"
	ModeMock = "MOCK"
)

// New 根据配置创建客户端，返回值已带超时、日志与错误分类
func New(ctx context.Context, cfg config.OracleConfig) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if strings.EqualFold(os.Getenv(EnvMode), ModeMock) {
		provider = ProviderMock
	}
	if provider == "" {
		provider = ProviderOpenAI
	}

	var (
		client Client
		err    error
	)
	switch provider {
	case ProviderOpenAI:
		client, err = NewOpenAIClient(ctx, cfg)
	case ProviderGemini:
		client, err = NewGeminiClient(ctx, cfg)
	case ProviderMock:
		klog.Warningf("[Oracle] 使用 mock 客户端，不会调用真实模型")
		client = NewMockClient()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(client, provider, cfg.Timeout), nil
}
