package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/internal/pkg/conversation"
	"github.com/ethicsbot/backend/internal/pkg/directive"
	"github.com/ethicsbot/backend/internal/pkg/oracle"
	"github.com/ethicsbot/backend/internal/pkg/retry"
)

const (
	// DefaultFallback 全部尝试失败后的固定回复
	DefaultFallback = "I'm sorry, I'm having trouble responding. Please try again."

	// DefaultMaxAttempts 每轮回复的最大尝试次数
	DefaultMaxAttempts = 3
)

// ErrAlreadySeeded 对话已有内容，不能再生成开场场景
var ErrAlreadySeeded = errors.New("conversation already has a scenario")

// Options 分发器配置
type Options struct {
	MaxAttempts   int
	Backoff       time.Duration
	FallbackReply string
	Modifiers     *directive.Modifiers
}

// Result 一轮回复的结果，Fallback 为 true 时 Turn 是固定回复，Err 为最后一次失败
type Result struct {
	Turn      conversation.Turn
	Directive directive.ID
	Attempts  int
	Fallback  bool
	Err       error
}

// Dispatcher 用选定的指令生成助手回复
type Dispatcher struct {
	client    oracle.Client
	catalog   *directive.Catalog
	modifiers *directive.Modifiers
	policy    retry.Policy
	fallback  string
}

func New(client oracle.Client, catalog *directive.Catalog, opts Options) *Dispatcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if strings.TrimSpace(opts.FallbackReply) == "" {
		opts.FallbackReply = DefaultFallback
	}
	return &Dispatcher{
		client:    client,
		catalog:   catalog,
		modifiers: opts.Modifiers,
		policy:    retry.Policy{MaxAttempts: opts.MaxAttempts, Backoff: opts.Backoff},
		fallback:  opts.FallbackReply,
	}
}

// Advance 生成下一条助手回复并追加到对话
// 模型失败在此处消化：重试用尽后追加固定回复，不向上返回错误
func (d *Dispatcher) Advance(ctx context.Context, conv *conversation.Conversation, participant string, id directive.ID) Result {
	if !id.IsRoutable() {
		klog.Warningf("[Dispatcher] 指令不可路由，使用默认指令: id=%d", int(id))
		id = directive.Default
	}
	res := Result{Directive: id}

	dir, err := d.catalog.Get(id)
	if err != nil {
		klog.Errorf("[Dispatcher] 指令缺失: id=%d, err=%v", int(id), err)
		return d.fallbackTurn(conv, res, err)
	}

	req := &oracle.Request{
		Directive: d.modifiers.Apply(dir.SystemPrompt, participant),
		Turns:     conv.Turns(),
	}
	out := retry.Do(ctx, d.policy, func(ctx context.Context, attempt int) (string, error) {
		text, err := d.client.Chat(ctx, req)
		if err == nil && strings.TrimSpace(text) == "" {
			err = oracle.ErrEmptyReply
		}
		if err != nil {
			klog.Warningf("[Dispatcher] 生成回复失败: directive=%s, attempt=%d/%d, err=%v", id, attempt, d.policy.MaxAttempts, err)
		}
		return text, err
	})
	res.Attempts = out.Attempts

	if out.Exhausted() {
		return d.fallbackTurn(conv, res, out.Err)
	}

	res.Turn = conversation.AssistantTurn(out.Value)
	conv.Append(res.Turn)
	klog.V(6).Infof("[Dispatcher] 回复完成: directive=%s, attempts=%d, length=%d", id, out.Attempts, len(out.Value))
	return res
}

func (d *Dispatcher) fallbackTurn(conv *conversation.Conversation, res Result, err error) Result {
	klog.Errorf("[Dispatcher] 使用固定回复: directive=%s, attempts=%d, err=%v", res.Directive, res.Attempts, err)
	res.Turn = conversation.AssistantTurn(d.fallback)
	res.Fallback = true
	res.Err = err
	conv.Append(res.Turn)
	return res
}

// Initialize 生成开场场景并写入空对话
// 不做重试；失败时对话保持不变，返回分类后的错误（见 oracle.KindOf）
func (d *Dispatcher) Initialize(ctx context.Context, conv *conversation.Conversation, occupation, topic string) (conversation.Turn, error) {
	if conv.Len() > 0 {
		return conversation.Turn{}, ErrAlreadySeeded
	}

	dir, err := d.catalog.Get(directive.ScenarioAuthor)
	if err != nil {
		return conversation.Turn{}, err
	}

	req := &oracle.Request{
		Directive: dir.SystemPrompt,
		Turns:     []conversation.Turn{conversation.UserTurn(directive.ScenarioPrompt(occupation, topic))},
	}
	text, err := d.client.Chat(ctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = &oracle.Error{Kind: oracle.KindService, Provider: "oracle", Err: oracle.ErrEmptyReply}
	}
	if err != nil {
		err = oracle.Classify("oracle", err)
		klog.Errorf("[Dispatcher] 场景生成失败: occupation=%q, topic=%q, kind=%s, err=%v", occupation, topic, oracle.KindOf(err), err)
		return conversation.Turn{}, fmt.Errorf("generate scenario: %w", err)
	}

	turn := conversation.AssistantTurn(text)
	conv.Append(turn)
	klog.V(6).Infof("[Dispatcher] 场景生成完成: occupation=%q, topic=%q, length=%d", occupation, topic, len(text))
	return turn, nil
}
