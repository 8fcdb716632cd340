package conductor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/internal/pkg/conversation"
	"github.com/ethicsbot/backend/internal/pkg/directive"
	"github.com/ethicsbot/backend/internal/pkg/oracle"
)

var (
	// ErrNoUserTurn 对话中还没有用户消息，不能路由
	ErrNoUserTurn = errors.New("conversation has no user turn")

	// ErrOutOfRange 模型返回了不可路由的指令
	ErrOutOfRange = errors.New("routing reply out of range")
)

var routingSchema = &oracle.Schema{
	Name: "directive_selection",
	Properties: map[string]oracle.Property{
		"directive_id": {
			Type:        oracle.TypeInteger,
			Description: "ID of the directive that should produce the next reply",
			Example:     int(directive.Default),
		},
	},
	Required: []string{"directive_id"},
}

type selection struct {
	DirectiveID int `json:"directive_id"`
}

// Router 为下一轮回复选择指令
type Router struct {
	client  oracle.Client
	catalog *directive.Catalog
}

func NewRouter(client oracle.Client, catalog *directive.Catalog) *Router {
	return &Router{client: client, catalog: catalog}
}

// Select 选择下一轮的指令
// 对话中没有用户消息时返回 ErrNoUserTurn，调用方不应在此时路由；
// 模型调用失败或返回不可路由的 ID 时返回 directive.Default 和错误，调用方可直接使用返回的指令
func (r *Router) Select(ctx context.Context, conv *conversation.Conversation) (directive.ID, error) {
	if !conv.HasUserTurn() {
		return 0, ErrNoUserTurn
	}

	policy, err := r.catalog.ConductorPrompt()
	if err != nil {
		return directive.Default, err
	}

	req := &oracle.Request{
		Directive: policy,
		Turns:     []conversation.Turn{conversation.UserTurn(BuildContext(conv))},
		Schema:    routingSchema,
	}
	var reply selection
	if err := oracle.Structured(ctx, r.client, req, &reply); err != nil {
		klog.Warningf("[Router] 路由失败，使用默认指令 %s: %v", directive.Default, err)
		return directive.Default, fmt.Errorf("route: %w", err)
	}

	id := directive.ID(reply.DirectiveID)
	if !id.IsRoutable() {
		klog.Warningf("[Router] 路由结果越界，使用默认指令 %s: got=%d", directive.Default, reply.DirectiveID)
		return directive.Default, fmt.Errorf("%w: %d", ErrOutOfRange, reply.DirectiveID)
	}

	klog.V(6).Infof("[Router] 选择指令: id=%d, name=%s", int(id), id.Name())
	return id, nil
}

// BuildContext 渲染路由上下文：按顺序列出非 system 消息，末尾单独给出最新的用户消息
func BuildContext(conv *conversation.Conversation) string {
	var b strings.Builder
	b.WriteString("Conversation history:")
	for _, t := range conv.NonSystem() {
		b.WriteString("\n")
		b.WriteString(roleLabel(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	if latest, ok := conv.LatestUser(); ok {
		b.WriteString("\n\nUser's latest message: ")
		b.WriteString(latest)
	}
	return b.String()
}

func roleLabel(r conversation.Role) string {
	s := string(r)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
