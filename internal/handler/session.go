package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/internal/domain"
	"github.com/ethicsbot/backend/internal/pkg/conversation"
	"github.com/ethicsbot/backend/internal/service"
)

// SessionService 会话服务
type SessionService interface {
	Begin(ctx context.Context, participant, occupation, topic string) (*domain.Session, error)
	Respond(ctx context.Context, id, text string) (*service.Reply, error)
	Reset(ctx context.Context, id string) error
	Export(ctx context.Context, id string) (*domain.ExportRecord, error)
	Finish(ctx context.Context, id string) (*domain.EvaluationRecord, error)
	Get(id string) (*domain.Session, bool, error)
}

// SessionHandler 会话处理器
type SessionHandler struct {
	service SessionService
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(service SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/sessions", h.Begin)
	router.GET("/sessions/:id", h.Get)
	router.POST("/sessions/:id/messages", h.Respond)
	router.POST("/sessions/:id/reset", h.Reset)
	router.GET("/sessions/:id/export", h.Export)
	router.POST("/sessions/:id/evaluate", h.Evaluate)
}

// BeginRequest 开始会话请求
type BeginRequest struct {
	Participant string `json:"participant" binding:"required"`
	Occupation  string `json:"occupation"`
	Topic       string `json:"topic"`
}

// MessageRequest 用户消息
type MessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SessionResponse 会话视图
type SessionResponse struct {
	ID          string              `json:"id"`
	Participant string              `json:"participant"`
	Occupation  string              `json:"occupation"`
	Topic       string              `json:"topic"`
	Messages    []conversation.Turn `json:"messages"`
	StartTime   time.Time           `json:"start_time"`
	EndTime     *time.Time          `json:"end_time,omitempty"`
	Active      bool                `json:"active"`
}

func toSessionResponse(s *domain.Session, active bool) *SessionResponse {
	resp := &SessionResponse{
		ID:          s.ID,
		Participant: s.Participant,
		Occupation:  s.Occupation,
		Topic:       s.Topic,
		Messages:    s.Conversation.Turns(),
		StartTime:   s.StartTime,
		Active:      active,
	}
	if s.Ended() {
		end := s.EndTime
		resp.EndTime = &end
	}
	return resp
}

// Begin 开始会话并返回开场场景
func (h *SessionHandler) Begin(c *gin.Context) {
	var req BeginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("Begin: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.service.Begin(c.Request.Context(), req.Participant, req.Occupation, req.Topic)
	if err != nil {
		writeError(c, "Begin", err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(sess, true))
}

// Get 获取会话
func (h *SessionHandler) Get(c *gin.Context) {
	sess, active, err := h.service.Get(c.Param("id"))
	if err != nil {
		writeError(c, "Get", err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess, active))
}

// Respond 发送用户消息，返回助手回复
func (h *SessionHandler) Respond(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.service.Respond(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		writeError(c, "Respond", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reply":     reply.Turn,
		"directive": reply.Directive.Name(),
		"fallback":  reply.Fallback,
	})
}

// Reset 清空并关闭会话
func (h *SessionHandler) Reset(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, "Reset", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session reset"})
}

// Export 以附件形式下载导出记录
func (h *SessionHandler) Export(c *gin.Context) {
	rec, err := h.service.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "Export", err)
		return
	}
	filename := domain.ExportFilename(rec.Username, rec.Ended().In(time.Local))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, rec)
}

// Evaluate 导出并评估会话
func (h *SessionHandler) Evaluate(c *gin.Context) {
	rec, err := h.service.Finish(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "Evaluate", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
