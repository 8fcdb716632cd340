package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/internal/repository"
)

// EvaluationHandler 评估记录处理器
type EvaluationHandler struct {
	repo repository.EvaluationRepository
}

func NewEvaluationHandler(repo repository.EvaluationRepository) *EvaluationHandler {
	return &EvaluationHandler{repo: repo}
}

func (h *EvaluationHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/participants/:id/evaluations", h.ListByParticipant)
}

// ListByParticipant 列出参与者的评估记录
func (h *EvaluationHandler) ListByParticipant(c *gin.Context) {
	list, err := h.repo.ListByParticipant(c.Request.Context(), c.Param("id"))
	if err != nil {
		klog.Errorf("ListByParticipant: failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  list,
		"total": len(list),
	})
}
