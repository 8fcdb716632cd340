package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/internal/pkg/oracle"
	"github.com/ethicsbot/backend/internal/service"
)

// writeError 按错误类型返回状态码；模型错误附带面向用户的说明与分类
func writeError(c *gin.Context, op string, err error) {
	var oracleErr *oracle.Error
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnknownParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionActive), errors.Is(err, service.ErrSessionClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &oracleErr), errors.Is(err, oracle.ErrMalformedReply):
		klog.Errorf("%s: oracle failed: %v", op, err)
		kind := oracle.KindOf(err)
		c.JSON(oracleStatus(kind), gin.H{"error": oracle.Diagnostic(err), "kind": kind.String()})
	default:
		klog.Errorf("%s: failed: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func oracleStatus(kind oracle.Kind) int {
	switch kind {
	case oracle.KindRateLimit:
		return http.StatusTooManyRequests
	case oracle.KindTransport:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
