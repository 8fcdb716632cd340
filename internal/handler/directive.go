package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ethicsbot/backend/internal/pkg/directive"
)

// DirectiveHandler 指令目录处理器
type DirectiveHandler struct {
	catalog *directive.Catalog
}

func NewDirectiveHandler(catalog *directive.Catalog) *DirectiveHandler {
	return &DirectiveHandler{catalog: catalog}
}

func (h *DirectiveHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/directives", h.List)
}

// DirectiveResponse 不返回 system prompt 原文
type DirectiveResponse struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Routable    bool   `json:"routable"`
}

// List 列出指令
func (h *DirectiveHandler) List(c *gin.Context) {
	list := h.catalog.List()
	responses := make([]DirectiveResponse, 0, len(list))
	for _, d := range list {
		responses = append(responses, DirectiveResponse{
			ID:          int(d.ID),
			Name:        d.Name,
			Version:     d.Version,
			Description: d.Description,
			Routable:    d.ID.IsRoutable(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  responses,
		"total": len(responses),
	})
}
