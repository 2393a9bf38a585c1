package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	if h.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured"})
		return
	}

	response, err := h.Assistant.Ask(c.Request.Context(), req.Message)
	if err != nil {
		zap.L().Error("assistant failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "The assistant could not answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": response})
}
