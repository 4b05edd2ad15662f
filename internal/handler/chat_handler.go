package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/filingchat/internal/model"
	"github.com/xxxsen/filingchat/internal/pkg/errcode"
	"github.com/xxxsen/filingchat/internal/pkg/response"
	"github.com/xxxsen/filingchat/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatMessageRequest struct {
	FilingID string              `json:"filing_id"`
	Messages []model.ChatMessage `json:"messages"`
}

type chatMessageResponse struct {
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Sources   []model.Source `json:"sources"`
}

func (h *ChatHandler) Message(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.chat.AnswerQuestion(c.Request.Context(), req.FilingID, req.Messages)
	if err != nil {
		handleError(c, err)
		return
	}
	sources := answer.Sources
	if sources == nil {
		sources = []model.Source{}
	}
	response.Success(c, chatMessageResponse{
		Message:   answer.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Sources:   sources,
	})
}
