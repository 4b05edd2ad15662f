package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/filingchat/internal/middleware"
)

type RouterDeps struct {
	Chat          *ChatHandler
	Filings       *FilingHandler
	OpenRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	// Opening a filing hits EDGAR, keep it throttled. Chat stays
	// unrestricted, ingestion is coalesced per filing anyway.
	api.POST("/filings/open", middleware.RateLimit(deps.OpenRateLimit), deps.Filings.Open)
	api.GET("/filings/:id/status", deps.Filings.Status)
	api.GET("/filings/:id/exhibits", deps.Filings.Exhibits)

	api.POST("/chat/message", deps.Chat.Message)
}
