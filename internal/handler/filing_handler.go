package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/filingchat/internal/model"
	"github.com/xxxsen/filingchat/internal/pkg/errcode"
	"github.com/xxxsen/filingchat/internal/pkg/response"
	"github.com/xxxsen/filingchat/internal/service"
)

type FilingHandler struct {
	filings *service.FilingService
}

func NewFilingHandler(filings *service.FilingService) *FilingHandler {
	return &FilingHandler{filings: filings}
}

type openFilingRequest struct {
	URL string `json:"url"`
}

func (h *FilingHandler) Open(c *gin.Context) {
	var req openFilingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.URL == "" {
		response.Error(c, errcode.ErrInvalid, "url is required")
		return
	}
	info, err := h.filings.Open(c.Request.Context(), req.URL)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, info)
}

func (h *FilingHandler) Status(c *gin.Context) {
	filingID := c.Param("id")
	if filingID == "" {
		response.Error(c, errcode.ErrInvalid, "filing id is required")
		return
	}
	response.Success(c, h.filings.Status(filingID))
}

func (h *FilingHandler) Exhibits(c *gin.Context) {
	filingID := c.Param("id")
	if filingID == "" {
		response.Error(c, errcode.ErrInvalid, "filing id is required")
		return
	}
	exhibits, err := h.filings.Exhibits(c.Request.Context(), filingID)
	if err != nil {
		handleError(c, err)
		return
	}
	if exhibits == nil {
		exhibits = []model.Exhibit{}
	}
	response.Success(c, gin.H{"exhibits": exhibits})
}
