package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/filingchat/internal/pkg/errcode"
	appErr "github.com/xxxsen/filingchat/internal/pkg/errors"
	"github.com/xxxsen/filingchat/internal/pkg/response"
)

// handleError maps pipeline errors to distinct codes and guidance so the
// caller can tell "the document could not be processed" from "the model could
// not be reached" from plain bad input.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, err.Error())
	case errors.Is(err, appErr.ErrFilingNotReady):
		response.Error(c, errcode.ErrFilingNotReady, "filing is not ready for questions yet, open it and retry")
	case errors.Is(err, appErr.ErrFetchFailed):
		response.Error(c, errcode.ErrFetchFailed, "the document could not be processed")
	case errors.Is(err, appErr.ErrEmbeddingUnavailable):
		response.Error(c, errcode.ErrEmbeddingUnavailable, "embedding service unavailable, please try again later")
	case errors.Is(err, appErr.ErrGenerationFailed):
		response.Error(c, errcode.ErrGenerationFailed, "failed to generate a response, please try again")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
