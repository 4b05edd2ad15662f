// Package response renders the API envelope for filingchat handlers. Error
// payloads carry the errcode values so clients can tell a not-ready filing
// apart from a fetch or generation failure.
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func asCodeErr(code uint32, msg string) error {
	return codeErr{code: code, msg: msg}
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error always answers HTTP 200; the envelope code carries the failure.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, asCodeErr(uint32(code), message))
}
