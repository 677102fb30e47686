package sdktest

import "github.com/gin-gonic/gin"

const (
	codeInvalidRequest = "E_INVALID_REQUEST"
	codeUnauthorized   = "E_UNAUTHORIZED"
	codeNotFound       = "E_NOT_FOUND"
	codeInjected       = "E_INJECTED"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func abortWithError(ctx *gin.Context, status int, code string, message string) {
	ctx.Abort()
	ctx.PureJSON(status, apiError{Code: code, Message: message})
}
