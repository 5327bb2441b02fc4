package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/compactstock/pkg/errors"
)

// Response 统一响应结构
// Code是业务错误码（0表示成功），非HTTP状态码
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
//
// 内部错误（appErr.Err）不返回给调用方，挂到gin.Context上由日志中间件记录
func Error(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr.Err != nil {
		_ = c.Error(appErr.Err)
	}

	c.JSON(HTTPStatus(appErr.Code), Response{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

// Abort 错误响应并中止后续Handler（用于中间件）
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// HTTPStatus 业务错误码映射到HTTP状态码
func HTTPStatus(code int) int {
	switch {
	case code >= 40100 && code < 40200:
		return http.StatusUnauthorized
	case code >= 40900 && code < 41000:
		return http.StatusBadRequest
	case code >= 50000:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
