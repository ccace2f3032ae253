package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/slot-payout/internal/errors"
	"github.com/wfunc/slot-payout/internal/logger"
	"github.com/wfunc/slot-payout/internal/middleware"
	"go.uber.org/zap"
)

// Response 统一成功响应
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// ListResponse 分页列表
type ListResponse struct {
	Records  interface{} `json:"records"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		RequestID: middleware.GetRequestID(c),
	})
}

// fail 将错误转换为AppError并按错误码输出HTTP状态
// 服务端错误连同调用栈写入日志，可重试的错误附带 Retry-After。
func fail(c *gin.Context, err error) {
	appErr, isApp := err.(*apperrors.AppError)
	if !isApp {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError || apperrors.IsCritical(appErr) {
		logger.LogError(err, "请求处理失败",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Int("code", int(appErr.Code)),
			zap.String("stack", appErr.GetStack()),
		)
	}
	if apperrors.IsRetryable(appErr) {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, apperrors.NewErrorResponse(appErr, middleware.GetRequestID(c)))
}
