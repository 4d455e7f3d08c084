package handler

import (
	"errors"
	"net/http"

	"support_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ResponseData 统一响应结构体
type ResponseData struct {
	Code int `json:"code"`           // 业务响应状态码
	Msg  any `json:"msg"`            // 提示信息
	Data any `json:"data,omitempty"` // 数据
}

// HandleSuccess 返回成功响应
func HandleSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code": errorx.CodeSuccess,
		"msg":  "success",
		"data": data,
	})
}

// HandleCreated 返回创建成功响应（201）
func HandleCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{
		"code": errorx.CodeSuccess,
		"msg":  "success",
		"data": data,
	})
}

// HandleError 通用错误处理方法
// 业务错误码映射到 HTTP 状态码；限流错误额外携带 retry_after（秒）；
// 校验错误携带逐条原因。未知错误记录日志并统一为服务繁忙
func HandleError(c *gin.Context, err error) {
	var rateErr *errorx.RateLimitedError
	if errors.As(err, &rateErr) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"code":        rateErr.Code,
			"msg":         rateErr.Msg,
			"retry_after": rateErr.RetryAfterSeconds,
			"data":        nil,
		})
		return
	}

	var validationErr *errorx.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    validationErr.Code,
			"msg":     validationErr.Msg,
			"reasons": validationErr.Reasons,
			"data":    nil,
		})
		return
	}

	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) {
		c.JSON(httpStatus(codeErr.Code), gin.H{
			"code": codeErr.Code,
			"msg":  codeErr.Msg,
			"data": nil,
		})
		return
	}

	// 系统错误或未知错误：记录日志并返回服务繁忙
	zap.L().Error("system error",
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code": errorx.ErrServerBusy.Code,
		"msg":  errorx.ErrServerBusy.Msg,
		"data": nil,
	})
}

// httpStatus 业务错误码到 HTTP 状态码的映射
func httpStatus(code int) int {
	switch code {
	case errorx.CodeInvalidParam, errorx.CodeValidationFailed, errorx.CodeSpamRejected:
		return http.StatusBadRequest
	case errorx.CodeUnauthorized:
		return http.StatusUnauthorized
	case errorx.CodeAccessDenied:
		return http.StatusForbidden
	case errorx.CodeNotFound, errorx.CodeUserNotExist:
		return http.StatusNotFound
	case errorx.CodeCapacityExceeded:
		return http.StatusConflict
	case errorx.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// HandleParamError 处理参数绑定错误（带 validator 翻译支持）
func HandleParamError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		// 翻译后去除结构体名前缀
		translatedErrs := RemoveTopStruct(validationErrs.Translate(Trans))
		c.JSON(http.StatusBadRequest, gin.H{
			"code": errorx.ErrInvalidParam.Code,
			"msg":  translatedErrs,
			"data": nil,
		})
		return
	}

	// 非 validator 错误（如 JSON 格式错误）
	zap.L().Error("param bind error", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{
		"code": errorx.ErrInvalidParam.Code,
		"msg":  errorx.ErrInvalidParam.Msg,
		"data": nil,
	})
}
