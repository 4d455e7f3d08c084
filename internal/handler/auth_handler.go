// Package handler 提供 HTTP 请求处理器
// 本文件处理客服登录接口
package handler

import (
	"github.com/gin-gonic/gin"

	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/service"
)

// AuthHandler 认证请求处理器
type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// StaffLogin 客服登录
// POST /api/admin/login
func (h *AuthHandler) StaffLogin(c *gin.Context) {
	var req request.StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.authService.StaffLogin(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}
