// Package auth 提供客服认证的业务逻辑
// 只做登录发 Token 这一件事，账号管理不在本系统范围内
package auth

import (
	"go.uber.org/zap"

	"support_chat_server/internal/dao/mysql/repository"
	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/dto/respond"
	"support_chat_server/pkg/errorx"
	"support_chat_server/pkg/util/jwt"
)

// authService 认证服务实现
type authService struct {
	repos *repository.Repositories
}

// NewAuthService 构造函数
func NewAuthService(repos *repository.Repositories) *authService {
	return &authService{repos: repos}
}

// StaffLogin 客服账号密码登录，成功后签发 Access Token
// 用户名不存在与密码错误返回同一个提示，不给探测账号留口子
func (s *authService) StaffLogin(req request.StaffLoginRequest) (*respond.StaffLoginRespond, error) {
	staff, err := s.repos.Staff.FindByUsername(req.Username)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUnauthorized, "用户名或密码错误")
		}
		return nil, err
	}
	if !staff.CheckPassword(req.Password) {
		return nil, errorx.New(errorx.CodeUnauthorized, "用户名或密码错误")
	}
	if staff.Status != 0 {
		return nil, errorx.New(errorx.CodeUnauthorized, "账号已被禁用")
	}

	accessToken, err := jwt.GenerateAccessToken(staff.ID)
	if err != nil {
		zap.L().Error("签发Token失败", zap.Uint("staffId", staff.ID), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	zap.L().Info("客服登录成功", zap.Uint("staffId", staff.ID), zap.String("username", staff.Username))
	return &respond.StaffLoginRespond{
		StaffId:     staff.ID,
		Nickname:    staff.Nickname,
		AccessToken: accessToken,
	}, nil
}
