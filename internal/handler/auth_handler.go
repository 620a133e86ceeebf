package handler

import (
	"errors"
	"net/http"

	"github.com/daytrack/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Login 处理用户登录请求，成功后写入会话
func (a *API) Login(c *gin.Context) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	user, err := a.auth.Authenticate(payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "用户名或密码错误")
			return
		}
		respondError(c, http.StatusInternalServerError, "登录失败")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("username", user.Username)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"user": gin.H{"id": user.ID, "username": user.Username},
	})
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	respondSuccess(c, http.StatusOK, gin.H{"logged_out": true})
}

// RequestOneTimeCode 签发密码重置验证码
// 响应中不回传验证码本身，仅确认签发；投递通道由外部负责
func (a *API) RequestOneTimeCode(c *gin.Context) {
	var payload struct {
		Username string `json:"username"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	code, err := a.auth.IssueOneTimeCode(payload.Username)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "账号不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "验证码签发失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"sent":       true,
		"token":      code.Token,
		"expires_at": code.ExpiresAt,
	})
}

// ResetPassword 校验验证码并重置密码
func (a *API) ResetPassword(c *gin.Context) {
	var payload struct {
		Username    string `json:"username"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	if err := a.auth.ResetPassword(payload.Username, payload.Code, payload.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "账号不存在")
		case errors.Is(err, service.ErrCodeInvalid):
			respondError(c, http.StatusBadRequest, "验证码无效或已过期")
		default:
			respondError(c, http.StatusBadRequest, "密码重置失败")
		}
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"reset": true})
}

// AuthRequired 是会话认证中间件，未登录请求返回 JSON 401
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUserID(c); !ok {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Next()
	}
}
