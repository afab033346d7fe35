package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/echoai/deepchat/backend/internal/model/user"
	authService "github.com/echoai/deepchat/backend/internal/service/auth"
	chatService "github.com/echoai/deepchat/backend/internal/service/chat"
	"github.com/echoai/deepchat/backend/pkg/utils"
)

// Handler 认证与对话列表的HTTP处理器
type Handler struct {
	authSvc *authService.Service
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New 创建认证处理器
func New(authSvc *authService.Service, chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	return &Handler{authSvc: authSvc, chatSvc: chatSvc, logger: logger}
}

// RegisterRoutes 注册认证相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/register", h.handleRegister)
	r.Get("/auth/chats/{userID}", h.handleListChats)
	r.Post("/auth/chats", h.handleListChatsPaginated)
}

type authResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	User    *user.PublicUser `json:"user,omitempty"`
}

// handleLogin 用户登录
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
		RememberMe bool   `json:"remember_me"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondBadRequest(w, "无效的请求数据")
		return
	}

	logged, err := h.authSvc.Login(r.Context(), payload.Identifier, payload.Password)
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, authResponse{Success: true, User: logged})
	case errors.Is(err, authService.ErrUserNotFound):
		utils.RespondJSON(w, http.StatusOK, authResponse{Success: false, Message: "用户不存在"})
	case errors.Is(err, authService.ErrWrongPassword):
		utils.RespondJSON(w, http.StatusOK, authResponse{Success: false, Message: "密码错误"})
	default:
		h.logger.Error("login failed", zap.Error(err))
		utils.RespondJSON(w, http.StatusOK, authResponse{Success: false, Message: "登录失败，请稍后重试"})
	}
}

// handleRegister 用户注册
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
		AgreeTerms      bool   `json:"agree_terms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondBadRequest(w, "无效的请求数据")
		return
	}

	registered, err := h.authSvc.Register(r.Context(),
		payload.Username, payload.Email, payload.Password, payload.ConfirmPassword, payload.AgreeTerms)
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, authResponse{Success: true, User: registered})
	case errors.Is(err, authService.ErrPasswordMismatch):
		utils.RespondJSON(w, http.StatusOK, authResponse{Success: false, Message: "密码确认不匹配"})
	case errors.Is(err, authService.ErrTermsNotAgreed):
		utils.RespondJSON(w, http.StatusOK, authResponse{Success: false, Message: "请同意服务条款"})
	case errors.Is(err, authService.ErrUsernameTaken):
		utils.RespondJSON(w, http.StatusOK, authResponse{Success: false, Message: "用户名已被使用"})
	case errors.Is(err, authService.ErrEmailTaken):
		utils.RespondJSON(w, http.StatusOK, authResponse{Success: false, Message: "邮箱已被注册"})
	case errors.Is(err, authService.ErrUserCreateFailed):
		h.logger.Error("register failed", zap.Error(err))
		utils.RespondJSON(w, http.StatusOK, authResponse{Success: false, Message: "用户创建失败"})
	default:
		h.logger.Error("register failed", zap.Error(err))
		utils.RespondJSON(w, http.StatusOK, authResponse{Success: false, Message: "注册失败，请稍后重试"})
	}
}

// handleListChats 获取用户的全部对话
func (h *Handler) handleListChats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	chats, err := h.chatSvc.ListChats(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list chats", zap.String("user_id", userID), zap.Error(err))
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "获取对话失败",
			"chats":   []interface{}{},
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"chats":   chats,
	})
}

// handleListChatsPaginated 获取用户的分页对话列表
func (h *Handler) handleListChatsPaginated(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		UserID   string `json:"user_id"`
		Page     int    `json:"page"`
		PageSize int    `json:"page_size"`
	}{Page: 1, PageSize: 10}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondBadRequest(w, "无效的请求数据")
		return
	}

	chats, pagination, err := h.chatSvc.ListChatsPaginated(r.Context(), payload.UserID, payload.Page, payload.PageSize)
	if err != nil {
		h.logger.Error("failed to list chats page", zap.String("user_id", payload.UserID), zap.Error(err))
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "获取对话失败",
			"chats":   []interface{}{},
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"chats":      chats,
		"pagination": pagination,
	})
}
