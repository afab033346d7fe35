package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatModel "github.com/echoai/deepchat/backend/internal/model/chat"
	chatService "github.com/echoai/deepchat/backend/internal/service/chat"
	"github.com/echoai/deepchat/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	return &Handler{chatSvc: chatSvc, logger: logger}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/new", h.handleNewChat)
	r.Post("/chat/send", h.handleSend)
	r.Get("/chat/history/{chatID}", h.handleHistory)
	r.Delete("/chat/{chatID}", h.handleDelete)
}

// handleNewChat 创建新对话
func (h *Handler) handleNewChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID string `json:"user_id"`
	}
	// 请求体可以为空，忽略解析失败。
	_ = json.NewDecoder(r.Body).Decode(&payload)

	created, err := h.chatSvc.NewChat(r.Context(), payload.UserID)
	if err != nil {
		h.logger.Error("failed to create chat", zap.Error(err))
		utils.RespondFailure(w, "创建对话失败")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"chat": map[string]interface{}{
			"id":         created.ID,
			"title":      created.Title,
			"color":      created.Color,
			"icon_color": created.IconColor,
			"created_at": created.CreatedAt,
		},
	})
}

type messageView struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

type sendResponse struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message,omitempty"`
	Response *messageView `json:"response,omitempty"`
	ChatID   string       `json:"chat_id,omitempty"`
}

// handleSend 发送聊天消息
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
		ChatID  string `json:"chat_id"`
		UserID  string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondBadRequest(w, "无效的请求数据")
		return
	}

	result, err := h.chatSvc.SendMessage(r.Context(), payload.UserID, payload.ChatID, payload.Message)
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, sendResponse{
			Success: true,
			Message: "消息发送成功",
			Response: &messageView{
				ID:        result.Reply.ID,
				Role:      result.Reply.Role,
				Content:   result.Reply.Content,
				Timestamp: result.Reply.Timestamp,
			},
			ChatID: result.ChatID,
		})
	case errors.Is(err, chatService.ErrEmptyMessage):
		utils.RespondJSON(w, http.StatusOK, sendResponse{Success: false, Message: "消息内容不能为空"})
	case errors.Is(err, chatService.ErrConversationCreate):
		utils.RespondJSON(w, http.StatusOK, sendResponse{Success: false, Message: "创建对话失败"})
	case errors.Is(err, chatService.ErrMessageSave):
		utils.RespondJSON(w, http.StatusOK, sendResponse{Success: false, Message: "消息保存失败"})
	case errors.Is(err, chatService.ErrReplySave):
		utils.RespondJSON(w, http.StatusOK, sendResponse{Success: false, Message: "AI回复保存失败"})
	default:
		h.logger.Error("send message failed", zap.Error(err))
		utils.RespondJSON(w, http.StatusOK, sendResponse{Success: false, Message: "消息发送失败，请稍后重试"})
	}
}

// handleHistory 获取聊天历史
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	messages, err := h.chatSvc.History(r.Context(), chatID)
	if err != nil {
		h.logger.Error("failed to load history", zap.String("chat_id", chatID), zap.Error(err))
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success":  false,
			"message":  "获取聊天历史失败",
			"messages": []messageView{},
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": formatMessages(messages),
	})
}

func formatMessages(messages []chatModel.Message) []messageView {
	formatted := make([]messageView, 0, len(messages))
	for _, msg := range messages {
		formatted = append(formatted, messageView{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}
	return formatted
}

// handleDelete 删除对话及其全部消息
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	err := h.chatSvc.Delete(r.Context(), chatID)
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "对话已删除",
		})
	case errors.Is(err, chatService.ErrChatNotFound):
		utils.RespondFailure(w, "对话不存在")
	default:
		h.logger.Error("failed to delete chat", zap.String("chat_id", chatID), zap.Error(err))
		utils.RespondFailure(w, "删除对话失败")
	}
}
