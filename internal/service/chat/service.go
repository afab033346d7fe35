package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/echoai/deepchat/backend/internal/model/chat"
)

var (
	ErrEmptyMessage       = errors.New("message is empty")
	ErrConversationCreate = errors.New("conversation create failed")
	ErrMessageSave        = errors.New("message save failed")
	ErrReplySave          = errors.New("reply save failed")
	ErrChatNotFound       = errors.New("chat not found")
)

// titleRuneLimit caps the conversation title derived from the first
// message; longer messages get an ellipsis marker appended.
const titleRuneLimit = 20

// ConversationStore is the collection-store contract the lifecycle
// depends on. Satisfied by store.Client and store.MemoryStore.
type ConversationStore interface {
	CreateChat(ctx context.Context, userID, title string) (*chat.Conversation, error)
	CreateChatWithID(ctx context.Context, userID, id, title string) (*chat.Conversation, error)
	ChatExists(ctx context.Context, id string) (bool, error)
	UpdateChatTitle(ctx context.Context, id, title string) error
	ListChats(ctx context.Context, userID string) ([]chat.Conversation, error)
	ListChatsPage(ctx context.Context, userID string, page, pageSize int) ([]chat.Conversation, error)
	CountChats(ctx context.Context, userID string) (int, error)
	AppendMessage(ctx context.Context, chatID, role, content string, timestampMs int64) (*chat.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]chat.Message, error)
	DeleteChat(ctx context.Context, id string) error
}

// ReplyGenerator produces the assistant reply for one user message.
// Implementations are total: they always return a string, possibly a
// locally computed fallback.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, message, sessionID string) string
}

// Service 实现对话生命周期：解析/创建工作对话、按需改写标题、
// 顺序落盘用户消息与助手回复。
//
// 同一对话的并发发送不做互斥，两个请求可能交错写入消息；这是
// 已接受的限制，消息顺序仍由时间戳保证单调。
type Service struct {
	store         ConversationStore
	agent         ReplyGenerator
	defaultUserID string
	logger        *zap.Logger
}

// NewService wires the lifecycle controller with its collaborators.
func NewService(store ConversationStore, agent ReplyGenerator, defaultUserID string, logger *zap.Logger) *Service {
	return &Service{
		store:         store,
		agent:         agent,
		defaultUserID: defaultUserID,
		logger:        logger,
	}
}

// SendResult 是一次发送的结果：助手回复与工作对话 id。
type SendResult struct {
	ChatID string
	Reply  chat.Message
}

// SendMessage runs the send protocol: resolve the working conversation
// id (create, adopt the client-supplied id, or reuse), retitle an
// existing-but-empty conversation from its first message, append the
// user message, generate the reply, append it. The user append and the
// assistant append are strictly sequential so the assistant timestamp
// is never older than the user's. A reply-save failure leaves the user
// message persisted; that partial state is accepted, not rolled back.
func (s *Service) SendMessage(ctx context.Context, userID, chatID, message string) (*SendResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	if userID == "" {
		userID = s.defaultUserID
	}

	workingID, err := s.resolveConversation(ctx, userID, chatID, message)
	if err != nil {
		return nil, err
	}

	userTs := time.Now().UnixMilli()
	if _, err := s.store.AppendMessage(ctx, workingID, chat.RoleUser, message, userTs); err != nil {
		s.logger.Error("failed to save user message", zap.String("chat_id", workingID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrMessageSave, err)
	}

	replyText := s.agent.GenerateReply(ctx, message, workingID)
	if strings.TrimSpace(replyText) == "" {
		replyText = fmt.Sprintf("我已经收到您的消息：'%s'，正在处理中。", message)
	}

	replyTs := time.Now().UnixMilli()
	if replyTs < userTs {
		replyTs = userTs
	}
	reply, err := s.store.AppendMessage(ctx, workingID, chat.RoleAssistant, replyText, replyTs)
	if err != nil {
		s.logger.Error("failed to save assistant reply", zap.String("chat_id", workingID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrReplySave, err)
	}

	return &SendResult{ChatID: workingID, Reply: *reply}, nil
}

// resolveConversation decides the working conversation id for a send.
// A client-supplied id is adopted, creating the conversation under that
// id when it does not exist yet. Retitling happens at most once: only
// when the existing conversation has no messages at decision time.
func (s *Service) resolveConversation(ctx context.Context, userID, chatID, message string) (string, error) {
	title := titleFromMessage(message)

	if chatID == "" {
		created, err := s.store.CreateChat(ctx, userID, title)
		if err != nil {
			s.logger.Error("failed to create conversation", zap.Error(err))
			return "", fmt.Errorf("%w: %w", ErrConversationCreate, err)
		}
		return created.ID, nil
	}

	exists, err := s.store.ChatExists(ctx, chatID)
	if err != nil {
		s.logger.Error("failed to check conversation", zap.String("chat_id", chatID), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrConversationCreate, err)
	}

	if !exists {
		if _, err := s.store.CreateChatWithID(ctx, userID, chatID, title); err != nil {
			s.logger.Error("failed to create conversation with client id",
				zap.String("chat_id", chatID), zap.Error(err))
			return "", fmt.Errorf("%w: %w", ErrConversationCreate, err)
		}
		return chatID, nil
	}

	messages, err := s.store.ListMessages(ctx, chatID)
	if err == nil && len(messages) == 0 {
		// First message of an existing empty conversation: retitle.
		// Best effort, a failure here never blocks the send.
		if err := s.store.UpdateChatTitle(ctx, chatID, title); err != nil {
			s.logger.Warn("failed to update conversation title",
				zap.String("chat_id", chatID), zap.Error(err))
		}
	} else if err != nil {
		s.logger.Warn("failed to load messages for title decision",
			zap.String("chat_id", chatID), zap.Error(err))
	}
	return chatID, nil
}

// titleFromMessage derives the conversation title from its first
// message: the first 20 runes, with "..." appended when truncated.
func titleFromMessage(message string) string {
	runes := []rune(message)
	if len(runes) <= titleRuneLimit {
		return message
	}
	return string(runes[:titleRuneLimit]) + "..."
}

// NewChat 创建一个空的新对话，标题为固定的占位标题。
func (s *Service) NewChat(ctx context.Context, userID string) (*chat.Conversation, error) {
	if userID == "" {
		userID = s.defaultUserID
	}

	created, err := s.store.CreateChat(ctx, userID, "新对话")
	if err != nil {
		s.logger.Error("failed to create conversation", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrConversationCreate, err)
	}
	return created, nil
}

// ListChats 返回用户全部对话，按创建时间倒序。
func (s *Service) ListChats(ctx context.Context, userID string) ([]chat.Conversation, error) {
	return s.store.ListChats(ctx, userID)
}

// Pagination 描述一页对话列表的位置信息。
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// ListChatsPaginated returns one 1-indexed page of the user's
// conversations plus the pagination envelope. Page and page size are
// clamped to at least 1.
func (s *Service) ListChatsPaginated(ctx context.Context, userID string, page, pageSize int) ([]chat.Conversation, *Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	chats, err := s.store.ListChatsPage(ctx, userID, page, pageSize)
	if err != nil {
		return nil, nil, err
	}

	total, err := s.store.CountChats(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	return chats, &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// History 返回对话内的全部消息，按时间戳升序。
func (s *Service) History(ctx context.Context, chatID string) ([]chat.Message, error) {
	return s.store.ListMessages(ctx, chatID)
}

// Delete removes a conversation and its messages. Deleting an unknown
// id is ErrChatNotFound and performs no mutation.
func (s *Service) Delete(ctx context.Context, chatID string) error {
	exists, err := s.store.ChatExists(ctx, chatID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrChatNotFound
	}
	return s.store.DeleteChat(ctx, chatID)
}
