package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/echoai/deepchat/backend/internal/model/chat"
	"github.com/echoai/deepchat/backend/internal/model/user"
)

// MemoryStore 是集合存储契约的内存实现，语义与 REST 客户端保持一致。
// 用于本地开发与测试。
type MemoryStore struct {
	mu       sync.RWMutex
	users    []user.User
	chats    map[string]chat.Conversation
	order    []string // chat ids in creation order
	messages map[string][]chat.Message
}

// NewMemoryStore bootstraps an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats:    make(map[string]chat.Conversation),
		messages: make(map[string][]chat.Message),
	}
}

// FindByIdentifier matches username first, then email.
func (s *MemoryStore) FindByIdentifier(_ context.Context, identifier string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.users {
		if s.users[i].Username == identifier {
			u := s.users[i]
			return &u, nil
		}
	}
	for i := range s.users {
		if s.users[i].Email == identifier {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// CreateUser inserts a user, enforcing username/email uniqueness.
func (s *MemoryStore) CreateUser(_ context.Context, username, email, passwordHash string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].Username == username || s.users[i].Email == email {
			return nil, ErrConflict
		}
	}

	record := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		AvatarURL:    DefaultAvatarURL,
		Plan:         DefaultPlan,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	s.users = append(s.users, record)
	return &record, nil
}

// CreateChat inserts a conversation under a fresh identifier.
func (s *MemoryStore) CreateChat(ctx context.Context, userID, title string) (*chat.Conversation, error) {
	return s.CreateChatWithID(ctx, userID, uuid.NewString(), title)
}

// CreateChatWithID inserts a conversation under the supplied identifier.
func (s *MemoryStore) CreateChatWithID(_ context.Context, userID, id, title string) (*chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[id]; ok {
		return nil, ErrConflict
	}

	now := time.Now().UTC().Format(time.RFC3339)
	record := chat.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Color:     chat.DefaultColor,
		IconColor: chat.DefaultIconColor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.chats[id] = record
	s.order = append(s.order, id)
	s.messages[id] = make([]chat.Message, 0, 16)
	return &record, nil
}

// ChatExists reports whether the conversation id is known.
func (s *MemoryStore) ChatExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chats[id]
	return ok, nil
}

// UpdateChatTitle rewrites the title and bumps updated_at.
func (s *MemoryStore) UpdateChatTitle(_ context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.chats[id]
	if !ok {
		return &RemoteError{Op: "update chat title", Status: 404}
	}
	record.Title = title
	record.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	s.chats[id] = record
	return nil
}

// ListChats 按创建时间倒序返回用户的全部对话。
func (s *MemoryStore) ListChats(_ context.Context, userID string) ([]chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatsByUserLocked(userID), nil
}

// ListChatsPage returns one 1-indexed page, newest first.
func (s *MemoryStore) ListChatsPage(_ context.Context, userID string, page, pageSize int) ([]chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.chatsByUserLocked(userID)
	offset := (page - 1) * pageSize
	if offset >= len(all) {
		return []chat.Conversation{}, nil
	}
	end := offset + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// CountChats 返回用户的对话总数。
func (s *MemoryStore) CountChats(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chatsByUserLocked(userID)), nil
}

// chatsByUserLocked returns the user's conversations newest first.
// Callers must hold at least a read lock.
func (s *MemoryStore) chatsByUserLocked(userID string) []chat.Conversation {
	result := []chat.Conversation{}
	for i := len(s.order) - 1; i >= 0; i-- {
		record := s.chats[s.order[i]]
		if record.UserID == userID {
			result = append(result, record)
		}
	}
	return result
}

// AppendMessage inserts a message into an existing conversation.
func (s *MemoryStore) AppendMessage(_ context.Context, chatID, role, content string, timestampMs int64) (*chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[chatID]; !ok {
		return nil, &RemoteError{Op: "append message", Status: 404}
	}

	record := chat.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		Timestamp: timestampMs,
	}
	s.messages[chatID] = append(s.messages[chatID], record)
	return &record, nil
}

// ListMessages 按时间戳升序返回对话内的消息。
func (s *MemoryStore) ListMessages(_ context.Context, chatID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.messages[chatID]
	copied := make([]chat.Message, len(stored))
	copy(copied, stored)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Timestamp < copied[j].Timestamp
	})
	return copied, nil
}

// DeleteChat removes the conversation and cascades to its messages.
func (s *MemoryStore) DeleteChat(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chats, id)
	delete(s.messages, id)
	for i, chatID := range s.order {
		if chatID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
