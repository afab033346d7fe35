package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/echoai/deepchat/backend/internal/model/chat"
	"github.com/echoai/deepchat/backend/internal/model/user"
	"github.com/echoai/deepchat/backend/internal/store"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrWrongPassword    = errors.New("wrong password")
	ErrPasswordMismatch = errors.New("password confirmation mismatch")
	ErrTermsNotAgreed   = errors.New("terms not agreed")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrEmailTaken       = errors.New("email already registered")
	ErrUserCreateFailed = errors.New("user create failed")
)

// 注册成功后写入的欢迎对话。创建失败不影响注册结果。
const (
	welcomeChatTitle = "欢迎使用DeepSeek"
	welcomeMessage   = "欢迎使用DeepSeek！我是您的AI助手，可以帮您解答问题、创作内容、分析文档等。有什么我可以帮助您的吗？"
)

// UserStore 是账号查找与创建的存储契约。
type UserStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*user.User, error)
	CreateUser(ctx context.Context, username, email, passwordHash string) (*user.User, error)
}

// WelcomeStore covers the conversation writes done after registration.
type WelcomeStore interface {
	CreateChat(ctx context.Context, userID, title string) (*chat.Conversation, error)
	AppendMessage(ctx context.Context, chatID, role, content string, timestampMs int64) (*chat.Message, error)
}

// Service 负责注册与登录。
type Service struct {
	users  UserStore
	chats  WelcomeStore
	logger *zap.Logger
}

// NewService wires the auth service with its stores.
func NewService(users UserStore, chats WelcomeStore, logger *zap.Logger) *Service {
	return &Service{users: users, chats: chats, logger: logger}
}

// Login verifies the identifier (username or email) and password.
// "user not found" and "wrong password" stay distinct, matching the
// frontend's expectations.
func (s *Service) Login(ctx context.Context, identifier, password string) (*user.PublicUser, error) {
	found, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)) != nil {
		return nil, ErrWrongPassword
	}

	public := found.Public()
	return &public, nil
}

// Register 校验输入、检查用户名与邮箱占用、写入新账号，
// 并尽力创建欢迎对话。
func (s *Service) Register(ctx context.Context, username, email, password, confirmPassword string, agreeTerms bool) (*user.PublicUser, error) {
	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}
	if !agreeTerms {
		return nil, ErrTermsNotAgreed
	}

	if existing, err := s.users.FindByIdentifier(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}

	if existing, err := s.users.FindByIdentifier(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.CreateUser(ctx, username, email, string(hashed))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUserCreateFailed, err)
	}

	s.createWelcomeChat(ctx, created.ID)

	public := created.Public()
	return &public, nil
}

// createWelcomeChat seeds the account with a welcome thread. Failures
// are logged only; registration already succeeded.
func (s *Service) createWelcomeChat(ctx context.Context, userID string) {
	welcome, err := s.chats.CreateChat(ctx, userID, welcomeChatTitle)
	if err != nil {
		s.logger.Warn("failed to create welcome chat", zap.String("user_id", userID), zap.Error(err))
		return
	}

	ts := time.Now().UnixMilli()
	if _, err := s.chats.AppendMessage(ctx, welcome.ID, chat.RoleAssistant, welcomeMessage, ts); err != nil {
		s.logger.Warn("failed to save welcome message", zap.String("chat_id", welcome.ID), zap.Error(err))
	}
}
