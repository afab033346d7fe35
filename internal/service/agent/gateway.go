package agent

import (
	"context"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/echoai/deepchat/backend/internal/config"
)

const systemPrompt = "你是一个乐于助人的中文AI助手，回答要准确、简洁、友好。"

// historyLimit bounds the per-session context window passed to the
// provider (user + assistant entries).
const historyLimit = 10

// sessionLimit caps how many sessions keep a context window at once;
// the least recently used session is evicted beyond that.
const sessionLimit = 256

// Gateway wraps a single external text-generation endpoint. When the
// endpoint is unconfigured or a call fails, replies come from the
// deterministic local fallback instead; GenerateReply never errors and
// never returns an empty string.
type Gateway struct {
	chatModel model.BaseChatModel
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string][]*schema.Message
	recency  []string // session ids, least recently used first
}

// NewGateway 创建网关。凭证缺失时返回一个只走本地回退的网关。
func NewGateway(ctx context.Context, cfg config.AgentConfig, logger *zap.Logger) *Gateway {
	g := &Gateway{
		logger:   logger,
		sessions: make(map[string][]*schema.Message),
	}

	if !cfg.Enabled() {
		logger.Info("agent credentials not configured, replies degrade to local fallback")
		return g
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		logger.Warn("failed to initialize agent chat model, replies degrade to local fallback", zap.Error(err))
		return g
	}

	g.chatModel = chatModel
	logger.Info("agent gateway initialized")
	return g
}

// Enabled reports whether the remote endpoint is usable.
func (g *Gateway) Enabled() bool { return g.chatModel != nil }

// GenerateReply attempts one call to the generation endpoint, keyed by
// the conversation id so the provider sees the session's recent turns.
// No retry: a failed attempt falls back locally for this request.
func (g *Gateway) GenerateReply(ctx context.Context, message, sessionID string) string {
	if g.chatModel == nil {
		return Fallback(message)
	}

	input := make([]*schema.Message, 0, historyLimit+2)
	input = append(input, schema.SystemMessage(systemPrompt))
	input = append(input, g.sessionHistory(sessionID)...)
	input = append(input, schema.UserMessage(message))

	response, err := g.chatModel.Generate(ctx, input)
	if err != nil {
		g.logger.Warn("agent generation failed, using fallback reply",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return Fallback(message)
	}

	reply := strings.TrimSpace(response.Content)
	if reply == "" {
		g.logger.Warn("agent returned empty reply, using fallback", zap.String("session_id", sessionID))
		return Fallback(message)
	}

	g.rememberTurn(sessionID, message, reply)
	return reply
}

// sessionHistory returns a copy of the session's recent turns.
func (g *Gateway) sessionHistory(sessionID string) []*schema.Message {
	g.mu.Lock()
	defer g.mu.Unlock()

	stored := g.sessions[sessionID]
	history := make([]*schema.Message, len(stored))
	copy(history, stored)
	return history
}

func (g *Gateway) rememberTurn(sessionID, message, reply string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	history := append(g.sessions[sessionID],
		schema.UserMessage(message),
		schema.AssistantMessage(reply, nil))
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	if _, known := g.sessions[sessionID]; !known && len(g.sessions) >= sessionLimit {
		oldest := g.recency[0]
		g.recency = g.recency[1:]
		delete(g.sessions, oldest)
	}
	g.sessions[sessionID] = history
	g.touchLocked(sessionID)
}

// touchLocked moves the session to the most-recently-used position.
// Callers must hold the mutex.
func (g *Gateway) touchLocked(sessionID string) {
	for i, id := range g.recency {
		if id == sessionID {
			g.recency = append(g.recency[:i], g.recency[i+1:]...)
			break
		}
	}
	g.recency = append(g.recency, sessionID)
}
