package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// cannedModel answers every generation with a fixed reply.
type cannedModel struct {
	reply string
	err   error
}

func (m cannedModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m cannedModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming unsupported")
}

func newTestGateway(m model.BaseChatModel) *Gateway {
	return &Gateway{
		chatModel: m,
		logger:    zap.NewNop(),
		sessions:  make(map[string][]*schema.Message),
	}
}

func TestSessionCountStaysBounded(t *testing.T) {
	g := newTestGateway(cannedModel{reply: "ok"})
	ctx := context.Background()

	total := sessionLimit * 3
	for i := 0; i < total; i++ {
		g.GenerateReply(ctx, "message", fmt.Sprintf("session-%d", i))
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sessions) != sessionLimit {
		t.Fatalf("expected %d retained sessions, got %d", sessionLimit, len(g.sessions))
	}
	if len(g.recency) != sessionLimit {
		t.Fatalf("recency list out of sync: %d entries", len(g.recency))
	}
	if _, ok := g.sessions[fmt.Sprintf("session-%d", total-1)]; !ok {
		t.Fatal("most recent session must be retained")
	}
	if _, ok := g.sessions["session-0"]; ok {
		t.Fatal("oldest session should have been evicted")
	}
}

func TestRecentlyUsedSessionSurvivesEviction(t *testing.T) {
	g := newTestGateway(cannedModel{reply: "ok"})
	ctx := context.Background()

	for i := 0; i < sessionLimit; i++ {
		g.GenerateReply(ctx, "message", fmt.Sprintf("session-%d", i))
	}

	// Re-use the oldest session, then push one session over the cap.
	g.GenerateReply(ctx, "again", "session-0")
	g.GenerateReply(ctx, "message", "session-overflow")

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions["session-0"]; !ok {
		t.Fatal("recently used session must not be evicted")
	}
	if _, ok := g.sessions["session-1"]; ok {
		t.Fatal("least recently used session should have been evicted")
	}
}

func TestSessionHistoryWindowTrimmed(t *testing.T) {
	g := newTestGateway(cannedModel{reply: "ok"})
	ctx := context.Background()

	for i := 0; i < historyLimit; i++ {
		g.GenerateReply(ctx, fmt.Sprintf("turn %d", i), "session-1")
	}

	history := g.sessionHistory("session-1")
	if len(history) != historyLimit {
		t.Fatalf("expected window of %d entries, got %d", historyLimit, len(history))
	}
	// The oldest turns fell out of the window.
	if history[0].Content == "turn 0" {
		t.Fatal("expected the first turn to be trimmed from the window")
	}
}

func TestModelFailureFallsBackLocally(t *testing.T) {
	g := newTestGateway(cannedModel{err: errors.New("upstream unavailable")})

	reply := g.GenerateReply(context.Background(), "你好", "session-1")
	if reply != Fallback("你好") {
		t.Fatalf("expected fallback reply, got %q", reply)
	}

	if len(g.sessionHistory("session-1")) != 0 {
		t.Fatal("failed turns must not be recorded in the session window")
	}
}
