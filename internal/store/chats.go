package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/echoai/deepchat/backend/internal/model/chat"
)

// CreateChat inserts a conversation with a server-generated identifier.
func (c *Client) CreateChat(ctx context.Context, userID, title string) (*chat.Conversation, error) {
	return c.insertChat(ctx, userID, uuid.NewString(), title)
}

// CreateChatWithID inserts a conversation under a caller-supplied
// identifier, honoring a client-proposed conversation id.
func (c *Client) CreateChatWithID(ctx context.Context, userID, id, title string) (*chat.Conversation, error) {
	return c.insertChat(ctx, userID, id, title)
}

func (c *Client) insertChat(ctx context.Context, userID, id, title string) (*chat.Conversation, error) {
	record := chat.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Color:     chat.DefaultColor,
		IconColor: chat.DefaultIconColor,
	}

	var created []chat.Conversation
	if err := c.post(ctx, "create chat", "chats", record, &created); err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("store: create chat: empty representation in response")
	}
	return &created[0], nil
}

// ChatExists reports whether a conversation id is present in the store.
func (c *Client) ChatExists(ctx context.Context, id string) (bool, error) {
	params := url.Values{}
	params.Set("id", eq(id))
	params.Set("select", "id")

	var chats []chat.Conversation
	if err := c.get(ctx, "chat exists", "chats", params, &chats); err != nil {
		return false, err
	}
	return len(chats) > 0, nil
}

// UpdateChatTitle rewrites the title and bumps updated_at.
func (c *Client) UpdateChatTitle(ctx context.Context, id, title string) error {
	params := url.Values{}
	params.Set("id", eq(id))

	body := map[string]string{
		"title":      title,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	return c.patch(ctx, "update chat title", "chats", params, body, nil)
}

// ListChats 返回用户的全部对话，按创建时间倒序。
func (c *Client) ListChats(ctx context.Context, userID string) ([]chat.Conversation, error) {
	params := url.Values{}
	params.Set("user_id", eq(userID))
	params.Set("order", "created_at.desc")

	chats := []chat.Conversation{}
	if err := c.get(ctx, "list chats", "chats", params, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// ListChatsPage returns one page of the user's conversations, newest
// first. Pages are 1-indexed.
func (c *Client) ListChatsPage(ctx context.Context, userID string, page, pageSize int) ([]chat.Conversation, error) {
	params := url.Values{}
	params.Set("user_id", eq(userID))
	params.Set("order", "created_at.desc")
	params.Set("limit", strconv.Itoa(pageSize))
	params.Set("offset", strconv.Itoa((page-1)*pageSize))

	chats := []chat.Conversation{}
	if err := c.get(ctx, "list chats page", "chats", params, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// CountChats 返回用户的对话总数。
func (c *Client) CountChats(ctx context.Context, userID string) (int, error) {
	params := url.Values{}
	params.Set("user_id", eq(userID))
	params.Set("select", "count")

	var counts []struct {
		Count int `json:"count"`
	}
	if err := c.get(ctx, "count chats", "chats", params, &counts); err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, nil
	}
	return counts[0].Count, nil
}

// AppendMessage inserts one immutable message row.
func (c *Client) AppendMessage(ctx context.Context, chatID, role, content string, timestampMs int64) (*chat.Message, error) {
	record := chat.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		Timestamp: timestampMs,
	}

	var created []chat.Message
	if err := c.post(ctx, "append message", "messages", record, &created); err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("store: append message: empty representation in response")
	}
	return &created[0], nil
}

// ListMessages 返回对话内的全部消息，按时间戳升序。
func (c *Client) ListMessages(ctx context.Context, chatID string) ([]chat.Message, error) {
	params := url.Values{}
	params.Set("chat_id", eq(chatID))
	params.Set("order", "timestamp.asc")

	messages := []chat.Message{}
	if err := c.get(ctx, "list messages", "messages", params, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// DeleteChat removes a conversation. The store cascades the delete to
// the owned messages, so from here it is one logical operation.
func (c *Client) DeleteChat(ctx context.Context, id string) error {
	params := url.Values{}
	params.Set("id", eq(id))
	return c.delete(ctx, "delete chat", "chats", params)
}
