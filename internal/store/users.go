package store

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/echoai/deepchat/backend/internal/model/user"
)

// DefaultAvatarURL 是注册时写入的默认头像。
const DefaultAvatarURL = "https://design.gemcoder.com/staticResource/echoAiSystemImages/3af53b10252ba2331a996da3c32fd378.png"

// DefaultPlan 新用户的默认套餐。
const DefaultPlan = "个人版"

// FindByIdentifier looks a user up by username first, then by email.
// The first match wins. A missing user is (nil, nil), not an error.
func (c *Client) FindByIdentifier(ctx context.Context, identifier string) (*user.User, error) {
	for _, column := range []string{"username", "email"} {
		params := url.Values{}
		params.Set(column, eq(identifier))

		var users []user.User
		if err := c.get(ctx, "find user", "users", params, &users); err != nil {
			return nil, err
		}
		if len(users) > 0 {
			return &users[0], nil
		}
	}
	return nil, nil
}

// CreateUser inserts a new user record with a fresh identifier and the
// default avatar and plan. Duplicate username/email surfaces as
// ErrConflict via the remote uniqueness constraints.
func (c *Client) CreateUser(ctx context.Context, username, email, passwordHash string) (*user.User, error) {
	record := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		AvatarURL:    DefaultAvatarURL,
		Plan:         DefaultPlan,
	}

	var created []user.User
	if err := c.post(ctx, "create user", "users", record, &created); err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("store: create user: empty representation in response")
	}
	return &created[0], nil
}
