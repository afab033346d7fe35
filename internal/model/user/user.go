package user

// User 对应用户集合中的一条记录。PasswordHash 只在服务内部流转。
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash,omitempty"`
	AvatarURL    string `json:"avatar_url"`
	Plan         string `json:"plan"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// PublicUser 是返回给前端的用户视图，不携带密码哈希。
type PublicUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	Plan      string `json:"plan"`
	CreatedAt string `json:"created_at"`
}

// Public strips credentials from the record.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.AvatarURL,
		Plan:      u.Plan,
		CreatedAt: u.CreatedAt,
	}
}
