package chat

// Conversation is a titled message thread owned by a single user.
// Timestamps are carried verbatim as the store formats them.
type Conversation struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	IconColor string `json:"icon_color"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Display colors applied to every new conversation.
const (
	DefaultColor     = "bg-blue-100"
	DefaultIconColor = "text-blue-500"
)
