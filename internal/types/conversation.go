package types

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// GuestUserID is the placeholder identity used when no user id has been
// configured or provided by the identity provider.
const GuestUserID = "guest"

// Message is one entry in a conversation transcript. Messages are
// immutable once appended, except for the single in-progress assistant
// message whose content is replaced in place while a reply streams.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is a server-persisted chat thread. An empty ID never
// appears in the conversation list; the unsaved-draft state is modelled
// as "no selection" instead.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
