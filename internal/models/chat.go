package models

import "time"

// ChatMessage is one turn of a GigBot conversation.
type ChatMessage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)
