package model

import (
	"encoding/json"
	"time"
)

// ChatSession groups the messages of one assistant conversation. Token is
// the opaque identifier handed to clients; UserID is 0 for guest sessions.
type ChatSession struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index" json:"user_id,omitempty"`
	Token        string    `gorm:"size:64;not null;uniqueIndex" json:"token"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// ChatMessage is one entry of a session's ordered message sequence.
// Role is one of "system", "user", "assistant". Metadata holds the source
// list for assistant messages.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;index" json:"session_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Metadata  string    `gorm:"type:text" json:"-"` // JSON object
	CreatedAt time.Time `json:"created_at"`
}

// MetadataMap returns the parsed metadata; nil on parse error.
func (m *ChatMessage) MetadataMap() map[string]any {
	if m.Metadata == "" {
		return nil
	}
	var out map[string]any
	_ = json.Unmarshal([]byte(m.Metadata), &out)
	return out
}

// SetMetadata stores the metadata as JSON.
func (m *ChatMessage) SetMetadata(meta map[string]any) {
	if len(meta) == 0 {
		m.Metadata = ""
		return
	}
	b, _ := json.Marshal(meta)
	m.Metadata = string(b)
}
