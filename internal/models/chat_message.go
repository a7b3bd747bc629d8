package models

import "time"

// ChatMessage is one side of a chat exchange. The transcript is append-only
// and ordered by timestamp; messages are only removed when their project is
// deleted.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"index;not null" json:"-"`
	ProjectID uint      `gorm:"index;not null" json:"projectId"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsUser    bool      `gorm:"not null" json:"isUser"`
	Timestamp time.Time `gorm:"index;autoCreateTime" json:"timestamp"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
