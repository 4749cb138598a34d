package models

import (
	"strconv"
	"time"
)

// PrivateMessage is a direct message between two users
type PrivateMessage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SenderID   uint      `json:"sender_id" gorm:"index:idx_private_pair,priority:1;not null"`
	ReceiverID uint      `json:"receiver_id" gorm:"index:idx_private_pair,priority:2;index:idx_private_unread,priority:1;not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
	IsRead     bool      `json:"is_read" gorm:"index:idx_private_unread,priority:2;not null;default:false"`

	Sender   Profile `json:"-" gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
	Receiver Profile `json:"-" gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (PrivateMessage) TableName() string {
	return "private_messages"
}

// CounterpartOf returns the endpoint of the message that is not userID
func (m *PrivateMessage) CounterpartOf(userID uint) uint {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// ConversationView is one row of a user's private conversation list
type ConversationView struct {
	ID            string         `json:"id"`
	UserID        uint           `json:"user_id"`
	LastMessage   string         `json:"last_message"`
	LastMessageAt time.Time      `json:"last_message_at"`
	UnreadCount   int64          `json:"unread_count"`
	Profile       ProfileSummary `json:"profile"`
}

// NewConversationView builds the row for a counterpart from its latest message
func NewConversationView(counterpart ProfileSummary, latest *PrivateMessage, unread int64) ConversationView {
	return ConversationView{
		ID:            strconv.FormatUint(uint64(counterpart.ID), 10),
		UserID:        counterpart.ID,
		LastMessage:   latest.Content,
		LastMessageAt: latest.CreatedAt,
		UnreadCount:   unread,
		Profile:       counterpart,
	}
}
