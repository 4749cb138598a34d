package models

import "time"

// Room is a group chat space
type Room struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedBy   uint      `json:"created_by" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Room) TableName() string {
	return "rooms"
}

// RoomParticipant records room membership, one row per (room, user)
type RoomParticipant struct {
	RoomID   uint      `json:"room_id" gorm:"primaryKey;autoIncrement:false"`
	UserID   uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false;index"`
	JoinedAt time.Time `json:"joined_at"`

	Room Room    `json:"-" gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	User Profile `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (RoomParticipant) TableName() string {
	return "room_participants"
}

// RoomMessage is a message posted to a room
type RoomMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	RoomID    uint      `json:"room_id" gorm:"index;not null"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	Room Room    `json:"-" gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	User Profile `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (RoomMessage) TableName() string {
	return "room_messages"
}
