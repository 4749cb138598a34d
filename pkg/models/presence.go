package models

import "time"

// RoomPresence is the liveness row for a user inside a room
type RoomPresence struct {
	RoomID   uint      `json:"room_id" gorm:"primaryKey;autoIncrement:false"`
	UserID   uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	LastSeen time.Time `json:"last_seen" gorm:"index;not null"`

	Room Room    `json:"-" gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	User Profile `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (RoomPresence) TableName() string {
	return "room_presence"
}

// OnlineStatus is the global liveness row for a user.
// Online is cleared by an explicit logout; LastActive is still subject to
// the online threshold when read.
type OnlineStatus struct {
	UserID     uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	Online     bool      `json:"online" gorm:"not null;default:false"`
	LastActive time.Time `json:"last_active" gorm:"index;not null"`

	User Profile `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (OnlineStatus) TableName() string {
	return "online_status"
}

// OnlineParticipant is a user currently online in a room
type OnlineParticipant struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// OnlineUser is a user currently online anywhere
type OnlineUser struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	AvatarURL  string    `json:"avatar_url"`
	LastActive time.Time `json:"last_active"`
}
