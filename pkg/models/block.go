package models

import "time"

// BlockedUser is a directional block: BlockerID no longer exchanges
// private messages with BlockedID
type BlockedUser struct {
	BlockerID uint      `json:"blocker_id" gorm:"primaryKey;autoIncrement:false"`
	BlockedID uint      `json:"blocked_id" gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `json:"created_at"`

	Blocker Profile `json:"-" gorm:"foreignKey:BlockerID;constraint:OnDelete:CASCADE"`
	Blocked Profile `json:"-" gorm:"foreignKey:BlockedID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (BlockedUser) TableName() string {
	return "blocked_users"
}

// AllModels lists every persisted model in migration order
func AllModels() []interface{} {
	return []interface{}{
		&Profile{},
		&Room{},
		&RoomParticipant{},
		&RoomPresence{},
		&OnlineStatus{},
		&PrivateMessage{},
		&RoomMessage{},
		&BlockedUser{},
		&Report{},
	}
}
