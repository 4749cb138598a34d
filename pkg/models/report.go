package models

import "time"

// Report flags a user or one of their private messages for moderation.
// ReportedUserID is always set; MessageID only when a message was reported.
type Report struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	MessageID      *uint     `json:"message_id,omitempty" gorm:"index"`
	ReportedUserID uint      `json:"reported_user_id" gorm:"index;not null"`
	ReportedBy     uint      `json:"reported_by" gorm:"index;not null"`
	Reason         string    `json:"reason" gorm:"type:varchar(1000)"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`

	Message      *PrivateMessage `json:"-" gorm:"foreignKey:MessageID;constraint:OnDelete:SET NULL"`
	ReportedUser Profile         `json:"-" gorm:"foreignKey:ReportedUserID;constraint:OnDelete:CASCADE"`
	Reporter     Profile         `json:"-" gorm:"foreignKey:ReportedBy;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (Report) TableName() string {
	return "reports"
}
