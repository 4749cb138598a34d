package dto

import (
	"fmt"

	"github.com/jgirmay/chatroom/pkg/models"
)

// UserRefRequest names the acting user for presence and membership calls
type UserRefRequest struct {
	UserID uint `json:"userId" validate:"required"`
}

// MarkAsReadRequest marks messages from SenderID to ReceiverID as read
type MarkAsReadRequest struct {
	SenderID   uint `json:"senderId" validate:"required"`
	ReceiverID uint `json:"receiverId" validate:"required"`
}

// MarkAsReadResponse reports how many messages changed
type MarkAsReadResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

// NewMarkAsReadResponse builds the response for n updated messages
func NewMarkAsReadResponse(n int64) MarkAsReadResponse {
	return MarkAsReadResponse{
		Message: fmt.Sprintf("%d messages marked as read", n),
		Updated: n,
	}
}

// SendPrivateMessageRequest is the request to send a private message
type SendPrivateMessageRequest struct {
	SenderID   uint   `json:"sender_id" validate:"required"`
	ReceiverID uint   `json:"receiver_id" validate:"required,nefield=SenderID"`
	Content    string `json:"content" validate:"required,max=4000"`
}

// RoomMessageRequest is the request to post to a room
type RoomMessageRequest struct {
	UserID  uint   `json:"user_id" validate:"required"`
	Content string `json:"content" validate:"required,max=4000"`
}

// BlockRequest names both sides of a block relation
type BlockRequest struct {
	BlockerID uint `json:"blocker_id" validate:"required"`
	BlockedID uint `json:"blocked_id" validate:"required,nefield=BlockerID"`
}

// CreateProfileRequest is the request to register a profile
type CreateProfileRequest struct {
	Username  string `json:"username" validate:"required,min=2,max=100"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	AvatarURL string `json:"avatar_url" validate:"max=500"`
}

// CreateRoomRequest is the request to create a room
type CreateRoomRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	CreatedBy   uint   `json:"created_by" validate:"required"`
}

// MembershipResponse reports whether a user belongs to a room
type MembershipResponse struct {
	RoomID   uint `json:"room_id"`
	UserID   uint `json:"user_id"`
	IsMember bool `json:"is_member"`
}

// StatusResponse acknowledges a write with no body of its own
type StatusResponse struct {
	Message string `json:"message"`
}

// ProfileListResponse wraps profile search and listing results
type ProfileListResponse struct {
	Users []models.ProfileSummary `json:"users"`
	Count int                     `json:"count"`
}

// NewProfileListResponse converts profiles to their display summaries
func NewProfileListResponse(profiles []*models.Profile) ProfileListResponse {
	users := make([]models.ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, p.Summary())
	}
	return ProfileListResponse{Users: users, Count: len(users)}
}

// ReportRequest files a report against a user or one of their messages
type ReportRequest struct {
	MessageID      uint   `json:"message_id"`
	ReportedUserID uint   `json:"reported_user_id"`
	ReportedBy     uint   `json:"reported_by" validate:"required"`
	Reason         string `json:"reason" validate:"max=1000"`
}

// UpdateProfileRequest changes only the fields that are present
type UpdateProfileRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=2,max=100"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,max=500"`
}

// UpdateAvatarRequest replaces the avatar URL
type UpdateAvatarRequest struct {
	AvatarURL string `json:"avatar_url" validate:"required,max=500"`
}

// AvatarResponse echoes the stored avatar URL
type AvatarResponse struct {
	Message   string `json:"message"`
	AvatarURL string `json:"avatar_url"`
}
