package repository

import (
	"context"
	"time"

	"github.com/jgirmay/chatroom/pkg/models"
)

// ProfileRepository defines operations for user profiles
type ProfileRepository interface {
	// Create creates a new profile
	Create(ctx context.Context, profile *models.Profile) error

	// GetByID retrieves a profile by ID
	GetByID(ctx context.Context, id uint) (*models.Profile, error)

	// Exists reports whether a profile with the ID exists
	Exists(ctx context.Context, id uint) (bool, error)

	// ListByIDs retrieves the profiles for a set of IDs
	ListByIDs(ctx context.Context, ids []uint) ([]*models.Profile, error)

	// Search matches username, first or last name
	Search(ctx context.Context, term string, excludeID uint, limit int) ([]*models.Profile, error)

	// Update sets the given columns and returns the number of rows matched
	Update(ctx context.Context, id uint, fields map[string]interface{}) (int64, error)
}

// RoomRepository defines operations for rooms and membership
type RoomRepository interface {
	// Create creates a new room
	Create(ctx context.Context, room *models.Room) error

	// GetByID retrieves a room by ID
	GetByID(ctx context.Context, id uint) (*models.Room, error)

	// Exists reports whether a room with the ID exists
	Exists(ctx context.Context, id uint) (bool, error)

	// List retrieves all rooms, newest first
	List(ctx context.Context) ([]*models.Room, error)

	// ListForUser retrieves the rooms a user participates in
	ListForUser(ctx context.Context, userID uint) ([]*models.Room, error)

	// EnsureParticipant inserts the membership row if absent
	EnsureParticipant(ctx context.Context, roomID, userID uint, at time.Time) error

	// UpsertParticipant inserts the membership row or refreshes joined_at
	UpsertParticipant(ctx context.Context, roomID, userID uint, at time.Time) error

	// IsParticipant reports membership
	IsParticipant(ctx context.Context, roomID, userID uint) (bool, error)

	// ListParticipants retrieves member profiles
	ListParticipants(ctx context.Context, roomID uint) ([]*models.Profile, error)
}

// PresenceRepository defines operations for room and global liveness rows
type PresenceRepository interface {
	// TouchRoom upserts the room presence row, keeping last_seen monotonic
	TouchRoom(ctx context.Context, roomID, userID uint, at time.Time) error

	// GetRoom retrieves a room presence row
	GetRoom(ctx context.Context, roomID, userID uint) (*models.RoomPresence, error)

	// DeleteRoom removes a room presence row and returns rows affected
	DeleteRoom(ctx context.Context, roomID, userID uint) (int64, error)

	// ListRoomOnline retrieves room members seen at or after since
	ListRoomOnline(ctx context.Context, roomID uint, since time.Time) ([]models.OnlineParticipant, error)

	// DeleteRoomSeenBefore removes room presence rows older than before
	DeleteRoomSeenBefore(ctx context.Context, before time.Time) (int64, error)

	// TouchGlobal upserts the global status as online, keeping last_active monotonic
	TouchGlobal(ctx context.Context, userID uint, at time.Time) error

	// GetGlobal retrieves the global status row
	GetGlobal(ctx context.Context, userID uint) (*models.OnlineStatus, error)

	// SetOffline clears the global online flag
	SetOffline(ctx context.Context, userID uint) (int64, error)

	// ListGlobalOnline retrieves online users active at or after since, newest first
	ListGlobalOnline(ctx context.Context, since time.Time, excludeUserID uint, limit int) ([]models.OnlineUser, error)
}

// MessageRepository defines operations for private and room messages
type MessageRepository interface {
	// CreatePrivate stores a private message
	CreatePrivate(ctx context.Context, msg *models.PrivateMessage) error

	// ListBetween retrieves the messages of a pair in both directions, oldest first
	ListBetween(ctx context.Context, userID, otherID uint) ([]*models.PrivateMessage, error)

	// LatestPerCounterpart retrieves, for each counterpart of userID, the most recent message
	LatestPerCounterpart(ctx context.Context, userID uint) ([]*models.PrivateMessage, error)

	// UnreadCountsBySender counts unread messages addressed to receiverID, keyed by sender
	UnreadCountsBySender(ctx context.Context, receiverID uint) (map[uint]int64, error)

	// MarkRead marks unread messages from sender to receiver as read
	MarkRead(ctx context.Context, senderID, receiverID uint) (int64, error)

	// CreateRoomMessage stores a room message
	CreateRoomMessage(ctx context.Context, msg *models.RoomMessage) error

	// ListRoomMessages retrieves the latest room messages, oldest first
	ListRoomMessages(ctx context.Context, roomID uint, limit int) ([]*models.RoomMessage, error)

	// GetPrivate retrieves a private message by ID
	GetPrivate(ctx context.Context, id uint) (*models.PrivateMessage, error)
}

// BlockRepository defines operations for block relations
type BlockRepository interface {
	// Create stores a block relation
	Create(ctx context.Context, block *models.BlockedUser) error

	// Delete removes a block relation and returns rows affected
	Delete(ctx context.Context, blockerID, blockedID uint) (int64, error)

	// Exists reports whether blockerID blocks blockedID
	Exists(ctx context.Context, blockerID, blockedID uint) (bool, error)

	// ListBlocked retrieves the profiles blocked by blockerID
	ListBlocked(ctx context.Context, blockerID uint) ([]*models.Profile, error)
}

// ReportRepository defines operations for moderation reports
type ReportRepository interface {
	// Create stores a report
	Create(ctx context.Context, report *models.Report) error

	// ListByReportedUser retrieves the reports filed against a user, newest first
	ListByReportedUser(ctx context.Context, userID uint) ([]*models.Report, error)
}
