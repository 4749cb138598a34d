package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgirmay/chatroom/pkg/database"
	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/models"
)

// PresenceRepositoryImpl implements PresenceRepository
type PresenceRepositoryImpl struct {
	db *gorm.DB
}

// NewPresenceRepository creates a new presence repository
func NewPresenceRepository(db *gorm.DB) PresenceRepository {
	return &PresenceRepositoryImpl{db: db}
}

// keepLatest builds the upsert assignment that never moves a timestamp backwards
func keepLatest(table, column string) clause.Expr {
	return gorm.Expr(fmt.Sprintf(
		"CASE WHEN excluded.%[2]s > %[1]s.%[2]s THEN excluded.%[2]s ELSE %[1]s.%[2]s END",
		table, column,
	))
}

// TouchRoom upserts the room presence row, keeping last_seen monotonic
func (r *PresenceRepositoryImpl) TouchRoom(ctx context.Context, roomID, userID uint, at time.Time) error {
	presence := &models.RoomPresence{RoomID: roomID, UserID: userID, LastSeen: at}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "last_seen"}, Value: keepLatest("room_presence", "last_seen")},
			},
		}).
		Create(presence).Error
	return database.Classify("presence.touch_room", err)
}

// GetRoom retrieves a room presence row
func (r *PresenceRepositoryImpl) GetRoom(ctx context.Context, roomID, userID uint) (*models.RoomPresence, error) {
	var presence models.RoomPresence
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&presence).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("room presence", userID)
	}
	if err != nil {
		return nil, database.Classify("presence.get_room", err)
	}
	return &presence, nil
}

// DeleteRoom removes a room presence row and returns rows affected
func (r *PresenceRepositoryImpl) DeleteRoom(ctx context.Context, roomID, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.RoomPresence{})
	return result.RowsAffected, database.Classify("presence.delete_room", result.Error)
}

// ListRoomOnline retrieves room members seen at or after since
func (r *PresenceRepositoryImpl) ListRoomOnline(ctx context.Context, roomID uint, since time.Time) ([]models.OnlineParticipant, error) {
	participants := make([]models.OnlineParticipant, 0)
	err := r.db.WithContext(ctx).
		Table("room_presence").
		Select("profiles.id, profiles.username, profiles.avatar_url").
		Joins("JOIN profiles ON profiles.id = room_presence.user_id").
		Where("room_presence.room_id = ? AND room_presence.last_seen >= ?", roomID, since).
		Order("room_presence.last_seen DESC, profiles.id ASC").
		Scan(&participants).Error
	return participants, database.Classify("presence.list_room_online", err)
}

// DeleteRoomSeenBefore removes room presence rows older than before
func (r *PresenceRepositoryImpl) DeleteRoomSeenBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("last_seen < ?", before).
		Delete(&models.RoomPresence{})
	return result.RowsAffected, database.Classify("presence.delete_room_seen_before", result.Error)
}

// TouchGlobal upserts the global status as online, keeping last_active monotonic
func (r *PresenceRepositoryImpl) TouchGlobal(ctx context.Context, userID uint, at time.Time) error {
	status := &models.OnlineStatus{UserID: userID, Online: true, LastActive: at}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "online"}, Value: true},
				{Column: clause.Column{Name: "last_active"}, Value: keepLatest("online_status", "last_active")},
			},
		}).
		Create(status).Error
	return database.Classify("presence.touch_global", err)
}

// GetGlobal retrieves the global status row
func (r *PresenceRepositoryImpl) GetGlobal(ctx context.Context, userID uint) (*models.OnlineStatus, error) {
	var status models.OnlineStatus
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("online status", userID)
	}
	if err != nil {
		return nil, database.Classify("presence.get_global", err)
	}
	return &status, nil
}

// SetOffline clears the global online flag
func (r *PresenceRepositoryImpl) SetOffline(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OnlineStatus{}).
		Where("user_id = ?", userID).
		Update("online", false)
	return result.RowsAffected, database.Classify("presence.set_offline", result.Error)
}

// ListGlobalOnline retrieves online users active at or after since, newest first
func (r *PresenceRepositoryImpl) ListGlobalOnline(ctx context.Context, since time.Time, excludeUserID uint, limit int) ([]models.OnlineUser, error) {
	users := make([]models.OnlineUser, 0)
	err := r.db.WithContext(ctx).
		Table("online_status").
		Select("profiles.id, profiles.username, profiles.first_name, profiles.last_name, profiles.avatar_url, online_status.last_active").
		Joins("JOIN profiles ON profiles.id = online_status.user_id").
		Where("online_status.online = ? AND online_status.last_active >= ? AND online_status.user_id <> ?", true, since, excludeUserID).
		Order("online_status.last_active DESC, profiles.id ASC").
		Limit(limit).
		Scan(&users).Error
	return users, database.Classify("presence.list_global_online", err)
}
