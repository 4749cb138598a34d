package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgirmay/chatroom/pkg/database"
	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/models"
)

// RoomRepositoryImpl implements RoomRepository
type RoomRepositoryImpl struct {
	db *gorm.DB
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &RoomRepositoryImpl{db: db}
}

// Create creates a new room
func (r *RoomRepositoryImpl) Create(ctx context.Context, room *models.Room) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(room).Error
	return database.Classify("rooms.create", err)
}

// GetByID retrieves a room by ID
func (r *RoomRepositoryImpl) GetByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("room", id)
	}
	if err != nil {
		return nil, database.Classify("rooms.get", err)
	}
	return &room, nil
}

// Exists reports whether a room with the ID exists
func (r *RoomRepositoryImpl) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, database.Classify("rooms.exists", err)
	}
	return count > 0, nil
}

// List retrieves all rooms, newest first
func (r *RoomRepositoryImpl) List(ctx context.Context) ([]*models.Room, error) {
	var rooms []*models.Room
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&rooms).Error
	return rooms, database.Classify("rooms.list", err)
}

// ListForUser retrieves the rooms a user participates in
func (r *RoomRepositoryImpl) ListForUser(ctx context.Context, userID uint) ([]*models.Room, error) {
	var rooms []*models.Room
	err := r.db.WithContext(ctx).
		Joins("JOIN room_participants rp ON rp.room_id = rooms.id").
		Where("rp.user_id = ?", userID).
		Order("rooms.name ASC").
		Find(&rooms).Error
	return rooms, database.Classify("rooms.list_for_user", err)
}

// EnsureParticipant inserts the membership row if absent
func (r *RoomRepositoryImpl) EnsureParticipant(ctx context.Context, roomID, userID uint, at time.Time) error {
	participant := &models.RoomParticipant{RoomID: roomID, UserID: userID, JoinedAt: at}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(participant).Error
	return database.Classify("rooms.ensure_participant", err)
}

// UpsertParticipant inserts the membership row or refreshes joined_at
func (r *RoomRepositoryImpl) UpsertParticipant(ctx context.Context, roomID, userID uint, at time.Time) error {
	participant := &models.RoomParticipant{RoomID: roomID, UserID: userID, JoinedAt: at}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"joined_at"}),
		}).
		Create(participant).Error
	return database.Classify("rooms.upsert_participant", err)
}

// IsParticipant reports membership
func (r *RoomRepositoryImpl) IsParticipant(ctx context.Context, roomID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RoomParticipant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, database.Classify("rooms.is_participant", err)
	}
	return count > 0, nil
}

// ListParticipants retrieves member profiles
func (r *RoomRepositoryImpl) ListParticipants(ctx context.Context, roomID uint) ([]*models.Profile, error) {
	var profiles []*models.Profile
	err := r.db.WithContext(ctx).
		Joins("JOIN room_participants rp ON rp.user_id = profiles.id").
		Where("rp.room_id = ?", roomID).
		Order("profiles.username ASC").
		Find(&profiles).Error
	return profiles, database.Classify("rooms.list_participants", err)
}
