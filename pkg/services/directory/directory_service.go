// Package directory manages the profiles and rooms that presence and
// messaging refer to.
package directory

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/events"
	"github.com/jgirmay/chatroom/pkg/logging"
	"github.com/jgirmay/chatroom/pkg/models"
	"github.com/jgirmay/chatroom/pkg/repository"
	"github.com/jgirmay/chatroom/pkg/services/integrity"
	"github.com/jgirmay/chatroom/pkg/validation"
)

// SearchLimit caps user search results
const SearchLimit = 20

// ProfileInput is the data needed to register a profile
type ProfileInput struct {
	Username  string `json:"username" validate:"required,min=2,max=100"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	AvatarURL string `json:"avatar_url" validate:"max=500"`
}

// ProfileUpdate carries the profile fields to change; nil fields are left as they are
type ProfileUpdate struct {
	Username  *string `json:"username" validate:"omitempty,min=2,max=100"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,max=500"`
}

// RoomInput is the data needed to create a room
type RoomInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	CreatedBy   uint   `json:"created_by" validate:"required"`
}

// Service manages profiles, rooms and membership
type Service interface {
	Register(ctx context.Context, input ProfileInput) (*models.Profile, error)
	GetProfile(ctx context.Context, userID uint) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*models.Profile, error)
	UpdateAvatar(ctx context.Context, userID uint, avatarURL string) (*models.Profile, error)
	Search(ctx context.Context, term string, excludeUserID uint) ([]*models.Profile, error)

	CreateRoom(ctx context.Context, input RoomInput) (*models.Room, error)
	GetRoom(ctx context.Context, roomID uint) (*models.Room, error)
	ListRooms(ctx context.Context) ([]*models.Room, error)
	Join(ctx context.Context, roomID, userID uint) error
	IsMember(ctx context.Context, roomID, userID uint) (bool, error)
	Participants(ctx context.Context, roomID uint) ([]*models.Profile, error)
	RoomsForUser(ctx context.Context, userID uint) ([]*models.Room, error)
}

// DirectoryService implements Service
type DirectoryService struct {
	profiles repository.ProfileRepository
	rooms    repository.RoomRepository
	guard    *integrity.Guard
	bus      events.Publisher
	logger   *logging.Logger
	now      func() time.Time
}

// NewDirectoryService creates a directory service
func NewDirectoryService(registry *repository.Registry, bus events.Publisher, logger *logging.Logger) *DirectoryService {
	if bus == nil {
		bus = events.NewNoOpEventBus()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DirectoryService{
		profiles: registry.ProfileRepository,
		rooms:    registry.RoomRepository,
		guard:    integrity.NewGuard(registry),
		bus:      bus,
		logger:   logger.Named("directory"),
		now:      time.Now,
	}
}

// Register creates a profile; a taken username is a Conflict
func (s *DirectoryService) Register(ctx context.Context, input ProfileInput) (*models.Profile, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := validation.Check(input); err != nil {
		return nil, err
	}

	profile := &models.Profile{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		AvatarURL: input.AvatarURL,
		CreatedAt: s.now().UTC(),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if apperrors.IsType(err, apperrors.TypeConflict) {
			return nil, apperrors.Conflict("username is already taken").WithDetail("field", "username")
		}
		return nil, err
	}

	s.logger.Info("profile registered", zap.Uint("user_id", profile.ID), zap.String("username", profile.Username))
	return profile, nil
}

// GetProfile returns a profile by id
func (s *DirectoryService) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	if userID == 0 {
		return nil, apperrors.MissingField("userId")
	}
	return s.profiles.GetByID(ctx, userID)
}

// UpdateProfile changes the fields present in update and returns the stored profile
func (s *DirectoryService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*models.Profile, error) {
	if userID == 0 {
		return nil, apperrors.MissingField("userId")
	}

	fields := make(map[string]interface{})
	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username == "" {
			return nil, apperrors.MissingField("username")
		}
		update.Username = &username
		fields["username"] = username
	}
	if update.FirstName != nil {
		fields["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		fields["last_name"] = *update.LastName
	}
	if update.AvatarURL != nil {
		fields["avatar_url"] = *update.AvatarURL
	}
	if len(fields) == 0 {
		return nil, apperrors.Validation("no fields to update")
	}
	if err := validation.Check(update); err != nil {
		return nil, err
	}

	updated, err := s.profiles.Update(ctx, userID, fields)
	if err != nil {
		if apperrors.IsType(err, apperrors.TypeConflict) {
			return nil, apperrors.Conflict("username is already taken").WithDetail("field", "username")
		}
		return nil, err
	}
	if updated == 0 {
		return nil, apperrors.NotFound("user", userID)
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", zap.Uint("user_id", userID), zap.Int("fields", len(fields)))
	s.bus.Publish(events.Event{
		Type:      events.EventProfileUpdated,
		UserID:    userID,
		Timestamp: s.now().UTC(),
	})
	return profile, nil
}

// UpdateAvatar replaces the avatar URL; an empty URL is rejected
func (s *DirectoryService) UpdateAvatar(ctx context.Context, userID uint, avatarURL string) (*models.Profile, error) {
	avatarURL = strings.TrimSpace(avatarURL)
	if avatarURL == "" {
		return nil, apperrors.MissingField("avatar_url")
	}
	return s.UpdateProfile(ctx, userID, ProfileUpdate{AvatarURL: &avatarURL})
}

// Search matches term against username and names, excluding one user
func (s *DirectoryService) Search(ctx context.Context, term string, excludeUserID uint) ([]*models.Profile, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperrors.MissingField("term")
	}
	return s.profiles.Search(ctx, term, excludeUserID, SearchLimit)
}

// CreateRoom creates a room and enrolls its creator
func (s *DirectoryService) CreateRoom(ctx context.Context, input RoomInput) (*models.Room, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Check(input); err != nil {
		return nil, err
	}
	if err := s.guard.User(ctx, "created_by", input.CreatedBy); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	room := &models.Room{
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   input.CreatedBy,
		CreatedAt:   now,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	if err := s.rooms.UpsertParticipant(ctx, room.ID, input.CreatedBy, now); err != nil {
		return nil, err
	}

	s.logger.Info("room created", zap.Uint("room_id", room.ID), zap.Uint("created_by", room.CreatedBy))
	return room, nil
}

// GetRoom returns a room by id
func (s *DirectoryService) GetRoom(ctx context.Context, roomID uint) (*models.Room, error) {
	if roomID == 0 {
		return nil, apperrors.MissingField("roomId")
	}
	return s.rooms.GetByID(ctx, roomID)
}

// ListRooms returns every room, newest first
func (s *DirectoryService) ListRooms(ctx context.Context) ([]*models.Room, error) {
	return s.rooms.List(ctx)
}

// Join enrolls userID in roomID, refreshing joined_at when already a member
func (s *DirectoryService) Join(ctx context.Context, roomID, userID uint) error {
	if err := s.guard.Room(ctx, roomID); err != nil {
		return err
	}
	if err := s.guard.User(ctx, "userId", userID); err != nil {
		return err
	}

	now := s.now().UTC()
	if err := s.rooms.UpsertParticipant(ctx, roomID, userID, now); err != nil {
		return err
	}

	s.bus.Publish(events.Event{Type: events.EventRoomJoined, RoomID: roomID, UserID: userID, Timestamp: now})
	return nil
}

// IsMember reports whether userID participates in roomID
func (s *DirectoryService) IsMember(ctx context.Context, roomID, userID uint) (bool, error) {
	if err := s.guard.Room(ctx, roomID); err != nil {
		return false, err
	}
	if err := s.guard.User(ctx, "userId", userID); err != nil {
		return false, err
	}
	return s.rooms.IsParticipant(ctx, roomID, userID)
}

// Participants returns the member profiles of a room
func (s *DirectoryService) Participants(ctx context.Context, roomID uint) ([]*models.Profile, error) {
	if err := s.guard.Room(ctx, roomID); err != nil {
		return nil, err
	}
	return s.rooms.ListParticipants(ctx, roomID)
}

// RoomsForUser returns the rooms a user participates in
func (s *DirectoryService) RoomsForUser(ctx context.Context, userID uint) ([]*models.Room, error) {
	if err := s.guard.User(ctx, "userId", userID); err != nil {
		return nil, err
	}
	return s.rooms.ListForUser(ctx, userID)
}
