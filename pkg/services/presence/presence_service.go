package presence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jgirmay/chatroom/pkg/config"
	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/events"
	"github.com/jgirmay/chatroom/pkg/logging"
	"github.com/jgirmay/chatroom/pkg/metrics"
	"github.com/jgirmay/chatroom/pkg/models"
	"github.com/jgirmay/chatroom/pkg/repository"
	"github.com/jgirmay/chatroom/pkg/services/integrity"
)

// Scope labels
const (
	ScopeRoom   = "room"
	ScopeGlobal = "global"
)

// Service records heartbeats and reads online sets
type Service interface {
	// Heartbeat marks userID alive in roomID and enrolls membership if absent
	Heartbeat(ctx context.Context, roomID, userID uint) error

	// Leave removes the room presence row immediately
	Leave(ctx context.Context, roomID, userID uint) error

	// GlobalHeartbeat marks userID alive outside any room
	GlobalHeartbeat(ctx context.Context, userID uint) error

	// GoOffline clears the global online flag
	GoOffline(ctx context.Context, userID uint) error

	// RoomOnline lists users whose room heartbeat is within the threshold
	RoomOnline(ctx context.Context, roomID uint) ([]models.OnlineParticipant, error)

	// GlobalOnline lists the most recently active users, excluding the caller
	GlobalOnline(ctx context.Context, excludeUserID uint) ([]models.OnlineUser, error)
}

// Config configures the presence service
type Config struct {
	OnlineThreshold time.Duration
	GlobalLimit     int
	Now             func() time.Time
}

// DefaultConfig returns the default presence configuration
func DefaultConfig() Config {
	return Config{
		OnlineThreshold: config.DefaultOnlineThreshold,
		GlobalLimit:     config.DefaultGlobalLimit,
		Now:             time.Now,
	}
}

// ConfigFrom builds the service configuration from application config
func ConfigFrom(cfg config.PresenceConfig) Config {
	c := DefaultConfig()
	c.OnlineThreshold = cfg.OnlineThreshold
	c.GlobalLimit = cfg.GlobalLimit
	return c
}

// PresenceService implements Service on the relational store
type PresenceService struct {
	presence repository.PresenceRepository
	rooms    repository.RoomRepository
	guard    *integrity.Guard
	bus      events.Publisher
	metrics  *metrics.Metrics
	logger   *logging.Logger
	window   Window
	limit    int
	now      func() time.Time
}

// NewPresenceService creates a presence service
func NewPresenceService(
	registry *repository.Registry,
	bus events.Publisher,
	m *metrics.Metrics,
	logger *logging.Logger,
	cfg Config,
) *PresenceService {
	if cfg.OnlineThreshold <= 0 {
		cfg.OnlineThreshold = config.DefaultOnlineThreshold
	}
	if cfg.GlobalLimit <= 0 {
		cfg.GlobalLimit = config.DefaultGlobalLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if bus == nil {
		bus = events.NewNoOpEventBus()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &PresenceService{
		presence: registry.PresenceRepository,
		rooms:    registry.RoomRepository,
		guard:    integrity.NewGuard(registry),
		bus:      bus,
		metrics:  m,
		logger:   logger.Named("presence"),
		window:   Window{Threshold: cfg.OnlineThreshold},
		limit:    cfg.GlobalLimit,
		now:      cfg.Now,
	}
}

// Window returns the liveness window in use
func (s *PresenceService) Window() Window {
	return s.window
}

func (s *PresenceService) clock() time.Time {
	return s.now().UTC()
}

// Heartbeat marks userID alive in roomID and enrolls membership if absent
func (s *PresenceService) Heartbeat(ctx context.Context, roomID, userID uint) error {
	if err := requireIDs(roomID, userID); err != nil {
		return err
	}
	if err := s.guard.Room(ctx, roomID); err != nil {
		return err
	}
	if err := s.guard.User(ctx, "userId", userID); err != nil {
		return err
	}

	now := s.clock()
	if err := s.rooms.EnsureParticipant(ctx, roomID, userID, now); err != nil {
		return err
	}
	if err := s.presence.TouchRoom(ctx, roomID, userID, now); err != nil {
		s.logger.Warn("room heartbeat failed",
			zap.Uint("room_id", roomID), zap.Uint("user_id", userID), zap.Error(err))
		return err
	}

	s.metrics.IncHeartbeat(ScopeRoom)
	s.bus.Publish(events.Event{Type: events.EventPresenceUpdated, RoomID: roomID, UserID: userID, Timestamp: now})
	return nil
}

// Leave removes the room presence row; it succeeds whether or not a row existed
func (s *PresenceService) Leave(ctx context.Context, roomID, userID uint) error {
	if err := requireIDs(roomID, userID); err != nil {
		return err
	}
	if err := s.guard.Room(ctx, roomID); err != nil {
		return err
	}
	if err := s.guard.User(ctx, "userId", userID); err != nil {
		return err
	}

	removed, err := s.presence.DeleteRoom(ctx, roomID, userID)
	if err != nil {
		return err
	}

	s.logger.Debug("left room", zap.Uint("room_id", roomID), zap.Uint("user_id", userID), zap.Int64("removed", removed))
	s.bus.Publish(events.Event{Type: events.EventPresenceLeft, RoomID: roomID, UserID: userID, Timestamp: s.clock()})
	return nil
}

// GlobalHeartbeat marks userID alive outside any room
func (s *PresenceService) GlobalHeartbeat(ctx context.Context, userID uint) error {
	if err := s.guard.User(ctx, "userId", userID); err != nil {
		return err
	}

	now := s.clock()
	if err := s.presence.TouchGlobal(ctx, userID, now); err != nil {
		s.logger.Warn("global heartbeat failed", zap.Uint("user_id", userID), zap.Error(err))
		return err
	}

	s.metrics.IncHeartbeat(ScopeGlobal)
	s.bus.Publish(events.Event{Type: events.EventGlobalOnline, UserID: userID, Timestamp: now})
	return nil
}

// GoOffline clears the global online flag
func (s *PresenceService) GoOffline(ctx context.Context, userID uint) error {
	if err := s.guard.User(ctx, "userId", userID); err != nil {
		return err
	}

	if _, err := s.presence.SetOffline(ctx, userID); err != nil {
		return err
	}

	s.bus.Publish(events.Event{Type: events.EventGlobalOffline, UserID: userID, Timestamp: s.clock()})
	return nil
}

// RoomOnline lists users whose room heartbeat is within the threshold
func (s *PresenceService) RoomOnline(ctx context.Context, roomID uint) ([]models.OnlineParticipant, error) {
	if err := s.guard.Room(ctx, roomID); err != nil {
		return nil, err
	}

	online, err := s.presence.ListRoomOnline(ctx, roomID, s.window.Since(s.clock()))
	if err != nil {
		return nil, err
	}

	s.metrics.SetOnlineSetSize(ScopeRoom, len(online))
	return online, nil
}

// GlobalOnline lists the most recently active users, excluding the caller.
// A user counts as online when the flag is set and last_active is within the
// same threshold used for rooms.
func (s *PresenceService) GlobalOnline(ctx context.Context, excludeUserID uint) ([]models.OnlineUser, error) {
	if err := s.guard.User(ctx, "exclude", excludeUserID); err != nil {
		return nil, err
	}

	online, err := s.presence.ListGlobalOnline(ctx, s.window.Since(s.clock()), excludeUserID, s.limit)
	if err != nil {
		return nil, err
	}

	s.metrics.SetOnlineSetSize(ScopeGlobal, len(online))
	return online, nil
}

func requireIDs(roomID, userID uint) error {
	if roomID == 0 {
		return apperrors.MissingField("roomId")
	}
	if userID == 0 {
		return apperrors.MissingField("userId")
	}
	return nil
}
