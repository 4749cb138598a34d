// Package messaging implements private and room messages, the per-user
// conversation list and mark-as-read.
package messaging

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/events"
	"github.com/jgirmay/chatroom/pkg/logging"
	"github.com/jgirmay/chatroom/pkg/metrics"
	"github.com/jgirmay/chatroom/pkg/models"
	"github.com/jgirmay/chatroom/pkg/repository"
	"github.com/jgirmay/chatroom/pkg/services/blocking"
	"github.com/jgirmay/chatroom/pkg/services/integrity"
)

const (
	// MaxContentLength bounds message bodies
	MaxContentLength = 4000

	// DefaultRoomHistory is how many room messages ListRoom returns
	DefaultRoomHistory = 50

	kindPrivate = "private"
	kindRoom    = "room"
)

// Service is the messaging surface used by the HTTP layer
type Service interface {
	SendPrivate(ctx context.Context, senderID, receiverID uint, content string) (*models.PrivateMessage, error)
	History(ctx context.Context, userID, otherID uint) ([]*models.PrivateMessage, error)
	SendToRoom(ctx context.Context, roomID, userID uint, content string) (*models.RoomMessage, error)
	ListRoom(ctx context.Context, roomID uint) ([]*models.RoomMessage, error)
	Conversations(ctx context.Context, userID uint) ([]models.ConversationView, error)
	MarkAsRead(ctx context.Context, senderID, receiverID uint) (int64, error)
}

// BlockChecker reports block relations between two users
type BlockChecker interface {
	IsBlockedEitherWay(ctx context.Context, a, b uint) (blocking.Direction, error)
}

// MessageService implements Service
type MessageService struct {
	messages repository.MessageRepository
	profiles repository.ProfileRepository
	rooms    repository.RoomRepository
	guard    *integrity.Guard
	blocks   BlockChecker
	bus      events.Publisher
	metrics  *metrics.Metrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewMessageService creates a messaging service
func NewMessageService(
	registry *repository.Registry,
	blocks BlockChecker,
	bus events.Publisher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *MessageService {
	if bus == nil {
		bus = events.NewNoOpEventBus()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &MessageService{
		messages: registry.MessageRepository,
		profiles: registry.ProfileRepository,
		rooms:    registry.RoomRepository,
		guard:    integrity.NewGuard(registry),
		blocks:   blocks,
		bus:      bus,
		metrics:  m,
		logger:   logger.Named("messaging"),
		now:      time.Now,
	}
}

// SendPrivate stores a private message unless a block exists in either direction
func (s *MessageService) SendPrivate(ctx context.Context, senderID, receiverID uint, content string) (*models.PrivateMessage, error) {
	content, err := checkContent(content)
	if err != nil {
		return nil, err
	}
	if senderID != 0 && senderID == receiverID {
		return nil, apperrors.Validation("cannot message yourself")
	}
	if err := s.guard.Users(ctx,
		integrity.Ref{Field: "sender_id", ID: senderID},
		integrity.Ref{Field: "receiver_id", ID: receiverID},
	); err != nil {
		return nil, err
	}

	if s.blocks != nil {
		dir, err := s.blocks.IsBlockedEitherWay(ctx, senderID, receiverID)
		if err != nil {
			return nil, err
		}
		switch dir {
		case blocking.BlockedByFirst:
			return nil, apperrors.Forbidden("you have blocked this user")
		case blocking.BlockedBySecond:
			return nil, apperrors.Forbidden("this user has blocked you")
		}
	}

	msg := &models.PrivateMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.messages.CreatePrivate(ctx, msg); err != nil {
		s.logger.Warn("private message not stored",
			zap.Uint("sender_id", senderID), zap.Uint("receiver_id", receiverID), zap.Error(err))
		return nil, err
	}

	s.metrics.IncMessagesSent(kindPrivate)
	s.bus.Publish(events.Event{
		Type:          events.EventPrivateMessage,
		UserID:        senderID,
		CounterpartID: receiverID,
		Data:          map[string]interface{}{"message_id": msg.ID},
		Timestamp:     msg.CreatedAt,
	})
	return msg, nil
}

// History returns the messages between two users, oldest first
func (s *MessageService) History(ctx context.Context, userID, otherID uint) ([]*models.PrivateMessage, error) {
	if err := s.guard.Users(ctx,
		integrity.Ref{Field: "userId", ID: userID},
		integrity.Ref{Field: "otherUserId", ID: otherID},
	); err != nil {
		return nil, err
	}
	return s.messages.ListBetween(ctx, userID, otherID)
}

// SendToRoom posts a message to a room the sender participates in
func (s *MessageService) SendToRoom(ctx context.Context, roomID, userID uint, content string) (*models.RoomMessage, error) {
	content, err := checkContent(content)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Room(ctx, roomID); err != nil {
		return nil, err
	}
	if err := s.guard.User(ctx, "user_id", userID); err != nil {
		return nil, err
	}

	member, err := s.rooms.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, apperrors.Forbidden("you are not a participant of this room")
	}

	msg := &models.RoomMessage{
		RoomID:    roomID,
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.messages.CreateRoomMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.metrics.IncMessagesSent(kindRoom)
	s.bus.Publish(events.Event{
		Type:      events.EventRoomMessage,
		RoomID:    roomID,
		UserID:    userID,
		Data:      map[string]interface{}{"message_id": msg.ID},
		Timestamp: msg.CreatedAt,
	})
	return msg, nil
}

// ListRoom returns the latest room messages, oldest first
func (s *MessageService) ListRoom(ctx context.Context, roomID uint) ([]*models.RoomMessage, error) {
	if err := s.guard.Room(ctx, roomID); err != nil {
		return nil, err
	}
	return s.messages.ListRoomMessages(ctx, roomID, DefaultRoomHistory)
}

func checkContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.MissingField("content")
	}
	if len(content) > MaxContentLength {
		return "", apperrors.Validation("content is too long").WithDetail("max", MaxContentLength)
	}
	return content, nil
}
