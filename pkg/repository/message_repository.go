package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgirmay/chatroom/pkg/database"
	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/models"
)

// latestPerCounterpartSQL ranks each of the user's messages within its
// counterpart group and keeps the newest one per group
const latestPerCounterpartSQL = `
SELECT id FROM (
	SELECT id, ROW_NUMBER() OVER (
		PARTITION BY CASE WHEN sender_id = @user THEN receiver_id ELSE sender_id END
		ORDER BY created_at DESC, id DESC
	) AS rn
	FROM private_messages
	WHERE sender_id = @user OR receiver_id = @user
) ranked
WHERE rn = 1`

// MessageRepositoryImpl implements MessageRepository
type MessageRepositoryImpl struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &MessageRepositoryImpl{db: db}
}

// CreatePrivate stores a private message
func (r *MessageRepositoryImpl) CreatePrivate(ctx context.Context, msg *models.PrivateMessage) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error
	return database.Classify("messages.create_private", err)
}

// ListBetween retrieves the messages of a pair in both directions, oldest first
func (r *MessageRepositoryImpl) ListBetween(ctx context.Context, userID, otherID uint) ([]*models.PrivateMessage, error) {
	var messages []*models.PrivateMessage
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userID, otherID, otherID, userID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, database.Classify("messages.list_between", err)
}

// LatestPerCounterpart retrieves, for each counterpart of userID, the most recent message
func (r *MessageRepositoryImpl) LatestPerCounterpart(ctx context.Context, userID uint) ([]*models.PrivateMessage, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Raw(latestPerCounterpartSQL, map[string]interface{}{"user": userID}).
		Scan(&ids).Error
	if err != nil {
		return nil, database.Classify("messages.latest_ids", err)
	}

	var messages []*models.PrivateMessage
	if len(ids) == 0 {
		return messages, nil
	}

	err = r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at DESC, id DESC").
		Find(&messages).Error
	return messages, database.Classify("messages.latest", err)
}

// UnreadCountsBySender counts unread messages addressed to receiverID, keyed by sender
func (r *MessageRepositoryImpl) UnreadCountsBySender(ctx context.Context, receiverID uint) (map[uint]int64, error) {
	var rows []struct {
		SenderID uint
		Unread   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.PrivateMessage{}).
		Select("sender_id, COUNT(*) AS unread").
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, database.Classify("messages.unread_counts", err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.SenderID] = row.Unread
	}
	return counts, nil
}

// MarkRead marks unread messages from sender to receiver as read
func (r *MessageRepositoryImpl) MarkRead(ctx context.Context, senderID, receiverID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PrivateMessage{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Update("is_read", true)
	return result.RowsAffected, database.Classify("messages.mark_read", result.Error)
}

// CreateRoomMessage stores a room message
func (r *MessageRepositoryImpl) CreateRoomMessage(ctx context.Context, msg *models.RoomMessage) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error
	return database.Classify("messages.create_room", err)
}

// ListRoomMessages retrieves the latest room messages, oldest first
func (r *MessageRepositoryImpl) ListRoomMessages(ctx context.Context, roomID uint, limit int) ([]*models.RoomMessage, error) {
	var messages []*models.RoomMessage
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, database.Classify("messages.list_room", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// GetPrivate retrieves a private message by ID
func (r *MessageRepositoryImpl) GetPrivate(ctx context.Context, id uint) (*models.PrivateMessage, error) {
	var msg models.PrivateMessage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("message", id)
	}
	if err != nil {
		return nil, database.Classify("messages.get_private", err)
	}
	return &msg, nil
}
