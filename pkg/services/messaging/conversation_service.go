package messaging

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/jgirmay/chatroom/pkg/events"
	"github.com/jgirmay/chatroom/pkg/models"
	"github.com/jgirmay/chatroom/pkg/services/integrity"
)

// Conversations returns one row per counterpart the user has exchanged
// private messages with, newest conversation first. Ties on the latest
// message time are broken by counterpart id.
func (s *MessageService) Conversations(ctx context.Context, userID uint) ([]models.ConversationView, error) {
	if err := s.guard.User(ctx, "userId", userID); err != nil {
		return nil, err
	}

	latest, err := s.messages.LatestPerCounterpart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(latest) == 0 {
		return []models.ConversationView{}, nil
	}

	unread, err := s.messages.UnreadCountsBySender(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(latest))
	for _, msg := range latest {
		ids = append(ids, msg.CounterpartOf(userID))
	}
	profiles, err := s.profiles.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	views := make([]models.ConversationView, 0, len(latest))
	for _, msg := range latest {
		counterpart := msg.CounterpartOf(userID)
		profile, ok := byID[counterpart]
		if !ok {
			// cascade delete removes messages with the profile; a miss is a race
			s.logger.Debug("conversation counterpart missing", zap.Uint("counterpart_id", counterpart))
			continue
		}
		views = append(views, models.NewConversationView(profile.Summary(), msg, unread[counterpart]))
	}

	sort.SliceStable(views, func(i, j int) bool {
		if !views[i].LastMessageAt.Equal(views[j].LastMessageAt) {
			return views[i].LastMessageAt.After(views[j].LastMessageAt)
		}
		return views[i].UserID < views[j].UserID
	})
	return views, nil
}

// MarkAsRead marks every unread message from senderID to receiverID as read
// in one statement and returns how many changed. Repeating it returns 0.
func (s *MessageService) MarkAsRead(ctx context.Context, senderID, receiverID uint) (int64, error) {
	if err := s.guard.Users(ctx,
		integrity.Ref{Field: "senderId", ID: senderID},
		integrity.Ref{Field: "receiverId", ID: receiverID},
	); err != nil {
		return 0, err
	}

	updated, err := s.messages.MarkRead(ctx, senderID, receiverID)
	if err != nil {
		return 0, err
	}

	if updated > 0 {
		s.metrics.AddMarkedRead(updated)
		s.bus.Publish(events.Event{
			Type:          events.EventMessagesRead,
			UserID:        receiverID,
			CounterpartID: senderID,
			Data:          map[string]interface{}{"updated": updated},
			Timestamp:     s.now().UTC(),
		})
	}
	return updated, nil
}
