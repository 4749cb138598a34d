package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/chatroom/pkg/database"
	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/metrics"
	"github.com/jgirmay/chatroom/pkg/models"
	"github.com/jgirmay/chatroom/pkg/repository"
	"github.com/jgirmay/chatroom/pkg/services/blocking"
)

var t0 = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

type messagingFixture struct {
	registry *repository.Registry
	service  *MessageService
	blocks   *blocking.BlockService
	clock    time.Time
	users    map[string]uint
}

func setupMessaging(t *testing.T, names ...string) *messagingFixture {
	db, err := database.OpenMemory()
	require.NoError(t, err)

	registry := repository.NewRegistry(db)
	require.NoError(t, registry.Initialize())
	t.Cleanup(func() { registry.Close() })

	users := make(map[string]uint)
	for _, name := range names {
		p := &models.Profile{Username: name, FirstName: name}
		require.NoError(t, registry.ProfileRepository.Create(context.Background(), p))
		users[name] = p.ID
	}

	blocks := blocking.NewBlockService(registry, nil, nil)
	f := &messagingFixture{
		registry: registry,
		blocks:   blocks,
		clock:    t0,
		users:    users,
	}
	f.service = NewMessageService(registry, blocks, nil, metrics.New(), nil)
	f.service.now = func() time.Time { return f.clock }
	return f
}

// send stores a message through the service one second after the previous one
func (f *messagingFixture) send(t *testing.T, from, to, content string) *models.PrivateMessage {
	f.clock = f.clock.Add(time.Second)
	msg, err := f.service.SendPrivate(context.Background(), f.users[from], f.users[to], content)
	require.NoError(t, err)
	return msg
}

func TestConversationCollapsesBothDirections(t *testing.T) {
	f := setupMessaging(t, "a", "b")
	ctx := context.Background()

	f.send(t, "a", "b", "hi b")
	f.send(t, "b", "a", "hi a")

	convA, err := f.service.Conversations(ctx, f.users["a"])
	require.NoError(t, err)
	require.Len(t, convA, 1)
	assert.Equal(t, f.users["b"], convA[0].UserID)
	assert.Equal(t, "hi a", convA[0].LastMessage)
	assert.Equal(t, "b", convA[0].Profile.Username)

	convB, err := f.service.Conversations(ctx, f.users["b"])
	require.NoError(t, err)
	require.Len(t, convB, 1)
	assert.Equal(t, f.users["a"], convB[0].UserID)
	assert.Equal(t, "hi a", convB[0].LastMessage)
}

func TestUnreadAccountingAndMarkAsRead(t *testing.T) {
	f := setupMessaging(t, "a", "b")
	ctx := context.Background()

	read := f.send(t, "b", "a", "old")
	require.NoError(t, f.registry.GetDB().Model(read).Update("is_read", true).Error)
	f.send(t, "b", "a", "one")
	f.send(t, "b", "a", "two")
	f.send(t, "b", "a", "three")

	conv, err := f.service.Conversations(ctx, f.users["a"])
	require.NoError(t, err)
	require.Len(t, conv, 1)
	assert.Equal(t, int64(3), conv[0].UnreadCount)

	// the sender sees no unread from a
	convB, err := f.service.Conversations(ctx, f.users["b"])
	require.NoError(t, err)
	require.Len(t, convB, 1)
	assert.Equal(t, int64(0), convB[0].UnreadCount)

	updated, err := f.service.MarkAsRead(ctx, f.users["b"], f.users["a"])
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	conv, err = f.service.Conversations(ctx, f.users["a"])
	require.NoError(t, err)
	assert.Equal(t, int64(0), conv[0].UnreadCount)

	updated, err = f.service.MarkAsRead(ctx, f.users["b"], f.users["a"])
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated)
}

func TestConversationOrdering(t *testing.T) {
	f := setupMessaging(t, "me", "x", "y", "z")
	ctx := context.Background()

	f.send(t, "x", "me", "from x")
	f.send(t, "me", "y", "to y")
	f.send(t, "z", "me", "from z")
	f.send(t, "me", "x", "back to x")

	conv, err := f.service.Conversations(ctx, f.users["me"])
	require.NoError(t, err)
	require.Len(t, conv, 3)

	assert.Equal(t, []uint{f.users["x"], f.users["z"], f.users["y"]},
		[]uint{conv[0].UserID, conv[1].UserID, conv[2].UserID})
	for i := 1; i < len(conv); i++ {
		assert.False(t, conv[i].LastMessageAt.After(conv[i-1].LastMessageAt))
	}
}

func TestConversationTiesBreakOnCounterpartID(t *testing.T) {
	f := setupMessaging(t, "me", "p", "q")
	ctx := context.Background()

	// same timestamp for both conversations
	f.clock = t0
	_, err := f.service.SendPrivate(ctx, f.users["q"], f.users["me"], "q")
	require.NoError(t, err)
	_, err = f.service.SendPrivate(ctx, f.users["p"], f.users["me"], "p")
	require.NoError(t, err)

	conv, err := f.service.Conversations(ctx, f.users["me"])
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, f.users["p"], conv[0].UserID)
	assert.Equal(t, f.users["q"], conv[1].UserID)
}

func TestConversationsEmptyAndUnknown(t *testing.T) {
	f := setupMessaging(t, "lonely")
	ctx := context.Background()

	conv, err := f.service.Conversations(ctx, f.users["lonely"])
	require.NoError(t, err)
	assert.NotNil(t, conv)
	assert.Empty(t, conv)

	_, err = f.service.Conversations(ctx, 999)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.service.MarkAsRead(ctx, 0, f.users["lonely"])
	assert.True(t, apperrors.IsValidation(err))
}

func TestSendPrivateRespectsBlocks(t *testing.T) {
	f := setupMessaging(t, "a", "b")
	ctx := context.Background()

	_, err := f.blocks.Block(ctx, f.users["a"], f.users["b"])
	require.NoError(t, err)

	_, err = f.service.SendPrivate(ctx, f.users["a"], f.users["b"], "hello")
	require.True(t, apperrors.IsType(err, apperrors.TypeForbidden))
	appErr, _ := apperrors.As(err)
	assert.Equal(t, "you have blocked this user", appErr.Message)

	_, err = f.service.SendPrivate(ctx, f.users["b"], f.users["a"], "hello")
	require.True(t, apperrors.IsType(err, apperrors.TypeForbidden))
	appErr, _ = apperrors.As(err)
	assert.Equal(t, "this user has blocked you", appErr.Message)

	require.NoError(t, f.blocks.Unblock(ctx, f.users["a"], f.users["b"]))
	_, err = f.service.SendPrivate(ctx, f.users["b"], f.users["a"], "hello")
	assert.NoError(t, err)
}

func TestSendPrivateValidation(t *testing.T) {
	f := setupMessaging(t, "a", "b")
	ctx := context.Background()

	_, err := f.service.SendPrivate(ctx, f.users["a"], f.users["b"], "   ")
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.service.SendPrivate(ctx, f.users["a"], f.users["a"], "self")
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.service.SendPrivate(ctx, f.users["a"], 0, "x")
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.service.SendPrivate(ctx, f.users["a"], 999, "x")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHistoryIsChronological(t *testing.T) {
	f := setupMessaging(t, "a", "b", "c")
	ctx := context.Background()

	f.send(t, "a", "b", "1")
	f.send(t, "b", "a", "2")
	f.send(t, "a", "c", "elsewhere")
	f.send(t, "a", "b", "3")

	history, err := f.service.History(ctx, f.users["b"], f.users["a"])
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "1", history[0].Content)
	assert.Equal(t, "2", history[1].Content)
	assert.Equal(t, "3", history[2].Content)
}

func TestRoomMessagesRequireMembership(t *testing.T) {
	f := setupMessaging(t, "member", "outsider")
	ctx := context.Background()

	room := &models.Room{Name: "lobby", CreatedBy: f.users["member"]}
	require.NoError(t, f.registry.RoomRepository.Create(ctx, room))
	require.NoError(t, f.registry.RoomRepository.UpsertParticipant(ctx, room.ID, f.users["member"], t0))

	msg, err := f.service.SendToRoom(ctx, room.ID, f.users["member"], " hello room ")
	require.NoError(t, err)
	assert.Equal(t, "hello room", msg.Content)

	_, err = f.service.SendToRoom(ctx, room.ID, f.users["outsider"], "let me in")
	assert.True(t, apperrors.IsType(err, apperrors.TypeForbidden))

	_, err = f.service.SendToRoom(ctx, 999, f.users["member"], "nowhere")
	assert.True(t, apperrors.IsNotFound(err))

	messages, err := f.service.ListRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, f.users["member"], messages[0].UserID)
}
