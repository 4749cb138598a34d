package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jgirmay/chatroom/pkg/database"
	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/models"
)

var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// setupTestRegistry creates an in-memory database with every repository wired
func setupTestRegistry(t *testing.T) *Registry {
	db, err := database.OpenMemory()
	require.NoError(t, err)

	registry := NewRegistry(db)
	require.NoError(t, registry.Initialize())
	t.Cleanup(func() { registry.Close() })
	return registry
}

func seedProfiles(t *testing.T, r *Registry, names ...string) []uint {
	ids := make([]uint, 0, len(names))
	for _, name := range names {
		profile := &models.Profile{Username: name, FirstName: name, AvatarURL: "/avatars/" + name + ".png"}
		require.NoError(t, r.ProfileRepository.Create(context.Background(), profile))
		ids = append(ids, profile.ID)
	}
	return ids
}

func seedRoom(t *testing.T, r *Registry, name string, owner uint) uint {
	room := &models.Room{Name: name, CreatedBy: owner}
	require.NoError(t, r.RoomRepository.Create(context.Background(), room))
	return room.ID
}

func sendAt(t *testing.T, r *Registry, from, to uint, content string, at time.Time, read bool) *models.PrivateMessage {
	msg := &models.PrivateMessage{SenderID: from, ReceiverID: to, Content: content, CreatedAt: at}
	require.NoError(t, r.MessageRepository.CreatePrivate(context.Background(), msg))
	if read {
		require.NoError(t, r.GetDB().Model(msg).Update("is_read", true).Error)
	}
	return msg
}

func TestRegistryInitializeRequiresDB(t *testing.T) {
	registry := NewRegistry(nil)
	assert.Error(t, registry.Initialize())

	registry = setupTestRegistry(t)
	assert.NotNil(t, registry.PresenceRepository)
	assert.IsType(t, &gorm.DB{}, registry.GetDB())
}

func TestProfileRepository(t *testing.T) {
	r := setupTestRegistry(t)
	ctx := context.Background()
	ids := seedProfiles(t, r, "alice", "alfred", "bob")

	profile, err := r.ProfileRepository.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)

	_, err = r.ProfileRepository.GetByID(ctx, 999)
	assert.True(t, apperrors.IsNotFound(err))

	exists, err := r.ProfileRepository.Exists(ctx, ids[2])
	require.NoError(t, err)
	assert.True(t, exists)

	found, err := r.ProfileRepository.Search(ctx, "AL", ids[0], 20)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alfred", found[0].Username)

	err = r.ProfileRepository.Create(ctx, &models.Profile{Username: "bob"})
	assert.True(t, apperrors.IsType(err, apperrors.TypeConflict))
}

func TestProfileRepositoryUpdate(t *testing.T) {
	r := setupTestRegistry(t)
	ctx := context.Background()
	ids := seedProfiles(t, r, "alice", "bob")

	updated, err := r.ProfileRepository.Update(ctx, ids[0], map[string]interface{}{"avatar_url": "/avatars/new.png", "last_name": ""})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	profile, err := r.ProfileRepository.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "/avatars/new.png", profile.AvatarURL)
	assert.Equal(t, "alice", profile.FirstName)

	updated, err = r.ProfileRepository.Update(ctx, 999, map[string]interface{}{"avatar_url": "x"})
	require.NoError(t, err)
	assert.Zero(t, updated)

	_, err = r.ProfileRepository.Update(ctx, ids[0], map[string]interface{}{"username": "bob"})
	assert.True(t, apperrors.IsType(err, apperrors.TypeConflict))
}

func TestRoomMembership(t *testing.T) {
	r := setupTestRegistry(t)
	ctx := context.Background()
	users := seedProfiles(t, r, "alice", "bob")
	roomID := seedRoom(t, r, "general", users[0])

	require.NoError(t, r.RoomRepository.EnsureParticipant(ctx, roomID, users[0], baseTime))
	require.NoError(t, r.RoomRepository.EnsureParticipant(ctx, roomID, users[0], baseTime.Add(time.Hour)))

	var participant models.RoomParticipant
	require.NoError(t, r.GetDB().Where("room_id = ? AND user_id = ?", roomID, users[0]).First(&participant).Error)
	assert.True(t, participant.JoinedAt.Equal(baseTime), "ensure keeps the first join time")

	require.NoError(t, r.RoomRepository.UpsertParticipant(ctx, roomID, users[0], baseTime.Add(time.Hour)))
	require.NoError(t, r.GetDB().Where("room_id = ? AND user_id = ?", roomID, users[0]).First(&participant).Error)
	assert.True(t, participant.JoinedAt.Equal(baseTime.Add(time.Hour)), "upsert refreshes join time")

	member, err := r.RoomRepository.IsParticipant(ctx, roomID, users[0])
	require.NoError(t, err)
	assert.True(t, member)

	member, err = r.RoomRepository.IsParticipant(ctx, roomID, users[1])
	require.NoError(t, err)
	assert.False(t, member)

	participants, err := r.RoomRepository.ListParticipants(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "alice", participants[0].Username)

	rooms, err := r.RoomRepository.ListForUser(ctx, users[0])
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, roomID, rooms[0].ID)
}

func TestTouchRoomIsIdempotentAndMonotonic(t *testing.T) {
	r := setupTestRegistry(t)
	ctx := context.Background()
	users := seedProfiles(t, r, "alice")
	roomID := seedRoom(t, r, "general", users[0])

	require.NoError(t, r.PresenceRepository.TouchRoom(ctx, roomID, users[0], baseTime))
	require.NoError(t, r.PresenceRepository.TouchRoom(ctx, roomID, users[0], baseTime.Add(time.Second)))

	var count int64
	require.NoError(t, r.GetDB().Model(&models.RoomPresence{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	presence, err := r.PresenceRepository.GetRoom(ctx, roomID, users[0])
	require.NoError(t, err)
	assert.True(t, presence.LastSeen.Equal(baseTime.Add(time.Second)))

	// an out-of-order heartbeat must not move last_seen backwards
	require.NoError(t, r.PresenceRepository.TouchRoom(ctx, roomID, users[0], baseTime.Add(-time.Minute)))
	presence, err = r.PresenceRepository.GetRoom(ctx, roomID, users[0])
	require.NoError(t, err)
	assert.True(t, presence.LastSeen.Equal(baseTime.Add(time.Second)))
}

func TestListRoomOnlineWindow(t *testing.T) {
	r := setupTestRegistry(t)
	ctx := context.Background()
	users := seedProfiles(t, r, "fresh", "edge", "stale")
	roomID := seedRoom(t, r, "general", users[0])
	now := baseTime

	require.NoError(t, r.PresenceRepository.TouchRoom(ctx, roomID, users[0], now.Add(-29*time.Second)))
	require.NoError(t, r.PresenceRepository.TouchRoom(ctx, roomID, users[1], now.Add(-30*time.Second)))
	require.NoError(t, r.PresenceRepository.TouchRoom(ctx, roomID, users[2], now.Add(-31*time.Second)))

	online, err := r.PresenceRepository.ListRoomOnline(ctx, roomID, now.Add(-30*time.Second))
	require.NoError(t, err)
	require.Len(t, online, 2)
	assert.Equal(t, "fresh", online[0].Username)
	assert.Equal(t, "edge", online[1].Username)
	assert.Equal(t, "/avatars/fresh.png", online[0].AvatarURL)

	affected, err := r.PresenceRepository.DeleteRoom(ctx, roomID, users[0])
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = r.PresenceRepository.DeleteRoom(ctx, roomID, users[0])
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	swept, err := r.PresenceRepository.DeleteRoomSeenBefore(ctx, now.Add(-30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)
}

func TestGlobalOnline(t *testing.T) {
	r := setupTestRegistry(t)
	ctx := context.Background()
	users := seedProfiles(t, r, "me", "a", "b", "stale", "gone")
	now := baseTime

	require.NoError(t, r.PresenceRepository.TouchGlobal(ctx, users[0], now))
	require.NoError(t, r.PresenceRepository.TouchGlobal(ctx, users[1], now.Add(-5*time.Second)))
	require.NoError(t, r.PresenceRepository.TouchGlobal(ctx, users[2], now.Add(-10*time.Second)))
	require.NoError(t, r.PresenceRepository.TouchGlobal(ctx, users[3], now.Add(-31*time.Second)))
	require.NoError(t, r.PresenceRepository.TouchGlobal(ctx, users[4], now.Add(-time.Second)))

	affected, err := r.PresenceRepository.SetOffline(ctx, users[4])
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	online, err := r.PresenceRepository.ListGlobalOnline(ctx, now.Add(-30*time.Second), users[0], 10)
	require.NoError(t, err)
	require.Len(t, online, 2)
	assert.Equal(t, users[1], online[0].ID)
	assert.Equal(t, users[2], online[1].ID)
	assert.True(t, online[0].LastActive.Equal(now.Add(-5*time.Second)))

	limited, err := r.PresenceRepository.ListGlobalOnline(ctx, now.Add(-30*time.Second), users[0], 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	// a heartbeat after logout flips the flag back
	require.NoError(t, r.PresenceRepository.TouchGlobal(ctx, users[4], now))
	status, err := r.PresenceRepository.GetGlobal(ctx, users[4])
	require.NoError(t, err)
	assert.True(t, status.Online)
}

func TestLatestPerCounterpart(t *testing.T) {
	r := setupTestRegistry(t)
	ctx := context.Background()
	users := seedProfiles(t, r, "a", "b", "c")
	a, b, c := users[0], users[1], users[2]

	sendAt(t, r, a, b, "hi b", baseTime, false)
	sendAt(t, r, b, a, "hi a", baseTime.Add(time.Minute), false)
	sendAt(t, r, c, a, "from c", baseTime.Add(30*time.Second), false)

	latest, err := r.MessageRepository.LatestPerCounterpart(ctx, a)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "hi a", latest[0].Content)
	assert.Equal(t, "from c", latest[1].Content)

	latest, err = r.MessageRepository.LatestPerCounterpart(ctx, b)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, a, latest[0].CounterpartOf(b))
}

func TestUnreadCountsAndMarkRead(t *testing.T) {
	r := setupTestRegistry(t)
	ctx := context.Background()
	users := seedProfiles(t, r, "a", "b")
	a, b := users[0], users[1]

	for i := 0; i < 3; i++ {
		sendAt(t, r, b, a, "unread", baseTime.Add(time.Duration(i)*time.Second), false)
	}
	sendAt(t, r, b, a, "read", baseTime.Add(10*time.Second), true)
	sendAt(t, r, a, b, "reply", baseTime.Add(20*time.Second), false)

	counts, err := r.MessageRepository.UnreadCountsBySender(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[b])

	affected, err := r.MessageRepository.MarkRead(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	affected, err = r.MessageRepository.MarkRead(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	counts, err = r.MessageRepository.UnreadCountsBySender(ctx, a)
	require.NoError(t, err)
	assert.Zero(t, counts[b])

	history, err := r.MessageRepository.ListBetween(ctx, a, b)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, "reply", history[4].Content)
}

func TestRoomMessages(t *testing.T) {
	r := setupTestRegistry(t)
	ctx := context.Background()
	users := seedProfiles(t, r, "a")
	roomID := seedRoom(t, r, "general", users[0])

	for i, content := range []string{"one", "two", "three"} {
		msg := &models.RoomMessage{RoomID: roomID, UserID: users[0], Content: content, CreatedAt: baseTime.Add(time.Duration(i) * time.Second)}
		require.NoError(t, r.MessageRepository.CreateRoomMessage(ctx, msg))
	}

	messages, err := r.MessageRepository.ListRoomMessages(ctx, roomID, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "two", messages[0].Content)
	assert.Equal(t, "three", messages[1].Content)
}

func TestBlockRepository(t *testing.T) {
	r := setupTestRegistry(t)
	ctx := context.Background()
	users := seedProfiles(t, r, "a", "b")

	require.NoError(t, r.BlockRepository.Create(ctx, &models.BlockedUser{BlockerID: users[0], BlockedID: users[1], CreatedAt: baseTime}))

	err := r.BlockRepository.Create(ctx, &models.BlockedUser{BlockerID: users[0], BlockedID: users[1], CreatedAt: baseTime})
	assert.True(t, apperrors.IsType(err, apperrors.TypeConflict))

	blocked, err := r.BlockRepository.Exists(ctx, users[0], users[1])
	require.NoError(t, err)
	assert.True(t, blocked)

	reverse, err := r.BlockRepository.Exists(ctx, users[1], users[0])
	require.NoError(t, err)
	assert.False(t, reverse)

	list, err := r.BlockRepository.ListBlocked(ctx, users[0])
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].Username)

	affected, err := r.BlockRepository.Delete(ctx, users[0], users[1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestReportRepository(t *testing.T) {
	r := setupTestRegistry(t)
	ctx := context.Background()
	users := seedProfiles(t, r, "alice", "bob")
	msg := sendAt(t, r, users[1], users[0], "spam", baseTime, false)

	got, err := r.MessageRepository.GetPrivate(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "spam", got.Content)
	_, err = r.MessageRepository.GetPrivate(ctx, 999)
	assert.True(t, apperrors.IsNotFound(err))

	first := &models.Report{ReportedUserID: users[1], ReportedBy: users[0], CreatedAt: baseTime}
	second := &models.Report{MessageID: &msg.ID, ReportedUserID: users[1], ReportedBy: users[0], CreatedAt: baseTime.Add(time.Minute)}
	require.NoError(t, r.ReportRepository.Create(ctx, first))
	require.NoError(t, r.ReportRepository.Create(ctx, second))

	reports, err := r.ReportRepository.ListByReportedUser(ctx, users[1])
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, second.ID, reports[0].ID)
	require.NotNil(t, reports[0].MessageID)
	assert.Equal(t, msg.ID, *reports[0].MessageID)

	reports, err = r.ReportRepository.ListByReportedUser(ctx, users[0])
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
}
