package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/chatroom/pkg/database"
	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/metrics"
	"github.com/jgirmay/chatroom/pkg/repository"
	"github.com/jgirmay/chatroom/pkg/routes"
	"github.com/jgirmay/chatroom/pkg/services/blocking"
	"github.com/jgirmay/chatroom/pkg/services/directory"
	"github.com/jgirmay/chatroom/pkg/services/messaging"
	"github.com/jgirmay/chatroom/pkg/services/presence"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	client    *Client
	directory *directory.DirectoryService
	messages  *messaging.MessageService
}

func setupServer(t *testing.T) *fixture {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	registry := repository.NewRegistry(db)
	require.NoError(t, registry.Initialize())

	m := metrics.New()
	blocks := blocking.NewBlockService(registry, nil, nil)
	f := &fixture{
		directory: directory.NewDirectoryService(registry, nil, nil),
		messages:  messaging.NewMessageService(registry, blocks, nil, m, nil),
	}

	router := routes.NewRouter(routes.Dependencies{
		Presence:  presence.NewPresenceService(registry, nil, m, nil, presence.DefaultConfig()),
		Messaging: f.messages,
		Blocking:  blocks,
		Directory: f.directory,
		Metrics:   m,
	})
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		registry.Close()
	})

	f.client = NewClient(server.URL + "/")
	return f
}

func (f *fixture) user(t *testing.T, name string) uint {
	p, err := f.directory.Register(context.Background(), directory.ProfileInput{Username: name})
	require.NoError(t, err)
	return p.ID
}

func TestClientPresence(t *testing.T) {
	f := setupServer(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	room, err := f.directory.CreateRoom(ctx, directory.RoomInput{Name: "general", CreatedBy: alice})
	require.NoError(t, err)

	require.NoError(t, f.client.Heartbeat(ctx, room.ID, alice))
	require.NoError(t, f.client.Heartbeat(ctx, room.ID, bob))

	online, err := f.client.RoomOnline(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, online, 2)

	require.NoError(t, f.client.Leave(ctx, room.ID, bob))
	online, err = f.client.RoomOnline(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, "alice", online[0].Username)

	require.NoError(t, f.client.GlobalHeartbeat(ctx, alice))
	require.NoError(t, f.client.GlobalHeartbeat(ctx, bob))
	users, err := f.client.GlobalOnline(ctx, alice)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bob, users[0].ID)

	require.NoError(t, f.client.GoOffline(ctx, bob))
	users, err = f.client.GlobalOnline(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestClientConversationsAndMarkAsRead(t *testing.T) {
	f := setupServer(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	_, err := f.client.SendPrivate(ctx, bob, alice, "hi")
	require.NoError(t, err)
	_, err = f.client.SendPrivate(ctx, bob, alice, "there")
	require.NoError(t, err)

	views, err := f.client.Conversations(ctx, alice)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, bob, views[0].UserID)
	assert.Equal(t, int64(2), views[0].UnreadCount)

	updated, err := f.client.MarkAsRead(ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	updated, err = f.client.MarkAsRead(ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated)
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	f := setupServer(t)
	ctx := context.Background()

	err := f.client.Heartbeat(ctx, 999, 1)
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, apperrors.TypeNotFound, appErr.Type)

	_, err = f.client.MarkAsRead(ctx, 0, 1)
	assert.True(t, apperrors.IsValidation(err))
}

func TestClientNonEnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).RoomOnline(context.Background(), 1)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.Contains(t, appErr.Message, "gateway down")
}

func TestHeartbeaterRetriesTransientFailures(t *testing.T) {
	var calls int32
	h := NewHeartbeater(func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, 4*time.Second, nil)

	require.NoError(t, h.Beat(context.Background()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, h.Missed())
	assert.False(t, h.LastSuccess().IsZero())
}

func TestHeartbeaterStopsOnClientErrors(t *testing.T) {
	var calls int32
	h := NewHeartbeater(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return apperrors.NotFound("room", 1)
	}, time.Second, nil)

	for i := 0; i < DefaultMaxMissed; i++ {
		assert.False(t, h.Stale())
		require.Error(t, h.Beat(context.Background()))
	}
	assert.Equal(t, int32(DefaultMaxMissed), atomic.LoadInt32(&calls))
	assert.True(t, h.Stale())
}

func TestHeartbeaterLoop(t *testing.T) {
	var calls int32
	h := NewHeartbeater(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, 20*time.Millisecond, nil)

	h.Start(context.Background())
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 3 }, 2*time.Second, 10*time.Millisecond)
	h.Stop()

	stopped := atomic.LoadInt32(&calls)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&calls))
}
