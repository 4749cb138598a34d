package directory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/chatroom/pkg/database"
	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/repository"
)

func setupDirectory(t *testing.T) *DirectoryService {
	db, err := database.OpenMemory()
	require.NoError(t, err)

	registry := repository.NewRegistry(db)
	require.NoError(t, registry.Initialize())
	t.Cleanup(func() { registry.Close() })

	return NewDirectoryService(registry, nil, nil)
}

func TestRegisterProfile(t *testing.T) {
	svc := setupDirectory(t)
	ctx := context.Background()

	profile, err := svc.Register(ctx, ProfileInput{Username: " alice ", FirstName: "Alice"})
	require.NoError(t, err)
	assert.NotZero(t, profile.ID)
	assert.Equal(t, "alice", profile.Username)

	_, err = svc.Register(ctx, ProfileInput{Username: "alice"})
	assert.True(t, apperrors.IsType(err, apperrors.TypeConflict))

	_, err = svc.Register(ctx, ProfileInput{})
	assert.True(t, apperrors.IsValidation(err))

	got, err := svc.GetProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName)

	_, err = svc.GetProfile(ctx, 999)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateProfile(t *testing.T) {
	svc := setupDirectory(t)
	ctx := context.Background()

	alice, err := svc.Register(ctx, ProfileInput{Username: "alice", FirstName: "Alice", LastName: "Liddell"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, ProfileInput{Username: "bob"})
	require.NoError(t, err)

	name := " alicia "
	last := ""
	profile, err := svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: &name, LastName: &last})
	require.NoError(t, err)
	assert.Equal(t, "alicia", profile.Username)
	assert.Equal(t, "Alice", profile.FirstName)
	assert.Empty(t, profile.LastName)

	taken := "bob"
	_, err = svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: &taken})
	assert.True(t, apperrors.IsType(err, apperrors.TypeConflict))

	_, err = svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{})
	assert.True(t, apperrors.IsValidation(err))

	blank := "  "
	_, err = svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: &blank})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.UpdateProfile(ctx, 999, ProfileUpdate{FirstName: &name})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateAvatar(t *testing.T) {
	svc := setupDirectory(t)
	ctx := context.Background()

	alice, err := svc.Register(ctx, ProfileInput{Username: "alice"})
	require.NoError(t, err)

	profile, err := svc.UpdateAvatar(ctx, alice.ID, "/avatars/alice.png")
	require.NoError(t, err)
	assert.Equal(t, "/avatars/alice.png", profile.AvatarURL)

	got, err := svc.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "/avatars/alice.png", got.AvatarURL)

	_, err = svc.UpdateAvatar(ctx, alice.ID, "")
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.UpdateAvatar(ctx, alice.ID, strings.Repeat("a", 501))
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.UpdateAvatar(ctx, 999, "/avatars/nobody.png")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSearchProfiles(t *testing.T) {
	svc := setupDirectory(t)
	ctx := context.Background()

	alice, err := svc.Register(ctx, ProfileInput{Username: "alice"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, ProfileInput{Username: "malik", LastName: "Alvarez"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, ProfileInput{Username: "bob"})
	require.NoError(t, err)

	found, err := svc.Search(ctx, "al", alice.ID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "malik", found[0].Username)

	_, err = svc.Search(ctx, "  ", 0)
	assert.True(t, apperrors.IsValidation(err))
}

func TestRoomLifecycle(t *testing.T) {
	svc := setupDirectory(t)
	ctx := context.Background()

	owner, err := svc.Register(ctx, ProfileInput{Username: "owner"})
	require.NoError(t, err)
	guest, err := svc.Register(ctx, ProfileInput{Username: "guest"})
	require.NoError(t, err)

	room, err := svc.CreateRoom(ctx, RoomInput{Name: "general", CreatedBy: owner.ID})
	require.NoError(t, err)

	member, err := svc.IsMember(ctx, room.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, member, "creator is enrolled")

	member, err = svc.IsMember(ctx, room.ID, guest.ID)
	require.NoError(t, err)
	assert.False(t, member)

	require.NoError(t, svc.Join(ctx, room.ID, guest.ID))
	require.NoError(t, svc.Join(ctx, room.ID, guest.ID))

	participants, err := svc.Participants(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 2)

	rooms, err := svc.RoomsForUser(ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "general", rooms[0].Name)

	all, err := svc.ListRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRoomReferences(t *testing.T) {
	svc := setupDirectory(t)
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, RoomInput{Name: "ghost town", CreatedBy: 42})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.CreateRoom(ctx, RoomInput{CreatedBy: 42})
	assert.True(t, apperrors.IsValidation(err))

	user, err := svc.Register(ctx, ProfileInput{Username: "someone"})
	require.NoError(t, err)

	err = svc.Join(ctx, 999, user.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.GetRoom(ctx, 999)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.GetRoom(ctx, 0)
	assert.True(t, apperrors.IsValidation(err))
}
