// Package integrity rejects references to rooms and users that do not exist.
// Every write and read path that takes an identifier goes through a Guard,
// so orphan references are refused the same way everywhere.
package integrity

import (
	"context"

	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/repository"
)

// Guard checks identifiers against the profile and room tables
type Guard struct {
	profiles repository.ProfileRepository
	rooms    repository.RoomRepository
}

// NewGuard creates a guard over the registry's repositories
func NewGuard(registry *repository.Registry) *Guard {
	return &Guard{
		profiles: registry.ProfileRepository,
		rooms:    registry.RoomRepository,
	}
}

// User fails with Validation when id is zero and NotFound when no profile exists
func (g *Guard) User(ctx context.Context, field string, id uint) error {
	if id == 0 {
		return apperrors.MissingField(field)
	}
	exists, err := g.profiles.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NotFound("user", id)
	}
	return nil
}

// Users checks each (field, id) pair in order
func (g *Guard) Users(ctx context.Context, refs ...Ref) error {
	for _, ref := range refs {
		if ref.ID == 0 {
			return apperrors.MissingField(ref.Field)
		}
	}
	for _, ref := range refs {
		if err := g.User(ctx, ref.Field, ref.ID); err != nil {
			return err
		}
	}
	return nil
}

// Room fails with Validation when id is zero and NotFound when no room exists
func (g *Guard) Room(ctx context.Context, id uint) error {
	if id == 0 {
		return apperrors.MissingField("roomId")
	}
	exists, err := g.rooms.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NotFound("room", id)
	}
	return nil
}

// Ref names an identifier for error reporting
type Ref struct {
	Field string
	ID    uint
}
