package blocking

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/events"
	"github.com/jgirmay/chatroom/pkg/logging"
	"github.com/jgirmay/chatroom/pkg/models"
	"github.com/jgirmay/chatroom/pkg/repository"
	"github.com/jgirmay/chatroom/pkg/services/integrity"
)

// Direction describes which side of a pair holds a block
type Direction int

const (
	// NotBlocked means neither user blocks the other
	NotBlocked Direction = iota
	// BlockedByFirst means the first user blocks the second
	BlockedByFirst
	// BlockedBySecond means the second user blocks the first
	BlockedBySecond
)

// Service manages directional block relations
type Service interface {
	Block(ctx context.Context, blockerID, blockedID uint) (*models.BlockedUser, error)
	Unblock(ctx context.Context, blockerID, blockedID uint) error
	ListBlocked(ctx context.Context, blockerID uint) ([]*models.Profile, error)
	IsBlockedEitherWay(ctx context.Context, a, b uint) (Direction, error)
}

// BlockService implements Service
type BlockService struct {
	blocks repository.BlockRepository
	guard  *integrity.Guard
	bus    events.Publisher
	logger *logging.Logger
	now    func() time.Time
}

// NewBlockService creates a block service
func NewBlockService(registry *repository.Registry, bus events.Publisher, logger *logging.Logger) *BlockService {
	if bus == nil {
		bus = events.NewNoOpEventBus()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &BlockService{
		blocks: registry.BlockRepository,
		guard:  integrity.NewGuard(registry),
		bus:    bus,
		logger: logger.Named("blocking"),
		now:    time.Now,
	}
}

// Block records that blockerID blocks blockedID
func (s *BlockService) Block(ctx context.Context, blockerID, blockedID uint) (*models.BlockedUser, error) {
	if blockerID != 0 && blockerID == blockedID {
		return nil, apperrors.Validation("cannot block yourself")
	}
	if err := s.checkPair(ctx, blockerID, blockedID); err != nil {
		return nil, err
	}

	exists, err := s.blocks.Exists(ctx, blockerID, blockedID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Conflict("user is already blocked")
	}

	block := &models.BlockedUser{
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: s.now().UTC(),
	}
	// a concurrent duplicate still surfaces as Conflict through the unique key
	if err := s.blocks.Create(ctx, block); err != nil {
		return nil, err
	}

	s.logger.Info("user blocked", zap.Uint("blocker_id", blockerID), zap.Uint("blocked_id", blockedID))
	s.bus.Publish(events.Event{
		Type:          events.EventUserBlocked,
		UserID:        blockerID,
		CounterpartID: blockedID,
		Timestamp:     block.CreatedAt,
	})
	return block, nil
}

// Unblock removes the block; NotFound when none exists
func (s *BlockService) Unblock(ctx context.Context, blockerID, blockedID uint) error {
	if err := s.checkPair(ctx, blockerID, blockedID); err != nil {
		return err
	}

	removed, err := s.blocks.Delete(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return apperrors.NotFound("block", blockedID)
	}

	s.bus.Publish(events.Event{
		Type:          events.EventUserUnblocked,
		UserID:        blockerID,
		CounterpartID: blockedID,
		Timestamp:     s.now().UTC(),
	})
	return nil
}

// ListBlocked returns the profiles blocked by blockerID
func (s *BlockService) ListBlocked(ctx context.Context, blockerID uint) ([]*models.Profile, error) {
	if err := s.guard.User(ctx, "userId", blockerID); err != nil {
		return nil, err
	}
	return s.blocks.ListBlocked(ctx, blockerID)
}

// IsBlockedEitherWay reports which side, if any, blocks the other
func (s *BlockService) IsBlockedEitherWay(ctx context.Context, a, b uint) (Direction, error) {
	blocked, err := s.blocks.Exists(ctx, a, b)
	if err != nil {
		return NotBlocked, err
	}
	if blocked {
		return BlockedByFirst, nil
	}

	blocked, err = s.blocks.Exists(ctx, b, a)
	if err != nil {
		return NotBlocked, err
	}
	if blocked {
		return BlockedBySecond, nil
	}
	return NotBlocked, nil
}

func (s *BlockService) checkPair(ctx context.Context, blockerID, blockedID uint) error {
	return s.guard.Users(ctx,
		integrity.Ref{Field: "blocker_id", ID: blockerID},
		integrity.Ref{Field: "blocked_id", ID: blockedID},
	)
}
