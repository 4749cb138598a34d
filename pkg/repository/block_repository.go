package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgirmay/chatroom/pkg/database"
	"github.com/jgirmay/chatroom/pkg/models"
)

// BlockRepositoryImpl implements BlockRepository
type BlockRepositoryImpl struct {
	db *gorm.DB
}

// NewBlockRepository creates a new block repository
func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &BlockRepositoryImpl{db: db}
}

// Create stores a block relation; a duplicate pair surfaces as Conflict
func (r *BlockRepositoryImpl) Create(ctx context.Context, block *models.BlockedUser) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(block).Error
	return database.Classify("blocks.create", err)
}

// Delete removes a block relation and returns rows affected
func (r *BlockRepositoryImpl) Delete(ctx context.Context, blockerID, blockedID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.BlockedUser{})
	return result.RowsAffected, database.Classify("blocks.delete", result.Error)
}

// Exists reports whether blockerID blocks blockedID
func (r *BlockRepositoryImpl) Exists(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BlockedUser{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&count).Error
	if err != nil {
		return false, database.Classify("blocks.exists", err)
	}
	return count > 0, nil
}

// ListBlocked retrieves the profiles blocked by blockerID
func (r *BlockRepositoryImpl) ListBlocked(ctx context.Context, blockerID uint) ([]*models.Profile, error) {
	var profiles []*models.Profile
	err := r.db.WithContext(ctx).
		Joins("JOIN blocked_users bu ON bu.blocked_id = profiles.id").
		Where("bu.blocker_id = ?", blockerID).
		Order("bu.created_at DESC").
		Find(&profiles).Error
	return profiles, database.Classify("blocks.list", err)
}
