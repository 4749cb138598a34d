package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgirmay/chatroom/pkg/database"
	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/models"
)

// ProfileRepositoryImpl implements ProfileRepository
type ProfileRepositoryImpl struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &ProfileRepositoryImpl{db: db}
}

// Create creates a new profile
func (r *ProfileRepositoryImpl) Create(ctx context.Context, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(profile).Error
	return database.Classify("profiles.create", err)
}

// GetByID retrieves a profile by ID
func (r *ProfileRepositoryImpl) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user", id)
	}
	if err != nil {
		return nil, database.Classify("profiles.get", err)
	}
	return &profile, nil
}

// Exists reports whether a profile with the ID exists
func (r *ProfileRepositoryImpl) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, database.Classify("profiles.exists", err)
	}
	return count > 0, nil
}

// ListByIDs retrieves the profiles for a set of IDs
func (r *ProfileRepositoryImpl) ListByIDs(ctx context.Context, ids []uint) ([]*models.Profile, error) {
	var profiles []*models.Profile
	if len(ids) == 0 {
		return profiles, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error
	return profiles, database.Classify("profiles.list_by_ids", err)
}

// Search matches username, first or last name
func (r *ProfileRepositoryImpl) Search(ctx context.Context, term string, excludeID uint, limit int) ([]*models.Profile, error) {
	pattern := "%" + strings.ToLower(term) + "%"

	query := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", pattern, pattern, pattern)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var profiles []*models.Profile
	err := query.Order("username ASC").Limit(limit).Find(&profiles).Error
	return profiles, database.Classify("profiles.search", err)
}

// Update sets the given columns on one profile
func (r *ProfileRepositoryImpl) Update(ctx context.Context, id uint, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return 0, database.Classify("profiles.update", result.Error)
	}
	return result.RowsAffected, nil
}
