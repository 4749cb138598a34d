package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgirmay/chatroom/pkg/database"
	"github.com/jgirmay/chatroom/pkg/models"
)

// ReportRepositoryImpl implements ReportRepository
type ReportRepositoryImpl struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &ReportRepositoryImpl{db: db}
}

// Create stores a report
func (r *ReportRepositoryImpl) Create(ctx context.Context, report *models.Report) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(report).Error
	return database.Classify("reports.create", err)
}

// ListByReportedUser retrieves the reports filed against a user, newest first
func (r *ReportRepositoryImpl) ListByReportedUser(ctx context.Context, userID uint) ([]*models.Report, error) {
	reports := make([]*models.Report, 0)
	err := r.db.WithContext(ctx).
		Where("reported_user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&reports).Error
	return reports, database.Classify("reports.list", err)
}
