// Package moderation records user and message reports
package moderation

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/events"
	"github.com/jgirmay/chatroom/pkg/logging"
	"github.com/jgirmay/chatroom/pkg/models"
	"github.com/jgirmay/chatroom/pkg/repository"
	"github.com/jgirmay/chatroom/pkg/services/integrity"
)

// MaxReasonLength bounds the free-text reason
const MaxReasonLength = 1000

// ReportInput names the reporter and a target: a user, a private message, or both
type ReportInput struct {
	MessageID      uint
	ReportedUserID uint
	ReportedBy     uint
	Reason         string
}

// Service files and lists moderation reports
type Service interface {
	Report(ctx context.Context, input ReportInput) (*models.Report, error)
	ReportsAgainst(ctx context.Context, userID uint) ([]*models.Report, error)
}

// ReportService implements Service
type ReportService struct {
	reports  repository.ReportRepository
	messages repository.MessageRepository
	guard    *integrity.Guard
	bus      events.Publisher
	logger   *logging.Logger
	now      func() time.Time
}

// NewReportService creates a report service
func NewReportService(registry *repository.Registry, bus events.Publisher, logger *logging.Logger) *ReportService {
	if bus == nil {
		bus = events.NewNoOpEventBus()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ReportService{
		reports:  registry.ReportRepository,
		messages: registry.MessageRepository,
		guard:    integrity.NewGuard(registry),
		bus:      bus,
		logger:   logger.Named("moderation"),
		now:      time.Now,
	}
}

// Report stores a report. A reported message must be one the reporter took
// part in; its sender becomes the reported user.
func (s *ReportService) Report(ctx context.Context, input ReportInput) (*models.Report, error) {
	reason := strings.TrimSpace(input.Reason)
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return nil, apperrors.Validation("reason must be at most 1000 characters").WithDetail("field", "reason")
	}
	if input.ReportedBy == 0 {
		return nil, apperrors.MissingField("reported_by")
	}
	if input.MessageID == 0 && input.ReportedUserID == 0 {
		return nil, apperrors.Validation("message_id or reported_user_id is required")
	}
	if input.ReportedUserID == input.ReportedBy {
		return nil, apperrors.Validation("cannot report yourself")
	}

	if err := s.guard.User(ctx, "reported_by", input.ReportedBy); err != nil {
		return nil, err
	}

	report := &models.Report{
		ReportedUserID: input.ReportedUserID,
		ReportedBy:     input.ReportedBy,
		Reason:         reason,
		CreatedAt:      s.now().UTC(),
	}

	if input.MessageID != 0 {
		msg, err := s.messages.GetPrivate(ctx, input.MessageID)
		if err != nil {
			return nil, err
		}
		if msg.SenderID != input.ReportedBy && msg.ReceiverID != input.ReportedBy {
			return nil, apperrors.Forbidden("you can only report messages from your own conversations")
		}
		if input.ReportedUserID != 0 && input.ReportedUserID != msg.SenderID {
			return nil, apperrors.Validation("reported_user_id does not match the message sender").
				WithDetail("field", "reported_user_id")
		}
		if msg.SenderID == input.ReportedBy {
			return nil, apperrors.Validation("cannot report your own message")
		}
		report.MessageID = &msg.ID
		report.ReportedUserID = msg.SenderID
	} else if err := s.guard.User(ctx, "reported_user_id", input.ReportedUserID); err != nil {
		return nil, err
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info("report filed",
		zap.Uint("report_id", report.ID),
		zap.Uint("reported_by", report.ReportedBy),
		zap.Uint("reported_user_id", report.ReportedUserID))
	s.bus.Publish(events.Event{
		Type:          events.EventUserReported,
		UserID:        report.ReportedBy,
		CounterpartID: report.ReportedUserID,
		Data:          report.ID,
		Timestamp:     report.CreatedAt,
	})
	return report, nil
}

// ReportsAgainst lists the reports filed against userID, newest first
func (s *ReportService) ReportsAgainst(ctx context.Context, userID uint) ([]*models.Report, error) {
	if err := s.guard.User(ctx, "userId", userID); err != nil {
		return nil, err
	}
	return s.reports.ListByReportedUser(ctx, userID)
}
