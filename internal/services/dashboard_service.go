package services

import (
	"context"
	"log/slog"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/repositories"
)

// DashboardStats summarizes activity for the dashboard. Admin stats cover
// the whole board plus the moderation queues; owner stats are scoped to the
// caller's own listings.
type DashboardStats struct {
	TotalProperties      int64 `json:"total_properties"`
	ApprovedProperties   int64 `json:"approved_properties"`
	PendingProperties    int64 `json:"pending_properties"`
	TotalInquiries       int64 `json:"total_inquiries"`
	PendingInquiries     int64 `json:"pending_inquiries"`
	PendingVerifications int64 `json:"pending_verifications,omitempty"`
}

// DashboardService aggregates counts for the owner and admin dashboards
type DashboardService struct {
	properties PropertyRepository
	inquiries  InquiryRepository
	requests   VerificationRequestRepository
	logger     *slog.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	properties PropertyRepository,
	inquiries InquiryRepository,
	requests VerificationRequestRepository,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		properties: properties,
		inquiries:  inquiries,
		requests:   requests,
		logger:     logger,
	}
}

// Stats returns dashboard counts scoped to the actor
func (s *DashboardService) Stats(ctx context.Context, actor access.Actor) (*DashboardStats, error) {
	if actor.ID == "" {
		return nil, models.ErrUnauthorized
	}

	ownerID := ""
	if !actor.IsAdmin() {
		ownerID = actor.ID
	}

	stats := &DashboardStats{}

	var err error
	if stats.TotalProperties, err = s.properties.Count(ctx, repositories.PropertyFilter{OwnerID: ownerID}); err != nil {
		return nil, s.statsError("total properties", err)
	}
	if stats.ApprovedProperties, err = s.properties.Count(ctx, repositories.PropertyFilter{OwnerID: ownerID, Status: models.PropertyApproved}); err != nil {
		return nil, s.statsError("approved properties", err)
	}
	if stats.PendingProperties, err = s.properties.Count(ctx, repositories.PropertyFilter{OwnerID: ownerID, Status: models.PropertyPending}); err != nil {
		return nil, s.statsError("pending properties", err)
	}
	if stats.TotalInquiries, err = s.inquiries.Count(ctx, repositories.InquiryFilter{OwnerID: ownerID}); err != nil {
		return nil, s.statsError("total inquiries", err)
	}
	if stats.PendingInquiries, err = s.inquiries.Count(ctx, repositories.InquiryFilter{OwnerID: ownerID, Status: models.InquiryPending}); err != nil {
		return nil, s.statsError("pending inquiries", err)
	}

	if actor.IsAdmin() {
		if stats.PendingVerifications, err = s.requests.CountByStatus(ctx, models.RequestPending); err != nil {
			return nil, s.statsError("pending verifications", err)
		}
	}

	return stats, nil
}

func (s *DashboardService) statsError(what string, err error) error {
	s.logger.Error("failed to count "+what, slog.Any("error", err))
	return models.ErrInternalServer
}
