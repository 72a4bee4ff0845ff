package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/repositories"
)

// InquiryRepository defines the interface for inquiry data access
type InquiryRepository interface {
	Create(ctx context.Context, inquiry *models.Inquiry) (*models.Inquiry, error)
	List(ctx context.Context, filter repositories.InquiryFilter) ([]*models.Inquiry, error)
	Count(ctx context.Context, filter repositories.InquiryFilter) (int64, error)
	MarkResponded(ctx context.Context, id, ownerID string) error
}

// SubmitInquiryInput carries a visitor's message about a listing
type SubmitInquiryInput struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// InquiryService handles visitor inquiries on listings
type InquiryService struct {
	inquiries  InquiryRepository
	properties PropertyRepository
	logger     *slog.Logger
}

// NewInquiryService creates a new InquiryService
func NewInquiryService(inquiries InquiryRepository, properties PropertyRepository, logger *slog.Logger) *InquiryService {
	return &InquiryService{
		inquiries:  inquiries,
		properties: properties,
		logger:     logger,
	}
}

// Submit records a visitor inquiry against a publicly visible listing
func (s *InquiryService) Submit(ctx context.Context, propertyID string, input SubmitInquiryInput) (*models.Inquiry, error) {
	if input.Name == "" || input.Email == "" || input.Message == "" {
		return nil, models.ErrBadRequest
	}

	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get property for inquiry", slog.String("property_id", propertyID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Inquiries only make sense against listings visitors can see
	if !property.PubliclyVisible() {
		return nil, models.ErrNotFound
	}

	inquiry, err := s.inquiries.Create(ctx, &models.Inquiry{
		PropertyID: property.ID,
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Message:    input.Message,
	})
	if err != nil {
		s.logger.Error("failed to create inquiry", slog.String("property_id", propertyID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("inquiry submitted",
		slog.String("inquiry_id", inquiry.ID),
		slog.String("property_id", property.ID))

	return inquiry, nil
}

// List returns inquiries visible to the actor: all for admins, own-property
// inquiries for owners.
func (s *InquiryService) List(ctx context.Context, actor access.Actor, propertyID string, limit, offset int) ([]*models.Inquiry, error) {
	filter := repositories.InquiryFilter{
		PropertyID: propertyID,
		Limit:      limit,
		Offset:     offset,
	}

	decision := access.InquiryReadScope(actor)
	if decision.Denied() {
		if actor.ID == "" {
			return nil, models.ErrUnauthorized
		}
		return nil, models.ErrForbidden
	}
	if scope, ok := decision.Filter(); ok {
		filter.OwnerID = scope.OwnerID
	}

	inquiries, err := s.inquiries.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list inquiries", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return inquiries, nil
}

// MarkResponded flags an inquiry as handled. The actor must be able to see
// the inquiry through the same scope that governs listing.
func (s *InquiryService) MarkResponded(ctx context.Context, actor access.Actor, id string) error {
	decision := access.InquiryReadScope(actor)
	if decision.Denied() {
		if actor.ID == "" {
			return models.ErrUnauthorized
		}
		return models.ErrForbidden
	}

	ownerScope := ""
	if scope, ok := decision.Filter(); ok {
		ownerScope = scope.OwnerID
	}

	if err := s.inquiries.MarkResponded(ctx, id, ownerScope); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to mark inquiry responded", slog.String("inquiry_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}
