package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/models"
	pkglogger "github.com/DevinHarlan/lotboard/pkg/logger"
)

// UpdateUserInput carries a partial user update. Nil fields are untouched.
// Role and verification status are admin-only fields; the access policy
// rejects them on self-service updates.
type UpdateUserInput struct {
	Name               *string
	Phone              *string
	Address            *string
	Role               *string
	VerificationStatus *string
}

// UserService handles user business logic
type UserService struct {
	repo        UserRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Get retrieves a user, visible to admins and the user themselves
func (s *UserService) Get(ctx context.Context, actor access.Actor, id string) (*models.User, error) {
	if !access.CanUpdateUser(actor, id) {
		if actor.ID == "" {
			return nil, models.ErrUnauthorized
		}
		return nil, models.ErrForbidden
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

// List retrieves users with pagination, admin only
func (s *UserService) List(ctx context.Context, actor access.Actor, limit, offset int) ([]*models.User, error) {
	if !actor.IsAdmin() {
		if actor.ID == "" {
			return nil, models.ErrUnauthorized
		}
		return nil, models.ErrForbidden
	}

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Int("limit", limit), slog.Int("offset", offset), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return users, nil
}

// Update applies a partial update to a user record. Every supplied field is
// checked against the field-level policy before anything is written, so a
// self-service PATCH carrying role or verification_status fails whole.
func (s *UserService) Update(ctx context.Context, actor access.Actor, id string, input UpdateUserInput) (*models.User, error) {
	if !access.CanUpdateUser(actor, id) {
		if actor.ID == "" {
			return nil, models.ErrUnauthorized
		}
		return nil, models.ErrForbidden
	}

	if input.Role != nil && !access.CanWriteUserField(actor, "role") {
		s.logger.Warn("blocked role write on self-update", slog.String("actor_id", actor.ID))
		return nil, models.ErrForbidden
	}
	if input.VerificationStatus != nil && !access.CanWriteUserField(actor, "verification_status") {
		s.logger.Warn("blocked verification_status write on self-update", slog.String("actor_id", actor.ID))
		return nil, models.ErrForbidden
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if input.Name != nil && *input.Name != "" {
		existing.Name = *input.Name
	}
	if input.Phone != nil {
		existing.Phone = *input.Phone
	}
	if input.Address != nil {
		existing.Address = *input.Address
	}
	if input.Role != nil {
		if *input.Role != models.RoleUser && *input.Role != models.RoleAdmin {
			return nil, models.ErrBadRequest
		}
		existing.Role = *input.Role
	}
	if input.VerificationStatus != nil {
		status := models.VerificationStatus(*input.VerificationStatus)
		if !status.Valid() {
			return nil, models.ErrBadRequest
		}
		existing.VerificationStatus = status
	}

	updated, err := s.repo.Update(ctx, id, existing)
	if err != nil {
		s.logger.Error("failed to update user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if input.Role != nil || input.VerificationStatus != nil {
		fields := map[string]string{}
		if input.Role != nil {
			fields["role"] = updated.Role
		}
		if input.VerificationStatus != nil {
			fields["verification_status"] = string(updated.VerificationStatus)
		}
		s.auditLogger.LogAccountAction(actor.ID, id, "protected_field_update", fields)
	}

	s.logger.Info("user updated",
		slog.String("user_id", id),
		slog.String("actor_id", actor.ID))

	return updated, nil
}
