package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/models"
	pkglogger "github.com/DevinHarlan/lotboard/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	ListAdmins(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
	SetVerificationStatus(ctx context.Context, id string, status models.VerificationStatus) error
	Delete(ctx context.Context, id string) error
}

// VerificationRequestRepository defines the interface for verification request data access
type VerificationRequestRepository interface {
	GetByID(ctx context.Context, id string) (*models.VerificationRequest, error)
	GetByUserID(ctx context.Context, userID string) (*models.VerificationRequest, error)
	Upsert(ctx context.Context, request *models.VerificationRequest) (*models.VerificationRequest, error)
	UpdateReview(ctx context.Context, id string, expectedStatus, newStatus models.RequestStatus, adminNotes, reviewedBy string) (*models.VerificationRequest, error)
	List(ctx context.Context, status models.RequestStatus, limit, offset int) ([]*models.VerificationRequest, error)
	CountByStatus(ctx context.Context, status models.RequestStatus) (int64, error)
	Delete(ctx context.Context, id string) error
}

// VerificationNotifier is the subset of Notifier used by the verification workflow
type VerificationNotifier interface {
	NotifyVerificationDecision(ctx context.Context, user *models.User, request *models.VerificationRequest) error
	NotifyVerificationSubmitted(ctx context.Context, admin, applicant *models.User) error
}

// SubmitVerificationInput carries a user's identity submission
type SubmitVerificationInput struct {
	Phone                  string
	Address                string
	IdentificationDocument string
	SelfieWithID           string
}

// ReviewVerificationInput carries an admin decision on a request
type ReviewVerificationInput struct {
	ExpectedStatus models.RequestStatus // status the admin last saw
	NewStatus      models.RequestStatus
	AdminNotes     string
}

// VerificationService runs the identity verification workflow: submissions,
// admin review decisions and the user status cascade that follows them.
type VerificationService struct {
	requests    VerificationRequestRepository
	users       UserRepository
	notifier    VerificationNotifier
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewVerificationService creates a new VerificationService
func NewVerificationService(
	requests VerificationRequestRepository,
	users UserRepository,
	notifier VerificationNotifier,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *VerificationService {
	return &VerificationService{
		requests:    requests,
		users:       users,
		notifier:    notifier,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Submit creates or refreshes the actor's verification request. A user who
// already has a request gets it reset to pending instead of a duplicate row.
// The admin fan-out and the user status cascade fire only when the request
// actually enters pending: a resubmission over an already pending request
// refreshes the documents without re-notifying every admin. One failed admin
// email must not block the others.
func (s *VerificationService) Submit(ctx context.Context, actor access.Actor, input SubmitVerificationInput) (*models.VerificationRequest, error) {
	if actor.ID == "" {
		return nil, models.ErrUnauthorized
	}
	if input.IdentificationDocument == "" || input.SelfieWithID == "" {
		return nil, models.ErrBadRequest
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load user for submission", slog.String("user_id", actor.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.VerificationStatus == models.VerificationVerified {
		s.logger.Info("verification submission for already verified user", slog.String("user_id", user.ID))
		return nil, models.ErrConflict
	}

	priorPending := false
	if prior, err := s.requests.GetByUserID(ctx, user.ID); err == nil {
		priorPending = prior.Status == models.RequestPending
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to load prior verification request", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	request := &models.VerificationRequest{
		UserID:                 user.ID,
		UserName:               user.Name,
		UserEmail:              user.Email,
		Phone:                  input.Phone,
		Address:                input.Address,
		IdentificationDocument: input.IdentificationDocument,
		SelfieWithID:           input.SelfieWithID,
	}

	saved, err := s.requests.Upsert(ctx, request)
	if err != nil {
		s.logger.Error("failed to upsert verification request", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// The request was already pending: documents refreshed, nothing entered
	// pending, so no cascade and no admin fan-out
	if !priorPending {
		if err := s.users.SetVerificationStatus(ctx, user.ID, models.VerificationPending); err != nil {
			s.logger.Error("failed to mark user pending after submission",
				slog.String("user_id", user.ID), slog.Any("error", err))
			return saved, &models.CascadeError{Entity: "user", ID: user.ID, Err: err}
		}

		s.notifyAdmins(ctx, user)
	}

	s.logger.Info("verification request submitted",
		slog.String("request_id", saved.ID),
		slog.String("user_id", user.ID))

	return saved, nil
}

// notifyAdmins fans the submission notice out to every admin. Failures are
// isolated per admin and already land in the email log via the notifier.
func (s *VerificationService) notifyAdmins(ctx context.Context, applicant *models.User) {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		s.logger.Error("failed to list admins for submission notice", slog.Any("error", err))
		return
	}

	var wg sync.WaitGroup
	for _, admin := range admins {
		wg.Add(1)
		go func(admin *models.User) {
			defer wg.Done()
			if err := s.notifier.NotifyVerificationSubmitted(ctx, admin, applicant); err != nil {
				s.logger.Warn("admin submission notice failed",
					slog.String("admin_id", admin.ID),
					slog.Any("error", err))
			}
		}(admin)
	}
	wg.Wait()
}

// Review applies an admin decision to a verification request.
//
// The transition diffs against the status the request currently holds: a
// decision equal to the current status is a no-op with no cascade and no
// notification. The underlying update is a compare-and-swap against the
// status the admin last saw, so two admins racing on the same request cannot
// both win. On success the linked user's verification status is cascaded and
// the applicant is notified; a failed cascade is returned as a CascadeError
// alongside the committed request so callers can report partial success, and
// a failed notification is only logged.
func (s *VerificationService) Review(ctx context.Context, actor access.Actor, requestID string, input ReviewVerificationInput) (*models.VerificationRequest, error) {
	if !access.CanReviewVerification(actor) {
		if actor.ID == "" {
			return nil, models.ErrUnauthorized
		}
		return nil, models.ErrForbidden
	}

	if !input.NewStatus.Valid() || input.NewStatus == models.RequestPending {
		return nil, models.ErrBadRequest
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load verification request", slog.String("request_id", requestID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Same-status decision is idempotent: no mutation, no side effects
	if request.Status == input.NewStatus {
		return request, nil
	}

	if request.Status != models.RequestPending {
		return nil, models.ErrInvalidStatus
	}

	expected := input.ExpectedStatus
	if expected == "" {
		expected = request.Status
	}

	updated, err := s.requests.UpdateReview(ctx, requestID, expected, input.NewStatus, input.AdminNotes, actor.ID)
	if err != nil {
		if errors.Is(err, models.ErrStatusChanged) {
			s.logger.Info("concurrent review detected", slog.String("request_id", requestID))
			return nil, models.ErrStatusChanged
		}
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update verification request", slog.String("request_id", requestID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogVerificationDecision(actor.ID, updated.ID, updated.UserID, string(updated.Status))

	user, err := s.users.GetByID(ctx, updated.UserID)
	if err != nil {
		s.logger.Error("failed to load user for cascade",
			slog.String("request_id", updated.ID),
			slog.String("user_id", updated.UserID),
			slog.Any("error", err))
		return updated, &models.CascadeError{Entity: "user", ID: updated.UserID, Err: err}
	}

	if err := s.users.SetVerificationStatus(ctx, user.ID, updated.Status.UserStatusFor()); err != nil {
		s.logger.Error("verification status cascade failed",
			slog.String("request_id", updated.ID),
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return updated, &models.CascadeError{Entity: "user", ID: user.ID, Err: err}
	}

	if err := s.notifier.NotifyVerificationDecision(ctx, user, updated); err != nil {
		// Already recorded as failed in the email log
		s.logger.Warn("verification decision notification failed",
			slog.String("request_id", updated.ID),
			slog.Any("error", err))
	}

	s.logger.Info("verification request reviewed",
		slog.String("request_id", updated.ID),
		slog.String("status", string(updated.Status)),
		slog.String("reviewed_by", actor.ID))

	return updated, nil
}

// Get returns a single request, visible to admins and the owning user
func (s *VerificationService) Get(ctx context.Context, actor access.Actor, requestID string) (*models.VerificationRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load verification request", slog.String("request_id", requestID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !access.CanReadVerificationRequest(actor, request) {
		if actor.ID == "" {
			return nil, models.ErrUnauthorized
		}
		return nil, models.ErrForbidden
	}

	return request, nil
}

// GetForUser returns the actor's own request, if any
func (s *VerificationService) GetForUser(ctx context.Context, actor access.Actor) (*models.VerificationRequest, error) {
	if actor.ID == "" {
		return nil, models.ErrUnauthorized
	}

	request, err := s.requests.GetByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load verification request", slog.String("user_id", actor.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return request, nil
}

// List returns requests for admin review, optionally filtered by status
func (s *VerificationService) List(ctx context.Context, actor access.Actor, status models.RequestStatus, limit, offset int) ([]*models.VerificationRequest, error) {
	if !access.CanReviewVerification(actor) {
		if actor.ID == "" {
			return nil, models.ErrUnauthorized
		}
		return nil, models.ErrForbidden
	}

	if status != "" && !status.Valid() {
		return nil, models.ErrBadRequest
	}

	requests, err := s.requests.List(ctx, status, limit, offset)
	if err != nil {
		s.logger.Error("failed to list verification requests", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return requests, nil
}
