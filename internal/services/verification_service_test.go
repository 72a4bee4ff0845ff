package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminActor() access.Actor {
	return access.Actor{ID: "admin-1", Role: models.RoleAdmin}
}

func userActor(id string) access.Actor {
	return access.Actor{ID: id, Role: models.RoleUser, VerificationStatus: models.VerificationUnverified}
}

func newVerificationFixture() (*VerificationService, *MockVerificationRequestRepository, *MockUserRepository, *MockMailer, *MockEmailLogRepository) {
	requests := &MockVerificationRequestRepository{}
	users := &MockUserRepository{}
	mailer := &MockMailer{}
	logs := &MockEmailLogRepository{}
	svc := NewVerificationService(requests, users, newTestNotifier(mailer, logs), testLogger(), testAuditLogger())
	return svc, requests, users, mailer, logs
}

func TestVerificationService_Review_ApproveCascadesToVerified(t *testing.T) {
	svc, requests, users, mailer, logs := newVerificationFixture()

	user := NewTestUser("u1", "applicant@example.com", "Applicant")
	user.VerificationStatus = models.VerificationPending
	request := NewTestRequest("r1", "u1")

	requests.GetByIDFunc = func(ctx context.Context, id string) (*models.VerificationRequest, error) {
		return request, nil
	}
	requests.UpdateReviewFunc = func(ctx context.Context, id string, expected, newStatus models.RequestStatus, notes, reviewedBy string) (*models.VerificationRequest, error) {
		assert.Equal(t, models.RequestPending, expected)
		assert.Equal(t, "admin-1", reviewedBy)
		updated := *request
		updated.Status = newStatus
		updated.AdminNotes = notes
		return &updated, nil
	}
	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return user, nil
	}

	var cascadedStatus models.VerificationStatus
	users.SetVerificationStatusFunc = func(ctx context.Context, id string, status models.VerificationStatus) error {
		assert.Equal(t, "u1", id)
		cascadedStatus = status
		return nil
	}

	result, err := svc.Review(context.Background(), adminActor(), "r1", ReviewVerificationInput{NewStatus: models.RequestApproved})

	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, result.Status)
	assert.Equal(t, models.VerificationVerified, cascadedStatus)

	require.Len(t, logs.Created, 1)
	assert.Equal(t, "applicant@example.com", logs.Created[0].Recipient)
	assert.Equal(t, models.EmailStatusSent, logs.Created[0].Status)
	require.Len(t, mailer.Sent, 1)
}

func TestVerificationService_Review_RejectCascadesToRejected(t *testing.T) {
	svc, requests, users, mailer, logs := newVerificationFixture()

	user := NewTestUser("u1", "applicant@example.com", "Applicant")
	request := NewTestRequest("r1", "u1")

	requests.GetByIDFunc = func(ctx context.Context, id string) (*models.VerificationRequest, error) {
		return request, nil
	}
	requests.UpdateReviewFunc = func(ctx context.Context, id string, expected, newStatus models.RequestStatus, notes, reviewedBy string) (*models.VerificationRequest, error) {
		updated := *request
		updated.Status = newStatus
		updated.AdminNotes = notes
		return &updated, nil
	}
	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return user, nil
	}

	var cascadedStatus models.VerificationStatus
	users.SetVerificationStatusFunc = func(ctx context.Context, id string, status models.VerificationStatus) error {
		cascadedStatus = status
		return nil
	}

	_, err := svc.Review(context.Background(), adminActor(), "r1", ReviewVerificationInput{
		NewStatus:  models.RequestRejected,
		AdminNotes: "document unreadable",
	})

	require.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, cascadedStatus)

	// Rejection email carries the admin notes
	require.Len(t, mailer.Sent, 1)
	assert.Contains(t, mailer.Sent[0].TextBody, "document unreadable")
	require.Len(t, logs.Created, 1)
}

func TestVerificationService_Review_RejectWithoutNotesUsesFallback(t *testing.T) {
	svc, requests, users, mailer, _ := newVerificationFixture()

	request := NewTestRequest("r1", "u1")
	requests.GetByIDFunc = func(ctx context.Context, id string) (*models.VerificationRequest, error) {
		return request, nil
	}
	requests.UpdateReviewFunc = func(ctx context.Context, id string, expected, newStatus models.RequestStatus, notes, reviewedBy string) (*models.VerificationRequest, error) {
		updated := *request
		updated.Status = newStatus
		return &updated, nil
	}
	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return NewTestUser("u1", "applicant@example.com", "Applicant"), nil
	}

	_, err := svc.Review(context.Background(), adminActor(), "r1", ReviewVerificationInput{NewStatus: models.RequestRejected})

	require.NoError(t, err)
	require.Len(t, mailer.Sent, 1)
	assert.Contains(t, mailer.Sent[0].TextBody, "No additional details were provided")
}

func TestVerificationService_Review_SameStatusIsSideEffectFree(t *testing.T) {
	svc, requests, users, mailer, logs := newVerificationFixture()

	request := NewTestRequest("r1", "u1")
	request.Status = models.RequestApproved

	requests.GetByIDFunc = func(ctx context.Context, id string) (*models.VerificationRequest, error) {
		return request, nil
	}
	requests.UpdateReviewFunc = func(ctx context.Context, id string, expected, newStatus models.RequestStatus, notes, reviewedBy string) (*models.VerificationRequest, error) {
		t.Fatal("no update must happen on a same-status review")
		return nil, nil
	}
	users.SetVerificationStatusFunc = func(ctx context.Context, id string, status models.VerificationStatus) error {
		t.Fatal("no cascade must happen on a same-status review")
		return nil
	}

	result, err := svc.Review(context.Background(), adminActor(), "r1", ReviewVerificationInput{NewStatus: models.RequestApproved})

	require.NoError(t, err)
	assert.Equal(t, request, result)
	assert.Empty(t, mailer.Sent)
	assert.Empty(t, logs.Created)
}

func TestVerificationService_Review_NonAdminForbidden(t *testing.T) {
	svc, requests, _, _, _ := newVerificationFixture()

	requests.GetByIDFunc = func(ctx context.Context, id string) (*models.VerificationRequest, error) {
		t.Fatal("no read must happen before the policy gate")
		return nil, nil
	}

	_, err := svc.Review(context.Background(), userActor("u1"), "r1", ReviewVerificationInput{NewStatus: models.RequestApproved})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.Review(context.Background(), access.Anonymous(), "r1", ReviewVerificationInput{NewStatus: models.RequestApproved})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestVerificationService_Review_ReviewedRequestCannotBeFlipped(t *testing.T) {
	svc, requests, _, _, _ := newVerificationFixture()

	request := NewTestRequest("r1", "u1")
	request.Status = models.RequestApproved
	requests.GetByIDFunc = func(ctx context.Context, id string) (*models.VerificationRequest, error) {
		return request, nil
	}

	_, err := svc.Review(context.Background(), adminActor(), "r1", ReviewVerificationInput{NewStatus: models.RequestRejected})
	assert.ErrorIs(t, err, models.ErrInvalidStatus)
}

func TestVerificationService_Review_ConcurrentReviewSurfacesConflict(t *testing.T) {
	svc, requests, _, _, _ := newVerificationFixture()

	request := NewTestRequest("r1", "u1")
	requests.GetByIDFunc = func(ctx context.Context, id string) (*models.VerificationRequest, error) {
		return request, nil
	}
	requests.UpdateReviewFunc = func(ctx context.Context, id string, expected, newStatus models.RequestStatus, notes, reviewedBy string) (*models.VerificationRequest, error) {
		return nil, models.ErrStatusChanged
	}

	_, err := svc.Review(context.Background(), adminActor(), "r1", ReviewVerificationInput{NewStatus: models.RequestApproved})
	assert.ErrorIs(t, err, models.ErrStatusChanged)
}

func TestVerificationService_Review_CascadeFailureReportedAsPartial(t *testing.T) {
	svc, requests, users, _, _ := newVerificationFixture()

	request := NewTestRequest("r1", "u1")
	requests.GetByIDFunc = func(ctx context.Context, id string) (*models.VerificationRequest, error) {
		return request, nil
	}
	requests.UpdateReviewFunc = func(ctx context.Context, id string, expected, newStatus models.RequestStatus, notes, reviewedBy string) (*models.VerificationRequest, error) {
		updated := *request
		updated.Status = newStatus
		return &updated, nil
	}
	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return NewTestUser("u1", "applicant@example.com", "Applicant"), nil
	}
	users.SetVerificationStatusFunc = func(ctx context.Context, id string, status models.VerificationStatus) error {
		return errors.New("connection reset")
	}

	result, err := svc.Review(context.Background(), adminActor(), "r1", ReviewVerificationInput{NewStatus: models.RequestApproved})

	// The primary write committed, so the request comes back with the error
	require.NotNil(t, result)
	assert.Equal(t, models.RequestApproved, result.Status)

	var cascadeErr *models.CascadeError
	require.ErrorAs(t, err, &cascadeErr)
	assert.Equal(t, "user", cascadeErr.Entity)
	assert.Equal(t, "u1", cascadeErr.ID)
}

func TestVerificationService_Review_NotificationFailureDoesNotFailRequest(t *testing.T) {
	svc, requests, users, mailer, logs := newVerificationFixture()

	request := NewTestRequest("r1", "u1")
	requests.GetByIDFunc = func(ctx context.Context, id string) (*models.VerificationRequest, error) {
		return request, nil
	}
	requests.UpdateReviewFunc = func(ctx context.Context, id string, expected, newStatus models.RequestStatus, notes, reviewedBy string) (*models.VerificationRequest, error) {
		updated := *request
		updated.Status = newStatus
		return &updated, nil
	}
	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return NewTestUser("u1", "applicant@example.com", "Applicant"), nil
	}
	mailer.SendFunc = func(ctx context.Context, to, subject, htmlBody, textBody string) error {
		return errors.New("smtp unreachable")
	}

	_, err := svc.Review(context.Background(), adminActor(), "r1", ReviewVerificationInput{NewStatus: models.RequestApproved})

	require.NoError(t, err)
	require.Len(t, logs.Created, 1)
	assert.Equal(t, models.EmailStatusFailed, logs.Created[0].Status)
	assert.Contains(t, logs.Created[0].Error, "smtp unreachable")
}

func TestVerificationService_Submit_UpsertsAndNotifiesAdmins(t *testing.T) {
	svc, requests, users, mailer, logs := newVerificationFixture()

	user := NewTestUser("u1", "applicant@example.com", "Applicant")
	user.VerificationStatus = models.VerificationUnverified

	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return user, nil
	}
	users.ListAdminsFunc = func(ctx context.Context) ([]*models.User, error) {
		return []*models.User{
			NewTestAdmin("a1", "admin1@example.com", "Admin One"),
			NewTestAdmin("a2", "admin2@example.com", "Admin Two"),
		}, nil
	}

	var upserted *models.VerificationRequest
	requests.UpsertFunc = func(ctx context.Context, request *models.VerificationRequest) (*models.VerificationRequest, error) {
		upserted = request
		saved := *request
		saved.ID = "r1"
		saved.Status = models.RequestPending
		return &saved, nil
	}

	var pendingSet bool
	users.SetVerificationStatusFunc = func(ctx context.Context, id string, status models.VerificationStatus) error {
		pendingSet = status == models.VerificationPending
		return nil
	}

	result, err := svc.Submit(context.Background(), userActor("u1"), SubmitVerificationInput{
		Phone:                  "555-0100",
		Address:                "1 Test St",
		IdentificationDocument: "docs/id.jpg",
		SelfieWithID:           "docs/selfie.jpg",
	})

	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, result.Status)
	assert.Equal(t, "u1", upserted.UserID)
	assert.True(t, pendingSet)

	// One notice per admin, one log row per notice
	assert.Len(t, mailer.Sent, 2)
	assert.Len(t, logs.Created, 2)
}

func TestVerificationService_Submit_PendingResubmissionRefreshesWithoutReNotifying(t *testing.T) {
	svc, requests, users, mailer, logs := newVerificationFixture()

	user := NewTestUser("u1", "applicant@example.com", "Applicant")
	user.VerificationStatus = models.VerificationPending

	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return user, nil
	}
	users.ListAdminsFunc = func(ctx context.Context) ([]*models.User, error) {
		t.Fatal("no admin fan-out when the request was already pending")
		return nil, nil
	}
	users.SetVerificationStatusFunc = func(ctx context.Context, id string, status models.VerificationStatus) error {
		t.Fatal("no cascade when the request was already pending")
		return nil
	}

	existing := NewTestRequest("r1", "u1")
	requests.GetByUserIDFunc = func(ctx context.Context, userID string) (*models.VerificationRequest, error) {
		return existing, nil
	}
	requests.UpsertFunc = func(ctx context.Context, request *models.VerificationRequest) (*models.VerificationRequest, error) {
		saved := *request
		saved.ID = "r1"
		saved.Status = models.RequestPending
		return &saved, nil
	}

	result, err := svc.Submit(context.Background(), userActor("u1"), SubmitVerificationInput{
		IdentificationDocument: "docs/id-v2.jpg",
		SelfieWithID:           "docs/selfie-v2.jpg",
	})

	require.NoError(t, err)
	assert.Equal(t, "docs/id-v2.jpg", result.IdentificationDocument)
	assert.Empty(t, mailer.Sent)
	assert.Empty(t, logs.Created)
}

func TestVerificationService_Submit_ResubmissionAfterRejectionNotifiesAdmins(t *testing.T) {
	svc, requests, users, mailer, logs := newVerificationFixture()

	user := NewTestUser("u1", "applicant@example.com", "Applicant")
	user.VerificationStatus = models.VerificationRejected

	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return user, nil
	}
	users.ListAdminsFunc = func(ctx context.Context) ([]*models.User, error) {
		return []*models.User{NewTestAdmin("a1", "admin1@example.com", "Admin One")}, nil
	}

	rejected := NewTestRequest("r1", "u1")
	rejected.Status = models.RequestRejected
	requests.GetByUserIDFunc = func(ctx context.Context, userID string) (*models.VerificationRequest, error) {
		return rejected, nil
	}
	requests.UpsertFunc = func(ctx context.Context, request *models.VerificationRequest) (*models.VerificationRequest, error) {
		saved := *request
		saved.ID = "r1"
		saved.Status = models.RequestPending
		return &saved, nil
	}

	var cascadedStatus models.VerificationStatus
	users.SetVerificationStatusFunc = func(ctx context.Context, id string, status models.VerificationStatus) error {
		cascadedStatus = status
		return nil
	}

	_, err := svc.Submit(context.Background(), userActor("u1"), SubmitVerificationInput{
		IdentificationDocument: "docs/id-v2.jpg",
		SelfieWithID:           "docs/selfie-v2.jpg",
	})

	require.NoError(t, err)
	assert.Equal(t, models.VerificationPending, cascadedStatus)
	require.Len(t, mailer.Sent, 1)
	require.Len(t, logs.Created, 1)
}

func TestVerificationService_Submit_OneFailedAdminNoticeDoesNotBlockOthers(t *testing.T) {
	svc, requests, users, mailer, logs := newVerificationFixture()

	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		u := NewTestUser("u1", "applicant@example.com", "Applicant")
		u.VerificationStatus = models.VerificationUnverified
		return u, nil
	}
	users.ListAdminsFunc = func(ctx context.Context) ([]*models.User, error) {
		return []*models.User{
			NewTestAdmin("a1", "admin1@example.com", "Admin One"),
			NewTestAdmin("a2", "admin2@example.com", "Admin Two"),
			NewTestAdmin("a3", "admin3@example.com", "Admin Three"),
		}, nil
	}
	requests.UpsertFunc = func(ctx context.Context, request *models.VerificationRequest) (*models.VerificationRequest, error) {
		saved := *request
		saved.ID = "r1"
		saved.Status = models.RequestPending
		return &saved, nil
	}

	var mu sync.Mutex
	mailer.SendFunc = func(ctx context.Context, to, subject, htmlBody, textBody string) error {
		mu.Lock()
		defer mu.Unlock()
		if to == "admin2@example.com" {
			return errors.New("mailbox full")
		}
		return nil
	}

	_, err := svc.Submit(context.Background(), userActor("u1"), SubmitVerificationInput{
		IdentificationDocument: "docs/id.jpg",
		SelfieWithID:           "docs/selfie.jpg",
	})

	require.NoError(t, err)
	require.Len(t, logs.Created, 3)

	failed := 0
	for _, row := range logs.Created {
		if row.Status == models.EmailStatusFailed {
			failed++
			assert.Equal(t, "admin2@example.com", row.Recipient)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestVerificationService_Submit_AlreadyVerifiedConflicts(t *testing.T) {
	svc, requests, users, _, _ := newVerificationFixture()

	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return NewTestUser("u1", "applicant@example.com", "Applicant"), nil
	}
	requests.UpsertFunc = func(ctx context.Context, request *models.VerificationRequest) (*models.VerificationRequest, error) {
		t.Fatal("verified users must not reach the upsert")
		return nil, nil
	}

	_, err := svc.Submit(context.Background(), userActor("u1"), SubmitVerificationInput{
		IdentificationDocument: "docs/id.jpg",
		SelfieWithID:           "docs/selfie.jpg",
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestVerificationService_Submit_RequiresDocuments(t *testing.T) {
	svc, _, _, _, _ := newVerificationFixture()

	_, err := svc.Submit(context.Background(), userActor("u1"), SubmitVerificationInput{Phone: "555-0100"})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestVerificationService_Get_SubjectAndAdminOnly(t *testing.T) {
	svc, requests, _, _, _ := newVerificationFixture()

	request := NewTestRequest("r1", "u1")
	requests.GetByIDFunc = func(ctx context.Context, id string) (*models.VerificationRequest, error) {
		return request, nil
	}

	_, err := svc.Get(context.Background(), adminActor(), "r1")
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), userActor("u1"), "r1")
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), userActor("u2"), "r1")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestVerificationService_List_AdminOnly(t *testing.T) {
	svc, requests, _, _, _ := newVerificationFixture()

	requests.ListFunc = func(ctx context.Context, status models.RequestStatus, limit, offset int) ([]*models.VerificationRequest, error) {
		assert.Equal(t, models.RequestPending, status)
		return []*models.VerificationRequest{NewTestRequest("r1", "u1")}, nil
	}

	result, err := svc.List(context.Background(), adminActor(), models.RequestPending, 20, 0)
	require.NoError(t, err)
	assert.Len(t, result, 1)

	_, err = svc.List(context.Background(), userActor("u1"), "", 20, 0)
	assert.ErrorIs(t, err, models.ErrForbidden)
}
