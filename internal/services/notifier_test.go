package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_SuccessfulSendLogsOneSentRow(t *testing.T) {
	mailer := &MockMailer{}
	logs := &MockEmailLogRepository{}
	notifier := newTestNotifier(mailer, logs)

	user := NewTestUser("u1", "applicant@example.com", "Applicant")
	request := NewTestRequest("r1", "u1")
	request.Status = models.RequestApproved

	err := notifier.NotifyVerificationDecision(context.Background(), user, request)

	require.NoError(t, err)
	require.Len(t, logs.Created, 1)
	row := logs.Created[0]
	assert.Equal(t, "applicant@example.com", row.Recipient)
	assert.Equal(t, models.EmailTypeVerificationApproved, row.EmailType)
	assert.Equal(t, models.EmailStatusSent, row.Status)
	assert.Empty(t, row.Error)
}

func TestNotifier_FailedSendLogsOneFailedRow(t *testing.T) {
	mailer := &MockMailer{}
	logs := &MockEmailLogRepository{}
	notifier := newTestNotifier(mailer, logs)

	mailer.SendFunc = func(ctx context.Context, to, subject, htmlBody, textBody string) error {
		return errors.New("ses: throttled")
	}

	owner := NewTestUser("u1", "owner@example.com", "Owner")
	property := NewTestProperty("p1", "u1")
	property.Status = models.PropertyApproved

	err := notifier.NotifyPropertyStatus(context.Background(), owner, property)

	require.Error(t, err)
	require.Len(t, logs.Created, 1)
	row := logs.Created[0]
	assert.Equal(t, models.EmailStatusFailed, row.Status)
	assert.Equal(t, "ses: throttled", row.Error)
}

func TestNotifier_SendTimeoutStillLeavesFailedRow(t *testing.T) {
	mailer := &MockMailer{}
	logs := &MockEmailLogRepository{}
	notifier := NewNotifier(mailer, logs, 10*time.Millisecond, testLogger())

	mailer.SendFunc = func(ctx context.Context, to, subject, htmlBody, textBody string) error {
		<-ctx.Done()
		return ctx.Err()
	}

	var logCtxErr error
	logs.CreateFunc = func(ctx context.Context, log *models.EmailLog) (*models.EmailLog, error) {
		logCtxErr = ctx.Err()
		return log, nil
	}

	user := NewTestUser("u1", "applicant@example.com", "Applicant")
	request := NewTestRequest("r1", "u1")
	request.Status = models.RequestRejected

	err := notifier.NotifyVerificationDecision(context.Background(), user, request)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, logs.Created, 1)
	assert.Equal(t, models.EmailStatusFailed, logs.Created[0].Status)
	// The log write runs on a live context even after the send deadline fired
	assert.NoError(t, logCtxErr)
}

func TestNotifier_LogWriteFailureDoesNotMaskSendResult(t *testing.T) {
	mailer := &MockMailer{}
	logs := &MockEmailLogRepository{}
	notifier := newTestNotifier(mailer, logs)

	logs.CreateFunc = func(ctx context.Context, log *models.EmailLog) (*models.EmailLog, error) {
		return nil, errors.New("db down")
	}

	admin := NewTestAdmin("a1", "admin@example.com", "Admin")
	applicant := NewTestUser("u1", "applicant@example.com", "Applicant")

	err := notifier.NotifyVerificationSubmitted(context.Background(), admin, applicant)
	assert.NoError(t, err)
	require.Len(t, mailer.Sent, 1)
	assert.Equal(t, "admin@example.com", mailer.Sent[0].To)
}

func TestEmailTemplates_StatusSpecificContent(t *testing.T) {
	approved := verificationDecisionMessage("Applicant", models.RequestApproved, "")
	assert.Equal(t, models.EmailTypeVerificationApproved, approved.EmailType)
	assert.Contains(t, approved.TextBody, "Applicant")

	rejected := verificationDecisionMessage("Applicant", models.RequestRejected, "blurry scan")
	assert.Equal(t, models.EmailTypeVerificationRejected, rejected.EmailType)
	assert.Contains(t, rejected.TextBody, "blurry scan")
	assert.Contains(t, rejected.HTMLBody, "blurry scan")

	sold := propertyStatusMessage("Owner", "Sunny Three Bedroom", models.PropertySold, "")
	assert.Contains(t, sold.TextBody, "Sunny Three Bedroom")
	assert.NotEqual(t, sold.Subject, propertyStatusMessage("Owner", "Sunny Three Bedroom", models.PropertyApproved, "").Subject)
}
