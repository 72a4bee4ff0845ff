package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/DevinHarlan/lotboard/internal/models"
	pkglogger "github.com/DevinHarlan/lotboard/pkg/logger"
)

// EmailLogRepository defines the interface for email log persistence
type EmailLogRepository interface {
	Create(ctx context.Context, log *models.EmailLog) (*models.EmailLog, error)
}

// Notifier delivers workflow notification emails and records every attempt
// in the email log. Each send produces exactly one log row, sent or failed.
// Delivery errors are reported to the caller but must never be allowed to
// undo a committed status transition.
type Notifier struct {
	mailer       Mailer
	emailLogRepo EmailLogRepository
	sendTimeout  time.Duration
	logger       *slog.Logger
}

// NewNotifier creates a new Notifier
func NewNotifier(mailer Mailer, emailLogRepo EmailLogRepository, sendTimeout time.Duration, logger *slog.Logger) *Notifier {
	return &Notifier{
		mailer:       mailer,
		emailLogRepo: emailLogRepo,
		sendTimeout:  sendTimeout,
		logger:       logger,
	}
}

// NotifyVerificationDecision emails an applicant about the review outcome
func (n *Notifier) NotifyVerificationDecision(ctx context.Context, user *models.User, request *models.VerificationRequest) error {
	msg := verificationDecisionMessage(user.Name, request.Status, request.AdminNotes)
	return n.send(ctx, user.Email, msg)
}

// NotifyVerificationSubmitted emails one admin about a new pending request
func (n *Notifier) NotifyVerificationSubmitted(ctx context.Context, admin, applicant *models.User) error {
	msg := verificationSubmittedMessage(admin.Name, applicant.Name, applicant.Email)
	return n.send(ctx, admin.Email, msg)
}

// NotifyPropertyStatus emails a property owner about a moderation decision
func (n *Notifier) NotifyPropertyStatus(ctx context.Context, owner *models.User, property *models.Property) error {
	msg := propertyStatusMessage(owner.Name, property.Title, property.Status, property.AdminNotes)
	return n.send(ctx, owner.Email, msg)
}

func (n *Notifier) send(ctx context.Context, to string, msg emailMessage) error {
	sendCtx, cancel := context.WithTimeout(ctx, n.sendTimeout)
	defer cancel()

	sendErr := n.mailer.Send(sendCtx, to, msg.Subject, msg.HTMLBody, msg.TextBody)

	logRow := &models.EmailLog{
		Recipient: to,
		Subject:   msg.Subject,
		EmailType: msg.EmailType,
		Status:    models.EmailStatusSent,
	}
	if sendErr != nil {
		logRow.Status = models.EmailStatusFailed
		logRow.Error = sendErr.Error()
	}

	// The log write must survive request cancellation, otherwise a timed-out
	// send would leave no trace.
	logCtx, logCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer logCancel()

	if _, err := n.emailLogRepo.Create(logCtx, logRow); err != nil {
		n.logger.Error("failed to record email log",
			slog.String("email", pkglogger.SanitizedEmail(to)),
			slog.String("email_type", msg.EmailType),
			slog.Any("error", err))
	}

	return sendErr
}
