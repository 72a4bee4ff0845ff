package services

import (
	"fmt"

	"github.com/DevinHarlan/lotboard/internal/models"
)

// emailMessage is a rendered notification ready for delivery
type emailMessage struct {
	Subject   string
	EmailType string
	HTMLBody  string
	TextBody  string
}

func emailHTML(title, greeting, body, note string) string {
	noteBlock := ""
	if note != "" {
		noteBlock = fmt.Sprintf(`<div class="note"><strong>Note from our team:</strong> %s</div>`, note)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .note { background-color: #fff3cd; padding: 10px; border-left: 4px solid #ffc107; margin: 10px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>%s</h1>
        </div>
        <div class="content">
            <p>%s</p>
            <p>%s</p>
            %s
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
            <p>If you have any questions, please contact our support team.</p>
        </div>
    </div>
</body>
</html>
`, title, greeting, body, noteBlock)
}

func emailText(title, greeting, body, note string) string {
	text := fmt.Sprintf("%s\n\n%s\n\n%s\n", title, greeting, body)
	if note != "" {
		text += fmt.Sprintf("\nNote from our team: %s\n", note)
	}
	text += "\nThis is an automated message. Please do not reply to this email.\n"
	return text
}

// verificationDecisionMessage renders the email sent to an applicant after
// an admin reviews their identity verification request.
func verificationDecisionMessage(name string, status models.RequestStatus, adminNotes string) emailMessage {
	greeting := fmt.Sprintf("Hello %s,", name)

	switch status {
	case models.RequestApproved:
		body := "Good news! Your identity verification has been approved. " +
			"You can now publish property listings on your account."
		return emailMessage{
			Subject:   "Your identity verification was approved",
			EmailType: models.EmailTypeVerificationApproved,
			HTMLBody:  emailHTML("Verification Approved", greeting, body, adminNotes),
			TextBody:  emailText("Verification Approved", greeting, body, adminNotes),
		}
	default:
		body := "Unfortunately we could not approve your identity verification at this time. " +
			"You can review the note below, update your documents and submit a new request."
		if adminNotes == "" {
			adminNotes = "No additional details were provided. Please double-check that your documents are clear and legible."
		}
		return emailMessage{
			Subject:   "Your identity verification was not approved",
			EmailType: models.EmailTypeVerificationRejected,
			HTMLBody:  emailHTML("Verification Rejected", greeting, body, adminNotes),
			TextBody:  emailText("Verification Rejected", greeting, body, adminNotes),
		}
	}
}

// verificationSubmittedMessage renders the email sent to each admin when a
// new identity verification request arrives.
func verificationSubmittedMessage(adminName, applicantName, applicantEmail string) emailMessage {
	greeting := fmt.Sprintf("Hello %s,", adminName)
	body := fmt.Sprintf("A new identity verification request from %s (%s) is waiting for review. "+
		"Please review the submitted documents in the admin dashboard.", applicantName, applicantEmail)

	return emailMessage{
		Subject:   "New identity verification request",
		EmailType: models.EmailTypeVerificationSubmitted,
		HTMLBody:  emailHTML("New Verification Request", greeting, body, ""),
		TextBody:  emailText("New Verification Request", greeting, body, ""),
	}
}

// propertyStatusMessage renders the email sent to a property owner when an
// admin changes their listing's status.
func propertyStatusMessage(ownerName, propertyTitle string, status models.PropertyStatus, adminNotes string) emailMessage {
	greeting := fmt.Sprintf("Hello %s,", ownerName)

	var subject, title, body string
	switch status {
	case models.PropertyApproved:
		subject = fmt.Sprintf("Your listing %q is now live", propertyTitle)
		title = "Listing Approved"
		body = fmt.Sprintf("Your property listing %q has been approved and is now visible to visitors.", propertyTitle)
	case models.PropertyRejected:
		subject = fmt.Sprintf("Your listing %q needs changes", propertyTitle)
		title = "Listing Rejected"
		body = fmt.Sprintf("Your property listing %q was not approved. "+
			"Please review the note below, make the requested changes and resubmit.", propertyTitle)
	case models.PropertyPending:
		subject = fmt.Sprintf("Your listing %q is back under review", propertyTitle)
		title = "Listing Under Review"
		body = fmt.Sprintf("Your property listing %q has been moved back to review and is no longer publicly visible. "+
			"We will notify you once a decision is made.", propertyTitle)
	case models.PropertySold:
		subject = fmt.Sprintf("Your listing %q was marked as sold", propertyTitle)
		title = "Listing Marked Sold"
		body = fmt.Sprintf("Your property listing %q has been marked as sold and removed from public listings.", propertyTitle)
	default:
		subject = fmt.Sprintf("Your listing %q status changed", propertyTitle)
		title = "Listing Status Changed"
		body = fmt.Sprintf("The status of your property listing %q has changed to %s.", propertyTitle, status)
	}

	return emailMessage{
		Subject:   subject,
		EmailType: models.EmailTypePropertyStatus,
		HTMLBody:  emailHTML(title, greeting, body, adminNotes),
		TextBody:  emailText(title, greeting, body, adminNotes),
	}
}
