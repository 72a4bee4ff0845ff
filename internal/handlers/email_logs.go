package handlers

import (
	"context"
	"net/http"

	"github.com/DevinHarlan/lotboard/internal/models"
	pkghttp "github.com/DevinHarlan/lotboard/pkg/http"
)

// EmailLogLister reads the notification delivery log
type EmailLogLister interface {
	List(ctx context.Context, limit, offset int) ([]*models.EmailLog, error)
}

// EmailLogHandler exposes the delivery log to admins. The route is mounted
// behind the admin role middleware, so there is no per-request gate here.
type EmailLogHandler struct {
	logs EmailLogLister
}

// NewEmailLogHandler creates a new EmailLogHandler
func NewEmailLogHandler(logs EmailLogLister) *EmailLogHandler {
	return &EmailLogHandler{logs: logs}
}

// EmailLogResponse represents a delivery log row in the HTTP response
type EmailLogResponse struct {
	ID        string `json:"id"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	EmailType string `json:"email_type"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListEmailLogsResponse represents a page of delivery log rows
type ListEmailLogsResponse struct {
	Logs  []*EmailLogResponse `json:"logs"`
	Total int                 `json:"total"`
}

// ListEmailLogs returns recent notification delivery attempts
func (h *EmailLogHandler) ListEmailLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 50)

	logs, err := h.logs.List(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to read email logs")
		return
	}

	resp := ListEmailLogsResponse{Logs: make([]*EmailLogResponse, 0, len(logs)), Total: len(logs)}
	for _, l := range logs {
		resp.Logs = append(resp.Logs, &EmailLogResponse{
			ID:        l.ID,
			Recipient: l.Recipient,
			Subject:   l.Subject,
			EmailType: l.EmailType,
			Status:    l.Status,
			Error:     l.Error,
			CreatedAt: l.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
