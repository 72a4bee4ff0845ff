package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/services"
	pkghttp "github.com/DevinHarlan/lotboard/pkg/http"
	"github.com/go-chi/chi/v5"
)

// VerificationServiceInterface defines the interface for the verification workflow
type VerificationServiceInterface interface {
	Submit(ctx context.Context, actor access.Actor, input services.SubmitVerificationInput) (*models.VerificationRequest, error)
	Review(ctx context.Context, actor access.Actor, requestID string, input services.ReviewVerificationInput) (*models.VerificationRequest, error)
	Get(ctx context.Context, actor access.Actor, requestID string) (*models.VerificationRequest, error)
	GetForUser(ctx context.Context, actor access.Actor) (*models.VerificationRequest, error)
	List(ctx context.Context, actor access.Actor, status models.RequestStatus, limit, offset int) ([]*models.VerificationRequest, error)
}

// DocumentPresigner produces short-lived URLs for stored identity documents
type DocumentPresigner interface {
	PresignDocument(ctx context.Context, key string) (string, error)
}

// VerificationHandler handles verification workflow HTTP requests
type VerificationHandler struct {
	service   VerificationServiceInterface
	documents DocumentPresigner
	resolver  *ActorResolver
	logger    *slog.Logger
}

// NewVerificationHandler creates a new VerificationHandler
func NewVerificationHandler(service VerificationServiceInterface, documents DocumentPresigner, resolver *ActorResolver, logger *slog.Logger) *VerificationHandler {
	return &VerificationHandler{service: service, documents: documents, resolver: resolver, logger: logger}
}

// Request/Response DTOs

// SubmitVerificationRequest represents the request body for a submission.
// Document fields are object keys from the upload flow, not URLs.
type SubmitVerificationRequest struct {
	Phone                  string `json:"phone"`
	Address                string `json:"address"`
	IdentificationDocument string `json:"identification_document" validate:"required"`
	SelfieWithID           string `json:"selfie_with_id" validate:"required"`
}

// ReviewVerificationRequest represents an admin decision on a request
type ReviewVerificationRequest struct {
	Status         string `json:"status" validate:"required,oneof=approved rejected"`
	ExpectedStatus string `json:"expected_status" validate:"omitempty,oneof=pending approved rejected"`
	AdminNotes     string `json:"admin_notes" validate:"max=2000"`
}

// VerificationRequestResponse represents a request in the HTTP response.
// Document URLs are presigned and short-lived.
type VerificationRequestResponse struct {
	ID                        string  `json:"id"`
	UserID                    string  `json:"user_id"`
	UserName                  string  `json:"user_name"`
	UserEmail                 string  `json:"user_email"`
	Phone                     string  `json:"phone,omitempty"`
	Address                   string  `json:"address,omitempty"`
	IdentificationDocumentURL string  `json:"identification_document_url,omitempty"`
	SelfieWithIDURL           string  `json:"selfie_with_id_url,omitempty"`
	Status                    string  `json:"status"`
	AdminNotes                string  `json:"admin_notes,omitempty"`
	SubmittedAt               string  `json:"submitted_at"`
	ReviewedAt                *string `json:"reviewed_at,omitempty"`
	ReviewedBy                *string `json:"reviewed_by,omitempty"`
}

// ListVerificationRequestsResponse represents a page of requests
type ListVerificationRequestsResponse struct {
	Requests []*VerificationRequestResponse `json:"requests"`
	Total    int                            `json:"total"`
}

// requestModelToResponse converts a request to its HTTP representation,
// presigning the stored document keys. A presign failure degrades to a
// response without that URL rather than failing the whole read.
func (h *VerificationHandler) requestModelToResponse(ctx context.Context, r *models.VerificationRequest) *VerificationRequestResponse {
	resp := &VerificationRequestResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		UserName:    r.UserName,
		UserEmail:   r.UserEmail,
		Phone:       r.Phone,
		Address:     r.Address,
		Status:      string(r.Status),
		AdminNotes:  r.AdminNotes,
		SubmittedAt: r.SubmittedAt.Format("2006-01-02T15:04:05Z07:00"),
		ReviewedBy:  r.ReviewedBy,
	}
	if r.ReviewedAt != nil {
		reviewed := r.ReviewedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.ReviewedAt = &reviewed
	}

	resp.IdentificationDocumentURL = h.presign(ctx, r.ID, r.IdentificationDocument)
	resp.SelfieWithIDURL = h.presign(ctx, r.ID, r.SelfieWithID)

	return resp
}

func (h *VerificationHandler) presign(ctx context.Context, requestID, key string) string {
	if key == "" {
		return ""
	}
	url, err := h.documents.PresignDocument(ctx, key)
	if err != nil {
		h.logger.Error("failed to presign document",
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return ""
	}
	return url
}

// Submit creates or refreshes the caller's verification request
func (h *VerificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	saved, err := h.service.Submit(r.Context(), actor, services.SubmitVerificationInput{
		Phone:                  req.Phone,
		Address:                req.Address,
		IdentificationDocument: req.IdentificationDocument,
		SelfieWithID:           req.SelfieWithID,
	})
	if err != nil {
		var cascadeErr *models.CascadeError
		if errors.As(err, &cascadeErr) {
			writePartialSuccess(w, h.requestModelToResponse(r.Context(), saved), cascadeErr)
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, h.requestModelToResponse(r.Context(), saved))
}

// GetMine returns the caller's own verification request
func (h *VerificationHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	request, err := h.service.GetForUser(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, h.requestModelToResponse(r.Context(), request))
}

// GetRequest returns one verification request by ID
func (h *VerificationHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		pkghttp.WriteBadRequest(w, "Request ID is required")
		return
	}

	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	request, err := h.service.Get(r.Context(), actor, requestID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, h.requestModelToResponse(r.Context(), request))
}

// ListRequests returns verification requests for admin review
func (h *VerificationHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	limit, offset := paginationParams(r, 50)
	status := models.RequestStatus(r.URL.Query().Get("status"))

	requests, err := h.service.List(r.Context(), actor, status, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := ListVerificationRequestsResponse{
		Requests: make([]*VerificationRequestResponse, 0, len(requests)),
		Total:    len(requests),
	}
	for _, request := range requests {
		resp.Requests = append(resp.Requests, h.requestModelToResponse(r.Context(), request))
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Review applies an admin decision to a verification request
func (h *VerificationHandler) Review(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		pkghttp.WriteBadRequest(w, "Request ID is required")
		return
	}

	var req ReviewVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	reviewed, err := h.service.Review(r.Context(), actor, requestID, services.ReviewVerificationInput{
		ExpectedStatus: models.RequestStatus(req.ExpectedStatus),
		NewStatus:      models.RequestStatus(req.Status),
		AdminNotes:     req.AdminNotes,
	})
	if err != nil {
		var cascadeErr *models.CascadeError
		if errors.As(err, &cascadeErr) {
			// The review committed; only the user status cascade failed
			writePartialSuccess(w, h.requestModelToResponse(r.Context(), reviewed), cascadeErr)
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, h.requestModelToResponse(r.Context(), reviewed))
}
