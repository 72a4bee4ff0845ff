package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/services"
	pkghttp "github.com/DevinHarlan/lotboard/pkg/http"
	"github.com/go-chi/chi/v5"
)

// InquiryServiceInterface defines the interface for inquiry business logic
type InquiryServiceInterface interface {
	Submit(ctx context.Context, propertyID string, input services.SubmitInquiryInput) (*models.Inquiry, error)
	List(ctx context.Context, actor access.Actor, propertyID string, limit, offset int) ([]*models.Inquiry, error)
	MarkResponded(ctx context.Context, actor access.Actor, id string) error
}

// InquiryHandler handles inquiry-related HTTP requests
type InquiryHandler struct {
	service  InquiryServiceInterface
	resolver *ActorResolver
}

// NewInquiryHandler creates a new InquiryHandler
func NewInquiryHandler(service InquiryServiceInterface, resolver *ActorResolver) *InquiryHandler {
	return &InquiryHandler{service: service, resolver: resolver}
}

// SubmitInquiryRequest represents the request body for a visitor inquiry
type SubmitInquiryRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=40"`
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// InquiryResponse represents an inquiry in the HTTP response
type InquiryResponse struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Message    string `json:"message"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// ListInquiriesResponse represents a page of inquiries
type ListInquiriesResponse struct {
	Inquiries []*InquiryResponse `json:"inquiries"`
	Total     int                `json:"total"`
}

func inquiryModelToResponse(i *models.Inquiry) *InquiryResponse {
	return &InquiryResponse{
		ID:         i.ID,
		PropertyID: i.PropertyID,
		Name:       i.Name,
		Email:      i.Email,
		Phone:      i.Phone,
		Message:    i.Message,
		Status:     string(i.Status),
		CreatedAt:  i.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// SubmitInquiry records a visitor inquiry against a listing
func (h *InquiryHandler) SubmitInquiry(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	if propertyID == "" {
		pkghttp.WriteBadRequest(w, "Property ID is required")
		return
	}

	var req SubmitInquiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	inquiry, err := h.service.Submit(r.Context(), propertyID, services.SubmitInquiryInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, inquiryModelToResponse(inquiry))
}

// ListInquiries returns inquiries visible to the caller
func (h *InquiryHandler) ListInquiries(w http.ResponseWriter, r *http.Request) {
	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	limit, offset := paginationParams(r, 50)
	propertyID := r.URL.Query().Get("property_id")

	inquiries, err := h.service.List(r.Context(), actor, propertyID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := ListInquiriesResponse{Inquiries: make([]*InquiryResponse, 0, len(inquiries)), Total: len(inquiries)}
	for _, inquiry := range inquiries {
		resp.Inquiries = append(resp.Inquiries, inquiryModelToResponse(inquiry))
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// MarkResponded flags an inquiry as handled
func (h *InquiryHandler) MarkResponded(w http.ResponseWriter, r *http.Request) {
	inquiryID := chi.URLParam(r, "id")
	if inquiryID == "" {
		pkghttp.WriteBadRequest(w, "Inquiry ID is required")
		return
	}

	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.service.MarkResponded(r.Context(), actor, inquiryID); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "responded"})
}
