package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/services"
	pkghttp "github.com/DevinHarlan/lotboard/pkg/http"
	"github.com/go-chi/chi/v5"
)

// PropertyServiceInterface defines the interface for listing business logic
type PropertyServiceInterface interface {
	Create(ctx context.Context, actor access.Actor, property *models.Property) (*models.Property, error)
	Get(ctx context.Context, actor access.Actor, id string) (*models.Property, error)
	GetBySlug(ctx context.Context, actor access.Actor, slug string) (*models.Property, error)
	List(ctx context.Context, actor access.Actor, opts services.PropertyListOptions) ([]*models.Property, error)
	Update(ctx context.Context, actor access.Actor, id string, updates *models.Property) (*models.Property, error)
	Delete(ctx context.Context, actor access.Actor, id string) error
}

// ModerationServiceInterface defines the interface for moderation decisions
type ModerationServiceInterface interface {
	Transition(ctx context.Context, actor access.Actor, previous *models.Property, input services.ModeratePropertyInput) (*models.Property, error)
	ResendStatusNotification(ctx context.Context, actor access.Actor, propertyID string) error
}

// PropertyHandler handles listing-related HTTP requests
type PropertyHandler struct {
	service    PropertyServiceInterface
	moderation ModerationServiceInterface
	resolver   *ActorResolver
}

// NewPropertyHandler creates a new PropertyHandler
func NewPropertyHandler(service PropertyServiceInterface, moderation ModerationServiceInterface, resolver *ActorResolver) *PropertyHandler {
	return &PropertyHandler{service: service, moderation: moderation, resolver: resolver}
}

// Request/Response DTOs

// PropertyRequest represents the request body for creating or updating a listing
type PropertyRequest struct {
	Title        string          `json:"title" validate:"required,min=3,max=200"`
	Description  string          `json:"description"`
	PropertyType string          `json:"property_type" validate:"required,oneof=land residential commercial industrial"`
	ListingType  string          `json:"listing_type" validate:"required,oneof=sale rent"`
	Price        float64         `json:"price" validate:"required,gt=0"`
	Area         float64         `json:"area" validate:"omitempty,gt=0"`
	Neighborhood string          `json:"neighborhood"`
	Address      string          `json:"address"`
	Latitude     float64         `json:"latitude"`
	Longitude    float64         `json:"longitude"`
	Images       []string        `json:"images"`
	Amenities    []string        `json:"amenities"`
	Features     models.Features `json:"features"`
	ContactPhone string          `json:"contact_phone"`
	ContactEmail string          `json:"contact_email" validate:"omitempty,email"`
}

// ModeratePropertyRequest represents an admin status decision on a listing.
// ExpectedStatus is the status the admin last saw; a mismatch at write time
// means another admin got there first.
type ModeratePropertyRequest struct {
	Status         string `json:"status" validate:"required,oneof=pending approved rejected sold"`
	ExpectedStatus string `json:"expected_status" validate:"omitempty,oneof=pending approved rejected sold"`
	AdminNotes     string `json:"admin_notes" validate:"max=2000"`
	Featured       *bool  `json:"featured"`
}

// PropertyResponse represents a listing in the HTTP response
type PropertyResponse struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	PropertyType string          `json:"property_type"`
	ListingType  string          `json:"listing_type"`
	Price        float64         `json:"price"`
	Area         float64         `json:"area,omitempty"`
	Neighborhood string          `json:"neighborhood,omitempty"`
	Address      string          `json:"address,omitempty"`
	Latitude     float64         `json:"latitude,omitempty"`
	Longitude    float64         `json:"longitude,omitempty"`
	Images       []string        `json:"images"`
	Amenities    []string        `json:"amenities"`
	Features     models.Features `json:"features"`
	ContactPhone string          `json:"contact_phone,omitempty"`
	ContactEmail string          `json:"contact_email,omitempty"`
	Status       string          `json:"status"`
	AdminNotes   string          `json:"admin_notes,omitempty"`
	Featured     bool            `json:"featured"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

// ListPropertiesResponse represents a page of listings
type ListPropertiesResponse struct {
	Properties []*PropertyResponse `json:"properties"`
	Total      int                 `json:"total"`
}

// propertyModelToResponse converts a listing to its HTTP representation.
// Admin notes are review feedback for the owner; they are stripped for
// everyone else.
func propertyModelToResponse(p *models.Property, actor access.Actor) *PropertyResponse {
	resp := &PropertyResponse{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		PropertyType: string(p.PropertyType),
		ListingType:  string(p.ListingType),
		Price:        p.Price,
		Area:         p.Area,
		Neighborhood: p.Neighborhood,
		Address:      p.Address,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Images:       p.Images,
		Amenities:    p.Amenities,
		Features:     p.Features,
		ContactPhone: p.ContactPhone,
		ContactEmail: p.ContactEmail,
		Status:       string(p.Status),
		Featured:     p.Featured,
		CreatedAt:    p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if actor.IsAdmin() || (!actor.IsAnonymous() && actor.ID == p.OwnerID) {
		resp.AdminNotes = p.AdminNotes
	}
	return resp
}

func (req *PropertyRequest) toModel() *models.Property {
	return &models.Property{
		Title:        req.Title,
		Description:  req.Description,
		PropertyType: models.PropertyType(req.PropertyType),
		ListingType:  models.ListingType(req.ListingType),
		Price:        req.Price,
		Area:         req.Area,
		Neighborhood: req.Neighborhood,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Images:       req.Images,
		Amenities:    req.Amenities,
		Features:     req.Features,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
	}
}

// CreateProperty creates a new listing for the authenticated user
func (h *PropertyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req PropertyRequest
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

	created, err := h.service.Create(r.Context(), actor, req.toModel())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, propertyModelToResponse(created, actor))
}

// GetProperty retrieves a listing by ID
func (h *PropertyHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	if propertyID == "" {
		pkghttp.WriteBadRequest(w, "Property ID is required")
		return
	}

	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	property, err := h.service.Get(r.Context(), actor, propertyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, propertyModelToResponse(property, actor))
}

// GetPropertyBySlug retrieves a listing by its public slug
func (h *PropertyHandler) GetPropertyBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		pkghttp.WriteBadRequest(w, "Slug is required")
		return
	}

	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	property, err := h.service.GetBySlug(r.Context(), actor, slug)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, propertyModelToResponse(property, actor))
}

// ListProperties returns listings visible to the caller with query filters
func (h *PropertyHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	limit, offset := paginationParams(r, 20)
	q := r.URL.Query()

	opts := services.PropertyListOptions{
		PropertyType: models.PropertyType(q.Get("property_type")),
		ListingType:  models.ListingType(q.Get("listing_type")),
		Neighborhood: q.Get("neighborhood"),
		FeaturedOnly: q.Get("featured") == "true",
		Limit:        limit,
		Offset:       offset,
	}
	if v := q.Get("min_price"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			opts.MinPrice = n
		}
	}
	if v := q.Get("max_price"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			opts.MaxPrice = n
		}
	}

	properties, err := h.service.List(r.Context(), actor, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := ListPropertiesResponse{Properties: make([]*PropertyResponse, 0, len(properties)), Total: len(properties)}
	for _, property := range properties {
		resp.Properties = append(resp.Properties, propertyModelToResponse(property, actor))
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// UpdateProperty rewrites the listing fields of a property
func (h *PropertyHandler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	if propertyID == "" {
		pkghttp.WriteBadRequest(w, "Property ID is required")
		return
	}

	var req PropertyRequest
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

	updated, err := h.service.Update(r.Context(), actor, propertyID, req.toModel())
	if err != nil {
		var cascadeErr *models.CascadeError
		if errors.As(err, &cascadeErr) {
			// The edit committed but a follow-up step failed; report the
			// saved listing with a partial-success marker instead of hiding
			// the committed write behind a 500.
			writePartialSuccess(w, propertyModelToResponse(updated, actor), cascadeErr)
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, propertyModelToResponse(updated, actor))
}

// DeleteProperty removes a listing
func (h *PropertyHandler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	if propertyID == "" {
		pkghttp.WriteBadRequest(w, "Property ID is required")
		return
	}

	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), actor, propertyID); err != nil {
		var cascadeErr *models.CascadeError
		if errors.As(err, &cascadeErr) {
			writePartialSuccess(w, map[string]string{"id": propertyID, "deleted": "true"}, cascadeErr)
			return
		}
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ModerateProperty applies an admin status decision to a listing
func (h *PropertyHandler) ModerateProperty(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	if propertyID == "" {
		pkghttp.WriteBadRequest(w, "Property ID is required")
		return
	}

	var req ModeratePropertyRequest
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

	previous, err := h.service.Get(r.Context(), actor, propertyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	updated, err := h.moderation.Transition(r.Context(), actor, previous, services.ModeratePropertyInput{
		ExpectedStatus: models.PropertyStatus(req.ExpectedStatus),
		NewStatus:      models.PropertyStatus(req.Status),
		AdminNotes:     req.AdminNotes,
		Featured:       req.Featured,
	})
	if err != nil {
		var cascadeErr *models.CascadeError
		if errors.As(err, &cascadeErr) {
			writePartialSuccess(w, propertyModelToResponse(updated, actor), cascadeErr)
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, propertyModelToResponse(updated, actor))
}

// ResendStatusNotification re-sends the current status email to the owner
func (h *PropertyHandler) ResendStatusNotification(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	if propertyID == "" {
		pkghttp.WriteBadRequest(w, "Property ID is required")
		return
	}

	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.moderation.ResendStatusNotification(r.Context(), actor, propertyID); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
