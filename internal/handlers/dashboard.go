package handlers

import (
	"context"
	"net/http"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/services"
	pkghttp "github.com/DevinHarlan/lotboard/pkg/http"
)

// DashboardServiceInterface defines the interface for dashboard aggregation
type DashboardServiceInterface interface {
	Stats(ctx context.Context, actor access.Actor) (*services.DashboardStats, error)
}

// DashboardHandler handles dashboard HTTP requests
type DashboardHandler struct {
	service  DashboardServiceInterface
	resolver *ActorResolver
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(service DashboardServiceInterface, resolver *ActorResolver) *DashboardHandler {
	return &DashboardHandler{service: service, resolver: resolver}
}

// Stats returns dashboard counts scoped to the caller
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	stats, err := h.service.Stats(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, stats)
}
