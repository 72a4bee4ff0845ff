package routes

import (
	"github.com/DevinHarlan/lotboard/internal/auth"
	"github.com/DevinHarlan/lotboard/internal/handlers"
	"github.com/DevinHarlan/lotboard/internal/middleware"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/repositories"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	propertyHandler *handlers.PropertyHandler,
	verificationHandler *handlers.VerificationHandler,
	inquiryHandler *handlers.InquiryHandler,
	dashboardHandler *handlers.DashboardHandler,
	emailLogHandler *handlers.EmailLogHandler,
	tokenManager *auth.TokenManager,
	userRepo *repositories.UserRepository,
) {
	authRateLimit := middleware.DefaultAuthRateLimit()
	submissionRateLimit := middleware.DefaultSubmissionRateLimit()

	// Auth endpoints, rate limited by IP
	router.With(middleware.RateLimitByIP(authRateLimit)).Post("/auth/register", authHandler.Register)
	router.With(middleware.RateLimitByIP(authRateLimit)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(authRateLimit)).Post("/auth/refresh", authHandler.Refresh)

	// Public listing reads. Optional auth so owners see their own hidden
	// listings through the same endpoints visitors use.
	router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuthMiddleware(tokenManager))

		r.Get("/properties", propertyHandler.ListProperties)
		r.Get("/properties/{id}", propertyHandler.GetProperty)
		r.Get("/properties/slug/{slug}", propertyHandler.GetPropertyBySlug)
	})

	// Public inquiry submission, rate limited
	router.With(middleware.RateLimitByIP(submissionRateLimit)).Post("/properties/{id}/inquiries", inquiryHandler.SubmitInquiry)

	// Authenticated routes
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager))

		r.Get("/users/me", userHandler.Me)
		r.Get("/users/{id}", userHandler.GetUser)
		r.Patch("/users/{id}", userHandler.UpdateUser)

		r.Post("/properties", propertyHandler.CreateProperty)
		r.Put("/properties/{id}", propertyHandler.UpdateProperty)
		r.Delete("/properties/{id}", propertyHandler.DeleteProperty)

		r.With(middleware.RateLimitByIP(submissionRateLimit)).Post("/verification", verificationHandler.Submit)
		r.Get("/verification/me", verificationHandler.GetMine)

		r.Get("/inquiries", inquiryHandler.ListInquiries)
		r.Patch("/inquiries/{id}/responded", inquiryHandler.MarkResponded)

		r.Get("/dashboard/stats", dashboardHandler.Stats)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(userRepo, models.RoleAdmin))

			r.Get("/admin/users", userHandler.ListUsers)

			r.Get("/admin/verification-requests", verificationHandler.ListRequests)
			r.Get("/admin/verification-requests/{id}", verificationHandler.GetRequest)
			r.Patch("/admin/verification-requests/{id}", verificationHandler.Review)

			r.Patch("/admin/properties/{id}/status", propertyHandler.ModerateProperty)
			r.Post("/admin/properties/{id}/notifications/resend", propertyHandler.ResendStatusNotification)

			r.Get("/admin/email-logs", emailLogHandler.ListEmailLogs)
		})
	})
}
