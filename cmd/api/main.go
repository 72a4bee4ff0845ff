package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DevinHarlan/lotboard/internal/auth"
	"github.com/DevinHarlan/lotboard/internal/background"
	"github.com/DevinHarlan/lotboard/internal/cache"
	"github.com/DevinHarlan/lotboard/internal/config"
	"github.com/DevinHarlan/lotboard/internal/database"
	"github.com/DevinHarlan/lotboard/internal/handlers"
	middlewareCustom "github.com/DevinHarlan/lotboard/internal/middleware"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/repositories"
	"github.com/DevinHarlan/lotboard/internal/routes"
	"github.com/DevinHarlan/lotboard/internal/services"
	"github.com/DevinHarlan/lotboard/internal/storage"
	pkgauth "github.com/DevinHarlan/lotboard/pkg/auth"
	pkglogger "github.com/DevinHarlan/lotboard/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	requestRepo := repositories.NewVerificationRequestRepository(db)
	propertyRepo := repositories.NewPropertyRepository(db)
	inquiryRepo := repositories.NewInquiryRepository(db)
	emailLogRepo := repositories.NewEmailLogRepository(db)

	// Token manager and audit logging
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Public page cache invalidation via Redis
	revalidator, err := cache.NewRedisRevalidator(cfg.Cache, logger)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer revalidator.Close()

	// AWS SES mailer and S3 document store
	mailer, err := services.NewAWSSESMailer(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
	if err != nil {
		logger.Error("failed to initialize mailer", slog.Any("error", err))
		os.Exit(1)
	}

	documentStore, err := storage.NewS3DocumentStore(cfg.Documents, logger)
	if err != nil {
		logger.Error("failed to initialize document store", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	notifier := services.NewNotifier(mailer, emailLogRepo, cfg.Email.SendTimeout, logger)
	authService := services.NewAuthService(userRepo, tokenManager, logger, auditLogger)
	userService := services.NewUserService(userRepo, logger, auditLogger)
	verificationService := services.NewVerificationService(requestRepo, userRepo, notifier, logger, auditLogger)
	propertyService := services.NewPropertyService(propertyRepo, revalidator, logger)
	moderationService := services.NewModerationService(propertyRepo, userRepo, revalidator, notifier, logger, auditLogger)
	inquiryService := services.NewInquiryService(inquiryRepo, propertyRepo, logger)
	dashboardService := services.NewDashboardService(propertyRepo, inquiryRepo, requestRepo, logger)

	// Initialize handlers
	resolver := handlers.NewActorResolver(userRepo)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, resolver)
	propertyHandler := handlers.NewPropertyHandler(propertyService, moderationService, resolver)
	verificationHandler := handlers.NewVerificationHandler(verificationService, documentStore, resolver, logger)
	inquiryHandler := handlers.NewInquiryHandler(inquiryService, resolver)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, resolver)
	emailLogHandler := handlers.NewEmailLogHandler(emailLogRepo)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.Env)
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.RequestLogger(logger, cfg.Server.TrustedProxies))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(
		router,
		authHandler,
		userHandler,
		propertyHandler,
		verificationHandler,
		inquiryHandler,
		dashboardHandler,
		emailLogHandler,
		tokenManager,
		userRepo,
	)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start email log retention task
	cleanupManager := background.NewCleanupManager(emailLogRepo, logger, cfg.Email.CleanupInterval, cfg.Email.LogRetention)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:              adminEmail,
		PasswordHash:       hashedPassword,
		Name:               "Admin",
		Role:               models.RoleAdmin,
		VerificationStatus: models.VerificationVerified,
	}

	if _, err = userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
