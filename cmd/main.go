package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
	echoSwagger "github.com/swaggo/echo-swagger"

	"inkwell/internal/authz"
	"inkwell/internal/caching"
	"inkwell/internal/config"
	"inkwell/internal/handlers"
	"inkwell/internal/identity"
	"inkwell/internal/middleware"
	"inkwell/internal/outbox"
	"inkwell/internal/repositories"
	"inkwell/internal/services"
	"inkwell/internal/storage"
	"inkwell/internal/tenantdb"
	"inkwell/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pool, err := database.NewPool(cfg.DatabaseURL, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}

	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	logoStore, err := storage.NewMinioLogoStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize logo storage: %v", err)
	}

	// Repositories
	tenantRepo := repositories.NewTenantRepository()
	featureRepo := repositories.NewFeatureRepository()
	userRepo := repositories.NewUserRepository()
	outboxRepo := repositories.NewOutboxRepository()

	// Tenant-scoped execution
	runner := tenantdb.NewRunner(pool)

	// Identity provider integration
	verifier := identity.NewWebhookVerifier(cfg.IdentityWebhookSecret)
	idpClient := identity.NewClient(cfg.IdentityAPIURL, cfg.IdentityAPIKey)

	// Services
	tenantSvc := services.NewTenantService(pool, runner, tenantRepo, featureRepo, cacheSvc, logoStore)
	provisioningSvc := services.NewProvisioningService(pool, runner, tenantRepo, featureRepo, userRepo, cacheSvc)
	userSvc := services.NewUserService(runner, tenantRepo, featureRepo, userRepo, outboxRepo, tenantSvc, idpClient)

	// Outbox delivery worker
	sender := outbox.NewEmailSender(cfg.MailRelayURL, cfg.MailAPIKey)
	worker, err := outbox.NewWorker(pool, outboxRepo, sender)
	if err != nil {
		log.Fatalf("Failed to create outbox worker: %v", err)
	}
	worker.Start()
	defer worker.Stop()

	// Handlers
	webhookHandlers := handlers.NewWebhookHandlers(verifier, provisioningSvc, cacheSvc)
	userHandlers := handlers.NewUserHandlers(userSvc)
	tenantHandlers := handlers.NewTenantHandlers(tenantSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Identity-provider webhooks (signature-verified, no session)
	e.POST("/webhooks/identity", webhookHandlers.IdentityWebhook)

	// Protected routes
	sessionCfg, err := middleware.SessionConfig(cfg.IdentityJWKSURL, jwtSecret)
	if err != nil {
		log.Fatalf("Failed to configure session verification: %v", err)
	}
	v1 := e.Group("/v1")
	v1.Use(echojwt.WithConfig(sessionCfg))
	v1.Use(middleware.Principal)

	// Route-level policy gates double the in-service checks so denied
	// requests never reach a handler.
	v1.GET("/users", userHandlers.ListUsers)
	v1.POST("/users/invite", userHandlers.InviteUser,
		middleware.RequireCapability(authz.CanInviteUsers))

	v1.GET("/tenant", tenantHandlers.GetTenant)
	v1.PUT("/tenant/branding", tenantHandlers.UpdateBranding,
		middleware.RequireCapability(authz.CanManageTenantSettings))
	v1.PUT("/tenant/locale", tenantHandlers.UpdateLocale,
		middleware.RequireCapability(authz.CanManageTenantSettings))
	v1.POST("/tenant/logo", tenantHandlers.UploadLogo,
		middleware.RequireCapability(authz.CanManageTenantSettings))

	// Graceful shutdown: stop taking requests, then stop the worker.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			log.Printf("ERROR: server shutdown: %v", err)
		}
	}()

	log.Printf("inkwell server v%s starting on port %s", version, cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
