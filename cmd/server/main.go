package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chill-backend/internal/config"
	"chill-backend/internal/database"
	"chill-backend/internal/handlers"
	"chill-backend/internal/identity"
	"chill-backend/internal/middleware"
	"chill-backend/internal/repository"
	"chill-backend/internal/router"
	"chill-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting Chill Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Step 4: Initialize Identity Gateway ────
	identityClient := identity.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey)

	// Tokens are checked locally when the provider JWT secret is
	// configured, otherwise each request round-trips to the provider.
	var verifier identity.Verifier = identityClient
	if cfg.SupabaseJWTSecret != "" {
		verifier = identity.NewJWTVerifier(cfg.SupabaseJWTSecret)
		log.Println("✓ Local token verification enabled")
	}

	// ──── Step 5: Initialize Auth Rate Limiter ────
	var authLimiter middleware.Limiter = middleware.NewRateLimiter(10, time.Minute)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClient.Close()
		authLimiter = middleware.NewRedisRateLimiter(redisClient, 10, time.Minute)
		log.Println("✓ Redis connected")
	}

	// ──── Initialize Repositories ────
	messageRepo := repository.NewMessageRepo(pool)
	profileRepo := repository.NewProfileRepo(pool)

	// ──── Initialize Services ────
	completionClient := services.NewCompletionClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)
	authService := services.NewAuthService(identityClient, profileRepo)
	chatService := services.NewChatService(messageRepo, completionClient, cfg.OpenAIModel)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(chatService)

	// ──── Step 6: Start HTTP Server ────
	session := middleware.NewSession(verifier)
	r := router.New(session, authLimiter, authHandler, chatHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Chill Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
