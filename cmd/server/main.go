package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/nglaszik/docwatch/internal/app"
	"github.com/nglaszik/docwatch/internal/auth"
	"github.com/nglaszik/docwatch/internal/config"
	"github.com/nglaszik/docwatch/internal/handler"
	"github.com/nglaszik/docwatch/internal/middleware"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, closeLog, err := config.NewLogger(cfg, "server", os.Stdout)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Owner identity: JWKS-backed tokens, or a fixed dev owner for local work
	var verifier auth.TokenVerifier
	if cfg.JWKSURL != "" {
		verifier, err = auth.NewJWTVerifier(ctx, cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
	} else {
		logger.Warn("JWKS_URL not set, every request runs as the dev owner", "owner", cfg.DevOwner)
	}

	docwatch, err := app.Open(ctx, cfg, app.Options{EnsureSchema: true}, logger)
	if err != nil {
		log.Fatalf("Failed to start docwatch: %v", err)
	}
	defer docwatch.Close()

	mux := handler.NewRouter(docwatch.Services, logger)

	// Order: CORS → Logging → Recovery → Auth → Routes
	var h http.Handler = mux
	h = middleware.Auth(verifier, cfg.DevOwner, logger)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)

	// CORS must wrap auth so OPTIONS pre-flight requests pass
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}
