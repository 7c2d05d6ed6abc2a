package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/medagenda/backend/internal/config"
	"github.com/medagenda/backend/internal/repository/postgres"
	"github.com/medagenda/backend/internal/repository/redis"
	"github.com/medagenda/backend/internal/service/report"
	"github.com/medagenda/backend/internal/service/session"
	transportHttp "github.com/medagenda/backend/internal/transport/http"
	"github.com/medagenda/backend/internal/transport/http/middleware"
	"github.com/medagenda/backend/internal/transport/websocket"
	"github.com/medagenda/backend/pkg/auth"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found")
		}
	}

	cfg := config.Load()

	db, err := postgres.Open(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("Running database migrations...")
	if err := postgres.RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	roleRepo := postgres.NewRoleRepo(db)
	specialtyRepo := postgres.NewSpecialtyRepo(db)
	institutionRepo := postgres.NewInstitutionRepo(db)
	doctorRepo := postgres.NewDoctorRepo(db)
	patientRepo := postgres.NewPatientRepo(db)
	appointmentRepo := postgres.NewAppointmentRepo(db)

	// Session registry lives in Redis. If Redis is down at boot the server
	// still starts; authentication then fails closed with 503 until the
	// registry is reachable again.
	var cache session.CacheRepository
	redisClient, err := redis.NewClient(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Printf("Redis unavailable at startup: %v", err)
	} else {
		defer redisClient.Close()
		cache = redis.NewCache(redisClient)
	}
	if cache == nil {
		cache = redis.NewCache(redis.NewLazyClient(cfg.RedisAddr, cfg.RedisPassword))
	}

	// Services
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)
	registry := session.NewRegistry(cache)
	authService := session.NewAuthService(userRepo, tokens, registry)
	pdfGen := report.NewGenerator()

	connManager := websocket.NewConnectionManager()
	wsHandler := websocket.NewHandler(connManager, authService)

	secureCookies := strings.HasPrefix(cfg.FrontendURL, "https://")
	cookieTTL := cfg.Auth.TokenTTL

	// HTTP layer
	guard := middleware.NewGuard(authService)
	authHandler := transportHttp.NewAuthHandler(userRepo, authService, cache, connManager, cookieTTL, secureCookies)
	oauthHandler := transportHttp.NewOAuthHandler(userRepo, authService, cfg.OAuth, cfg.FrontendURL, cookieTTL, secureCookies)

	router := transportHttp.NewRouter(transportHttp.RouterDeps{
		AllowedOrigins: cfg.AllowedOrigins,
		Guard:          guard,
		Auth:           authHandler,
		OAuth:          oauthHandler,
		Users:          transportHttp.NewUserHandler(userRepo, authService, connManager),
		Roles:          transportHttp.NewRoleHandler(roleRepo),
		Specialties:    transportHttp.NewSpecialtyHandler(specialtyRepo),
		Institutions:   transportHttp.NewInstitutionHandler(institutionRepo),
		Doctors:        transportHttp.NewDoctorHandler(doctorRepo),
		Patients:       transportHttp.NewPatientHandler(patientRepo),
		Appointments:   transportHttp.NewAppointmentHandler(appointmentRepo),
		Reports:        transportHttp.NewReportHandler(appointmentRepo, doctorRepo, pdfGen),
		WebSocket:      wsHandler.HandleWebSocket,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
