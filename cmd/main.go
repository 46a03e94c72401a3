package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"go.uber.org/multierr"

	"github.com/nikhil/begreen/internal/config"
	"github.com/nikhil/begreen/internal/database"
	"github.com/nikhil/begreen/internal/handlers"
	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/middleware"
	"github.com/nikhil/begreen/internal/observable"
	"github.com/nikhil/begreen/internal/ratelimit"
	"github.com/nikhil/begreen/internal/realtime"
	"github.com/nikhil/begreen/internal/repository"
	"github.com/nikhil/begreen/internal/routes"
	services "github.com/nikhil/begreen/internal/service/auth"
	challengeService "github.com/nikhil/begreen/internal/service/challenge"
	membershipService "github.com/nikhil/begreen/internal/service/membership"
	messageService "github.com/nikhil/begreen/internal/service/messages"
	previewService "github.com/nikhil/begreen/internal/service/preview"
	teamService "github.com/nikhil/begreen/internal/service/team"
	profileService "github.com/nikhil/begreen/internal/service/users"
	"github.com/nikhil/begreen/internal/session"
)

func main() {
	log := logger.NewLogger("begreen")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid config", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(ctx, sqlDB); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}
	log.Info("Database connected", "host", cfg.Database.Host, "name", cfg.Database.DBName)

	rdb, err := database.OpenRedis(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", "error", err)
	}

	tx, err := database.NewTransactionManager(sqlDB)
	if err != nil {
		log.Fatal("Failed to create transaction manager", "error", err)
	}
	db := database.NewDB(sqlDB)

	users := repository.NewUserRepository(db)
	teams := repository.NewTeamRepository(db)
	memberships := repository.NewMembershipRepository(db)
	challenges := repository.NewChallengeRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	messages := repository.NewMessageRepository(db)
	previews := repository.NewPreviewRepository(db)

	bus := observable.New()
	sessions := session.NewManager(cfg.JWT.Secret, cfg.JWT.TTL, rdb)

	teamSvc := teamService.NewTeamService(teamService.Deps{
		Teams:       teams,
		Memberships: memberships,
		Users:       users,
		Assignments: assignments,
		Previews:    previews,
		Messages:    messages,
	}, tx, bus, log.Named("teams"))
	previewSvc := previewService.NewPreviewService(previews, teamSvc, tx, log.Named("previews"))
	membershipSvc := membershipService.NewMembershipService(memberships, teams, users, bus, cfg.ApplicationURL, log.Named("memberships"))
	messageSvc := messageService.NewMessageService(messages, memberships, previewSvc, tx, bus, log.Named("messages"))
	challengeSvc := challengeService.NewChallengeService(challengeService.Deps{
		Challenges:  challenges,
		Assignments: assignments,
		Memberships: memberships,
		Teams:       teamSvc,
		Scores:      previewSvc,
	}, tx, bus, log.Named("challenges"))
	authSvc := services.NewAuthService(users, sessions, bus, log.Named("auth"))
	profileSvc := profileService.NewProfileService(users, log.Named("profile"))

	hub := realtime.NewHub(log.Named("hub"))
	go hub.Run(ctx)
	bridge := realtime.NewBridge(hub, bus, log.Named("bridge"))
	bridge.Attach()
	defer bridge.Detach()

	registry := &handlers.Registry{
		Auth:        handlers.NewAuthHandler(authSvc, log),
		Profile:     handlers.NewProfileHandler(profileSvc, log),
		Teams:       handlers.NewTeamHandler(teamSvc, log),
		Memberships: handlers.NewMembershipHandler(membershipSvc, log),
		Messages:    handlers.NewMessageHandler(messageSvc, log),
		Challenges:  handlers.NewChallengeHandler(challengeSvc, log),
		Leaderboard: handlers.NewLeaderboardHandler(previewSvc, log),
		Health:      handlers.NewHealthHandler(db, log),
		WebSocket:   handlers.NewWebSocketHandler(hub, membershipSvc, messageSvc, cfg.Server.CORSOrigins, log.Named("websocket")),
	}
	mw := middleware.NewSet(sessions, ratelimit.NewRateLimiter(rdb), cfg.RateLimit, log)
	router := routes.RegisterAllRoutes(registry, mw)

	var handler http.Handler = router
	handler = middleware.LoggingMiddleware(log)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(cfg.Server.CORSOrigins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Authorization", "Content-Type", middleware.RequestIDHeader}),
		gorillahandlers.ExposedHeaders([]string{middleware.RequestIDHeader, "X-RateLimit-Remaining", "Retry-After"}),
	)(handler)
	handler = gorillahandlers.RecoveryHandler(gorillahandlers.PrintRecoveryStack(!cfg.IsProduction()))(handler)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server is running", "port", cfg.Server.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = multierr.Combine(
		server.Shutdown(shutdownCtx),
		sqlDB.Close(),
		rdb.Close(),
	)
	if err != nil {
		log.Error("Shutdown finished with errors", "error", err)
	}
	<-hub.Done()
	_ = log.Sync()
}
