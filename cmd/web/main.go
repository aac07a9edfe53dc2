package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/config"
	"github.com/AdamBeresnev/esport-cup/internal/db"
	"github.com/AdamBeresnev/esport-cup/internal/logger"
	"github.com/AdamBeresnev/esport-cup/internal/metrics"
	"github.com/AdamBeresnev/esport-cup/internal/middleware"
	"github.com/AdamBeresnev/esport-cup/internal/service"
	"github.com/AdamBeresnev/esport-cup/internal/store"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	sugar, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer sugar.Sync()
	zap.ReplaceGlobals(sugar.Desugar())

	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		sugar.Fatalw("Failed to open database", "path", cfg.DatabasePath, "error", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB, cfg.MigrationsPath); err != nil {
		sugar.Fatalw("Failed to run migrations", "error", err)
	}

	if cfg.Discord.Enabled() {
		middleware.InitAuth(cfg.Discord)
	} else {
		sugar.Warn("DISCORD_KEY/DISCORD_SECRET not set, login is disabled")
	}

	metrics.Register()

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Cookie.Secure = cfg.SecureCookies
	sessionManager.Store = sqlite3store.New(database.DB)

	tournamentStore := store.NewTournamentStore(database)
	registrationStore := store.NewRegistrationStore(database)
	teamStore := store.NewTeamStore(database)
	userStore := store.NewUserStore(database)
	notifications := service.NewNotificationService(database, store.NewNotificationStore(database), sugar)
	tournaments := service.NewTournamentService(database, tournamentStore, registrationStore, notifications, sugar)

	a := &app{
		cfg:           cfg,
		log:           sugar,
		sessions:      sessionManager,
		userStore:     userStore,
		notifications: notifications,
		tournaments:   tournaments,
		registrations: service.NewRegistrationService(database, tournamentStore, registrationStore, teamStore, notifications, sugar),
		brackets:      service.NewBracketService(database, tournamentStore, registrationStore, notifications, cfg.Bracket, sugar),
		matches:       service.NewMatchService(database, tournamentStore, registrationStore, teamStore, notifications, sugar),
		teams:         service.NewTeamService(database, teamStore, userStore, notifications, sugar),
		users:         service.NewUserService(database, userStore, service.RoleLists{Staff: cfg.StaffDiscordIDs, Admins: cfg.AdminDiscordIDs}, sugar),
		overlays:      service.NewOverlayService(tournamentStore, registrationStore, sugar),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler, err := service.NewScheduler(tournaments, cfg.SchedulerInterval, sugar)
	if err != nil {
		sugar.Fatalw("Failed to create scheduler", "error", err)
	}
	if err := scheduler.Start(ctx); err != nil {
		sugar.Fatalw("Failed to start scheduler", "error", err)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("Server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("HTTP shutdown failed", "error", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		sugar.Errorw("Scheduler shutdown failed", "error", err)
	}
}
