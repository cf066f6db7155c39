package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostel-ts/internal/config"
	"hostel-ts/internal/database"
	"hostel-ts/internal/repository/postgres"
	"hostel-ts/internal/router"
	"hostel-ts/internal/storage"
	"hostel-ts/pkg/logger"
)

func main() {
	// config + logger
	cfg := config.Load()
	l := logger.New(cfg.Env)

	// db
	pool, err := database.Open(context.Background(), cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("db connect failed")
	}
	defer pool.Close()
	if err := database.Migrate(context.Background(), pool); err != nil {
		l.Fatal().Err(err).Msg("db migrate failed")
	}

	deps := router.Deps{
		DB:            pool,
		Users:         postgres.NewUserRepo(pool),
		Profiles:      postgres.NewProfileRepo(pool),
		Issues:        postgres.NewIssueRepo(pool),
		Announcements: postgres.NewAnnouncementRepo(pool),
		LostFound:     postgres.NewLostFoundRepo(pool),
	}
	if cfg.MediaEnabled() {
		media, err := storage.NewCloudinary(cfg)
		if err != nil {
			l.Fatal().Err(err).Msg("media store init failed")
		}
		deps.Media = media
	} else {
		l.Warn().Msg("cloudinary not configured, media uploads disabled")
	}

	// http
	r := router.New(l, cfg, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		l.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Info().Msg("shutdown complete")
}
