package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"care-access/internal/adapters/auth/jwtauth"
	directoryclient "care-access/internal/adapters/directory"
	pg "care-access/internal/adapters/storage/postgres"
	"care-access/internal/platform/config"
	"care-access/internal/platform/logger"
	"care-access/internal/ports/auth"
	"care-access/internal/ports/directory"
	"care-access/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.NewFromEnv()
		l.Fatal().Err(err).Msg("config")
	}

	log := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		App:    cfg.AppName,
	})

	opts := router.Options{}

	// Sin secret => modo dev con headers X-Debug-* (solo para laburar local)
	var verifier auth.AuthVerifier
	if cfg.JWTSecret != "" {
		verifier = jwtauth.NewVerifier(cfg.JWTSecret)
	} else {
		log.Warn().Msg("JWT_SECRET not set, running in dev auth mode")
	}
	opts.AuthVerifier = verifier

	if cfg.DirectoryURL != "" {
		var dir directory.Resolver
		client, err := directoryclient.NewClient(directoryclient.Config{
			BaseURL: cfg.DirectoryURL,
			APIKey:  cfg.DirectoryAPIKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("directory client")
		}
		dir = client
		opts.Directory = dir
	}

	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres")
		}
		defer db.Close()

		if err := pg.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrations")
		}
		opts.DB = db
		log.Info().Msg("storage: postgres")
	} else {
		log.Info().Msg("storage: in-memory (no DB_DSN)")
	}

	r := router.NewRouter(opts)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("bye")
}
