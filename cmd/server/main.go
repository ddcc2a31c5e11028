package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dfryer1193/savergallery/gallery/application"
	"github.com/dfryer1193/savergallery/gallery/persistence"
	"github.com/dfryer1193/savergallery/internal/config"
	"github.com/dfryer1193/savergallery/internal/middleware"
	"github.com/dfryer1193/savergallery/internal/rest"
	"github.com/dfryer1193/savergallery/shared/db/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	dbCfg := sqlite.NewSQLiteConfig()
	if cfg.Database.Path != "" {
		dbCfg.Path = cfg.Database.Path
	}
	database := sqlite.NewSQLiteDB(dbCfg)
	if err := database.Connect(); err != nil {
		log.Fatal().Err(err).Str("path", dbCfg.Path).Msg("Failed to connect to database")
	}
	defer database.Close()

	mode, err := persistence.SelectMode(cfg.Storage.Mode, cfg.Storage.APILevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid storage configuration")
	}
	log.Info().Str("mode", string(mode)).Int("apiLevel", cfg.Storage.APILevel).Msg("Selected storage mode")
	store, err := persistence.NewMediaStore(mode, cfg.Storage.Root, database.DB())
	if err != nil {
		log.Fatal().Err(err).Str("mode", string(mode)).Msg("Failed to set up media store")
	}

	var opts []application.SaverOption
	if cfg.Saver.SingleFlight {
		opts = append(opts, application.WithSingleFlight())
	}
	dispatcher := application.NewDispatcher(application.NewSaver(store, opts...))
	defer func() {
		if err := dispatcher.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to gracefully close dispatcher")
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))
	rest.NewApi(router, dispatcher, persistence.NewMediaRepository(database.DB()), store)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Msg("Starting server on port :" + fmt.Sprint(cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}
