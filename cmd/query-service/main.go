// Command query-service is the single-process read-only HTTP server
//: gorilla/mux router over the warehouse, authenticated by
// a static x-api-key header.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nkgotcode/vietmarket/internal/appconfig"
	"github.com/nkgotcode/vietmarket/internal/database"
	"github.com/nkgotcode/vietmarket/internal/httpapi"
	"github.com/nkgotcode/vietmarket/internal/logging"
)

func main() {
	log := logging.New("query-service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbCfg := database.DefaultConfig()
	dbCfg.DSN = appconfig.Str("VNMARKET_DATABASE_URL", "")
	dbCfg.MaxConns = int32(appconfig.Int("VNMARKET_DB_MAX_CONNS", 10))
	if dbCfg.MaxConns > 10 {
		dbCfg.MaxConns = 10
	}

	store, err := database.Connect(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect warehouse")
	}
	defer store.Close()

	apiKey := appconfig.Str("VNMARKET_API_KEY", "")
	if apiKey == "" {
		log.Fatal().Msg("VNMARKET_API_KEY must be set")
	}

	addr := ":" + appconfig.Str("VNMARKET_HTTP_PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.New(store, apiKey, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", addr).Msg("query-service listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("listen")
	}
}
