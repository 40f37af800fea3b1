// Package httpapi implements the read-only query service: a gorilla/mux router over internal/database, authenticated by a
// static x-api-key header, responding with the {ok,...}/{ok:false,error}
// JSON envelope.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/nkgotcode/vietmarket/internal/database"
)

// Server holds the dependencies every handler needs.
type Server struct {
	Store  *database.Store
	APIKey string
	Log    zerolog.Logger
}

// New builds the configured router. Every route (including /healthz) sits
// behind the x-api-key middleware: "all require x-api-key
// header equal to configured value".
func New(store *database.Store, apiKey string, log zerolog.Logger) http.Handler {
	s := &Server{Store: store, APIKey: apiKey, Log: log}

	r := mux.NewRouter()
	r.Use(s.authMiddleware)
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/candles", s.handleCandles).Methods(http.MethodGet)
	r.HandleFunc("/latest", s.handleLatest).Methods(http.MethodGet)
	r.HandleFunc("/top-movers", s.handleTopMovers).Methods(http.MethodGet)
	r.HandleFunc("/news/latest", s.handleNewsLatest).Methods(http.MethodGet)
	r.HandleFunc("/news/by-ticker", s.handleNewsByTicker).Methods(http.MethodGet)
	r.HandleFunc("/fundamentals/latest", s.handleFundamentalsLatest).Methods(http.MethodGet)
	r.HandleFunc("/screener", s.handleScreener).Methods(http.MethodGet)
	r.HandleFunc("/corporate-actions/latest", s.handleCorporateActionsLatest).Methods(http.MethodGet)
	r.HandleFunc("/corporate-actions/by-ticker", s.handleCorporateActionsByTicker).Methods(http.MethodGet)

	r.HandleFunc("/v1/analytics/overview", s.handleAnalyticsOverview).Methods(http.MethodGet)
	r.HandleFunc("/v1/context/{ticker}", s.handleContext).Methods(http.MethodGet)
	r.HandleFunc("/v1/overall/health", s.handleOverallHealth).Methods(http.MethodGet)

	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.APIKey == "" || r.Header.Get("x-api-key") != s.APIKey {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid x-api-key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.Log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
