package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/nkgotcode/vietmarket/internal/apperr"
	"github.com/nkgotcode/vietmarket/internal/database"
)

func statusForCode(code string) int {
	switch code {
	case "unauthorized":
		return http.StatusUnauthorized
	case "not_found":
		return http.StatusNotFound
	case "invalid_ticker", "invalid_window_days", "invalid_limit", "missing_param":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	code := apperr.Code(err)
	writeError(w, statusForCode(code), code, err.Error())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.HealthCheck(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "db_unreachable", err.Error())
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"db": 1})
}

func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	q, beforeTS, err := parseCandlesQuery(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	rows, err := s.Store.QueryCandles(r.Context(), q.Ticker, q.TF, beforeTS, q.Limit)
	if err != nil {
		s.fail(w, apperr.ErrInternal)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"ticker": q.Ticker,
		"tf":     q.TF,
		"count":  len(rows),
		"rows":   rows,
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	q, err := parseLatestQuery(r, 2000)
	if err != nil {
		s.fail(w, err)
		return
	}
	rows, err := s.Store.QueryLatest(r.Context(), q.TF, q.Limit)
	if err != nil {
		s.fail(w, apperr.ErrInternal)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"tf":    q.TF,
		"count": len(rows),
		"rows":  rows,
	})
}

func (s *Server) handleTopMovers(w http.ResponseWriter, r *http.Request) {
	q, err := parseLatestQuery(r, 20)
	if err != nil {
		s.fail(w, err)
		return
	}
	rows, err := s.Store.QueryTopMovers(r.Context(), q.TF, q.Limit)
	if err != nil {
		s.fail(w, apperr.ErrInternal)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"tf":    q.TF,
		"count": len(rows),
		"rows":  rows,
	})
}

func (s *Server) handleNewsLatest(w http.ResponseWriter, r *http.Request) {
	q, beforePublishedAt, beforeURL, err := parseNewsQuery(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	rows, err := s.Store.QueryNewsLatest(r.Context(), q.Limit, beforePublishedAt, beforeURL)
	if err != nil {
		s.fail(w, apperr.ErrInternal)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"count":      len(rows),
		"rows":       rows,
		"nextCursor": newsNextCursor(rows, q.Limit),
	})
}

func (s *Server) handleNewsByTicker(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		s.fail(w, apperr.ErrMissingParam)
		return
	}
	q, beforePublishedAt, beforeURL, err := parseNewsQuery(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	rows, err := s.Store.QueryNewsByTicker(r.Context(), ticker, q.Limit, beforePublishedAt, beforeURL)
	if err != nil {
		s.fail(w, apperr.ErrInternal)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"ticker":     ticker,
		"count":      len(rows),
		"rows":       rows,
		"nextCursor": newsNextCursor(rows, q.Limit),
	})
}

// newsNextCursor returns the {beforePublishedAt,beforeUrl} pair a caller
// should resend to fetch the next page, or nil once a short page shows
// there is nothing left.
func newsNextCursor(rows []database.NewsRow, limit int) map[string]any {
	if len(rows) < limit {
		return nil
	}
	last := rows[len(rows)-1]
	if last.PublishedAt == nil {
		return nil
	}
	return map[string]any{
		"beforePublishedAt": last.PublishedAt.Format(time.RFC3339),
		"beforeUrl":         last.URL,
	}
}

func (s *Server) handleFundamentalsLatest(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		s.fail(w, apperr.ErrMissingParam)
		return
	}
	rows, err := s.Store.QueryFILatest(r.Context(), ticker)
	if err != nil {
		s.fail(w, apperr.ErrInternal)
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "Q"
	}
	statement := r.URL.Query().Get("statement")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, ok := parseIntQuery(raw); ok {
			limit = n
		}
	}

	filtered := make([]any, 0, len(rows))
	for _, row := range rows {
		if row.Period != period {
			continue
		}
		if statement != "" && row.Statement != statement {
			continue
		}
		filtered = append(filtered, row)
		if limit > 0 && len(filtered) >= limit {
			break
		}
	}
	writeOK(w, http.StatusOK, map[string]any{
		"ticker":    ticker,
		"period":    period,
		"statement": statement,
		"count":     len(filtered),
		"rows":      filtered,
	})
}

func (s *Server) handleScreener(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	metric := q.Get("metric")
	statement := q.Get("statement")
	period := q.Get("period")
	if period == "" {
		period = "Q"
	}
	if metric == "" || statement == "" {
		s.fail(w, apperr.ErrMissingParam)
		return
	}

	var min, max *float64
	if raw := q.Get("min"); raw != "" {
		if v, ok := parseFloatQuery(raw); ok {
			min = &v
		}
	}
	if raw := q.Get("max"); raw != "" {
		if v, ok := parseFloatQuery(raw); ok {
			max = &v
		}
	}
	limit := 100
	if raw := q.Get("limit"); raw != "" {
		if n, ok := parseIntQuery(raw); ok {
			limit = n
		}
	}

	rows, err := s.Store.QueryScreener(r.Context(), metric, period, statement, min, max, limit)
	if err != nil {
		s.fail(w, apperr.ErrInternal)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"metric":    metric,
		"period":    period,
		"statement": statement,
		"count":     len(rows),
		"rows":      rows,
	})
}

func (s *Server) handleCorporateActionsLatest(w http.ResponseWriter, r *http.Request) {
	q, beforeExDate, beforeID, err := parseCorporateActionsQuery(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	rows, err := s.Store.QueryCorporateActionsLatest(r.Context(), q.Limit, beforeExDate, beforeID)
	if err != nil {
		s.fail(w, apperr.ErrInternal)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"count":      len(rows),
		"rows":       rows,
		"nextCursor": corporateActionsNextCursor(rows, q.Limit),
	})
}

func (s *Server) handleCorporateActionsByTicker(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		s.fail(w, apperr.ErrMissingParam)
		return
	}
	q, beforeExDate, beforeID, err := parseCorporateActionsQuery(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	rows, err := s.Store.QueryCorporateActionsByTicker(r.Context(), ticker, q.Limit, beforeExDate, beforeID)
	if err != nil {
		s.fail(w, apperr.ErrInternal)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"ticker":     ticker,
		"count":      len(rows),
		"rows":       rows,
		"nextCursor": corporateActionsNextCursor(rows, q.Limit),
	})
}

// corporateActionsNextCursor returns the {beforeExDate,beforeId} pair a
// caller should resend to fetch the next page, or nil once a short page
// shows there is nothing left.
func corporateActionsNextCursor(rows []database.CorporateAction, limit int) map[string]any {
	if len(rows) < limit {
		return nil
	}
	last := rows[len(rows)-1]
	if last.ExDate == nil {
		return nil
	}
	return map[string]any{
		"beforeExDate": last.ExDate.Format(time.RFC3339),
		"beforeId":     last.ID,
	}
}

// handleAnalyticsOverview composes top-movers across timeframes into one
// dashboard payload.
func (s *Server) handleAnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	overview := map[string]any{}
	for _, tf := range []string{"15m", "1h", "1d"} {
		rows, err := s.Store.QueryTopMovers(r.Context(), tf, 10)
		if err != nil {
			s.fail(w, apperr.ErrInternal)
			return
		}
		overview[tf] = rows
	}
	writeOK(w, http.StatusOK, map[string]any{"top_movers": overview})
}

// handleContext composes symbol_context_latest + recent fi_latest for one
// ticker.
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	ctxRow, err := s.Store.QuerySymbolContext(r.Context(), ticker)
	if err != nil {
		s.fail(w, apperr.ErrInternal)
		return
	}
	if ctxRow == nil {
		s.fail(w, apperr.ErrNotFound)
		return
	}
	fi, err := s.Store.QueryFILatest(r.Context(), ticker)
	if err != nil {
		s.fail(w, apperr.ErrInternal)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"context": ctxRow, "fundamentals": fi})
}

// handleOverallHealth composes a warehouse ping with repair-queue depth so
// callers can see ingestion back-pressure without a separate metrics hop.
func (s *Server) handleOverallHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := s.Store.HealthCheck(r.Context()) == nil
	queuedDepth, err := s.Store.CountQueuedRepairs(r.Context())
	if err != nil {
		queuedDepth = -1
	}
	writeOK(w, http.StatusOK, map[string]any{
		"db_ok":              dbOK,
		"repair_queue_depth": queuedDepth,
	})
}
