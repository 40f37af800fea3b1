package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nkgotcode/vietmarket/internal/apperr"
)

var validate = validator.New()

// candlesQuery validates GET /candles and /latest-style window params via
// struct tags instead of hand-rolled per-field checks.
type candlesQuery struct {
	Ticker string `validate:"required,max=10"`
	TF     string `validate:"required,oneof=15m 1h 1d"`
	Limit  int    `validate:"min=1,max=2000"`
}

func parseCandlesQuery(r *http.Request) (candlesQuery, *int64, error) {
	q := r.URL.Query()
	cq := candlesQuery{
		Ticker: q.Get("ticker"),
		TF:     q.Get("tf"),
		Limit:  500,
	}
	if lim := q.Get("limit"); lim != "" {
		n, err := strconv.Atoi(lim)
		if err != nil {
			return cq, nil, apperr.ErrInvalidLimit
		}
		cq.Limit = n
	}
	var beforeTS *int64
	if raw := q.Get("beforeTs"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cq, nil, apperr.ErrInvalidWindowDays
		}
		beforeTS = &n
	}
	if err := validate.Struct(cq); err != nil {
		return cq, nil, classifyValidationErr(err)
	}
	return cq, beforeTS, nil
}

// classifyValidationErr maps the first failing struct field to a stable
// error code: a failure on Ticker is invalid_ticker, anything else
// (TF, Limit) is invalid_window_days.
func classifyValidationErr(err error) error {
	if fe, ok := err.(validator.ValidationErrors); ok && len(fe) > 0 {
		if fe[0].Field() == "Ticker" {
			return apperr.ErrInvalidTicker
		}
	}
	return apperr.ErrInvalidWindowDays
}

// latestQuery validates GET /latest and /top-movers.
type latestQuery struct {
	TF    string `validate:"required,oneof=15m 1h 1d"`
	Limit int    `validate:"min=1,max=2000"`
}

func parseLatestQuery(r *http.Request, defaultLimit int) (latestQuery, error) {
	q := r.URL.Query()
	lq := latestQuery{TF: q.Get("tf"), Limit: defaultLimit}
	if lim := q.Get("limit"); lim != "" {
		n, err := strconv.Atoi(lim)
		if err != nil {
			return lq, apperr.ErrInvalidLimit
		}
		lq.Limit = n
	}
	if err := validate.Struct(lq); err != nil {
		return lq, classifyValidationErr(err)
	}
	return lq, nil
}

// newsQuery validates the shared shape of /news/latest and /news/by-ticker.
type newsQuery struct {
	Limit int `validate:"min=1,max=2000"`
}

func parseNewsQuery(r *http.Request) (newsQuery, *time.Time, *string, error) {
	q := r.URL.Query()
	nq := newsQuery{Limit: 50}
	if lim := q.Get("limit"); lim != "" {
		n, err := strconv.Atoi(lim)
		if err != nil {
			return nq, nil, nil, apperr.ErrInvalidLimit
		}
		nq.Limit = n
	}
	if err := validate.Struct(nq); err != nil {
		return nq, nil, nil, apperr.ErrInvalidLimit
	}

	var beforePublishedAt *time.Time
	if raw := q.Get("beforePublishedAt"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nq, nil, nil, apperr.ErrInvalidWindowDays
		}
		beforePublishedAt = &t
	}
	var beforeURL *string
	if raw := q.Get("beforeUrl"); raw != "" {
		beforeURL = &raw
	}
	return nq, beforePublishedAt, beforeURL, nil
}

// corporateActionsQuery validates the shared shape of /corporate-actions/latest
// and /corporate-actions/by-ticker.
type corporateActionsQuery struct {
	Limit int `validate:"min=1,max=2000"`
}

func parseCorporateActionsQuery(r *http.Request) (corporateActionsQuery, *time.Time, *string, error) {
	q := r.URL.Query()
	caq := corporateActionsQuery{Limit: 100}
	if lim := q.Get("limit"); lim != "" {
		n, err := strconv.Atoi(lim)
		if err != nil {
			return caq, nil, nil, apperr.ErrInvalidLimit
		}
		caq.Limit = n
	}
	if err := validate.Struct(caq); err != nil {
		return caq, nil, nil, apperr.ErrInvalidLimit
	}

	var beforeExDate *time.Time
	if raw := q.Get("beforeExDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return caq, nil, nil, apperr.ErrInvalidWindowDays
		}
		beforeExDate = &t
	}
	var beforeID *string
	if raw := q.Get("beforeId"); raw != "" {
		beforeID = &raw
	}
	return caq, beforeExDate, beforeID, nil
}
