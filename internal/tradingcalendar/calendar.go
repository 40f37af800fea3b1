// Package tradingcalendar answers trading-session questions from a static
// per-year JSON holiday file, with a fixed 09:00-15:00 ICT intraday
// session and no DST adjustment (Vietnam observes no DST).
package tradingcalendar

import (
	"encoding/json"
	"os"
	"time"
)

var ictLocation = mustLoadICT()

func mustLoadICT() *time.Location {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}

const (
	sessionOpenHour  = 9
	sessionCloseHour = 15
)

// yearFile is the on-disk shape: {"holidays": ["2025-01-01", ...]}.
type yearFile struct {
	Holidays []string `json:"holidays"`
}

// Calendar answers trading-session questions for one or more loaded years.
type Calendar struct {
	holidays map[string]struct{} // "YYYY-MM-DD" in ICT
}

// Load reads one or more per-year JSON holiday files and merges them.
func Load(paths ...string) (*Calendar, error) {
	c := &Calendar{holidays: map[string]struct{}{}}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		var yf yearFile
		if err := json.Unmarshal(data, &yf); err != nil {
			return nil, err
		}
		for _, d := range yf.Holidays {
			c.holidays[d] = struct{}{}
		}
	}
	return c, nil
}

// IsTradingDay reports whether t (any timezone) falls on a weekday that is
// not a configured holiday, evaluated in Vietnam local time.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	local := t.In(ictLocation)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	key := local.Format("2006-01-02")
	_, holiday := c.holidays[key]
	return !holiday
}

// ExpectedDailyBars counts trading days in [fromMs, toMs], inclusive,
// treated as unix-millisecond boundaries.
func (c *Calendar) ExpectedDailyBars(fromMs, toMs int64) int {
	if toMs < fromMs {
		return 0
	}
	from := time.UnixMilli(fromMs).In(ictLocation)
	to := time.UnixMilli(toMs).In(ictLocation)

	count := 0
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, ictLocation)
	last := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, ictLocation)
	for !day.After(last) {
		if c.IsTradingDay(day) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// IntradayBarsPerDay returns how many bars of the given minute granularity
// fit in the fixed 09:00-15:00 ICT session.
func IntradayBarsPerDay(minutes int) int {
	sessionMinutes := (sessionCloseHour - sessionOpenHour) * 60
	if minutes <= 0 {
		return 0
	}
	return sessionMinutes / minutes
}

// ExpectedIntradayBars counts expected bars of the given minute granularity
// across trading days in [fromMs, toMs].
func (c *Calendar) ExpectedIntradayBars(fromMs, toMs int64, minutes int) int {
	days := c.ExpectedDailyBars(fromMs, toMs)
	return days * IntradayBarsPerDay(minutes)
}

// SessionBounds returns the session open/close instants, in ICT, for the
// calendar day containing t.
func SessionBounds(t time.Time) (open, close time.Time) {
	local := t.In(ictLocation)
	open = time.Date(local.Year(), local.Month(), local.Day(), sessionOpenHour, 0, 0, 0, ictLocation)
	close = time.Date(local.Year(), local.Month(), local.Day(), sessionCloseHour, 0, 0, 0, ictLocation)
	return
}
