package fundamentals

import "testing"

func TestEffectivePeriod_FallsBackWithoutToken(t *testing.T) {
	cfg := Config{Period: PeriodYear, Token: ""}
	period, fellBack := cfg.EffectivePeriod()
	if period != PeriodQuarter || !fellBack {
		t.Fatalf("expected fallback to Q, got period=%v fellBack=%v", period, fellBack)
	}
}

func TestEffectivePeriod_NoFallbackWhenDisabled(t *testing.T) {
	cfg := Config{Period: PeriodYear, Token: "", NoFallbackToQ: true}
	period, fellBack := cfg.EffectivePeriod()
	if period != PeriodYear || fellBack {
		t.Fatalf("expected no fallback, got period=%v fellBack=%v", period, fellBack)
	}
}

func TestEffectivePeriod_YearWithToken(t *testing.T) {
	cfg := Config{Period: PeriodYear, Token: "tok"}
	period, fellBack := cfg.EffectivePeriod()
	if period != PeriodYear || fellBack {
		t.Fatalf("expected period=Y no fallback, got period=%v fellBack=%v", period, fellBack)
	}
}
