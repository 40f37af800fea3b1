package testsupport

import (
	"encoding/json"
	"testing"
)

// AssertDeterministic calls fn twice and requires identical JSON output,
// catching accidental non-determinism (map iteration order, clock reads).
func AssertDeterministic(t testing.TB, fn func() any) {
	t.Helper()
	a, err := json.Marshal(fn())
	if err != nil {
		t.Fatalf("AssertDeterministic: marshal first result: %v", err)
	}
	b, err := json.Marshal(fn())
	if err != nil {
		t.Fatalf("AssertDeterministic: marshal second result: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("AssertDeterministic: results differ\nfirst:  %s\nsecond: %s", a, b)
	}
}
