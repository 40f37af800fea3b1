package canonjson

import "testing"

func TestHashStableAcrossKeyOrder(t *testing.T) {
	a := map[string]any{"b": 2, "a": 1, "nested": map[string]any{"z": 1, "y": 2}}
	b := map[string]any{"a": 1, "nested": map[string]any{"y": 2, "z": 1}, "b": 2}

	ha, err := Hash(a)
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hb, err := Hash(b)
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if ha != hb {
		t.Fatalf("expected equal hashes for key-order variants, got %s vs %s", ha, hb)
	}
}

func TestHashDiffersOnArrayOrder(t *testing.T) {
	a := map[string]any{"items": []any{1.0, 2.0}}
	b := map[string]any{"items": []any{2.0, 1.0}}

	ha, _ := Hash(a)
	hb, _ := Hash(b)
	if ha == hb {
		t.Fatalf("expected different hashes for reordered array, got %s", ha)
	}
}

func TestStableStringifyRoundTrip(t *testing.T) {
	raw := []byte(`{"b":1,"a":{"y":2,"x":1}}`)
	out, err := StableStringify(raw)
	if err != nil {
		t.Fatalf("stable stringify: %v", err)
	}
	want := `{"a":{"x":1,"y":2},"b":1}`
	if string(out) != want {
		t.Fatalf("got %s want %s", out, want)
	}
}
