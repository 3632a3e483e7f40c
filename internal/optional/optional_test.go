package optional

import "testing"

func TestValue(t *testing.T) {
	var zero Value[int]
	if zero.IsSet() {
		t.Fatalf("zero value must be unspecified")
	}
	if got := zero.OrElse(7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}

	v := Some(0)
	got, ok := v.Get()
	if !ok || got != 0 {
		t.Fatalf("expected specified 0, got %d (%v)", got, ok)
	}

	n := 3
	if p := FromPtr(&n); p.OrElse(0) != 3 {
		t.Fatalf("expected 3 from pointer")
	}
	if p := FromPtr[int](nil); p.IsSet() {
		t.Fatalf("nil pointer must be unspecified")
	}
}
