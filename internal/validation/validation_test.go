package validation

import "testing"

func TestViolations(t *testing.T) {
	v := Violations{}
	Required("name", "  ", v)
	PositiveInt("quantity", 0, v)
	MaxLen("notes", "abcdef", 3, v)
	if v.Empty() {
		t.Fatalf("expected violations, got none")
	}
	for _, f := range []string{"name", "quantity", "notes"} {
		if _, ok := v[f]; !ok {
			t.Fatalf("expected violation for %s: %#v", f, v)
		}
	}

	ok := Violations{}
	Required("name", "Teclado", ok)
	PositiveInt("quantity", 3, ok)
	MaxLen("notes", "ok", 3, ok)
	if !ok.Empty() {
		t.Fatalf("unexpected violations: %#v", ok)
	}
}
