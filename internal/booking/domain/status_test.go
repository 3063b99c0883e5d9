package domain

import "testing"

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusCompleted, StatusCancelled} {
		if !s.IsValid() {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if Status("flying").IsValid() {
		t.Fatalf("expected unknown status to be invalid")
	}
	if Status("").IsValid() {
		t.Fatalf("expected empty status to be invalid")
	}
}

func TestStatusIsTerminal(t *testing.T) {
	if StatusActive.IsTerminal() {
		t.Fatalf("active must not be terminal")
	}
	if !StatusCompleted.IsTerminal() || !StatusCancelled.IsTerminal() {
		t.Fatalf("completed and cancelled must be terminal")
	}
}
