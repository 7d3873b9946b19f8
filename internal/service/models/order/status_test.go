package order

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "accepted", "preparing", "ready", "completed"} {
		if _, err := ParseStatus(s); err != nil {
			t.Errorf("ParseStatus(%q): unexpected error %v", s, err)
		}
	}

	for _, s := range []string{"", "cancelled", "Pending", "done"} {
		if _, err := ParseStatus(s); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("ParseStatus(%q): expected ErrInvalidStatus, got %v", s, err)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPending, StatusAccepted}:   true,
		{StatusAccepted, StatusPreparing}: true,
		{StatusPreparing, StatusReady}:    true,
		{StatusReady, StatusCompleted}:    true,
	}

	statuses := []Status{StatusPending, StatusAccepted, StatusPreparing, StatusReady, StatusCompleted}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %t, want %t", from, to, got, want)
			}
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	if !StatusCompleted.Terminal() {
		t.Error("completed must be terminal")
	}
	for _, s := range []Status{StatusPending, StatusAccepted, StatusPreparing, StatusReady} {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}
