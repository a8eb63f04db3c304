package utils

import (
	"testing"
	"time"
)

func TestDueDateFromLMP(t *testing.T) {
	lmp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	due := DueDateFromLMP(lmp)

	// Naegele's rule: 280 days from the last period
	if got := due.Sub(lmp).Hours() / 24; got != 280 {
		t.Fatalf("expected 280 days, got %v", got)
	}
	if due.Format("2006-01-02") != "2025-10-08" {
		t.Fatalf("expected 2025-10-08, got %s", due.Format("2006-01-02"))
	}
}

func TestPasswordCharacterChecks(t *testing.T) {
	if !HasLetter("abc123") || !HasNumber("abc123") {
		t.Fatalf("abc123 has both letters and numbers")
	}
	if HasNumber("onlyletters") {
		t.Fatalf("no numbers here")
	}
	if HasLetter("123456") {
		t.Fatalf("no letters here")
	}
}
