package utils

import "time"

// HasLetter returns true if s contains at least one ASCII letter (a-zA-Z)
func HasLetter(s string) bool {
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			return true
		}
	}
	return false
}

// HasNumber returns true if s contains at least one ASCII digit (0-9)
func HasNumber(s string) bool {
	for _, r := range s {
		if '0' <= r && r <= '9' {
			return true
		}
	}
	return false
}

// DueDateFromLMP applies Naegele's rule: LMP + 280 days.
func DueDateFromLMP(lmp time.Time) time.Time {
	return lmp.AddDate(0, 0, 280)
}
