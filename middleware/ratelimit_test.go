package middleware

import (
	"testing"
	"time"
)

func TestDuplicateGuard(t *testing.T) {
	SetDuplicateTTL(50 * time.Millisecond)
	uid := "user-7"
	text := "I have a headache"

	if ok := DuplicateGuard(uid, text); !ok {
		t.Fatalf("expected first send to pass duplicate guard")
	}
	if ok := DuplicateGuard(uid, text); ok {
		t.Fatalf("expected immediate duplicate to be blocked")
	}
	if ok := DuplicateGuard(uid, text+" and nausea"); !ok {
		t.Fatalf("expected different text to pass within TTL")
	}
	time.Sleep(70 * time.Millisecond)
	if ok := DuplicateGuard(uid, text); !ok {
		t.Fatalf("expected same text to pass after TTL")
	}
}

func TestDuplicateGuardTrimsWhitespace(t *testing.T) {
	SetDuplicateTTL(time.Minute)
	uid := "user-8"
	if ok := DuplicateGuard(uid, "hello"); !ok {
		t.Fatalf("expected first send to pass")
	}
	if ok := DuplicateGuard(uid, "  hello  "); ok {
		t.Fatalf("expected whitespace-padded duplicate to be blocked")
	}
}
