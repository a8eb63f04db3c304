package tokenstore

import "testing"

func TestRevokeAndCheck(t *testing.T) {
	if IsRevoked("jti-1") {
		t.Fatalf("expected unknown jti to not be revoked")
	}
	RevokeToken("jti-1")
	if !IsRevoked("jti-1") {
		t.Fatalf("expected revoked jti to be reported revoked")
	}
	if IsRevoked("") {
		t.Fatalf("empty jti must never be revoked")
	}
}
