package tokenstore

import (
	"sync"
	"time"
)

// in-memory token revocation store. Entries are pruned once the JWT they
// belong to would have expired anyway, so the map cannot grow unbounded.
var (
	mu      sync.RWMutex
	revoked = map[string]time.Time{}

	// matches the access-token lifetime issued at login
	retention = 24 * time.Hour
)

func RevokeToken(jti string) {
	if jti == "" {
		return
	}
	now := time.Now()
	mu.Lock()
	defer mu.Unlock()
	revoked[jti] = now.Add(retention)
	for k, exp := range revoked {
		if exp.Before(now) {
			delete(revoked, k)
		}
	}
}

func IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	mu.RLock()
	defer mu.RUnlock()
	exp, ok := revoked[jti]
	return ok && exp.After(time.Now())
}
