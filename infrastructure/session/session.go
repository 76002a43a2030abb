package session

import (
	"net/http"
	"time"
)

const CookieName = "X-Draft-Token"

// DraftCookie pins a browser to its invoice draft. A negative maxAge clears it.
func DraftCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
	}
}

// MaxAge converts a draft lifetime to cookie seconds.
func MaxAge(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	return int(ttl / time.Second)
}
