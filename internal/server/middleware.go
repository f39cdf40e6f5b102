package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/algobytes/assembler/internal/auth"
)

type ctxKey int

const (
	ctxKeyClaims ctxKey = iota
	ctxKeyLocation
)

const (
	sessionCookieName = "session"
	timezoneHeader    = "X-Timezone"
)

// tokenFromRequest prefers the Authorization header over the session cookie.
func tokenFromRequest(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		return token
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// authenticate attaches the caller's claims when a valid token is present.
// Anonymous requests pass through.
func authenticate(tokens *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tokens.Verify(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser returns the authenticated caller, or nil.
func currentUser(r *http.Request) *auth.Claims {
	c, _ := r.Context().Value(ctxKeyClaims).(*auth.Claims)
	return c
}

// timezone resolves the X-Timezone header, falling back to def for missing
// or unknown zone names.
func timezone(def *time.Location) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := def
			if name := strings.TrimSpace(r.Header.Get(timezoneHeader)); name != "" {
				if l, err := time.LoadLocation(name); err == nil {
					loc = l
				}
			}
			ctx := context.WithValue(r.Context(), ctxKeyLocation, loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestLocation(r *http.Request) *time.Location {
	if loc, ok := r.Context().Value(ctxKeyLocation).(*time.Location); ok && loc != nil {
		return loc
	}
	return time.UTC
}
