package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	contextKeyDeviceID contextKey = "device_id"
	contextKeyEmail    contextKey = "email"
)

// deviceIDHeader carries the client's self-assigned device identity when it
// has no token yet.
const deviceIDHeader = "X-Device-ID"

// resolveDevice is middleware that attaches a device identity to every
// request. Identity is never rejected: a verified token wins, then the
// device header, and a client with neither gets a fresh identity it can
// echo back on its next request.
func (s *Server) resolveDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID, email := s.identify(r)

		// Echo the identity so header-only clients can persist it.
		w.Header().Set(deviceIDHeader, deviceID)

		ctx := context.WithValue(r.Context(), contextKeyDeviceID, deviceID)
		if email != "" {
			ctx = context.WithValue(ctx, contextKeyEmail, email)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identify resolves the device ID and optional email for a request.
func (s *Server) identify(r *http.Request) (deviceID, email string) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			if claims, err := s.tokens.VerifyDeviceToken(parts[1]); err == nil {
				return claims.DeviceID, claims.Email
			}
		}
	}

	if headerID := strings.TrimSpace(r.Header.Get(deviceIDHeader)); headerID != "" {
		return headerID, ""
	}

	return uuid.NewString(), ""
}

// deviceID extracts the device identity from request context.
// Returns empty string outside the resolveDevice middleware.
func deviceID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyDeviceID).(string); ok {
		return id
	}
	return ""
}

// deviceFromRequest resolves the device identity for handlers that bypass
// huma, such as the event stream.
func deviceFromRequest(r *http.Request) string {
	return deviceID(r.Context())
}
