package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity carries the caller's identity signals for session keying. The
// bearer token is not verified here; it is forwarded to the domain service,
// which owns verification. The chat layer only needs a stable identifier.
type Identity struct {
	UserID    string
	Token     string
	AnonToken string
	IP        string
}

type userClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	ID     string `json:"id"`
}

// ExtractIdentity pulls the user id out of the bearer token (unverified), the
// anonymous token header, and the caller IP, and stores them on the context.
func ExtractIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := Identity{
			AnonToken: strings.TrimSpace(r.Header.Get("X-Anonymous-Id")),
			IP:        clientIP(r),
		}

		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			ident.Token = strings.TrimPrefix(auth, "Bearer ")
			claims := &userClaims{}
			if _, _, err := jwt.NewParser().ParseUnverified(ident.Token, claims); err == nil {
				ident.UserID = firstNonEmpty(claims.UserID, claims.ID, claims.Subject)
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, ident)))
	})
}

// IdentityFromContext returns the identity stored by ExtractIdentity.
func IdentityFromContext(ctx context.Context) Identity {
	ident, _ := ctx.Value(identityKey).(Identity)
	return ident
}

func clientIP(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
