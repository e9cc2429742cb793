package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/paulexconde/together/internal/log"
	"github.com/paulexconde/together/internal/services"
)

type contextKey string

const participantKey contextKey = "participant"

// Authenticate verifies the bearer token and stores its subject as the
// requesting participant. Tokens are issued elsewhere.
func Authenticate(secret []byte, pair services.Pair) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				respond(w, r, http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
				return
			}

			claims := &jwt.RegisteredClaims{}
			_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				log.Debugf("auth.parse_token: %s", err)
				respond(w, r, http.StatusUnauthorized, ErrorResponse{Message: "Invalid token", Code: "INVALID_TOKEN"})
				return
			}

			if !pair.Has(claims.Subject) {
				respond(w, r, http.StatusForbidden, ErrorResponse{Message: "unknown participant", Code: "UNKNOWN_PARTICIPANT"})
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), participantKey, claims.Subject)))
		})
	}
}

// bearerToken reads the Authorization header, falling back to the access_token
// query parameter for EventSource clients that cannot set headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("access_token")
}

func ParticipantFrom(ctx context.Context) string {
	id, _ := ctx.Value(participantKey).(string)
	return id
}
