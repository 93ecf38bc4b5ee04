package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"audittrail/pkg/requestcontext"
)

// TokenValidator validates a bearer principal token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*PrincipalClaims, error)
}

// PrincipalClaims is what the middleware needs from a validated token.
type PrincipalClaims struct {
	UserID int64
	Name   string
	Email  string
	SiteID int64
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// OptionalPrincipal attaches the principal from a bearer token when one is
// present. Requests without a token continue anonymously and are attributed
// to the system actor downstream; a token that fails validation is rejected.
func OptionalPrincipal(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || validator == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - malformed authorization header",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Malformed authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithPrincipal(ctx, requestcontext.PrincipalInfo{
				UserID: claims.UserID,
				Name:   claims.Name,
				Email:  claims.Email,
			})
			if claims.SiteID > 0 {
				ctx = requestcontext.WithSiteID(ctx, claims.SiteID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
