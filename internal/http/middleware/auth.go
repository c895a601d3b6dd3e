// Package middleware holds the chi middleware of the API: bearer
// authentication, the admin gate, CORS and the VIP check cooldown.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aanand-mishra/blockfest-backend/internal/auth"
	"github.com/aanand-mishra/blockfest-backend/internal/utils/response"
)

const (
	msgNoToken      = "Unauthorized: No token provided or invalid format."
	msgTokenExpired = "Unauthorized: Token expired."
	msgTokenInvalid = "Unauthorized: Invalid token."
	msgAdminOnly    = "Forbidden: Admin privileges required."
)

// RequireAuth verifies the bearer token with verifier and stores the
// resulting identity in the request context. Absent, invalid and expired
// credentials are all answered with 403.
func RequireAuth(verifier auth.Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - no bearer token",
					slog.String("request_id", chimw.GetReqID(ctx)))
				deny(w, msgNoToken)
				return
			}

			id, err := verifier.Verify(ctx, strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - token rejected",
					slog.String("request_id", chimw.GetReqID(ctx)),
					slog.String("error", err.Error()))
				if errors.Is(err, auth.ErrExpiredCredential) {
					deny(w, msgTokenExpired)
					return
				}
				deny(w, msgTokenInvalid)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(ctx, id)))
		})
	}
}

// RequireAdmin lets the request through only when the identity placed by
// RequireAuth carries the admin claim.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id := auth.FromContext(ctx)
			if id == nil || !id.Admin {
				uid := ""
				if id != nil {
					uid = id.UID
				}
				logger.WarnContext(ctx, "admin route refused",
					slog.String("request_id", chimw.GetReqID(ctx)),
					slog.String("uid", uid))
				deny(w, msgAdminOnly)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, msg string) {
	_ = response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errors.New(msg)))
}
