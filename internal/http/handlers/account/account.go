// Package account contains the email/password account routes backed by
// the identity provider.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/blockfest-backend/internal/auth"
	"github.com/aanand-mishra/blockfest-backend/internal/types"
	"github.com/aanand-mishra/blockfest-backend/internal/utils/response"
)

const msgVerifyEmail = "Verify your email before login."

var (
	errRegisterFields = errors.New("email and password are required")
	errLoginFields    = errors.New("email is required")
	errNotVerified    = errors.New("Email not verified.")
	errUserNotFound   = errors.New("User not found")
)

// Directory is the account store. *auth.FirebaseDirectory implements it.
type Directory interface {
	Register(ctx context.Context, email, password string) (*auth.User, string, error)
	UserByEmail(ctx context.Context, email string) (*auth.User, error)
}

var validate = validator.New()

// Register handles POST /auth/register.
//
//	201 { "message": "Verify your email before login." }
//	400 { "status": "error", "error": "<provider message>" }
func Register(dir Directory, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(slog.String("request_id", chimw.GetReqID(r.Context())))

		var req types.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Debug("register body rejected", slog.String("error", err.Error()))
			_ = response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errRegisterFields))
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if err := validate.Struct(req); err != nil {
			log.Debug("register body rejected", slog.String("error", err.Error()))
			_ = response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errRegisterFields))
			return
		}

		user, _, err := dir.Register(r.Context(), req.Email, req.Password)
		if err != nil {
			log.Info("registration refused", slog.String("error", err.Error()))
			_ = response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		log.Info("account registered", slog.String("uid", user.UID))
		_ = response.WriteJSON(w, http.StatusCreated, types.AccountResponse{Message: msgVerifyEmail})
	}
}

// Login handles POST /auth/login. It only confirms that the account
// exists and has a verified address.
//
//	200 { "uid": "..." }
//	403 { "status": "error", "error": "Email not verified." }
//	400 { "status": "error", "error": "User not found" }
func Login(dir Directory, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(slog.String("request_id", chimw.GetReqID(r.Context())))

		var req types.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Debug("login body rejected", slog.String("error", err.Error()))
			_ = response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errLoginFields))
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if err := validate.Struct(req); err != nil {
			log.Debug("login body rejected", slog.String("error", err.Error()))
			_ = response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errLoginFields))
			return
		}

		user, err := dir.UserByEmail(r.Context(), req.Email)
		if err != nil {
			log.Info("login for unknown account", slog.String("error", err.Error()))
			_ = response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errUserNotFound))
			return
		}
		if !user.EmailVerified {
			log.Info("login before email verification", slog.String("uid", user.UID))
			_ = response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errNotVerified))
			return
		}

		_ = response.WriteJSON(w, http.StatusOK, types.AccountResponse{UID: user.UID})
	}
}
