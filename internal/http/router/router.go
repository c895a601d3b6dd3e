// Package router assembles the HTTP surface of blockfest-api.
//
// Route table:
//
//	GET  /                        health text
//	GET  /metrics                 prometheus exposition
//	GET  /api/event               public event snapshot
//	POST /api/check-vip           authenticated, rate limited per subject
//	GET  /api/get-all-tickets     authenticated, admin only
//	POST /auth/register           when an account directory is configured
//	POST /auth/login              when an account directory is configured
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/blockfest-backend/internal/auth"
	"github.com/aanand-mishra/blockfest-backend/internal/http/handlers/account"
	"github.com/aanand-mishra/blockfest-backend/internal/http/handlers/ticket"
	"github.com/aanand-mishra/blockfest-backend/internal/http/handlers/vip"
	"github.com/aanand-mishra/blockfest-backend/internal/http/middleware"
	"github.com/aanand-mishra/blockfest-backend/internal/utils/response"
)

// Deps are the collaborators the routes are built from. Ledger may be
// nil when the server runs without one; Observer and Gatherer may be nil
// to disable metrics. Accounts is nil in HMAC mode.
type Deps struct {
	Verifier   auth.Verifier
	Accounts   account.Directory
	Registry   vip.Registry
	Ledger     ticket.Ledger
	Observer   vip.Observer
	Gatherer   prometheus.Gatherer
	CORSOrigin string
	Cooldown   time.Duration
	Logger     *slog.Logger

	// Now is the clock of the health route. Defaults to time.Now.
	Now func() time.Time
}

// New returns the root handler.
func New(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.CORSOrigin))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_ = response.WriteText(w, http.StatusOK, "BlockFest Backend is running! Time: "+now().Format("15:04:05"))
	})

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	cooldown := middleware.NewCooldown(d.Cooldown, logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/event", ticket.GetEvent(d.Ledger, logger))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(d.Verifier, logger))

			r.With(cooldown.Handler).Post("/check-vip", vip.CheckVIP(d.Registry, d.Observer, logger))
			r.With(middleware.RequireAdmin(logger)).Get("/get-all-tickets", ticket.GetAll(d.Ledger, logger))
		})
	})

	if d.Accounts != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", account.Register(d.Accounts, logger))
			r.Post("/login", account.Login(d.Accounts, logger))
		})
	}

	return r
}
