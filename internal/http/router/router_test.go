package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/aanand-mishra/blockfest-backend/internal/auth"
	"github.com/aanand-mishra/blockfest-backend/internal/metrics"
	"github.com/aanand-mishra/blockfest-backend/internal/registry"
	"github.com/aanand-mishra/blockfest-backend/internal/types"
)

type memSource string

func (s memSource) ReadAll() ([]byte, error) { return []byte(s), nil }

type stubLedger struct{}

func (stubLedger) AllTickets(context.Context) ([]types.Ticket, error) {
	return []types.Ticket{{ID: 0, Owner: "0xAAA", TokenURI: "ipfs://0", QRHash: "qr-0"}}, nil
}

func (stubLedger) EventDetails(context.Context) (types.EventDetails, error) {
	return types.EventDetails{IsActive: true, MaxTickets: 10}, nil
}

type RouterSuite struct {
	suite.Suite
	verifier *auth.HMACVerifier
	handler  http.Handler
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	v, err := auth.NewHMACVerifier("router-secret", "")
	s.Require().NoError(err)
	s.verifier = v

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	reg := registry.New(memSource("Name,RollNumber,WalletAddress\nAda,001,0xAAA\n"),
		registry.WithObserver(m), registry.WithLogger(logger))
	s.Require().NoError(reg.Load())

	s.handler = New(Deps{
		Verifier:   v,
		Registry:   reg,
		Ledger:     stubLedger{},
		Observer:   m,
		Gatherer:   promReg,
		CORSOrigin: "https://blockfest.example",
		Cooldown:   10 * time.Second,
		Logger:     logger,
		Now:        func() time.Time { return time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC) },
	})
}

func (s *RouterSuite) token(id auth.Identity) string {
	token, err := s.verifier.Issue(id, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/", "", "")

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("BlockFest Backend is running! Time: 14:05:09", rec.Body.String())
	s.Equal("https://blockfest.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func (s *RouterSuite) TestCheckVIPNeedsAuth() {
	rec := s.do(http.MethodPost, "/api/check-vip", "", `{"name":"Ada","rollNumber":"001","walletAddress":"0xAAA"}`)

	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *RouterSuite) TestCheckVIPThenCooldown() {
	token := s.token(auth.Identity{UID: "user-1"})
	body := `{"name":"ada","rollNumber":"001","walletAddress":"0xaaa"}`

	rec := s.do(http.MethodPost, "/api/check-vip", token, body)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"isVIP":true,"walletAddress":"0xAAA"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/check-vip", token, body)
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.NotEmpty(rec.Header().Get("Retry-After"))
}

func (s *RouterSuite) TestTicketsAdminOnly() {
	rec := s.do(http.MethodGet, "/api/get-all-tickets", s.token(auth.Identity{UID: "user-2"}), "")
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/get-all-tickets", s.token(auth.Identity{UID: "admin", Admin: true}), "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[{"tokenId":0,"owner":"0xAAA","tokenURI":"ipfs://0","qrHash":"qr-0"}]`, rec.Body.String())
}

func (s *RouterSuite) TestEventIsPublic() {
	rec := s.do(http.MethodGet, "/api/event", "", "")

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"isActive":true`)
}

func (s *RouterSuite) TestMetricsExposed() {
	s.do(http.MethodPost, "/api/check-vip", s.token(auth.Identity{UID: "user-3"}), `{"name":"x","rollNumber":"y","walletAddress":"z"}`)

	rec := s.do(http.MethodGet, "/metrics", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `blockfest_check_vip_requests_total{status="200"} 1`)
	s.Contains(rec.Body.String(), `blockfest_vip_registry_lookups_total{outcome="miss"} 1`)
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func TestNoLedgerNoMetrics(t *testing.T) {
	v, err := auth.NewHMACVerifier("router-secret", "")
	require.NoError(t, err)

	h := New(Deps{Verifier: v, Registry: registry.New(memSource(""))})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/event", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.c"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type verifiedDirectory struct{}

func (verifiedDirectory) Register(context.Context, string, string) (*auth.User, string, error) {
	return &auth.User{UID: "new-uid"}, "https://verify.example.com", nil
}

func (verifiedDirectory) UserByEmail(context.Context, string) (*auth.User, error) {
	return &auth.User{UID: "uid-1", EmailVerified: true}, nil
}

func TestAccountRoutesArePublic(t *testing.T) {
	v, err := auth.NewHMACVerifier("router-secret", "")
	require.NoError(t, err)

	h := New(Deps{Verifier: v, Registry: registry.New(memSource("")), Accounts: verifiedDirectory{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"a@b.c","password":"pw"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.c"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uid":"uid-1"}`, rec.Body.String())
}
