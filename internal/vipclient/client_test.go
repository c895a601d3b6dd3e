package vipclient

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/blockfest-backend/internal/auth"
	"github.com/aanand-mishra/blockfest-backend/internal/http/middleware"
	"github.com/aanand-mishra/blockfest-backend/internal/marketplace"
	"github.com/aanand-mishra/blockfest-backend/internal/types"
)

var _ marketplace.VIPChecker = (*Client)(nil)

var adaRequest = types.CheckVIPRequest{Name: "Ada", RollNumber: "001", WalletAddress: "0xAAA"}

// captured is what the fake server saw of the last request.
type captured struct {
	mu     sync.Mutex
	method string
	path   string
	auth   string
	body   types.CheckVIPRequest
}

func (c *captured) get() (method, path, auth string, body types.CheckVIPRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method, c.path, c.auth, c.body
}

func serve(t *testing.T, status int, header map[string]string, body string) (*Client, *captured) {
	t.Helper()
	seen := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.mu.Lock()
		seen.method, seen.path, seen.auth = r.Method, r.URL.Path, r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&seen.body)
		seen.mu.Unlock()

		for k, v := range header {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "tok-123", srv.Client()), seen
}

func TestCheckVIPMatch(t *testing.T) {
	c, seen := serve(t, http.StatusOK, nil, `{"isVIP":true,"walletAddress":"0xAAA"}`)

	resp, err := c.CheckVIP(context.Background(), adaRequest)
	require.NoError(t, err)
	assert.Equal(t, types.CheckVIPResponse{IsVIP: true, WalletAddress: "0xAAA"}, resp)

	method, path, auth, body := seen.get()
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/api/check-vip", path)
	assert.Equal(t, "Bearer tok-123", auth)
	assert.Equal(t, adaRequest, body)
}

func TestCheckVIPNotOnList(t *testing.T) {
	c, _ := serve(t, http.StatusOK, nil, `{"isVIP":false,"message":"Not authorized to access VIP features."}`)

	resp, err := c.CheckVIP(context.Background(), adaRequest)
	require.NoError(t, err)
	assert.False(t, resp.IsVIP)
	assert.Equal(t, "Not authorized to access VIP features.", resp.Message)
}

func TestCheckVIPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header map[string]string
		body   string
		want   error
	}{
		{name: "bad request", status: http.StatusBadRequest, body: `{"isVIP":false,"message":"All fields (name, rollNumber, walletAddress) are required."}`, want: ErrBadRequest},
		{name: "forbidden", status: http.StatusForbidden, body: `{"status":"error","error":"Unauthorized: Token expired."}`, want: ErrUnauthorized},
		{name: "unavailable", status: http.StatusServiceUnavailable, body: `{"isVIP":false,"message":"VIP list is temporarily unavailable. Please try again later."}`, want: ErrRegistryUnavailable},
		{name: "cooldown", status: http.StatusTooManyRequests, header: map[string]string{"Retry-After": "7"}, body: `{"isVIP":false,"message":"Please wait 7 seconds before trying again."}`, want: ErrCooldown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := serve(t, tt.status, tt.header, tt.body)

			_, err := c.CheckVIP(context.Background(), adaRequest)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckVIPCooldownCarriesRetryAfter(t *testing.T) {
	c, _ := serve(t, http.StatusTooManyRequests, map[string]string{"Retry-After": "7"}, `{"isVIP":false,"message":"Please wait 7 seconds before trying again."}`)

	_, err := c.CheckVIP(context.Background(), adaRequest)

	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, 7*time.Second, cooldown.RetryAfter)
	assert.Equal(t, "Please wait 7 seconds before trying again.", cooldown.Error())
}

func TestCheckVIPForbiddenMessage(t *testing.T) {
	c, _ := serve(t, http.StatusForbidden, nil, `{"status":"error","error":"Unauthorized: Token expired."}`)

	_, err := c.CheckVIP(context.Background(), adaRequest)
	assert.ErrorContains(t, err, "Unauthorized: Token expired.")
}

func TestCheckVIPServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, "", nil).CheckVIP(context.Background(), adaRequest)
	assert.Error(t, err)
}

func TestCheckVIPWaitsOutShortCooldown(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"isVIP":false,"message":"Please wait 1 seconds before trying again."}`))
			return
		}
		_, _ = w.Write([]byte(`{"isVIP":true,"walletAddress":"0xAAA"}`))
	}))
	t.Cleanup(srv.Close)

	resp, err := New(srv.URL, "tok", srv.Client()).WaitOutCooldown(5*time.Second).CheckVIP(context.Background(), adaRequest)
	require.NoError(t, err)
	assert.True(t, resp.IsVIP)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestCheckVIPLongCooldownIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL, "tok", srv.Client()).WaitOutCooldown(5*time.Second).CheckVIP(context.Background(), adaRequest)
	assert.ErrorIs(t, err, ErrCooldown)
}

func TestBuyAfterVIPCheckWaitsForCooldown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cooldown := middleware.NewCooldown(time.Second, logger)
	answer := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"isVIP":true,"walletAddress":"0xAAA"}`))
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(auth.WithIdentity(r.Context(), &auth.Identity{UID: "ada"}))
		cooldown.Handler(answer).ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	ctx := context.Background()

	// ticketctl vip-check
	_, err := New(srv.URL, "tok", srv.Client()).CheckVIP(ctx, adaRequest)
	require.NoError(t, err)

	_, err = New(srv.URL, "tok", srv.Client()).CheckVIP(ctx, adaRequest)
	require.ErrorIs(t, err, ErrCooldown)

	// ticketctl buy --name --roll
	resp, err := New(srv.URL, "tok", srv.Client()).WaitOutCooldown(5*time.Second).CheckVIP(ctx, adaRequest)
	require.NoError(t, err)
	assert.True(t, resp.IsVIP)
}
