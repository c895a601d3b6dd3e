// Package vipclient is the typed HTTP client ticketctl uses to ask
// blockfest-api whether a buyer is on the VIP list.
package vipclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aanand-mishra/blockfest-backend/internal/types"
)

var (
	ErrBadRequest          = errors.New("vip check rejected the request")
	ErrUnauthorized        = errors.New("vip check credential refused")
	ErrCooldown            = errors.New("vip check rate limited")
	ErrRegistryUnavailable = errors.New("vip list unavailable")
)

// CooldownError carries how long the server asked the caller to wait.
// It matches ErrCooldown.
type CooldownError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *CooldownError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("vip check rate limited, retry after %s", e.RetryAfter)
}

func (e *CooldownError) Is(target error) bool { return target == ErrCooldown }

// Client calls POST /api/check-vip with a bearer credential.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string

	maxCooldownWait time.Duration
}

// New returns a Client for the API at baseURL. token is the raw bearer
// credential sent with every call.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// WaitOutCooldown makes CheckVIP sleep through a cooldown of at most max
// and retry once instead of returning a *CooldownError.
func (c *Client) WaitOutCooldown(max time.Duration) *Client {
	c.maxCooldownWait = max
	return c
}

// CheckVIP implements marketplace.VIPChecker. A 200 answer is returned
// as-is, including isVIP:false; every other status is an error.
func (c *Client) CheckVIP(ctx context.Context, req types.CheckVIPRequest) (types.CheckVIPResponse, error) {
	result, err := c.check(ctx, req)

	var cooldown *CooldownError
	if !errors.As(err, &cooldown) || cooldown.RetryAfter <= 0 || cooldown.RetryAfter > c.maxCooldownWait {
		return result, err
	}

	timer := time.NewTimer(cooldown.RetryAfter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return result, err
	case <-timer.C:
	}
	return c.check(ctx, req)
}

func (c *Client) check(ctx context.Context, req types.CheckVIPRequest) (types.CheckVIPResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return types.CheckVIPResponse{}, fmt.Errorf("vipclient.CheckVIP: encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/check-vip", bytes.NewReader(body))
	if err != nil {
		return types.CheckVIPResponse{}, fmt.Errorf("vipclient.CheckVIP: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return types.CheckVIPResponse{}, fmt.Errorf("vipclient.CheckVIP: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return types.CheckVIPResponse{}, fmt.Errorf("vipclient.CheckVIP: read body: %w", err)
	}

	var result types.CheckVIPResponse
	decodeErr := json.Unmarshal(raw, &result)

	switch resp.StatusCode {
	case http.StatusOK:
		if decodeErr != nil {
			return types.CheckVIPResponse{}, fmt.Errorf("vipclient.CheckVIP: decode: %w", decodeErr)
		}
		return result, nil
	case http.StatusBadRequest:
		return result, fmt.Errorf("%w: %s", ErrBadRequest, serverMessage(result, raw))
	case http.StatusUnauthorized, http.StatusForbidden:
		return result, fmt.Errorf("%w: %s", ErrUnauthorized, errorEnvelope(raw))
	case http.StatusTooManyRequests:
		return result, &CooldownError{RetryAfter: retryAfter(resp.Header.Get("Retry-After")), Message: result.Message}
	case http.StatusServiceUnavailable:
		return result, fmt.Errorf("%w: %s", ErrRegistryUnavailable, serverMessage(result, raw))
	default:
		return result, fmt.Errorf("vipclient.CheckVIP: HTTP %d: %s", resp.StatusCode, serverMessage(result, raw))
	}
}

func serverMessage(result types.CheckVIPResponse, raw []byte) string {
	if result.Message != "" {
		return result.Message
	}
	return strings.TrimSpace(string(raw))
}

// errorEnvelope extracts the "error" field of the API's error envelope.
func errorEnvelope(raw []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return strings.TrimSpace(string(raw))
}

func retryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
