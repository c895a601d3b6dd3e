package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/blockfest-backend/internal/auth"
	"github.com/aanand-mishra/blockfest-backend/internal/types"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "insiders.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestHelp(t *testing.T) {
	_, stderr, err := runCLI(t)

	assert.ErrorIs(t, err, pflag.ErrHelp)
	assert.Contains(t, stderr, "vip-check")
	assert.Contains(t, stderr, "reconcile")
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := runCLI(t, "refund")

	assert.EqualError(t, err, `unknown command "refund"`)
}

func TestRegistryLint(t *testing.T) {
	path := writeList(t, "Name,RollNumber,WalletAddress\nAda,001,0xAAA\nGrace,002\n")

	stdout, _, err := runCLI(t, "registry", "lint", path)

	assert.EqualError(t, err, "1 row(s) skipped")
	var report struct {
		Entries int `json:"entries"`
		Skipped []struct {
			Line int `json:"line"`
		} `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, 1, report.Entries)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, 3, report.Skipped[0].Line)
}

func TestRegistryLintClean(t *testing.T) {
	path := writeList(t, "Name,RollNumber,WalletAddress\nAda,001,0xAAA\n")

	stdout, _, err := runCLI(t, "registry", "lint", path)

	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":1,"skipped":[]}`, stdout)
}

func TestRegistryLookup(t *testing.T) {
	path := writeList(t, "Name,RollNumber,WalletAddress\nAda,001,0xAAA\n")

	stdout, _, err := runCLI(t, "registry", "lookup", path, "--name", "ADA", "--roll", "001", "--wallet", "0xaaa")
	require.NoError(t, err)
	assert.JSONEq(t, `{"isVIP":true,"walletAddress":"0xAAA"}`, stdout)

	stdout, _, err = runCLI(t, "registry", "lookup", path, "--name", "Ada", "--roll", "009", "--wallet", "0xaaa")
	require.NoError(t, err)
	var resp types.CheckVIPResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.False(t, resp.IsVIP)
}

func TestRegistryMissingFile(t *testing.T) {
	_, _, err := runCLI(t, "registry", "lint", filepath.Join(t.TempDir(), "absent.csv"))

	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	t.Setenv("AUTH_HMAC_SECRET", "cli-secret")

	stdout, _, err := runCLI(t, "token", "--uid", "admin-1", "--email", "ops@blockfest.example", "--admin")
	require.NoError(t, err)

	v, err := auth.NewHMACVerifier("cli-secret", "")
	require.NoError(t, err)
	id, err := v.Verify(context.Background(), strings.TrimSpace(stdout))
	require.NoError(t, err)
	assert.Equal(t, "admin-1", id.UID)
	assert.Equal(t, "ops@blockfest.example", id.Email)
	assert.True(t, id.Admin)
}

func TestTokenNeedsUID(t *testing.T) {
	t.Setenv("AUTH_HMAC_SECRET", "cli-secret")

	_, _, err := runCLI(t, "token")

	assert.EqualError(t, err, "--uid is required")
}

func TestParseTicketID(t *testing.T) {
	id, err := parseTicketID([]string{"42"})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	_, err = parseTicketID(nil)
	assert.Error(t, err)
	_, err = parseTicketID([]string{"-1"})
	assert.Error(t, err)
}

func TestLedgerCommandsNeedLedger(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "")
	t.Setenv("CONTRACT_ADDRESS", "")

	_, _, err := runCLI(t, "event")

	assert.ErrorContains(t, err, "no ledger")
}
