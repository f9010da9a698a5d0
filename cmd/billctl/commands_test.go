package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	flags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, srv *httptest.Server, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	stdout = &out
	t.Cleanup(func() { opts = options{} })

	parser := flags.NewParser(&opts, flags.HelpFlag)
	_, err := parser.ParseArgs(append([]string{"--url", srv.URL, "--token", "tok"}, args...))
	require.NoError(t, err)
	return out.String()
}

func TestLoginPrintsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"new-token"}`))
	}))
	defer srv.Close()

	assert.Equal(t, "new-token\n", run(t, srv, "login", "admin", "pw"))
}

func TestAddBillSendsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"billNumber":"1001","netAmount":9950}`))
	}))
	defer srv.Close()

	out := run(t, srv, "addbill", "--number", "1001", "--owner", "Somchai", "--type", "2", "--weight", "10", "--fuel", "50", "--date", "2024-07-01")
	assert.Contains(t, out, `"netAmount": 9950`)
}

func TestAddBillRejectsUnknownType(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	t.Cleanup(func() { opts = options{} })

	parser := flags.NewParser(&opts, flags.HelpFlag)
	_, err := parser.ParseArgs([]string{"--url", srv.URL, "addbill", "--number", "1", "--owner", "a", "--type", "7", "--weight", "1"})
	assert.ErrorContains(t, err, "--type")
}
