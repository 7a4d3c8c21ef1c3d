package cmd

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"market-reports/internal/auth"
)

func TestDatasetsCommand(t *testing.T) {
	t.Setenv("MARKET_REPORTS_CONFIG", "")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"datasets", "--cache", "memory"})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "df_al") || !strings.Contains(text, "5min_exante_lmp") {
		t.Fatalf("expected datasets listed, got %q", text)
	}
	if !strings.Contains(text, "missing") {
		t.Fatalf("expected missing converter flagged, got %q", text)
	}
}

func TestCacheFlagOverridesEnvBeforeValidation(t *testing.T) {
	t.Setenv("MARKET_REPORTS_CONFIG", "")
	t.Setenv("MARKET_REPORTS_CACHE", "postgres")
	t.Setenv("DATABASE_URL", "")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"datasets", "--cache", "memory"})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("expected --cache memory to win over env, got %v", err)
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("MARKET_REPORTS_CONFIG", "")
	t.Setenv("AUTH_JWT_SECRET", "cli-secret")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "analyst", "--role", "operator"})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	claims, err := auth.ParseJWT(strings.TrimSpace(out.String()), []byte("cli-secret"))
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Subject != "analyst" || claims.Role != "operator" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	var logs bytes.Buffer
	handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), log.New(&logs, "", 0))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if !strings.Contains(logs.String(), "http GET /healthz 418") {
		t.Fatalf("unexpected log line %q", logs.String())
	}
}
