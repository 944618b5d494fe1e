package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mangashelf/mangashelf/model"
)

var testSecret = []byte("test-secret")

func TestGenerateAndParseAccessToken(t *testing.T) {
	token, err := GenerateAccessToken(42, "reader@example.com", model.RoleReader, time.Now().Add(time.Hour), testSecret)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := ParseAccessToken(token, testSecret)
	if err != nil {
		t.Fatalf("Failed to parse token: %v", err)
	}
	if claims.Subject != "42" {
		t.Errorf("Unexpected subject: %q", claims.Subject)
	}
	if claims.Email != "reader@example.com" {
		t.Errorf("Unexpected email: %q", claims.Email)
	}
	if claims.Role != string(model.RoleReader) {
		t.Errorf("Unexpected role: %q", claims.Role)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(1, "a@b.c", model.RoleAdmin, time.Now().Add(time.Hour), testSecret)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := ParseAccessToken(token, []byte("other-secret")); err == nil {
		t.Fatal("Expected error for wrong secret")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	token, err := GenerateAccessToken(1, "a@b.c", model.RoleAdmin, time.Now().Add(-time.Hour), testSecret)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := ParseAccessToken(token, testSecret); err == nil {
		t.Fatal("Expected error for expired token")
	}
}

func TestExtractTokenPrecedence(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/books/1/stream?token=from-query", nil)
	r.Header.Set("Authorization", "Bearer from-bearer")
	r.Header.Set("X-Access-Token", "from-header")
	r.AddCookie(&http.Cookie{Name: AccessTokenCookieName, Value: "from-cookie"})

	if got := ExtractToken(r, true); got != "from-bearer" {
		t.Errorf("Expected bearer token, got %q", got)
	}

	r.Header.Del("Authorization")
	if got := ExtractToken(r, true); got != "from-header" {
		t.Errorf("Expected header token, got %q", got)
	}

	r.Header.Del("X-Access-Token")
	if got := ExtractToken(r, true); got != "from-query" {
		t.Errorf("Expected query token, got %q", got)
	}

	if got := ExtractToken(r, false); got != "from-cookie" {
		t.Errorf("Expected cookie token when query is not allowed, got %q", got)
	}
}

func TestExtractTokenAccessTokenParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/books/1/pages/1?access_token=abc", nil)
	if got := ExtractToken(r, true); got != "abc" {
		t.Errorf("Expected access_token param, got %q", got)
	}
}

func TestStripTokenQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/books/1/stream?token=secret&download=1", nil)
	StripTokenQuery(r)
	if r.URL.Query().Get("token") != "" {
		t.Error("Token should be removed from the query string")
	}
	if r.URL.Query().Get("download") != "1" {
		t.Error("Other parameters should survive")
	}
}
