package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		JWTSecret:     "test-secret",
		TokenDuration: time.Hour,
	}
}

func TestTokenRoundTripCarriesAdminClaim(t *testing.T) {
	cfg := testConfig()

	for _, isAdmin := range []bool{true, false} {
		token, err := GenerateToken("user-1", isAdmin, cfg.JWTSecret, cfg.TokenDuration)
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}

		claims, err := ValidateToken(token, cfg.JWTSecret)
		if err != nil {
			t.Fatalf("ValidateToken failed: %v", err)
		}
		if claims.UserID != "user-1" {
			t.Errorf("user id = %q, want user-1", claims.UserID)
		}
		if claims.IsAdmin != isAdmin {
			t.Errorf("is_admin = %v, want %v", claims.IsAdmin, isAdmin)
		}
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken("user-1", true, cfg.JWTSecret, cfg.TokenDuration)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Fatal("expected validation to fail with wrong secret")
	}
}

func TestRequireAdminGatesNonAdminTokens(t *testing.T) {
	cfg := testConfig()

	handler := Middleware(cfg)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	tests := []struct {
		name    string
		isAdmin bool
		status  int
	}{
		{"admin passes", true, http.StatusOK},
		{"non-admin forbidden", false, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken("user-1", tt.isAdmin, cfg.JWTSecret, cfg.TokenDuration)
			if err != nil {
				t.Fatalf("GenerateToken failed: %v", err)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	cfg := testConfig()

	handler := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", rec.Code)
	}
}
