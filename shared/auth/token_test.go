package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateToken(t *testing.T) {
	if !ValidateToken("secret", "secret") {
		t.Fatalf("matching tokens should validate")
	}
	if ValidateToken("secret", "wrong") {
		t.Fatalf("mismatched tokens should not validate")
	}
	if ValidateToken("", "") {
		t.Fatalf("empty expected/provided should never validate")
	}
}

func TestAuthenticateEmptySecretDisablesAuth(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/device-list", nil)
	if !Authenticate(r, "") {
		t.Fatalf("empty secret should accept any request")
	}
}

func TestAuthenticateRequiresCredentialWhenSecretSet(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/device-list", nil)
	if Authenticate(r, "s") {
		t.Fatalf("request with no credential should be rejected when a secret is configured")
	}
}

func TestAuthenticateBearerHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/device-list", nil)
	r.Header.Set("Authorization", "Bearer s")
	if !Authenticate(r, "s") {
		t.Fatalf("valid bearer header should authenticate")
	}
}

func TestAuthenticateQueryParamFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/clip-sync/dev?api-key=s", nil)
	if !Authenticate(r, "s") {
		t.Fatalf("valid api-key query param should authenticate")
	}
}
