package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avencia-pm/internal/domain"
	"avencia-pm/internal/testutil"
)

// === Test JWT Validator ===

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (v *stubValidator) Validate(_ context.Context, _ string) (*JWTClaims, error) {
	return v.claims, v.err
}

// nextHandler is a simple handler that records the context principal.
func nextHandler() (http.Handler, func() (domain.ContextPrincipal, bool)) {
	var cp domain.ContextPrincipal
	var found bool
	h := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		cp, found = domain.PrincipalFromContext(r.Context())
	})
	return h, func() (domain.ContextPrincipal, bool) { return cp, found }
}

func serveWithToken(auth *Authenticator, h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	auth.Middleware()(h).ServeHTTP(w, req)
	return w
}

func TestAuth_ValidJWTWithoutLookup(t *testing.T) {
	handler, getPrincipal := nextHandler()
	auth := NewAuthenticator(&stubValidator{claims: &JWTClaims{
		Subject: "user1",
		Email:   ptrStr("user1@example.com"),
		Role:    ptrStr("manager"),
	}}, nil, nil)

	w := serveWithToken(auth, handler, "Bearer test-token")

	assert.Equal(t, http.StatusOK, w.Code)
	cp, found := getPrincipal()
	require.True(t, found)
	assert.Equal(t, "user1", cp.UserID)
	assert.Equal(t, "user1@example.com", cp.Email)
	assert.Equal(t, domain.RoleManager, cp.Role)
}

func TestAuth_UnknownRoleFallsBackToMember(t *testing.T) {
	handler, getPrincipal := nextHandler()
	auth := NewAuthenticator(&stubValidator{claims: &JWTClaims{Subject: "u", Role: ptrStr("root")}}, nil, nil)

	serveWithToken(auth, handler, "Bearer t")

	cp, found := getPrincipal()
	require.True(t, found)
	assert.Equal(t, domain.RoleMember, cp.Role)
}

func TestAuth_RoleComesFromStoredUser(t *testing.T) {
	uid := domain.NewID()
	handler, getPrincipal := nextHandler()
	users := &testutil.MockUserRepo{
		GetByIDFn: func(context.Context, string) (*domain.User, error) {
			return &domain.User{ID: uid, Email: "sarah@example.com", Role: domain.RoleAdmin, IsActive: true}, nil
		},
	}
	auth := NewAuthenticator(&stubValidator{claims: &JWTClaims{Subject: uid, Role: ptrStr("member")}}, users, nil)

	w := serveWithToken(auth, handler, "Bearer t")

	assert.Equal(t, http.StatusOK, w.Code)
	cp, _ := getPrincipal()
	assert.Equal(t, domain.RoleAdmin, cp.Role)
	assert.Equal(t, "sarah@example.com", cp.Email)
}

func TestAuth_Rejections(t *testing.T) {
	uid := domain.NewID()
	valid := &stubValidator{claims: &JWTClaims{Subject: uid}}

	tests := []struct {
		name   string
		auth   *Authenticator
		header string
	}{
		{"no_header", NewAuthenticator(valid, nil, nil), ""},
		{"not_bearer", NewAuthenticator(valid, nil, nil), "Basic dXNlcjpwYXNz"},
		{"invalid_token", NewAuthenticator(&stubValidator{err: errors.New("token expired")}, nil, nil), "Bearer t"},
		{"unknown_user", NewAuthenticator(valid, &testutil.MockUserRepo{
			GetByIDFn: func(context.Context, string) (*domain.User, error) { return nil, nil },
		}, nil), "Bearer t"},
		{"inactive_user", NewAuthenticator(valid, &testutil.MockUserRepo{
			GetByIDFn: func(context.Context, string) (*domain.User, error) {
				return &domain.User{ID: uid, IsActive: false}, nil
			},
		}, nil), "Bearer t"},
		{"lookup_error", NewAuthenticator(valid, &testutil.MockUserRepo{
			GetByIDFn: func(context.Context, string) (*domain.User, error) { return nil, errors.New("db down") },
		}, nil), "Bearer t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, getPrincipal := nextHandler()
			w := serveWithToken(tt.auth, handler, tt.header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			_, found := getPrincipal()
			assert.False(t, found)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.InDelta(t, float64(401), body["code"], 0.001)
		})
	}
}

