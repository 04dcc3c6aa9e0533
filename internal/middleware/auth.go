package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"avencia-pm/internal/domain"
)

// UserLookup resolves the user behind a token subject.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Authenticator turns a Bearer token into a domain.ContextPrincipal.
type Authenticator struct {
	validator JWTValidator
	users     UserLookup
	logger    *slog.Logger
}

// NewAuthenticator creates an Authenticator. When users is non-nil every
// request re-reads the account so deactivated users lose access immediately
// and role changes apply without a new token.
func NewAuthenticator(validator JWTValidator, users UserLookup, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Authenticator{validator: validator, users: users, logger: logger}
}

// Middleware returns the HTTP middleware. Requests without a valid token are
// rejected with 401.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeUnauthorized(w, "unauthorized: provide a valid JWT Bearer token")
				return
			}

			claims, err := a.validator.Validate(r.Context(), strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				a.logger.DebugContext(r.Context(), "jwt rejected", "error", err)
				writeUnauthorized(w, "unauthorized: invalid token")
				return
			}

			principal, ok := a.resolve(r.Context(), claims)
			if !ok {
				writeUnauthorized(w, "unauthorized: account is unknown or inactive")
				return
			}
			next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), principal)))
		})
	}
}

func (a *Authenticator) resolve(ctx context.Context, claims *JWTClaims) (domain.ContextPrincipal, bool) {
	p := domain.ContextPrincipal{UserID: claims.Subject, Role: domain.RoleMember}
	if claims.Email != nil {
		p.Email = *claims.Email
	}
	if claims.Role != nil && domain.UserRole(*claims.Role).Valid() {
		p.Role = domain.UserRole(*claims.Role)
	}
	if a.users == nil {
		return p, true
	}

	u, err := a.users.GetByID(ctx, claims.Subject)
	if err != nil {
		a.logger.WarnContext(ctx, "principal lookup failed", "sub", claims.Subject, "error", err)
		return p, false
	}
	if u == nil || !u.IsActive {
		return p, false
	}
	p.Email = u.Email
	p.Role = u.Role
	return p, true
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    http.StatusUnauthorized,
		"message": msg,
	})
}
