package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// Middleware checks bearer tokens against the route policy.
type Middleware struct {
	secret []byte
	policy Policy
	logger *log.Logger
}

// NewMiddleware constructs an auth middleware. A nil logger disables
// rejection logging.
func NewMiddleware(secret []byte, policy Policy, logger *log.Logger) (*Middleware, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &Middleware{secret: secret, policy: policy, logger: logger}, nil
}

// Wrap applies the policy to next. Callers of guarded routes get 401 with a
// Bearer challenge for a missing or bad token and 403 when their role is
// below the route's requirement.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		required, guarded := m.policy.RequiredRole(r)
		if !guarded {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := ParseJWT(bearerToken(r), m.secret)
		if err != nil {
			m.reject(w, r, http.StatusUnauthorized, err)
			return
		}
		role, _ := NormalizeRole(claims.Role)
		if !RoleAtLeast(role, required) {
			m.reject(w, r, http.StatusForbidden, fmt.Errorf("role %s required, subject %q has %s", required, claims.Subject, role))
			return
		}
		ctx := WithIdentity(r.Context(), Identity{Subject: claims.Subject, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, status int, err error) {
	if m.logger != nil && !errors.Is(err, ErrMissingToken) {
		m.logger.Printf("auth rejected %s %s: %v", r.Method, r.URL.Path, err)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="market-reports"`)
	}
	http.Error(w, err.Error(), status)
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
