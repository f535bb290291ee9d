package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/AaronLay10/ArcEngine/internal/config"
)

// Role represents an authorization role.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// Secret names for basic auth credentials. Each supports *_FILE.
const (
	envAdminUser    = "ARC_ADMIN_USER"
	envAdminPass    = "ARC_ADMIN_PASS"
	envOperatorUser = "ARC_OPERATOR_USER"
	envOperatorPass = "ARC_OPERATOR_PASS"
)

type credentials struct {
	user string
	pass string
	role Role
}

// authConfig holds the configured credentials, admin first.
type authConfig struct {
	creds   []credentials
	enabled bool
}

var auth *authConfig

// InitAuth loads credentials. Auth is enabled only when admin credentials
// are set; otherwise every request is treated as admin.
func InitAuth() error {
	secrets, err := config.ResolveSecrets(envAdminUser, envAdminPass, envOperatorUser, envOperatorPass)
	if err != nil {
		return fmt.Errorf("failed to resolve auth credentials: %w", err)
	}
	auth = newAuthConfig(secrets[envAdminUser], secrets[envAdminPass], secrets[envOperatorUser], secrets[envOperatorPass])
	return nil
}

func newAuthConfig(adminUser, adminPass, operatorUser, operatorPass string) *authConfig {
	a := &authConfig{enabled: adminUser != "" && adminPass != ""}
	if a.enabled {
		a.creds = append(a.creds, credentials{user: adminUser, pass: adminPass, role: RoleAdmin})
	}
	if operatorUser != "" && operatorPass != "" {
		a.creds = append(a.creds, credentials{user: operatorUser, pass: operatorPass, role: RoleOperator})
	}
	return a
}

// IsAuthEnabled returns true if authentication is configured.
func IsAuthEnabled() bool {
	return auth != nil && auth.enabled
}

// authenticate returns the caller's role, or "" for bad credentials.
func authenticate(r *http.Request) Role {
	if !IsAuthEnabled() {
		return RoleAdmin
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}
	for _, c := range auth.creds {
		// Evaluate both comparisons to keep timing independent of which failed.
		userOK := secureCompare(user, c.user)
		passOK := secureCompare(pass, c.pass)
		if userOK && passOK {
			return c.role
		}
	}
	return ""
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Arc Engine"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// RequireRole wraps a handler and requires one of the specified roles.
func RequireRole(handler http.HandlerFunc, allowedRoles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := authenticate(r)
		if role == "" {
			requireAuth(w)
			return
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				handler(w, r)
				return
			}
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

// RequireAnyRole wraps a handler requiring admin OR operator role.
func RequireAnyRole(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin, RoleOperator)
}

// RequireAdmin wraps a handler requiring admin role only.
func RequireAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin)
}
