package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/AaronLay10/cyclist/internal/config"
)

// Role represents an authorization role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleReader Role = "reader"
)

// authConfig holds credentials loaded from the environment.
type authConfig struct {
	admin   config.Credentials
	reader  config.Credentials
	enabled bool
}

var auth *authConfig

// InitAuth loads CYCLIST_ADMIN_USER/PASS and CYCLIST_READER_USER/PASS,
// honouring the *_FILE convention. Without admin credentials,
// authentication is disabled.
func InitAuth() error {
	admin, err := config.LoadCredentials("CYCLIST_ADMIN")
	if err != nil {
		return fmt.Errorf("admin credentials: %w", err)
	}
	reader, err := config.LoadCredentials("CYCLIST_READER")
	if err != nil {
		return fmt.Errorf("reader credentials: %w", err)
	}
	auth = &authConfig{admin: admin, reader: reader, enabled: admin.Enabled()}
	return nil
}

// IsAuthEnabled returns true if authentication is configured.
func IsAuthEnabled() bool {
	return auth != nil && auth.enabled
}

// authenticate checks basic auth credentials and returns the role if valid.
// Returns empty string if credentials are invalid.
func authenticate(r *http.Request) Role {
	if auth == nil || !auth.enabled {
		return RoleAdmin
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}
	if matches(auth.admin, user, pass) {
		return RoleAdmin
	}
	if matches(auth.reader, user, pass) {
		return RoleReader
	}
	return ""
}

func matches(c config.Credentials, user, pass string) bool {
	return c.Enabled() && secureCompare(user, c.User) && secureCompare(pass, c.Password)
}

// secureCompare performs constant-time string comparison.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// requireAuth returns 401 Unauthorized with WWW-Authenticate header.
func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="cyclist"`)
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

// RequireAnyRole wraps a handler requiring admin OR reader role.
func RequireAnyRole(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin, RoleReader)
}

// RequireAdmin wraps a handler requiring admin role only.
func RequireAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin)
}
