package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// RBACConfig narrows a route to a set of roles.
type RBACConfig struct {
	Roles []domain.Role
	// DeniedMessage replaces the default "Forbidden" body when set.
	DeniedMessage string
	// Gate labels guard decision metrics; empty records nothing.
	Gate string
}

// RBAC enforces role-based access control on the principal attached by the Guard.
// It must run after one of the guard gates.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return RBACWithConfig(RBACConfig{Roles: allowedRoles})
}

// RBACWithConfig returns an RBAC middleware with config.
func RBACWithConfig(config RBACConfig) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(config.Roles))
	for _, r := range config.Roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return domain.ErrUnauthorized
			}
			if _, ok := allowed[p.Role]; !ok {
				if config.Gate != "" {
					observe(config.Gate, "forbidden")
				}
				if config.DeniedMessage != "" {
					return echo.NewHTTPError(http.StatusForbidden, config.DeniedMessage).SetInternal(domain.ErrForbidden)
				}
				return domain.ErrForbidden
			}
			if config.Gate != "" {
				observe(config.Gate, "allowed")
			}
			return next(c)
		}
	}
}
