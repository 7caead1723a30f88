package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/folio/portfolio-api/internal/api/metrics"
	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "token"

const (
	claimsKey    = "auth.claims"
	principalKey = "auth.principal"
)

const (
	gateAuthenticate = "authenticate"
	gateUser         = "user"
	gateAdmin        = "admin"
)

// AccountLookup resolves the live account behind a token subject.
type AccountLookup interface {
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
}

// Guard gates routes on the session token and the caller's role.
type Guard struct {
	verifier ports.TokenVerifier
	accounts AccountLookup
}

func NewGuard(verifier ports.TokenVerifier, accounts AccountLookup) *Guard {
	return &Guard{verifier: verifier, accounts: accounts}
}

// TokenFromRequest returns the session token from the cookie, falling back to
// an Authorization bearer header.
func TokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Authenticate verifies the token and attaches its claims without consulting
// the account store.
func (g *Guard) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := g.verify(c, gateAuthenticate)
		if err != nil {
			return err
		}
		c.Set(claimsKey, claims)
		c.Set(principalKey, domain.Principal{AccountID: claims.AccountID, Role: claims.Role})
		observe(gateAuthenticate, "allowed")
		return next(c)
	}
}

// RequireUser verifies the token, resolves the account and attaches a
// principal carrying the account's current role.
func (g *Guard) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := g.resolve(c, gateUser); err != nil {
			return err
		}
		observe(gateUser, "allowed")
		return next(c)
	}
}

// RequireAdmin runs the user checks and then demands the ADMIN role.
func (g *Guard) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	adminOnly := RBACWithConfig(RBACConfig{
		Roles:         []domain.Role{domain.RoleAdmin},
		DeniedMessage: "Admin access required",
		Gate:          gateAdmin,
	})(next)
	return func(c echo.Context) error {
		if err := g.resolve(c, gateAdmin); err != nil {
			return err
		}
		return adminOnly(c)
	}
}

func (g *Guard) verify(c echo.Context, gate string) (*ports.TokenClaims, error) {
	raw := TokenFromRequest(c)
	if raw == "" {
		observe(gate, "missing_token")
		return nil, domain.ErrUnauthorized
	}
	claims, err := g.verifier.Verify(raw)
	if err != nil {
		observe(gate, "invalid_token")
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

func (g *Guard) resolve(c echo.Context, gate string) error {
	claims, err := g.verify(c, gate)
	if err != nil {
		return err
	}

	account, err := g.accounts.FindByID(c.Request().Context(), claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			observe(gate, "account_missing")
			return domain.ErrUnauthorized
		}
		observe(gate, "error")
		return fmt.Errorf("resolve account %d: %w", claims.AccountID, err)
	}
	if !account.IsActive {
		observe(gate, "account_missing")
		return domain.ErrUnauthorized
	}

	c.Set(claimsKey, claims)
	c.Set(principalKey, domain.Principal{AccountID: account.ID, Role: account.Role})
	return nil
}

// PrincipalFrom returns the principal attached by one of the guard gates.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok
}

// ClaimsFrom returns the verified token claims attached by the guard.
func ClaimsFrom(c echo.Context) (*ports.TokenClaims, bool) {
	claims, ok := c.Get(claimsKey).(*ports.TokenClaims)
	return claims, ok && claims != nil
}

func observe(gate, outcome string) {
	metrics.GuardDecisionsTotal.WithLabelValues(gate, outcome).Inc()
}
