package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

type stubVerifier struct {
	claims map[string]*ports.TokenClaims
}

func (v *stubVerifier) Verify(token string) (*ports.TokenClaims, error) {
	if c, ok := v.claims[token]; ok {
		return c, nil
	}
	return nil, domain.ErrInvalidToken
}

type stubAccounts struct {
	accounts map[int64]*domain.Account
	err      error
}

func (s *stubAccounts) FindByID(_ context.Context, id int64) (*domain.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	if a, ok := s.accounts[id]; ok {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func newTestGuard() (*Guard, *stubAccounts) {
	exp := time.Now().Add(time.Hour)
	verifier := &stubVerifier{claims: map[string]*ports.TokenClaims{
		"user-token":    {AccountID: 1, Role: domain.RoleUser, ExpiresAt: exp},
		"admin-token":   {AccountID: 2, Role: domain.RoleAdmin, ExpiresAt: exp},
		"demoted-token": {AccountID: 3, Role: domain.RoleAdmin, ExpiresAt: exp},
		"ghost-token":   {AccountID: 99, Role: domain.RoleUser, ExpiresAt: exp},
	}}
	accounts := &stubAccounts{accounts: map[int64]*domain.Account{
		1: {ID: 1, Username: "alice", Role: domain.RoleUser, IsActive: true},
		2: {ID: 2, Username: "root", Role: domain.RoleAdmin, IsActive: true},
		3: {ID: 3, Username: "former", Role: domain.RoleUser, IsActive: true},
	}}
	return NewGuard(verifier, accounts), accounts
}

func withCookie(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	return req
}

func TestTokenFromRequest(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{name: "cookie", cookie: "abc", want: "abc"},
		{name: "bearer", header: "Bearer xyz", want: "xyz"},
		{name: "bearer lowercase", header: "bearer xyz", want: "xyz"},
		{name: "cookie wins", cookie: "abc", header: "Bearer xyz", want: "abc"},
		{name: "other scheme", header: "Token xyz", want: ""},
		{name: "none", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withCookie(tt.cookie)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			if got := TokenFromRequest(c); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGuard_RequireUser(t *testing.T) {
	guard, _ := newTestGuard()

	tests := []struct {
		name     string
		token    string
		wantErr  error
		wantRole domain.Role
	}{
		{name: "valid", token: "user-token", wantRole: domain.RoleUser},
		{name: "missing carrier", token: "", wantErr: domain.ErrUnauthorized},
		{name: "bad token", token: "forged", wantErr: domain.ErrInvalidToken},
		{name: "account gone", token: "ghost-token", wantErr: domain.ErrUnauthorized},
		{name: "live role wins over token", token: "demoted-token", wantRole: domain.RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(withCookie(tt.token), httptest.NewRecorder())

			called := false
			err := guard.RequireUser(func(c echo.Context) error {
				called = true
				p, ok := PrincipalFrom(c)
				if !ok {
					t.Fatalf("principal not attached")
				}
				if p.Role != tt.wantRole {
					t.Fatalf("expected role %s, got %s", tt.wantRole, p.Role)
				}
				return nil
			})(c)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if called {
					t.Fatalf("next must not run")
				}
				return
			}
			if err != nil || !called {
				t.Fatalf("expected next to run, err=%v", err)
			}
		})
	}
}

func TestGuard_RequireUser_StoreFailure(t *testing.T) {
	guard, accounts := newTestGuard()
	accounts.err = errors.New("db down")

	e := echo.New()
	c := e.NewContext(withCookie("user-token"), httptest.NewRecorder())
	err := guard.RequireUser(func(echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})(c)

	if err == nil || errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("store failure must surface as an internal error, got %v", err)
	}
}

func TestGuard_RequireAdmin(t *testing.T) {
	guard, _ := newTestGuard()

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "no credential", token: "", wantStatus: http.StatusUnauthorized},
		{name: "non-admin", token: "user-token", wantStatus: http.StatusForbidden},
		{name: "demoted admin", token: "demoted-token", wantStatus: http.StatusForbidden},
		{name: "admin", token: "admin-token", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(withCookie(tt.token), httptest.NewRecorder())

			err := guard.RequireAdmin(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)

			status := http.StatusOK
			var he *echo.HTTPError
			switch {
			case err == nil:
			case errors.As(err, &he):
				status = he.Code
			case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidToken):
				status = http.StatusUnauthorized
			default:
				t.Fatalf("unexpected error: %v", err)
			}
			if status != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, status)
			}
		})
	}
}

func TestGuard_Authenticate_DoesNotResolveAccount(t *testing.T) {
	guard, _ := newTestGuard()
	e := echo.New()
	c := e.NewContext(withCookie("ghost-token"), httptest.NewRecorder())

	err := guard.Authenticate(func(c echo.Context) error {
		claims, ok := ClaimsFrom(c)
		if !ok || claims.AccountID != 99 {
			t.Fatalf("claims not attached: %+v", claims)
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGuard_Authenticate_BearerFallback(t *testing.T) {
	guard, _ := newTestGuard()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer admin-token")
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	err := guard.Authenticate(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	if err != nil || !called {
		t.Fatalf("expected bearer token to be accepted, err=%v", err)
	}
}
