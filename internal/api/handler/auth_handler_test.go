package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/api/middleware"
	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.Session, error)
	loginFn    func(ctx context.Context, username, password string) (*ports.Session, error)
	meFn       func(ctx context.Context, id int64) (*domain.Account, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Session, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*ports.Session, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Me(ctx context.Context, id int64) (*domain.Account, error) {
	return s.meFn(ctx, id)
}

type stubLimiter struct {
	decision ports.RateLimitDecision
	err      error
	keys     []string
}

func (l *stubLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (ports.RateLimitDecision, error) {
	l.keys = append(l.keys, key)
	d := l.decision
	d.Limit = limit
	return d, l.err
}

var testSession = SessionConfig{SameSite: http.SameSiteLaxMode, MaxAge: time.Hour}

func newSession(token string) *ports.Session {
	return &ports.Session{
		Token:     token,
		ExpiresAt: time.Now().Add(time.Hour),
		Account:   &domain.Account{ID: 1, Username: "alice", Role: domain.RoleUser},
	}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*ports.Session, error) {
			if in.Username != "alice" || in.Email != "a@x.com" || in.FirstName != "A" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return newSession("tok"), nil
		},
	}
	h := NewAuthHandler(stub, testSession, LoginThrottle{}, zerolog.Nop())

	req := jsonRequest(http.MethodPost, "/api/register",
		`{"username":"alice","email":"a@x.com","password":"secret1","firstName":"A"}`)
	rec := httptest.NewRecorder()
	if err := h.Register(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg["message"] != "Registration successful" || msg["token"] != nil {
		t.Fatalf("unexpected body: %v", msg)
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatalf("expected session cookie")
	}
	if cookie.Value != "tok" || !cookie.HttpOnly || cookie.Path != "/" || cookie.MaxAge != 3600 {
		t.Fatalf("unexpected cookie: %+v", cookie)
	}
	if cookie.SameSite != http.SameSiteLaxMode || cookie.Secure {
		t.Fatalf("unexpected cookie attributes: %+v", cookie)
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	for _, want := range []error{domain.ErrUsernameTaken, domain.ErrEmailTaken} {
		e := newEcho()
		stub := &stubAuthService{
			registerFn: func(context.Context, ports.RegisterInput) (*ports.Session, error) {
				return nil, want
			},
		}
		h := NewAuthHandler(stub, testSession, LoginThrottle{}, zerolog.Nop())

		req := jsonRequest(http.MethodPost, "/api/register",
			`{"username":"bob","email":"b@x.com","password":"pw"}`)
		rec := httptest.NewRecorder()
		err := h.Register(e.NewContext(req, rec))
		if !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
		if sessionCookie(t, rec) != nil {
			t.Fatalf("no cookie expected on conflict")
		}
	}
}

func TestAuthHandler_Register_RejectsBadShape(t *testing.T) {
	cases := map[string]string{
		"missing username": `{"email":"a@x.com","password":"pw"}`,
		"blank username":   `{"username":"   ","email":"a@x.com","password":"pw"}`,
		"bad email":        `{"username":"a","email":"nope","password":"pw"}`,
		"missing password": `{"username":"a","email":"a@x.com"}`,
		"not json":         `{"username":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEcho()
			stub := &stubAuthService{
				registerFn: func(context.Context, ports.RegisterInput) (*ports.Session, error) {
					t.Fatalf("service must not be called")
					return nil, nil
				},
			}
			h := NewAuthHandler(stub, testSession, LoginThrottle{}, zerolog.Nop())

			err := h.Register(e.NewContext(jsonRequest(http.MethodPost, "/api/register", body), httptest.NewRecorder()))
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %v", err)
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, username, password string) (*ports.Session, error) {
			if username != "alice" || password != "secret1" {
				t.Fatalf("unexpected credentials")
			}
			return newSession("tok"), nil
		},
	}
	session := testSession
	session.ExposeToken = true
	h := NewAuthHandler(stub, session, LoginThrottle{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPost, "/api/login", `{"username":"alice","password":"secret1"}`)
	if err := h.Login(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	msg := decodeMessage(t, rec)
	if msg["message"] != "Login successful" || msg["token"] != "tok" {
		t.Fatalf("unexpected body: %v", msg)
	}
	if c := sessionCookie(t, rec); c == nil || c.Value != "tok" {
		t.Fatalf("expected session cookie, got %+v", c)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*ports.Session, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, testSession, LoginThrottle{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPost, "/api/login", `{"username":"alice","password":"wrong"}`)
	if err := h.Login(e.NewContext(req, rec)); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if sessionCookie(t, rec) != nil {
		t.Fatalf("no cookie expected on failed login")
	}
}

func TestAuthHandler_Login_Throttled(t *testing.T) {
	e := newEcho()
	called := false
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*ports.Session, error) {
			called = true
			return newSession("tok"), nil
		},
	}
	limiter := &stubLimiter{decision: ports.RateLimitDecision{Allowed: false, ResetAt: time.Now().Add(30 * time.Second)}}
	h := NewAuthHandler(stub, testSession, LoginThrottle{Limiter: limiter, Limit: 5, Window: time.Minute}, zerolog.Nop())

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPost, "/api/login", `{"username":"Alice","password":"pw"}`)
	req.RemoteAddr = "10.0.0.1:5555"
	err := h.Login(e.NewContext(req, rec))

	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if called {
		t.Fatalf("credentials must not be checked when throttled")
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "login:10.0.0.1:alice" {
		t.Fatalf("unexpected limiter keys: %v", limiter.keys)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Limit") != "5" {
		t.Fatalf("expected rate limit headers, got %v", rec.Header())
	}
}

func TestAuthHandler_Login_LimiterFailureFailsOpen(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*ports.Session, error) {
			return newSession("tok"), nil
		},
	}
	limiter := &stubLimiter{err: errors.New("redis down")}
	h := NewAuthHandler(stub, testSession, LoginThrottle{Limiter: limiter, Limit: 5, Window: time.Minute}, zerolog.Nop())

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPost, "/api/login", `{"username":"alice","password":"pw"}`)
	if err := h.Login(e.NewContext(req, rec)); err != nil {
		t.Fatalf("expected login to proceed, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Logout_Idempotent(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{}, testSession, LoginThrottle{}, zerolog.Nop())

	var bodies []string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "tok"})
		rec := httptest.NewRecorder()
		if err := h.Logout(e.NewContext(req, rec)); err != nil {
			t.Fatalf("logout error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		cookie := sessionCookie(t, rec)
		if cookie == nil || cookie.Value != "" || cookie.MaxAge >= 0 {
			t.Fatalf("expected cleared cookie, got %+v", cookie)
		}
		bodies = append(bodies, rec.Body.String())
	}
	if bodies[0] != bodies[1] {
		t.Fatalf("logout responses differ: %q vs %q", bodies[0], bodies[1])
	}
}

func TestSessionConfig_SameSiteNoneForcesSecure(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	SessionConfig{SameSite: http.SameSiteNoneMode, MaxAge: time.Hour}.set(c, "tok", time.Now().Add(time.Hour))

	cookie := sessionCookie(t, rec)
	if cookie == nil || !cookie.Secure || cookie.SameSite != http.SameSiteNoneMode {
		t.Fatalf("unexpected cookie: %+v", cookie)
	}
}
