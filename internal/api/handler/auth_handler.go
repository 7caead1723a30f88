package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/api/metrics"
	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

// LoginThrottle limits login attempts per client address and username.
// A nil Limiter disables throttling.
type LoginThrottle struct {
	Limiter ports.RateLimiter
	Limit   int
	Window  time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	session     SessionConfig
	throttle    LoginThrottle
	logger      zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, session SessionConfig, throttle LoginThrottle, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		session:     session,
		throttle:    throttle,
		logger:      logger,
	}
}

type registerRequest struct {
	Username  string `json:"username" validate:"required,notblank,max=64"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,max=72"`
	FirstName string `json:"firstName" validate:"omitempty,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,max=100"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required,notblank,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type sessionResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// Register creates an ordinary account and starts a session for it.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /api/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			metrics.RegistrationsTotal.WithLabelValues("username_taken").Inc()
		case errors.Is(err, domain.ErrEmailTaken):
			metrics.RegistrationsTotal.WithLabelValues("email_taken").Inc()
		default:
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	h.session.set(c, session.Token, session.ExpiresAt)
	return c.JSON(http.StatusCreated, h.sessionBody("Registration successful", session.Token))
}

// Login verifies credentials and starts a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      429   {object}  messageResponse
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.checkThrottle(c, req.Username); err != nil {
		return err
	}

	session, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		} else {
			metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	h.session.set(c, session.Token, session.ExpiresAt)
	return c.JSON(http.StatusOK, h.sessionBody("Login successful", session.Token))
}

// Logout clears the session cookie. It never fails.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.session.clear(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

func (h *AuthHandler) sessionBody(message, token string) sessionResponse {
	resp := sessionResponse{Message: message}
	if h.session.ExposeToken {
		resp.Token = token
	}
	return resp
}

func (h *AuthHandler) checkThrottle(c echo.Context, username string) error {
	if h.throttle.Limiter == nil || h.throttle.Limit <= 0 {
		return nil
	}

	key := "login:" + c.RealIP() + ":" + strings.ToLower(strings.TrimSpace(username))
	decision, err := h.throttle.Limiter.Allow(c.Request().Context(), key, h.throttle.Limit, h.throttle.Window)
	if err != nil {
		h.logger.Warn().Err(err).Msg("login rate limiter unavailable, allowing attempt")
		return nil
	}

	res := c.Response().Header()
	res.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	res.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	if decision.Allowed {
		return nil
	}

	retry := int(time.Until(decision.ResetAt).Seconds()) + 1
	if retry < 1 {
		retry = 1
	}
	res.Set("Retry-After", strconv.Itoa(retry))
	metrics.LoginAttemptsTotal.WithLabelValues("rate_limited").Inc()
	return domain.ErrRateLimited
}
