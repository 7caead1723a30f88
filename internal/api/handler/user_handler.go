package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/folio/portfolio-api/internal/api/middleware"
	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

type UserHandler struct {
	authService    ports.AuthService
	accountService ports.AccountService
}

func NewUserHandler(authService ports.AuthService, accountService ports.AccountService) *UserHandler {
	return &UserHandler{authService: authService, accountService: accountService}
}

type meResponse struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// Me returns the account behind the session token.
//
// @Summary      Current account
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /api/user/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	account, err := h.authService.Me(c.Request().Context(), claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return err
	}

	return c.JSON(http.StatusOK, meResponse{Username: account.Username, Role: account.Role})
}

// List returns every account. Admin only.
//
// @Summary      List accounts
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Success      200  {array}   domain.Account
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	accounts, err := h.accountService.List(c.Request().Context())
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No users found")
	}
	return c.JSON(http.StatusOK, accounts)
}
