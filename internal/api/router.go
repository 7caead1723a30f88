package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/folio/portfolio-api/internal/api/handler"
	"github.com/folio/portfolio-api/internal/api/middleware"
	"github.com/folio/portfolio-api/internal/core/ports"
	"github.com/folio/portfolio-api/internal/infrastructure/http/handlers"
)

// Deps are the constructed collaborators the router wires into handlers.
type Deps struct {
	Tokens         ports.TokenVerifier
	Accounts       middleware.AccountLookup
	AuthService    ports.AuthService
	AccountService ports.AccountService
	BlogService    ports.BlogService
	CommentService ports.CommentService
	// Readiness dependencies pinged by /health/ready, keyed by name.
	Readiness map[string]handlers.Pinger
}

// Options tune the transport.
type Options struct {
	ClientURL string
	// TrustProxy takes the client address from X-Forwarded-For, trusting
	// private-network hops only. Otherwise the socket peer is the client.
	TrustProxy bool
	Session    handler.SessionConfig
	Throttle   handler.LoginThrottle
	BodyLimit  string
	// Metrics enables HTTP metrics and /metrics when non-nil.
	Metrics prometheus.Registerer
	Logger  zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)
	if opts.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	bodyLimit := opts.BodyLimit
	if bodyLimit == "" {
		bodyLimit = "8M"
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(opts.Logger))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	if opts.ClientURL != "" {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     []string{opts.ClientURL},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
			AllowCredentials: true,
		}))
	}
	if opts.Metrics != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "portfolio",
			Registerer: opts.Metrics,
		}))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Dependencies ---
	guard := middleware.NewGuard(deps.Tokens, deps.Accounts)
	authHandler := handler.NewAuthHandler(deps.AuthService, opts.Session, opts.Throttle, opts.Logger)
	userHandler := handler.NewUserHandler(deps.AuthService, deps.AccountService)
	blogHandler := handler.NewBlogHandler(deps.BlogService)
	commentHandler := handler.NewCommentHandler(deps.CommentService)

	// --- Health probes (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewHealthDependenciesHandler(deps.Readiness).Readiness)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// --- Session routes ---
	api.POST("/login", authHandler.Login)
	api.POST("/register", authHandler.Register)
	api.POST("/logout", authHandler.Logout)

	// --- Accounts ---
	api.GET("/user/me", userHandler.Me, guard.Authenticate)
	api.GET("/users", userHandler.List, guard.RequireAdmin)

	// --- Blogs ---
	api.GET("/blogs", blogHandler.List)
	api.GET("/blogs/:id", blogHandler.Get)
	api.POST("/blogs", blogHandler.Create, guard.RequireAdmin)

	// --- Comments ---
	api.GET("/blogs/:id/comments", commentHandler.List)
	api.POST("/blogs/:id/comments", commentHandler.Create, guard.RequireUser)
	api.DELETE("/comments/:id", commentHandler.Delete, guard.RequireUser)

	return e
}
