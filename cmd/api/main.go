// @title           Portfolio API
// @version         1.0
// @description     Blog, comment and account endpoints with cookie-based sessions.
// @BasePath        /
// @securityDefinitions.apikey CookieAuth
// @in              cookie
// @name            token
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	_ "github.com/folio/portfolio-api/docs"
	"github.com/folio/portfolio-api/internal/api"
	"github.com/folio/portfolio-api/internal/api/handler"
	"github.com/folio/portfolio-api/internal/core/ports"
	"github.com/folio/portfolio-api/internal/core/service"
	"github.com/folio/portfolio-api/internal/infrastructure/config"
	mongostore "github.com/folio/portfolio-api/internal/infrastructure/db/mongo"
	"github.com/folio/portfolio-api/internal/infrastructure/db/postgres"
	redisstore "github.com/folio/portfolio-api/internal/infrastructure/db/redis"
	"github.com/folio/portfolio-api/internal/infrastructure/http"
	"github.com/folio/portfolio-api/internal/infrastructure/http/handlers"
	"github.com/folio/portfolio-api/internal/infrastructure/queue"
	"github.com/folio/portfolio-api/internal/infrastructure/ratelimit"
	"github.com/folio/portfolio-api/pkg/logger"
)

// stores is the selected persistence backend.
type stores struct {
	accounts ports.AccountRepository
	blogs    ports.BlogRepository
	comments ports.CommentRepository
	ping     handlers.Pinger
	close    func(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.New(logger.Options{})
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Env: cfg.Env, Service: "portfolio-api"})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}()

	readiness := map[string]handlers.Pinger{cfg.Store.Driver: st.ping}

	// --- Login throttle store ---
	var limiter ports.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		limiter = redisstore.NewRateLimiter(rdb)
		readiness["redis"] = redisPinger(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login throttle backed by redis")
	} else {
		limiter = ratelimit.NewMemoryLimiter(0, nil)
		log.Info().Msg("login throttle kept in process")
	}

	// --- Last-login dispatcher ---
	dispatcher := queue.NewDispatcher(cfg.Login.Workers, cfg.Login.QueueSize, st.accounts, log)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Services ---
	tokens, err := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	authService := service.NewAuthService(st.accounts, service.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, dispatcher, log)
	if cfg.Admin.Username != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			return err
		}
	}

	e := api.NewRouter(api.Deps{
		Tokens:         tokens,
		Accounts:       st.accounts,
		AuthService:    authService,
		AccountService: service.NewAccountService(st.accounts),
		BlogService:    service.NewBlogService(st.blogs, log),
		CommentService: service.NewCommentService(st.comments, st.blogs, log),
		Readiness:      readiness,
	}, api.Options{
		ClientURL:  cfg.Auth.ClientURL,
		TrustProxy: cfg.TrustProxy,
		Session: handler.SessionConfig{
			Secure:      cfg.SecureCookies(),
			SameSite:    cfg.SameSite(),
			MaxAge:      cfg.Auth.TokenTTL,
			ExposeToken: cfg.Auth.ExposeToken,
		},
		Throttle: handler.LoginThrottle{
			Limiter: limiter,
			Limit:   cfg.Login.RateLimit,
			Window:  cfg.Login.RateWindow,
		},
		Metrics: prometheus.DefaultRegisterer,
		Logger:  log,
	})

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("store", cfg.Store.Driver).Msg("starting server")
	return http.NewServer(e, cfg.Port, cfg.ShutdownTimeout, log).Run(ctx)
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Store.MongoURI, Database: cfg.Store.MongoDB})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Store.MongoDB).Msg("connected to mongodb")
		return &stores{
			accounts: mongostore.NewAccountRepository(db),
			blogs:    mongostore.NewBlogRepository(db),
			comments: mongostore.NewCommentRepository(db),
			ping:     mongoPinger(client),
			close:    client.Disconnect,
		}, nil

	default:
		db, err := postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Msg("connected to postgres")
		return &stores{
			accounts: postgres.NewAccountRepository(db),
			blogs:    postgres.NewBlogRepository(db),
			comments: postgres.NewCommentRepository(db),
			ping:     handlers.PingFunc(db.PingContext),
			close:    sqlCloser(db),
		}, nil
	}
}

func sqlCloser(db *sql.DB) func(context.Context) error {
	return func(context.Context) error { return db.Close() }
}

func mongoPinger(client *mongodriver.Client) handlers.Pinger {
	return handlers.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) })
}

func redisPinger(client *goredis.Client) handlers.Pinger {
	return handlers.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
}
