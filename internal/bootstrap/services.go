package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/holygrail/holygrail-web/config"
	"github.com/holygrail/holygrail-web/internal/adapters/cookie"
	"github.com/holygrail/holygrail-web/internal/adapters/holygrail"
	"github.com/holygrail/holygrail-web/internal/adapters/jwtinspect"
	"github.com/holygrail/holygrail-web/internal/adapters/localstorage"
	redisstore "github.com/holygrail/holygrail-web/internal/adapters/redis"
	"github.com/holygrail/holygrail-web/internal/apiclient"
	"github.com/holygrail/holygrail-web/internal/observability/statsd"
	"github.com/holygrail/holygrail-web/internal/ports"
	"github.com/holygrail/holygrail-web/internal/service"
	"github.com/holygrail/holygrail-web/internal/util"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Sessions *service.SessionService
	Auth     *service.AuthService
	Backend  *holygrail.Backend
	API      *apiclient.Client
	Metrics  *statsd.Client

	// Redis is set only for the redis session store.
	Redis redis.UniversalClient

	ownsRedis bool
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
	// HTTPClient overrides the client used to reach the backend.
	HTTPClient *http.Client
	// Redis overrides the connection ConnectRedis would open.
	Redis redis.UniversalClient
	Clock ports.Clock
}

// NewServiceContainer wires the session layer: credential store, token
// inspector, session and auth services, and the backend API client whose
// interceptors read and clear that session.
func NewServiceContainer(ctx context.Context, deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = util.RealClock{}
	}

	c := &ServiceContainer{}

	metricsClient, err := statsd.NewClient(statsd.Config{
		Enabled:    cfg.Observability.Metrics.IsEnabled(),
		Address:    cfg.Observability.Metrics.StatsdAddress,
		Prefix:     cfg.Observability.Metrics.Prefix,
		Logger:     logger,
		GlobalTags: map[string]string{"store": string(cfg.Session.Store)},
	})
	if err != nil {
		// Metrics are best effort; run without them.
		logger.WarnContext(ctx, "statsd unavailable, metrics disabled", "error", err)
		metricsClient, _ = statsd.NewClient(statsd.Config{})
	}
	c.Metrics = metricsClient

	store, err := c.credentialStore(ctx, cfg, deps, clock, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Sessions, err = service.NewSessionService(service.SessionServiceOptions{
		Store:      store,
		Inspector:  jwtinspect.New(clock),
		Clock:      clock,
		DefaultTTL: cfg.Session.DefaultTTL,
		StoreName:  string(cfg.Session.Store),
		Metrics:    c.Metrics,
		Logger:     logger,
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("session service: %w", err)
	}

	reqs, resps := apiclient.Standard(c.Sessions, c.Sessions, logger)
	c.API, err = apiclient.New(apiclient.Options{
		BaseURL:              cfg.API.BaseURL,
		HTTPClient:           deps.HTTPClient,
		Timeout:              cfg.API.Timeout,
		Logger:               logger,
		Metrics:              c.Metrics,
		RequestInterceptors:  reqs,
		ResponseInterceptors: resps,
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("api client: %w", err)
	}
	c.Backend = holygrail.New(c.API)

	c.Auth, err = service.NewAuthService(service.AuthServiceOptions{
		Backend:  c.Backend,
		Sessions: c.Sessions,
		Logger:   logger,
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("auth service: %w", err)
	}

	logger.InfoContext(ctx, "session layer ready",
		"store", cfg.Session.Store,
		"api", c.API.BaseURL(),
		"metrics", c.Metrics.Enabled())
	return c, nil
}

func (c *ServiceContainer) credentialStore(
	ctx context.Context,
	cfg *config.AppConfig,
	deps ServiceDeps,
	clock ports.Clock,
	logger *slog.Logger,
) (ports.CredentialStore, error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		client := deps.Redis
		if client == nil {
			var err error
			if client, err = ConnectRedis(ctx, cfg.Redis, logger); err != nil {
				return nil, fmt.Errorf("connect redis: %w", err)
			}
			c.ownsRedis = true
		}
		c.Redis = client
		return redisstore.NewCredentialStore(client, redisstore.Options{
			Prefix: cfg.Redis.KeyPrefix,
			Clock:  clock,
		}), nil
	case config.SessionStoreMemory:
		if !cfg.IsDev {
			logger.WarnContext(ctx, "memory session store shares one session across all visitors; use it for development only")
		}
		return localstorage.NewMemory(), nil
	default:
		return cookie.NewStore(cookie.Options{
			UserCookie:  cfg.Session.UserKey,
			TokenCookie: cfg.Session.TokenKey,
			Secure:      cfg.SecureCookies(),
			Clock:       clock,
		}), nil
	}
}

// Close releases connections the container opened.
func (c *ServiceContainer) Close() error {
	var errs []error
	if c.Metrics != nil {
		errs = append(errs, c.Metrics.Close())
	}
	if c.Redis != nil && c.ownsRedis {
		errs = append(errs, c.Redis.Close())
	}
	return errors.Join(errs...)
}
