package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/trialbill/modules/api"
	"github.com/dmitrymomot/trialbill/pkg/account"
	"github.com/dmitrymomot/trialbill/pkg/httpserver"
	"github.com/dmitrymomot/trialbill/pkg/logger"
	"github.com/dmitrymomot/trialbill/pkg/mongo"
	"github.com/dmitrymomot/trialbill/pkg/notify"
	"github.com/dmitrymomot/trialbill/pkg/ratelimiter"
	"github.com/dmitrymomot/trialbill/pkg/redis"
	"github.com/dmitrymomot/trialbill/pkg/requestid"
	"github.com/dmitrymomot/trialbill/pkg/session"
	"github.com/dmitrymomot/trialbill/pkg/subscription"
)

const (
	gatewayDev    = "dev"
	gatewayPaddle = "paddle"

	devSignatureHeader = "X-Dev-Signature"
)

// app holds the wired services shared by all commands.
type app struct {
	cfg      appConfig
	logger   *slog.Logger
	registry *prometheus.Registry
	catalog  *subscription.Catalog
	accounts account.Service
	subs     subscription.Service
	sessions *session.Manager
	notifier *notify.Notifier
	limiter  ratelimiter.Limiter
	probes   []httpserver.Probe

	signatureHeader string
	closers         []func(context.Context) error
}

func newLogger(cfg appConfig) *slog.Logger {
	return logger.FromConfig(cfg.Logger, serviceName,
		logger.WithContextExtractors(requestid.LogExtractor(), session.LogExtractor()),
	)
}

func loadCatalog(ctx context.Context, cfg subscription.Config) (*subscription.Catalog, error) {
	if cfg.PlansFile != "" {
		return subscription.LoadCatalog(ctx, subscription.NewYAMLFileSource(cfg.PlansFile))
	}
	return subscription.NewCatalog(subscription.DefaultPlans()...)
}

// newApp connects the configured infrastructure. Without MONGODB_URL and
// REDIS_URL everything runs in memory.
func newApp(ctx context.Context, cfg appConfig, log *slog.Logger) (_ *app, err error) {
	a := &app{
		cfg:      cfg,
		logger:   log,
		registry: prometheus.NewRegistry(),
	}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := subscription.NewMetrics(a.registry)

	if a.catalog, err = loadCatalog(ctx, cfg.Subscription); err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}

	var (
		users       account.Store
		records     subscription.Store
		accountOpts = []account.Option{account.WithLogger(log)}
	)
	if cfg.Mongo.Enabled() {
		client, err := mongo.New(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)
		a.probes = append(a.probes, httpserver.Probe{Name: "mongodb", Check: mongo.Healthcheck(client)})

		store := mongo.NewUserStore(client.Database(cfg.Mongo.Database))
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		users, records = store, store
	} else {
		log.WarnContext(ctx, "MONGODB_URL not set, using in-memory stores")
		mem := subscription.NewMemoryStore()
		users, records = account.NewMemoryStore(), mem
		accountOpts = append(accountOpts, account.WithAfterCreate(func(_ context.Context, u *account.User) error {
			mem.Register(u.ID)
			return nil
		}))
	}

	var (
		sessions session.StateStore
		limits   ratelimiter.Store = ratelimiter.NewMemoryStore()
	)
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		a.probes = append(a.probes, httpserver.Probe{Name: "redis", Check: redis.Healthcheck(client)})
		sessions = session.NewRedisStore(client, cfg.Session.RedisPrefix)
		limits = ratelimiter.NewRedisStore(client, cfg.RateLimit.RedisPrefix)
	} else {
		sessions = session.NewMemoryStore()
	}
	if cfg.RateLimit.Enabled {
		if a.limiter, err = ratelimiter.NewBucket(limits, cfg.RateLimit); err != nil {
			return nil, err
		}
	}
	a.sessions = session.NewFromConfig(cfg.Session, sessions)

	if cfg.Google.Enabled() {
		accountOpts = append(accountOpts, account.WithGoogleOAuth(cfg.Google, sessions))
	}
	a.accounts = account.NewService(users, accountOpts...)

	gateway, err := a.newGateway(metrics)
	if err != nil {
		return nil, err
	}

	sender, err := a.newSender()
	if err != nil {
		return nil, err
	}
	a.notifier = notify.NewNotifier(sender, a.recipient, a.catalog, cfg.Notify, notify.WithLogger(log))
	a.closers = append(a.closers, func(context.Context) error {
		a.notifier.Wait()
		return nil
	})

	a.subs = subscription.NewService(a.catalog, gateway, records,
		subscription.WithLogger(log),
		subscription.WithMetrics(metrics),
		subscription.WithTransitionHook(a.notifier.OnTransition),
		subscription.WithEmailResolver(func(ctx context.Context, userID string) (string, error) {
			r, err := a.recipient(ctx, userID)
			return r.Email, err
		}),
		subscription.WithTotalCycles(cfg.Subscription.TotalCycles),
		subscription.WithReconcileBatch(cfg.Subscription.ReconcileBatch),
	)

	return a, nil
}

func (a *app) newGateway(metrics *subscription.Metrics) (subscription.Gateway, error) {
	var gateway subscription.Gateway
	switch a.cfg.Subscription.Gateway {
	case gatewayPaddle:
		paddle, err := subscription.NewPaddleGateway(a.cfg.Paddle)
		if err != nil {
			return nil, err
		}
		gateway = paddle
		a.signatureHeader = api.DefaultSignatureHeader
	case gatewayDev:
		gateway = subscription.NewDevGateway(a.cfg.Subscription.DevWebhookSecret, a.logger)
		a.signatureHeader = devSignatureHeader
	default:
		return nil, fmt.Errorf("unknown billing gateway %q", a.cfg.Subscription.Gateway)
	}

	if a.cfg.Breaker.Enabled {
		gateway = subscription.NewBreakerGateway(gateway, a.cfg.Breaker, a.logger, metrics)
	}
	return gateway, nil
}

func (a *app) newSender() (notify.Sender, error) {
	if a.cfg.Notify.PostmarkEnabled() {
		return notify.NewPostmarkSender(a.cfg.Notify)
	}
	return notify.NewDevSender(a.logger), nil
}

func (a *app) recipient(ctx context.Context, userID string) (notify.Recipient, error) {
	u, err := a.accounts.Get(ctx, userID)
	if err != nil {
		return notify.Recipient{}, err
	}
	return notify.Recipient{Email: u.Email, Name: u.Name}, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
