package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	audithandler "avd/internal/audit/handler"
	auditmetrics "avd/internal/audit/metrics"
	auditservice "avd/internal/audit/service"
	"avd/internal/authz"
	authzmetrics "avd/internal/authz/metrics"
	"avd/internal/integrity"
	"avd/internal/interceptor"
	interceptormetrics "avd/internal/interceptor/metrics"
	jwttoken "avd/internal/jwt_token"
	personnelhandler "avd/internal/personnel/handler"
	personnelservice "avd/internal/personnel/service"
	personnelmemory "avd/internal/personnel/store/memory"
	personnelpostgres "avd/internal/personnel/store/postgres"
	"avd/internal/platform/config"
	"avd/internal/platform/metrics"
	"avd/internal/platform/postgres"
	redisclient "avd/internal/platform/redis"
	rlmiddleware "avd/internal/ratelimit/middleware"
	rlmetrics "avd/internal/ratelimit/metrics"
	rlmodels "avd/internal/ratelimit/models"
	ratelimit "avd/internal/ratelimit/service"
	ratelimitmemory "avd/internal/ratelimit/store/memory"
	ratelimitredis "avd/internal/ratelimit/store/redis"
	httptransport "avd/internal/transport/http"
	"avd/internal/txrunner"
	txmetrics "avd/internal/txrunner/metrics"
	validationhandler "avd/internal/validation/handler"
	"avd/migrations"
	"avd/pkg/platform/audit"
	auditkafka "avd/pkg/platform/audit/store/kafka"
	auditmemory "avd/pkg/platform/audit/store/memory"
	auditpostgres "avd/pkg/platform/audit/store/postgres"
	"avd/pkg/platform/audit/worker"
	"avd/pkg/platform/circuit"
)

// app is the assembled server plus the background loops it needs.
type app struct {
	router  http.Handler
	workers []func(ctx context.Context) error
	closers []func()
}

func (a *app) onClose(fn func()) { a.closers = append(a.closers, fn) }

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// storage is the persistence half of the app: Postgres when a database URL
// is configured, in-memory otherwise.
type storage struct {
	personnel personnelservice.Store
	checker   integrity.Checker
	runner    txrunner.Runner
	audit     audit.Store
	db        *sql.DB
}

func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger, tm *txmetrics.Metrics) (*storage, error) {
	if cfg.Database.URL == "" {
		log.Warn("database url not set, using in-memory stores")
		store := personnelmemory.New()
		runner, err := txrunner.NewMemoryRunner(store)
		if err != nil {
			return nil, err
		}
		return &storage{
			personnel: store,
			checker:   store,
			runner:    runner.WithMetrics(tm),
			audit:     auditmemory.NewInMemoryStore(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	s, err := postgresStorage(ctx, db, tm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func postgresStorage(ctx context.Context, db *sql.DB, tm *txmetrics.Metrics) (*storage, error) {
	if err := migrations.Apply(ctx, db); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	store, err := personnelpostgres.New(db)
	if err != nil {
		return nil, err
	}
	checker, err := integrity.NewPostgresChecker(db)
	if err != nil {
		return nil, err
	}
	runner, err := txrunner.NewSQLRunner(db, txrunner.WithMetrics(tm))
	if err != nil {
		return nil, err
	}
	return &storage{
		personnel: store,
		checker:   checker,
		runner:    runner,
		audit:     auditpostgres.New(db),
		db:        db,
	}, nil
}

// buildApp wires every component. Collectors register on reg so tests can
// build more than one app per process.
func buildApp(ctx context.Context, cfg *config.Config, log *slog.Logger, reg *prometheus.Registry) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	checks := map[string]httptransport.HealthCheck{}

	st, err := openStorage(ctx, cfg, log, txmetrics.NewWith(reg))
	if err != nil {
		return nil, err
	}
	if st.db != nil {
		a.onClose(func() { _ = st.db.Close() })
		checks["postgres"] = st.db.PingContext
	}

	limiter, err := buildLimiter(ctx, a, cfg, log, reg, checks)
	if err != nil {
		return nil, err
	}

	auditLogger, err := buildAuditLogger(ctx, a, cfg, st.audit, log, reg)
	if err != nil {
		return nil, err
	}

	gate := authz.NewGate(authz.WithLogger(log), authz.WithMetrics(authzmetrics.NewWith(reg)))
	policy := rlmodels.Policy{MaxRequests: cfg.RateLimit.MaxRequests, Window: cfg.RateLimit.Window}

	guard, err := interceptor.New(limiter, gate, auditLogger,
		interceptor.WithLogger(log),
		interceptor.WithMetrics(interceptormetrics.NewWith(reg)),
		interceptor.WithPolicy(policy),
	)
	if err != nil {
		return nil, err
	}

	svc, err := personnelservice.New(st.personnel, st.checker, st.runner, personnelservice.WithLogger(log))
	if err != nil {
		return nil, err
	}

	readLimit := rlmiddleware.New(limiter, policy, log)
	jwt := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)

	a.router = httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        metrics.NewWith(reg),
		TokenValidator: jwt,
		MetricsHandler: metrics.HandlerFor(reg),
		Checks:         checks,
		Modules: []httptransport.Registrar{
			personnelhandler.New(svc, guard, gate, log),
			audithandler.New(auditLogger, gate, readLimit.RateLimit, log),
			validationhandler.New(gate, log),
		},
	})
	ok = true
	return a, nil
}

// buildLimiter prefers Redis so limits hold across instances, with the
// in-process store as the fallback while Redis is unreachable.
func buildLimiter(
	ctx context.Context,
	a *app,
	cfg *config.Config,
	log *slog.Logger,
	reg *prometheus.Registry,
	checks map[string]httptransport.HealthCheck,
) (*ratelimit.Service, error) {
	local := ratelimitmemory.New(
		ratelimitmemory.WithIdleWindows(cfg.RateLimit.IdleWindows),
		ratelimitmemory.WithMaxKeys(cfg.RateLimit.MaxKeys),
	)
	a.workers = append(a.workers, func(ctx context.Context) error {
		local.RunSweeper(ctx, cfg.RateLimit.SweepInterval, func(removed int) {
			if removed > 0 {
				log.Debug("rate limit windows swept", "removed", removed)
			}
		})
		return nil
	})

	opts := []ratelimit.Option{
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(rlmetrics.NewWith(reg)),
	}

	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return ratelimit.New(local, opts...)
	}
	a.onClose(func() { _ = rc.Close() })
	checks["redis"] = rc.Health

	shared, err := ratelimitredis.New(rc.Client)
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		ratelimit.WithFallback(local),
		ratelimit.WithBreaker(circuit.New("ratelimit-redis")),
	)
	return ratelimit.New(shared, opts...)
}

// buildAuditLogger writes synchronously to the primary store and, when Kafka
// is configured, mirrors entries to the topic through a background writer.
func buildAuditLogger(
	ctx context.Context,
	a *app,
	cfg *config.Config,
	primary audit.Store,
	log *slog.Logger,
	reg *prometheus.Registry,
) (*auditservice.Logger, error) {
	am := auditmetrics.NewWith(reg)
	opts := []auditservice.Option{
		auditservice.WithLogger(log),
		auditservice.WithMetrics(am),
		auditservice.WithTimeout(cfg.Audit.Timeout),
		auditservice.WithBreaker(circuit.New("audit-store")),
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.New(auditkafka.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		if err != nil {
			return nil, err
		}
		a.onClose(sink.Close)
		if err := sink.EnsureTopic(ctx, 0, 0); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.Topic, "error", err)
		}

		mirror := worker.New(sink,
			worker.WithWriteTimeout(cfg.Audit.Timeout),
			worker.WithDropHandler(am.IncDropped),
			worker.WithErrorHandler(func(ctx context.Context, e audit.Entry, err error) {
				log.ErrorContext(ctx, "failed to mirror audit entry",
					"error", err,
					"audit_id", e.ID,
					"action", e.Action,
				)
			}),
		)
		a.workers = append(a.workers, mirror.Run)
		opts = append(opts, auditservice.WithSink(audit.NewFanout(primary, mirror)))
	}

	return auditservice.New(primary, opts...)
}
