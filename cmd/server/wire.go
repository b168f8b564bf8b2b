package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"profast/internal/directory/cache"
	dirhandler "profast/internal/directory/handler"
	dirservice "profast/internal/directory/service"
	dirstore "profast/internal/directory/store"
	"profast/internal/identity"
	"profast/internal/outbox"
	parcelhandler "profast/internal/parcel/handler"
	parcelservice "profast/internal/parcel/service"
	parcelstore "profast/internal/parcel/store"
	"profast/internal/payment/gateway"
	payhandler "profast/internal/payment/handler"
	payservice "profast/internal/payment/service"
	paystore "profast/internal/payment/store"
	"profast/internal/platform/config"
	"profast/internal/platform/metrics"
	"profast/internal/platform/middleware"
	"profast/internal/platform/postgres"
	platformredis "profast/internal/platform/redis"
	trackhandler "profast/internal/tracking/handler"
	trackservice "profast/internal/tracking/service"
	trackstore "profast/internal/tracking/store"
	httptransport "profast/internal/transport/http"
	"profast/pkg/platform/circuit"
	"profast/pkg/platform/tx"
)

type application struct {
	router  http.Handler
	worker  *outbox.Worker
	storage string
	closers []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// stores groups one implementation of every collection plus the matching
// transaction runner.
type stores struct {
	parcels  interface {
		parcelservice.Store
		payservice.ParcelStore
	}
	payments payservice.Store
	tracking trackservice.Store
	users    dirservice.UserStore
	riders   dirservice.RiderStore
	outbox   outbox.Store
	runner   tx.Runner
}

func memoryStores() stores {
	return stores{
		parcels:  parcelstore.NewInMemory(),
		payments: paystore.NewInMemory(),
		tracking: trackstore.NewInMemory(),
		users:    dirstore.NewInMemoryUsers(),
		riders:   dirstore.NewInMemoryRiders(),
		outbox:   outbox.NewInMemoryStore(),
		runner:   tx.NewLockRunner(),
	}
}

func postgresStores(db *sql.DB) stores {
	return stores{
		parcels:  parcelstore.NewPostgres(db),
		payments: paystore.NewPostgres(db),
		tracking: trackstore.NewPostgres(db),
		users:    dirstore.NewPostgresUsers(db),
		riders:   dirstore.NewPostgresRiders(db),
		outbox:   outbox.NewPostgresStore(db),
		runner:   tx.NewPostgresRunner(db),
	}
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger) (*application, error) {
	app := &application{storage: "memory"}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var checks []httptransport.HealthCheck
	st := memoryStores()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		app.closers = append(app.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			app.close()
			return nil, err
		}
		st = postgresStores(db)
		app.storage = "postgres"
		checks = append(checks, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
	}

	roleCache := cache.NewRoleCache(nil)
	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		app.close()
		return nil, err
	}
	if rdb != nil {
		app.closers = append(app.closers, func() { _ = rdb.Close() })
		roleCache = cache.NewRoleCache(rdb.Client, cache.WithTTL(cfg.Redis.RoleCacheTTL))
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Check: rdb.Health})
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := outbox.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			app.close()
			return nil, err
		}
		app.closers = append(app.closers, pub.Close)
		if err := pub.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("could not ensure outbox topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		app.worker = outbox.NewWorker(st.outbox, pub,
			outbox.WithInterval(cfg.Outbox.PollInterval),
			outbox.WithBatchSize(cfg.Outbox.BatchSize),
			outbox.WithLogger(log),
			outbox.WithMetrics(m),
		)
		checks = append(checks, httptransport.HealthCheck{Name: "kafka", Check: pub.Ping})
	}

	var gw payservice.Gateway = gateway.Disabled{}
	if cfg.Stripe.SecretKey != "" {
		gw = gateway.NewGuarded(gateway.NewStripe(cfg.Stripe.SecretKey),
			circuit.New("stripe", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)), log)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set; payment intents are disabled")
	}

	recorder := outbox.NewRecorder(st.outbox)
	directory := dirservice.New(st.users, st.riders, st.runner,
		dirservice.WithRoleCache(roleCache),
		dirservice.WithOutbox(recorder),
		dirservice.WithLogger(log),
		dirservice.WithMetrics(m),
	)
	parcels := parcelservice.New(st.parcels,
		parcelservice.WithLogger(log),
		parcelservice.WithMetrics(m),
	)
	tracking := trackservice.New(st.tracking, st.runner,
		trackservice.WithOutbox(recorder),
		trackservice.WithLogger(log),
		trackservice.WithMetrics(m),
	)
	payments := payservice.New(st.parcels, st.payments, gw, st.runner,
		payservice.WithOutbox(recorder),
		payservice.WithLogger(log),
		payservice.WithMetrics(m),
		payservice.WithCurrency(cfg.Stripe.Currency),
	)

	if cfg.Auth.AdminToken == "" {
		log.Warn("PROFAST_ADMIN_TOKEN not set; only existing admins can reach admin routes")
	}
	guards := middleware.NewGuards(identity.New(cfg.Auth.SigningKey, cfg.Auth.Issuer), directory, log,
		middleware.WithAdminToken(cfg.Auth.AdminToken))
	app.router = httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        m,
		Gatherer:       reg,
		Guards:         guards,
		RequestTimeout: cfg.RequestTimeout,
		Checks:         checks,
		Modules: []httptransport.Module{
			parcelhandler.New(parcels, log),
			trackhandler.New(tracking, log),
			payhandler.New(payments, log),
			dirhandler.New(directory, log),
		},
	})
	return app, nil
}
