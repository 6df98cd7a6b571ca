package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/cache"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/adapter/woocommerce"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/sr"
)

const probeAttempts = 5

type outbound struct {
	woo      *woocommerce.Client
	redis    *redis.Client
	sqldb    *storage.SQLDB
	producer *kafka.ProductViewsProducer
	consumer *kafka.ProductViewsConsumer
	view     *kafka.PopularityView
}

type coreService struct {
	catalog *service.CatalogService
	carts   *service.CartSessions
	views   *service.ViewsService
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	level      *slog.LevelVar
	outbound   outbound
	service    coreService
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg, level: new(slog.LevelVar)}

	app.initLogger()
	app.initUpstream()
	app.initCatalogAndCarts()
	app.initViewsPipeline()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.level}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
	app.cfg.WatchLogLevel(app.level)
}

func (app *App) initUpstream() {
	const op = "App.initUpstream"
	log := slog.With("op", op)

	woo, err := woocommerce.NewClient(
		app.cfg.WooCommerce.URL,
		woocommerce.WithTimeout(app.cfg.WooCommerce.Timeout),
		woocommerce.WithBreaker(
			app.cfg.WooCommerce.BreakerMaxFailures,
			app.cfg.WooCommerce.BreakerOpenTimeout,
		),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	// the storefront starts without the upstream and reports it in /healthz
	if err := woo.Ping(app.ctx); err != nil {
		log.Warn("upstream is unavailable", "err", err)
	}

	app.outbound.woo = woo
}

func (app *App) initCatalogAndCarts() {
	const op = "App.initCatalogAndCarts"
	log := slog.With("op", op)

	var (
		catalogCache port.CatalogCache = cache.NopCache{}
		tokens       port.SessionTokenStore
	)

	if app.cfg.Redis.Addr != "" {
		rdb := app.openRedis(op)
		catalogCache = cache.NewCatalogCache(rdb, app.cfg.Redis.CatalogTTL)
		tokens = cache.NewSessionTokens(rdb, app.cfg.Cart.SessionTTL)
		app.outbound.redis = rdb
	} else {
		log.Warn("redis is not configured, catalog cache is disabled")
	}

	app.service.catalog = service.NewCatalogService(app.outbound.woo, catalogCache)
	app.service.carts = service.NewCartSessions(
		app.outbound.woo, tokens, app.cfg.Cart.IdleTTL,
	)
}

func (app *App) openRedis(op string) *redis.Client {
	tlsCfg := app.tlsConfig(op, app.cfg.Redis.TLS)

	rdb := redis.NewClient(&redis.Options{
		Addr:      app.cfg.Redis.Addr,
		Password:  app.cfg.Redis.Password,
		DB:        app.cfg.Redis.DB,
		TLSConfig: tlsCfg,
	})

	err := retry.Probe(app.ctx, "redis", probeAttempts, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		app.fallDown(op, err)
	}
	return rdb
}

func (app *App) initViewsPipeline() {
	const op = "App.initViewsPipeline"
	log := slog.With("op", op)

	broker := app.cfg.Broker
	if !broker.Enabled() {
		if app.cfg.SQLDB != "" {
			log.Warn("sql_db is ignored without broker.seed_brokers")
		}
		log.Warn("broker is not configured, product views are dropped")
		app.service.views = service.NewViewsService()
		return
	}

	tlsCfg := app.tlsConfig(op, broker.TLS)
	if tlsCfg != nil {
		kafka.UseGokaTLS(tlsCfg)
	}

	serde := app.productViewSerde(op, tlsCfg)
	topic := broker.Topics.ProductViews

	producer, err := kafka.NewProductViewsProducer(
		kafka.ProducerClientOpt(app.ctx, broker.SeedBrokers, topic, tlsCfg),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.producer = &producer

	counter, err := kafka.NewViewCounterProc(
		broker.SeedBrokers, topic, broker.Consumers.ViewCounterGroup, serde,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	view, err := kafka.NewPopularityView(
		broker.SeedBrokers, broker.Consumers.ViewCounterGroup,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.view = view

	opts := []service.ViewsOpt{
		service.ViewsProducerOpt(producer),
		service.ViewsCounterOpt(counter),
		service.ViewsPopularityOpt(view),
	}

	if app.cfg.SQLDB != "" {
		sqldb := app.openSQLDB(op)
		opts = append(opts, service.ViewsStorageOpt(
			storage.NewProductViewsRepository(sqldb),
		))
		app.outbound.sqldb = &sqldb
	}

	app.service.views = service.NewViewsService(opts...)

	if app.outbound.sqldb == nil {
		log.Warn("sql_db is not configured, product views are not stored")
		return
	}

	consumer, err := kafka.NewProductViewsConsumer(
		kafka.ConsumerClientOpt(
			broker.SeedBrokers, topic, broker.Consumers.ViewsSaverGroup, tlsCfg,
		),
		kafka.ConsumerDecoderOpt(serde),
		kafka.ViewsConsumerSaverOpt(app.service.views),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.consumer = &consumer
}

func (app *App) productViewSerde(op string, tlsCfg *tls.Config) schema.Serde {
	srOpts := []sr.ClientOpt{sr.URLs(app.cfg.Broker.SchemaRegistryURLs...)}
	if tlsCfg != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(tlsCfg))
	}

	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	serde, err := schema.NewSerdeProductViewV1(
		app.ctx,
		schema.SubjectOpt(schema.TopicValueSubject(app.cfg.Broker.Topics.ProductViews)),
		schema.SchemaIdentifierOpt(schema.NewRegistryIdentifier(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	return serde
}

func (app *App) openSQLDB(op string) storage.SQLDB {
	sqldb, err := storage.OpenSQLDB(app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}

	if err := retry.Probe(app.ctx, "postgres", probeAttempts, sqldb.Ping); err != nil {
		sqldb.Close()
		app.fallDown(op, err)
	}
	return sqldb
}

func (app *App) tlsConfig(op string, files config.TLSFiles) *tls.Config {
	if !files.Enabled() {
		return nil
	}
	tlsCfg, err := adapter.MakeTLSConfig(files.CA, files.Cert, files.Key)
	if err != nil {
		app.fallDown(op, err)
	}
	return tlsCfg
}

func (app *App) initInboundAdapters() {
	router := httphandler.NewRouter(httphandler.RouterDeps{
		Catalog:    app.service.catalog,
		Carts:      app.service.carts,
		Views:      app.service.views,
		Popularity: app.service.views,
		Proxy:      httphandler.NewGraphQLProxy(app.outbound.woo.Endpoint(), nil),
		Upstream:   app.outbound.woo,
	})

	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTP.Addr, router, app.cfg.HTTP.RequestTimeout,
	)
}

// Run starts the background workers and the HTTP server.
// stopFn is called when any of them fails.
func (app *App) Run(stopFn context.CancelFunc) {
	ctx := app.ctx

	go app.service.carts.Run(ctx, app.cfg.Cart.EvictInterval)

	app.service.views.Run(ctx, stopFn)
	if app.outbound.view != nil {
		go app.outbound.view.Run(ctx)
	}
	if app.outbound.consumer != nil {
		go app.outbound.consumer.Run(ctx)
	}

	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.views.Close()

	if app.outbound.consumer != nil {
		app.outbound.consumer.Close()
	}
	if app.outbound.producer != nil {
		app.outbound.producer.Close()
	}
	if app.outbound.sqldb != nil {
		app.outbound.sqldb.Close()
	}
	if app.outbound.redis != nil {
		if err := app.outbound.redis.Close(); err != nil {
			slog.Error("failed to close redis", "err", err)
		}
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
