package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "STOREFRONT_CONFIG_FILE"
	envPrefix         = "STOREFRONT"
	dotEnvFile        = ".env"
)

type httpServer struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type wooCommerce struct {
	URL                string        `mapstructure:"url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"`
	BreakerOpenTimeout time.Duration `mapstructure:"breaker_open_timeout"`
}

type cart struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	EvictInterval time.Duration `mapstructure:"evict_interval"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
}

// TLSFiles are file paths. Empty paths disable TLS.
type TLSFiles struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

func (f TLSFiles) Enabled() bool {
	return f.CA != "" && f.Cert != "" && f.Key != ""
}

type redis struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
	TLS        TLSFiles      `mapstructure:"tls"`
}

type topics struct {
	ProductViews string `mapstructure:"product_views"`
}

type consumers struct {
	ViewsSaverGroup  string `mapstructure:"views_saver_group"`
	ViewCounterGroup string `mapstructure:"view_counter_group"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
	TLS                TLSFiles  `mapstructure:"tls"`
}

type Config struct {
	LogLevel    slog.Level  `mapstructure:"log_level"`
	HTTP        httpServer  `mapstructure:"http"`
	WooCommerce wooCommerce `mapstructure:"woocommerce"`
	Cart        cart        `mapstructure:"cart"`
	Redis       redis       `mapstructure:"redis"`
	SQLDB       string      `mapstructure:"sql_db"`
	Broker      broker      `mapstructure:"broker"`

	v *viper.Viper
}

// Load reads the config file named by STOREFRONT_CONFIG_FILE or the
// --config flag, with STOREFRONT_ prefixed env overrides.
// It exits the process on failure.
func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads path, loading a .env file first when one exists.
// An empty path reads defaults and env only.
func LoadFile(path string) (Config, error) {
	const op = "config.LoadFile"

	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}
	cfg.v = v
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.request_timeout", "15s")
	v.SetDefault("http.shutdown_timeout", "5s")
	v.SetDefault("woocommerce.url", "")
	v.SetDefault("woocommerce.timeout", "10s")
	v.SetDefault("woocommerce.breaker_max_failures", 5)
	v.SetDefault("woocommerce.breaker_open_timeout", "30s")
	v.SetDefault("cart.idle_ttl", "30m")
	v.SetDefault("cart.evict_interval", "1m")
	v.SetDefault("cart.session_ttl", "48h")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.catalog_ttl", "5m")
	v.SetDefault("redis.tls.ca", "")
	v.SetDefault("redis.tls.cert", "")
	v.SetDefault("redis.tls.key", "")
	v.SetDefault("sql_db", "")
	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.topics.product_views", "product-views")
	v.SetDefault("broker.consumers.views_saver_group", "product-views-saver")
	v.SetDefault("broker.consumers.view_counter_group", "product-view-counter")
	v.SetDefault("broker.tls.ca", "")
	v.SetDefault("broker.tls.cert", "")
	v.SetDefault("broker.tls.key", "")
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	))
	return cfg, err
}

func (c Config) validate() error {
	var errs []error
	if c.WooCommerce.URL == "" {
		errs = append(errs, errors.New("woocommerce.url: required"))
	}
	if c.Broker.Enabled() && len(c.Broker.SchemaRegistryURLs) == 0 {
		errs = append(errs, errors.New("broker.schema_registry_urls: required with seed_brokers"))
	}
	return errors.Join(errs...)
}

// Enabled reports whether the product view pipeline is configured.
func (b broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

// WatchLogLevel sets lv from the config file now and on every change.
func (c Config) WatchLogLevel(lv *slog.LevelVar) {
	const op = "Config.WatchLogLevel"

	lv.Set(c.LogLevel)
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		log := slog.With("op", op, "file", e.Name)

		var level slog.Level
		if err := level.UnmarshalText([]byte(c.v.GetString("log_level"))); err != nil {
			log.Warn("invalid log level, keeping current", "err", err)
			return
		}
		if level != lv.Level() {
			lv.Set(level)
			log.Info("log level changed", "level", level)
		}
	})
	c.v.WatchConfig()
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	SQLDB=%q

	HTTP:
	Addr=%q
	RequestTimeout=%s
	ShutdownTimeout=%s

	WooCommerce:
	URL=%q
	Timeout=%s
	BreakerMaxFailures=%d
	BreakerOpenTimeout=%s

	Cart:
	IdleTTL=%s
	EvictInterval=%s
	SessionTTL=%s

	Redis:
	Addr=%q
	DB=%d
	CatalogTTL=%s
	TLS=%t

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		ProductViews=%q
	Consumers:
		ViewsSaverGroup=%q
		ViewCounterGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		redactDSN(c.SQLDB),
		c.HTTP.Addr,
		c.HTTP.RequestTimeout,
		c.HTTP.ShutdownTimeout,
		c.WooCommerce.URL,
		c.WooCommerce.Timeout,
		c.WooCommerce.BreakerMaxFailures,
		c.WooCommerce.BreakerOpenTimeout,
		c.Cart.IdleTTL,
		c.Cart.EvictInterval,
		c.Cart.SessionTTL,
		c.Redis.Addr,
		c.Redis.DB,
		c.Redis.CatalogTTL,
		c.Redis.TLS.Enabled(),
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.Topics.ProductViews,
		c.Broker.Consumers.ViewsSaverGroup,
		c.Broker.Consumers.ViewCounterGroup,
	)
}

// redactDSN hides the password of a URL style DSN.
func redactDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPass := strings.Cut(userinfo, ":")
	if !hasPass {
		return dsn
	}
	return scheme + "://" + user + ":***@" + host
}
