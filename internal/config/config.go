package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/romangarms/WhereHaveIBeen/internal/logx"
)

var configLogger = logx.GetScope("config")

// Config holds the application configuration
type Config struct {
	AppEnv string
	Server struct {
		Addr             string
		Concurrency      int
		Timezone         string // IANA name; empty means the process local zone
		StaticDir        string
		SocketActivation bool
	}
	Log struct {
		Level  string // debug, info, warn, error
		Format string // text, json
	}
	// SecretKey signs and encrypts the session cookie.
	SecretKey string
	Session   struct {
		CookieName         string
		TTL                time.Duration
		Secure             bool
		RefreshEachRequest bool
	}
	OwnTracks struct {
		URL         string
		AuthTimeout time.Duration
		Timeout     time.Duration
	}
	OSRM struct {
		DefaultURL string
		Timeout    time.Duration
	}
	Breaker struct {
		Enable      bool
		MaxFailures int
		OpenTimeout time.Duration
	}
	RateLimit struct {
		WindowSec int
		Max       int
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	MQ struct {
		URL      string // RabbitMQ URL
		Exchange string
	}
	ES struct {
		Addrs    string // comma separated
		Username string
		Password string
		Index    string
	}
	Apollo struct {
		Enable    bool
		AppID     string
		Cluster   string
		Namespace string
		Addrs     string
		AccessKey string
	}
}

// MissingEnvError reports a required variable that was not set.
type MissingEnvError struct {
	Name string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("Missing Environment Variable: %s", e.Name)
}

// Load loads config from env, and if enabled, overrides with Apollo values.
// Returns config, the store holding it, optional apollo closer, and error.
func Load() (*Config, *Store, func(), error) {
	cfg := FromEnv()
	store := NewStore(cfg)

	if cfg.Apollo.Enable {
		closer, err := overrideFromApollo(cfg, store)
		if err != nil {
			configLogger.Sugar().Errorf("apollo override failed: %v", err)
			return cfg, store, closer, err
		}
		return store.Get(), store, closer, nil
	}

	return cfg, store, nil, nil
}

// FromEnv reads every setting from the environment without validating it.
func FromEnv() *Config {
	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.Server.Addr = getEnv("SERVER_ADDR", ":5000")
	cfg.Server.Concurrency = getInt("SERVER_CONCURRENCY", 256)
	cfg.Server.Timezone = getEnv("SERVER_TIMEZONE", "")
	cfg.Server.StaticDir = getEnv("STATIC_DIR", "")
	cfg.Server.SocketActivation = getBool("SOCKET_ACTIVATION", false)
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "text")

	cfg.SecretKey = getEnv("WHIB_SECRET_KEY", os.Getenv("WHIB_FLASK_SECRET_KEY"))
	cfg.Session.CookieName = getEnv("SESSION_COOKIE_NAME", "session")
	cfg.Session.TTL = time.Duration(getInt("SESSION_TTL_DAYS", 30)) * 24 * time.Hour
	cfg.Session.Secure = getBool("SESSION_COOKIE_SECURE", false)
	cfg.Session.RefreshEachRequest = getBool("SESSION_REFRESH_EACH_REQUEST", true)

	cfg.OwnTracks.URL = getEnv("WHIB_OWNTRACKS_URL", "")
	cfg.OwnTracks.AuthTimeout = getDuration("OWNTRACKS_AUTH_TIMEOUT", 10*time.Second)
	cfg.OwnTracks.Timeout = getDuration("OWNTRACKS_TIMEOUT", 30*time.Second)
	cfg.OSRM.DefaultURL = getEnv("WHIB_DEFAULT_OSRM_URL", "")
	cfg.OSRM.Timeout = getDuration("OSRM_TIMEOUT", 30*time.Second)

	cfg.Breaker.Enable = getBool("BREAKER_ENABLE", true)
	cfg.Breaker.MaxFailures = getInt("BREAKER_MAX_FAILURES", 5)
	cfg.Breaker.OpenTimeout = getDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second)

	cfg.RateLimit.WindowSec = getInt("RATE_LIMIT_WINDOW_SEC", 60)
	cfg.RateLimit.Max = getInt("RATE_LIMIT_MAX", 20)

	// Redis
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getInt("REDIS_DB", 0)

	// RabbitMQ
	cfg.MQ.URL = getEnv("RABBITMQ_URL", "")
	cfg.MQ.Exchange = getEnv("RABBITMQ_EXCHANGE", "whib.events")

	// Elasticsearch
	cfg.ES.Addrs = getEnv("ES_ADDRS", "")
	cfg.ES.Username = getEnv("ES_USERNAME", "")
	cfg.ES.Password = getEnv("ES_PASSWORD", "")
	cfg.ES.Index = getEnv("ES_INDEX", "whib-audit")

	cfg.Apollo.Enable = getBool("APOLLO_ENABLE", false)
	cfg.Apollo.AppID = getEnv("APOLLO_APP_ID", "")
	cfg.Apollo.Cluster = getEnv("APOLLO_CLUSTER", "default")
	cfg.Apollo.Namespace = getEnv("APOLLO_NAMESPACE", "application")
	cfg.Apollo.Addrs = getEnv("APOLLO_ADDRS", "")
	cfg.Apollo.AccessKey = getEnv("APOLLO_ACCESS_KEY", "")

	return cfg
}

// Validate checks the settings the gateway cannot start without.
// The first missing variable is reported.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"WHIB_DEFAULT_OSRM_URL", c.OSRM.DefaultURL},
		{"WHIB_SECRET_KEY", c.SecretKey},
		{"WHIB_OWNTRACKS_URL", c.OwnTracks.URL},
	}
	for _, r := range required {
		if r.value == "" {
			return &MissingEnvError{Name: r.name}
		}
	}
	if c.Server.Timezone != "" {
		if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
			return fmt.Errorf("SERVER_TIMEZONE: %w", err)
		}
	}
	return nil
}

// Location returns the zone client timestamps without an offset are read in.
func (c *Config) Location() *time.Location {
	if c.Server.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	return lo.Ternary(v != "", v, def)
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// getDuration accepts Go durations ("10s") or bare seconds ("10").
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
