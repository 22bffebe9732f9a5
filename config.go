package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/9seconds/ipsleuth/stores"
	"github.com/BurntSushi/toml"
	"github.com/hjson/hjson-go/v4"
)

const (
	DefaultListen                            = "127.0.0.1:5000"
	DefaultHTTPTimeout                       = 30 * time.Second
	DefaultRateLimitInterval                 = 100 * time.Millisecond
	DefaultRateLimitBurst                    = 10
	DefaultCircuitBreakerOpenThreshold       = 5
	DefaultCircuitBreakerHalfOpenTimeout     = 30 * time.Second
	DefaultCircuitBreakerResetFailureTimeout = 20 * time.Second
	DefaultRedisAddr                         = "127.0.0.1:6379"

	EnvAPIKey = "IP2LOCATION_API_KEY"
	EnvProxy  = "FETCH_PROXY"
)

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var v interface{}

	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("cannot unmarshal duration: %w", err)
	}

	vv, ok := v.(string)
	if !ok {
		return fmt.Errorf("incorrect duration: %v", v)
	}

	dur, err := time.ParseDuration(vv)
	if err != nil {
		return fmt.Errorf("cannot parse duration: %w", err)
	}

	d.Duration = dur

	return nil
}

type config struct {
	Listen            string               `json:"listen"`
	RootDirectory     string               `json:"root_directory"`
	WorkerPoolSize    uint                 `json:"worker_pool_size"`
	APIKey            string               `json:"api_key"`
	Proxy             string               `json:"proxy"`
	MemoryCacheSize   int                  `json:"memory_cache_size"`
	MemoryCacheTTL    duration             `json:"memory_cache_ttl"`
	VerifyRounds      uint                 `json:"verify_rounds"`
	RetryBackoff      duration             `json:"retry_backoff"`
	HTTPTimeout       duration             `json:"http_timeout"`
	RateLimitInterval duration             `json:"rate_limit_interval"`
	RateLimitBurst    uint                 `json:"rate_limit_burst"`
	CircuitBreaker    configCircuitBreaker `json:"circuit_breaker"`
	Store             configStore          `json:"store"`
	BasicAuth         configBasicAuth      `json:"basic_auth"`
}

func (c config) GetListen() string {
	if c.Listen != "" {
		return c.Listen
	}

	return DefaultListen
}

func (c config) GetRootDirectory() string {
	if c.RootDirectory != "" {
		return c.RootDirectory
	}

	return filepath.Join(os.TempDir(), "ipsleuth")
}

func (c config) GetWorkerPoolSize() int {
	return int(c.WorkerPoolSize)
}

func (c config) GetAPIKey() string {
	return c.APIKey
}

func (c config) GetProxy() string {
	return c.Proxy
}

// GetMemoryCacheSize returns a size of in-process segment cache. Stores
// shared between instances get no memory layer: another instance may
// overwrite a segment at any moment.
func (c config) GetMemoryCacheSize() int {
	if c.Store.Shared() {
		return -1
	}

	return c.MemoryCacheSize
}

func (c config) GetMemoryCacheTTL() time.Duration {
	return c.MemoryCacheTTL.Duration
}

func (c config) GetVerifyRounds() int {
	return int(c.VerifyRounds)
}

func (c config) GetRetryBackoff() time.Duration {
	return c.RetryBackoff.Duration
}

func (c config) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeout.Duration == 0 {
		return DefaultHTTPTimeout
	}

	return c.HTTPTimeout.Duration
}

func (c config) GetRateLimitInterval() time.Duration {
	if c.RateLimitInterval.Duration == 0 {
		return DefaultRateLimitInterval
	}

	return c.RateLimitInterval.Duration
}

func (c config) GetRateLimitBurst() int {
	if c.RateLimitBurst == 0 {
		return DefaultRateLimitBurst
	}

	return int(c.RateLimitBurst)
}

type configCircuitBreaker struct {
	OpenThreshold        uint32   `json:"open_threshold"`
	HalfOpenTimeout      duration `json:"half_open_timeout"`
	ResetFailuresTimeout duration `json:"reset_failures_timeout"`
}

func (c configCircuitBreaker) GetOpenThreshold() uint32 {
	if c.OpenThreshold == 0 {
		return DefaultCircuitBreakerOpenThreshold
	}

	return c.OpenThreshold
}

func (c configCircuitBreaker) GetHalfOpenTimeout() time.Duration {
	if c.HalfOpenTimeout.Duration == 0 {
		return DefaultCircuitBreakerHalfOpenTimeout
	}

	return c.HalfOpenTimeout.Duration
}

func (c configCircuitBreaker) GetResetFailuresTimeout() time.Duration {
	if c.ResetFailuresTimeout.Duration == 0 {
		return DefaultCircuitBreakerResetFailureTimeout
	}

	return c.ResetFailuresTimeout.Duration
}

type configStore struct {
	Name          string `json:"name"`
	Directory     string `json:"directory"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
	DSN           string `json:"dsn"`
}

func (c configStore) GetName() string {
	if c.Name != "" {
		return c.Name
	}

	return stores.NameFS
}

// Shared reports if a store is a network service which can be used by
// several instances at once.
func (c configStore) Shared() bool {
	switch c.GetName() {
	case stores.NameRedis, stores.NamePostgres:
		return true
	}

	return false
}

// GetDirectory returns a directory of fs store. Relative paths are
// resolved against root directory.
func (c configStore) GetDirectory(rootDirectory string) string {
	switch {
	case c.Directory == "":
		return filepath.Join(rootDirectory, "segments")
	case filepath.IsAbs(c.Directory):
		return c.Directory
	}

	return filepath.Join(rootDirectory, c.Directory)
}

func (c configStore) GetRedisAddr() string {
	if c.RedisAddr != "" {
		return c.RedisAddr
	}

	return DefaultRedisAddr
}

func (c configStore) GetRedisPassword() string {
	return c.RedisPassword
}

func (c configStore) GetRedisDB() int {
	return c.RedisDB
}

func (c configStore) GetDSN(rootDirectory string) string {
	if c.DSN == "" && c.GetName() == stores.NameSQLite {
		return filepath.Join(rootDirectory, "segments.db")
	}

	return c.DSN
}

type configBasicAuth struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

func (c configBasicAuth) Enabled() bool {
	return c.User != ""
}

func parseConfig(path string) (*config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}

	rawMap := map[string]interface{}{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(content, &rawMap); err != nil {
			return nil, fmt.Errorf("cannot parse toml: %w", err)
		}
	default:
		if err := hjson.Unmarshal(content, &rawMap); err != nil {
			return nil, fmt.Errorf("cannot parse json: %w", err)
		}
	}

	rawBytes, err := json.Marshal(rawMap)
	if err != nil {
		return nil, fmt.Errorf("cannot normalize config: %w", err)
	}

	conf := config{}

	if err := json.Unmarshal(rawBytes, &conf); err != nil {
		return nil, fmt.Errorf("incorrect config: %w", err)
	}

	if value := os.Getenv(EnvAPIKey); value != "" {
		conf.APIKey = value
	}

	if value := os.Getenv(EnvProxy); value != "" {
		conf.Proxy = value
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	conf.RootDirectory, err = filepath.Abs(conf.GetRootDirectory())
	if err != nil {
		return nil, fmt.Errorf("incorrect root directory: %w", err)
	}

	return &conf, nil
}

func (c config) validate() error {
	if _, _, err := net.SplitHostPort(c.GetListen()); err != nil {
		return fmt.Errorf("incorrect host:port for listen: %w", err)
	}

	if c.Proxy != "" {
		parsed, err := url.Parse(c.Proxy)
		if err != nil {
			return fmt.Errorf("incorrect proxy url: %w", err)
		}

		if parsed.Scheme != "socks5" && parsed.Scheme != "socks5h" {
			return fmt.Errorf("unsupported proxy scheme %s (only socks5 and socks5h)", parsed.Scheme)
		}
	}

	switch c.Store.GetName() {
	case stores.NameFS, stores.NameRedis, stores.NameSQLite:
	case stores.NamePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("dsn is required for %s store", stores.NamePostgres)
		}
	default:
		return fmt.Errorf("unsupported store name: %s", c.Store.GetName())
	}

	if c.BasicAuth.Enabled() && c.BasicAuth.Password == "" {
		return fmt.Errorf("basic auth password is required for user %s", c.BasicAuth.User)
	}

	return nil
}
