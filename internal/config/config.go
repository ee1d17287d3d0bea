package config

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Store backends.
const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type HTTP struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // server drain and loop stop deadline

	AllowedHosts []string // Host headers accepted on /reconcile
	AllowedCIDRS []string // clients allowed on ops endpoints
	TrustProxy   bool     // read the client IP from X-Forwarded-For

	ReconcileBurst     int // manual triggers allowed in a burst per client IP
	ReconcilePerMinute int // token refill per client IP per minute
}

type Log struct {
	Level  string // "debug" | "info" | "warn" | "error"
	Pretty bool   // colored console output instead of JSON
}

type Storage struct {
	Kind       string // StoreRedis | StoreSQLite | StoreMemory
	SQLitePath string
	HostsFile  string // optional YAML file of hosts registered at startup
}

// Loops holds the reconciliation cadences.
type Loops struct {
	LivenessInterval      time.Duration
	InventoryFastInterval time.Duration
	InventorySlowInterval time.Duration
	StateFastInterval     time.Duration
	StateSlowInterval     time.Duration
	MaxConcurrency        int // hosts handled in parallel within one cycle
}

// Remote configures the client that talks to NVR hosts.
type Remote struct {
	StatusTimeout     time.Duration
	FetchTimeout      time.Duration
	StatusPath        string
	ConfigPath        string
	StatsPath         string
	SkipTLSValidation bool
}

type Redis struct {
	Addr             string
	User             string
	Password         string
	PasswordRequired bool
	DB               int
	DialTimeout      time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	PoolSize         int
	ConnectTimeout   time.Duration // total retry budget at startup
	RetryInterval    time.Duration // first backoff, doubled up to MaxWait
	MaxWait          time.Duration
	PingTimeout      time.Duration
	WarnThreshold    int // attempts before connection failures log at Warn
}

type Config struct {
	HTTP    HTTP
	Log     Log
	Storage Storage
	Loops   Loops
	Remote  Remote
	Redis   Redis
}

const envPrefix = "NVRSYNC_"

// Load reads the configuration from NVRSYNC_* variables. It panics on a
// missing mandatory value or an inconsistent combination.
func Load() *Config {
	e := env{prefix: envPrefix}

	cfg := &Config{
		HTTP: HTTP{
			ListenPort:         e.str("LISTEN_PORT", ":8080"),
			ShutdownTimeout:    e.duration("SHUTDOWN_TIMEOUT", 5*time.Second),
			AllowedHosts:       e.list("ALLOWED_HOSTS"),
			AllowedCIDRS:       e.list("ALLOWED_CIDRS"),
			TrustProxy:         e.boolean("TRUST_PROXY", false),
			ReconcileBurst:     e.integer("RECONCILE_BURST", 3),
			ReconcilePerMinute: e.integer("RECONCILE_PER_MINUTE", 6),
		},
		Log: Log{
			Level:  strings.ToLower(e.str("LOG_LEVEL", "info")),
			Pretty: e.boolean("PRETTY_LOG", false),
		},
		Storage: Storage{
			Kind:       strings.ToLower(e.str("STORE", StoreRedis)),
			SQLitePath: e.str("SQLITE_PATH", "/data/nvrsync.db"),
			HostsFile:  e.str("HOSTS_FILE", ""),
		},
		Loops: Loops{
			LivenessInterval:      e.duration("LIVENESS_INTERVAL", 20*time.Second),
			InventoryFastInterval: e.duration("INVENTORY_FAST_INTERVAL", time.Minute),
			InventorySlowInterval: e.duration("INVENTORY_SLOW_INTERVAL", 10*time.Minute),
			StateFastInterval:     e.duration("STATE_FAST_INTERVAL", time.Minute),
			StateSlowInterval:     e.duration("STATE_SLOW_INTERVAL", 5*time.Minute),
			MaxConcurrency:        e.integer("MAX_CONCURRENCY", 8),
		},
		Remote: Remote{
			StatusTimeout:     e.duration("STATUS_TIMEOUT", 10*time.Second),
			FetchTimeout:      e.duration("FETCH_TIMEOUT", time.Minute),
			StatusPath:        e.str("STATUS_PATH", "/api/version"),
			ConfigPath:        e.str("CONFIG_PATH", "/api/config"),
			StatsPath:         e.str("STATS_PATH", "/api/stats"),
			SkipTLSValidation: e.boolean("SKIP_TLS_VALIDATION", false),
		},
	}

	switch cfg.Storage.Kind {
	case StoreRedis:
		cfg.Redis = loadRedis(env{prefix: envPrefix + "REDIS_"})
	case StoreSQLite, StoreMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: %sSTORE must be one of redis, sqlite, memory (got %q)", envPrefix, cfg.Storage.Kind))
	}

	if cfg.Loops.MaxConcurrency < 1 {
		panic(fmt.Sprintf("❌ FATAL: %sMAX_CONCURRENCY must be >= 1 (got %d)", envPrefix, cfg.Loops.MaxConcurrency))
	}
	if cfg.Loops.InventorySlowInterval < cfg.Loops.InventoryFastInterval {
		cfg.Loops.InventorySlowInterval = cfg.Loops.InventoryFastInterval
	}
	if cfg.Loops.StateSlowInterval < cfg.Loops.StateFastInterval {
		cfg.Loops.StateSlowInterval = cfg.Loops.StateFastInterval
	}

	if cfg.Log.Level == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.redacted())
	}
	return cfg
}

// loadRedis reads the NVRSYNC_REDIS_* block. Address and DB are mandatory.
func loadRedis(e env) Redis {
	r := Redis{
		Addr:             e.required("ADDR"),
		DB:               e.requiredInt("DB"),
		User:             e.str("USERNAME", "default"),
		Password:         e.str("PASSWORD", ""),
		PasswordRequired: e.boolean("PASSWORD_REQUIRED", true),
		DialTimeout:      e.duration("DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:      e.duration("READ_TIMEOUT", 3*time.Second),
		WriteTimeout:     e.duration("WRITE_TIMEOUT", 3*time.Second),
		PoolSize:         e.integer("POOL_SIZE", 10),
		ConnectTimeout:   e.duration("CONNECT_TIMEOUT", 30*time.Second),
		RetryInterval:    e.duration("RETRY_INTERVAL", 2*time.Second),
		MaxWait:          e.duration("MAX_WAIT", 10*time.Second),
		PingTimeout:      e.duration("PING_TIMEOUT", 5*time.Second),
		WarnThreshold:    e.integer("WARN_THRESHOLD", 3),
	}
	if r.PasswordRequired && r.Password == "" {
		panic(fmt.Sprintf("❌ FATAL: %s is required when %s=true", e.key("PASSWORD"), e.key("PASSWORD_REQUIRED")))
	}
	return r
}

func (c *Config) redacted() Config {
	out := *c
	if out.Redis.Password != "" {
		out.Redis.Password = "***REDACTED***"
	}
	if out.Redis.User != "" {
		out.Redis.User = "***REDACTED***"
	}
	return out
}
