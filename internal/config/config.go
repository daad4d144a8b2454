package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DefaultConfigPath = "config.json"
	EnvPrefix         = "APM"

	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

var ErrConfigCreated = errors.New("the configuration file does not exist and has been created. Please try again after editing the configuration file")

type DatabaseConfig struct {
	Host               string `json:"host" envconfig:"HOST"`
	Port               uint64 `json:"port" envconfig:"PORT"`
	Username           string `json:"username" envconfig:"USERNAME"`
	Password           string `json:"password" envconfig:"PASSWORD"`
	Database           string `json:"database" envconfig:"DATABASE"`
	UseTLS             bool   `json:"use_tls" envconfig:"USE_TLS"`
	ConnectTimeout     string `json:"connect_timeout" envconfig:"CONNECT_TIMEOUT"`
	SocketTimeout      string `json:"socket_timeout" envconfig:"SOCKET_TIMEOUT"`
	ConnectIdleTimeout string `json:"connect_idle_timeout" envconfig:"CONNECT_IDLE_TIMEOUT"`
	OperationTimeout   string `json:"operation_timeout" envconfig:"OPERATION_TIMEOUT"`
	Heartbeat          string `json:"heartbeat" envconfig:"HEARTBEAT"`
	MinPoolSize        uint64 `json:"min_pool_size" envconfig:"MIN_POOL_SIZE"`
	MaxPoolSize        uint64 `json:"max_pool_size" envconfig:"MAX_POOL_SIZE"`
}

type RedisConfig struct {
	URL              string `json:"url" envconfig:"URL"`
	KeyPrefix        string `json:"key_prefix" envconfig:"KEY_PREFIX"`
	OperationTimeout string `json:"operation_timeout" envconfig:"OPERATION_TIMEOUT"`
}

type SessionConfig struct {
	Store               string `json:"store" envconfig:"STORE"`
	CookieName          string `json:"cookie_name" envconfig:"COOKIE_NAME"`
	MaxInactiveInterval string `json:"max_inactive_interval" envconfig:"MAX_INACTIVE_INTERVAL"`
	MaxSessions         int    `json:"max_sessions" envconfig:"MAX_SESSIONS"`
}

type CounterConfig struct {
	Store string `json:"store" envconfig:"STORE"`
}

type Config struct {
	Database     DatabaseConfig `json:"database"`
	Redis        RedisConfig    `json:"redis"`
	Session      SessionConfig  `json:"session"`
	Counter      CounterConfig  `json:"counter"`
	DebugMode    bool           `json:"debug_mode" envconfig:"DEBUG_MODE"`
	AppName      string         `json:"app_name" envconfig:"APP_NAME"`
	AppPort      int            `json:"app_port" envconfig:"APP_PORT"`
	LogDir       string         `json:"log_dir" envconfig:"LOG_DIR"`
	LogRetention string         `json:"log_retention" envconfig:"LOG_RETENTION"`
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Host:               "localhost",
			Port:               27017,
			Database:           "apm_demo",
			ConnectTimeout:     "10s",
			SocketTimeout:      "30s",
			ConnectIdleTimeout: "5m",
			OperationTimeout:   "5s",
			Heartbeat:          "10s",
			MinPoolSize:        1,
			MaxPoolSize:        20,
		},
		Redis: RedisConfig{
			URL:              "redis://localhost:6379/0",
			KeyPrefix:        "apm:",
			OperationTimeout: "3s",
		},
		Session: SessionConfig{
			Store:               StoreMemory,
			CookieName:          "APMSESSIONID",
			MaxInactiveInterval: "30m",
		},
		Counter: CounterConfig{
			Store: StoreMemory,
		},
		AppName:      "apm-demo",
		AppPort:      8080,
		LogDir:       "logs",
		LogRetention: "30d",
	}
}

var (
	config      = Default()
	initialized = false
	mu          sync.Mutex
)

// ReadConfig loads config.json from the working directory.
func ReadConfig() (Config, error) {
	return ReadConfigFrom(DefaultConfigPath)
}

// ReadConfigFrom loads the JSON file at path, then applies .env and APM_* overrides.
// A missing file is written out with defaults and reported as ErrConfigCreated.
func ReadConfigFrom(path string) (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	bytes, err := os.ReadFile(path)

	if err != nil {
		if !os.IsNotExist(err) {
			return config, fmt.Errorf("error occured while reading %s: %w", path, err)
		}
		data, _ := json.MarshalIndent(Default(), "", "\t")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return config, fmt.Errorf("error occured while creating %s: %w", path, err)
		}
		return config, ErrConfigCreated
	}

	loaded := Default()
	if err = json.Unmarshal(bytes, &loaded); err != nil {
		return config, errors.New("the configuration file does not contain valid JSON")
	}

	if err := applyEnv(&loaded); err != nil {
		return config, err
	}

	if err := loaded.Validate(); err != nil {
		return config, err
	}

	config = loaded
	initialized = true
	return config, nil
}

func GetConfig() (Config, error) {
	mu.Lock()
	if initialized {
		defer mu.Unlock()
		return config, nil
	}
	mu.Unlock()
	return ReadConfig()
}

// SetConfig replaces the cached configuration, mainly for tests and embedding.
func SetConfig(c Config) {
	mu.Lock()
	defer mu.Unlock()
	config = c
	initialized = true
}

func applyEnv(c *Config) error {
	// a missing .env is fine
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error occured while loading .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("error processing environment configuration: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return fmt.Errorf("invalid app_port %d", c.AppPort)
	}
	if !validStore(c.Session.Store) {
		return fmt.Errorf("invalid session store %q, expected memory, redis or mongo", c.Session.Store)
	}
	if !validStore(c.Counter.Store) {
		return fmt.Errorf("invalid counter store %q, expected memory, redis or mongo", c.Counter.Store)
	}
	if c.Session.CookieName == "" {
		return errors.New("session cookie_name must not be empty")
	}
	if c.Session.MaxSessions < 0 {
		return fmt.Errorf("invalid session max_sessions %d", c.Session.MaxSessions)
	}
	return nil
}

func validStore(store string) bool {
	switch store {
	case StoreMemory, StoreRedis, StoreMongo:
		return true
	}
	return false
}

// UsesStore reports whether the session or counter backend is the given store.
func (c Config) UsesStore(store string) bool {
	return c.Session.Store == store || c.Counter.Store == store
}
