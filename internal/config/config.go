package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации мода и песочницы.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Behaviors BehaviorsConfig `yaml:"behaviors"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
}

type ServerConfig struct {
	TickRate     int    `yaml:"tick_rate"`
	RESTPort     int    `yaml:"rest_port"`
	MetricsPort  int    `yaml:"metrics_port"`
	AdminSecret  string `yaml:"admin_secret"`
	Telemetry    bool   `yaml:"telemetry"`
	ServiceName  string `yaml:"service_name"`
	ShutdownWait int    `yaml:"shutdown_wait_seconds"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	ToFile bool   `yaml:"to_file"`
}

// StorageConfig выбирает бэкенд хранилища свойств мира.
// Backend: memory | badger | redis | mysql | sqlite | mongo.
type StorageConfig struct {
	Backend string       `yaml:"backend"`
	Badger  BadgerConfig `yaml:"badger"`
	Redis   RedisConfig  `yaml:"redis"`
	MySQL   MySQLConfig  `yaml:"mysql"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	Mongo   MongoConfig  `yaml:"mongo"`
	Cache   CacheConfig  `yaml:"cache"`
}

// CacheConfig кеш свойств поверх внешнего хранилища.
// NATSURL пусто - кеш одного узла без рассылки инвалидации.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	NATSURL    string `yaml:"nats_url"`
	Subject    string `yaml:"subject"`
}

type BadgerConfig struct {
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пусто: in-memory шина
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Capacity  int    `yaml:"capacity"`
}

// BehaviorsConfig параметры игровых механик
type BehaviorsConfig struct {
	SwordCooldownMs     int `yaml:"sword_cooldown_ms"`
	LocatorCooldownMs   int `yaml:"locator_cooldown_ms"`
	PlateCooldownMs     int `yaml:"plate_cooldown_ms"`
	ArmorPollTicks      int `yaml:"armor_poll_ticks"`
	PlatePollTicks      int `yaml:"plate_poll_ticks"`
	PlateLoadDelayTicks int `yaml:"plate_load_delay_ticks"`
	PrechargePolls      int `yaml:"precharge_polls"`
	LocatorRadius       int `yaml:"locator_radius"`
	FellLimit           int `yaml:"fell_limit"`
	CreeperRadius       int `yaml:"creeper_radius"`
}

type SandboxConfig struct {
	Seed     int64  `yaml:"seed"`
	Size     int    `yaml:"size"`
	ItemsDir string `yaml:"items_dir"`
	Players  int    `yaml:"players"`
}

// Default возвращает конфигурацию по умолчанию (значения исходного мода)
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			TickRate:     20,
			ServiceName:  "neonite-mod",
			ShutdownWait: 5,
		},
		Logging: LoggingConfig{Level: "info", ToFile: true},
		Storage: StorageConfig{
			Backend: "memory",
			Badger:  BadgerConfig{Path: "data", Compress: true},
			Redis:   RedisConfig{Addr: "localhost:6379", KeyPrefix: "neonite:prop:"},
			SQLite:  SQLiteConfig{Path: "data/properties.db"},
			Mongo:   MongoConfig{URI: "mongodb://localhost:27017", Database: "neonite", Collection: "properties"},
			Cache:   CacheConfig{TTLSeconds: 30, Subject: "neonite.cache.invalidate"},
		},
		EventBus: EventBusConfig{Stream: "NEONITE", Retention: 24, Capacity: 1024},
		Behaviors: BehaviorsConfig{
			SwordCooldownMs:     5000,
			LocatorCooldownMs:   2000,
			PlateCooldownMs:     3000,
			ArmorPollTicks:      5,
			PlatePollTicks:      6,
			PlateLoadDelayTicks: 20,
			PrechargePolls:      1,
			LocatorRadius:       8,
			FellLimit:           256,
			CreeperRadius:       6,
		},
		Sandbox: SandboxConfig{Seed: 1337, Size: 32, ItemsDir: "assets/items", Players: 1},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "NEONITE_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "NEONITE_METRICS_PORT", 2112)
}

// TickInterval длительность одного тика
func (s *ServerConfig) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return 50 * time.Millisecond
	}
	return time.Second / time.Duration(s.TickRate)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV NEONITE_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("NEONITE_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые нельзя исправить молча
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "badger", "redis", "mysql", "sqlite", "mongo":
	default:
		return fmt.Errorf("неизвестный storage.backend: %q", c.Storage.Backend)
	}
	if c.Storage.Cache.TTLSeconds < 0 {
		return fmt.Errorf("storage.cache.ttl_seconds не может быть отрицательным: %d", c.Storage.Cache.TTLSeconds)
	}
	if c.Behaviors.LocatorRadius < 0 {
		return fmt.Errorf("behaviors.locator_radius не может быть отрицательным: %d", c.Behaviors.LocatorRadius)
	}
	if c.Behaviors.FellLimit < 0 {
		return fmt.Errorf("behaviors.fell_limit не может быть отрицательным: %d", c.Behaviors.FellLimit)
	}
	return nil
}
