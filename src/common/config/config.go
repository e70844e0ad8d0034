package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const configFileEnv = "CONFIG_FILE"

type Config struct {
	HTTPAddr        string         `yaml:"http_addr"`
	LogLevel        string         `yaml:"log_level"`
	DisplayTimezone string         `yaml:"display_timezone"`
	Rail            RailConfig     `yaml:"rail"`
	Store           StoreConfig    `yaml:"store"`
	Events          EventsConfig   `yaml:"events"`
	Redis           RedisConfig    `yaml:"redis"`
	Postgres        PostgresConfig `yaml:"postgres"`
	MQ              MQConfig       `yaml:"mq"`
	Stomp           StompConfig    `yaml:"stomp"`
}

type RailConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	// redis, postgres, sqlite or memory
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
}

type EventsConfig struct {
	// none, amqp or stomp
	Backend string `yaml:"backend"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DB       string `yaml:"db"`
}

type MQConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type StompConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func Default() Config {
	return Config{
		HTTPAddr:        ":3000",
		LogLevel:        "info",
		DisplayTimezone: "Europe/London",
		Rail: RailConfig{
			URL:     "https://lite.realtime.nationalrail.co.uk/OpenLDBWS/wsdl.aspx",
			Timeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend:    "redis",
			SQLitePath: "journeys.db",
		},
		Events: EventsConfig{
			Backend: "none",
		},
		Redis: RedisConfig{
			// default to the redis service in the cluster
			Addr: "redis:6379",
		},
		Postgres: PostgresConfig{
			Port: "5432",
		},
		MQ: MQConfig{
			Port: "5672",
		},
	}
}

// Load starts from Default, applies the YAML file named by CONFIG_FILE if set,
// then overrides with environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(configFileEnv); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: decode yaml: %w", err)
	}

	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	fields := map[string]*string{
		"HTTP_ADDR":         &cfg.HTTPAddr,
		"LOG_LEVEL":         &cfg.LogLevel,
		"DISPLAY_TIMEZONE":  &cfg.DisplayTimezone,
		"RAIL_API_URL":      &cfg.Rail.URL,
		"RAIL_API_KEY":      &cfg.Rail.APIKey,
		"STORE_BACKEND":     &cfg.Store.Backend,
		"SQLITE_PATH":       &cfg.Store.SQLitePath,
		"EVENTS_BACKEND":    &cfg.Events.Backend,
		"REDIS_ADDR":        &cfg.Redis.Addr,
		"POSTGRES_HOST":     &cfg.Postgres.Host,
		"POSTGRES_PORT":     &cfg.Postgres.Port,
		"POSTGRES_USER":     &cfg.Postgres.User,
		"POSTGRES_PASSWORD": &cfg.Postgres.Password,
		"POSTGRES_DB":       &cfg.Postgres.DB,
		"MQ_HOST":           &cfg.MQ.Host,
		"MQ_PORT":           &cfg.MQ.Port,
		"MQ_USER":           &cfg.MQ.User,
		"MQ_PASSWORD":       &cfg.MQ.Password,
		"STOMP_ADDR":        &cfg.Stomp.Addr,
		"STOMP_USERNAME":    &cfg.Stomp.Username,
		"STOMP_PASSWORD":    &cfg.Stomp.Password,
	}

	for key, target := range fields {
		if v, ok := lookup(key); ok && v != "" {
			*target = v
		}
	}

	if v, ok := lookup("RAIL_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: RAIL_TIMEOUT: %w", err)
		}
		cfg.Rail.Timeout = d
	}

	return nil
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
