package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Presence PresenceConfig `yaml:"presence"`
	Events   EventsConfig   `yaml:"events"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	OpsPort        int           `yaml:"ops_port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Mode           string        `yaml:"mode"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	SQLitePath      string        `yaml:"sqlite_path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PresenceConfig holds the liveness window shared by room and global scopes
type PresenceConfig struct {
	OnlineThreshold time.Duration `yaml:"online_threshold"`
	GlobalLimit     int           `yaml:"global_limit"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	SweepRetention  time.Duration `yaml:"sweep_retention"`
	PushInterval    time.Duration `yaml:"push_interval"`
}

// EventsConfig configures the optional NATS bridge
type EventsConfig struct {
	NATSURL       string        `yaml:"nats_url"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	ClientName    string        `yaml:"client_name"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DefaultOnlineThreshold is the window within which a heartbeat counts as online
const DefaultOnlineThreshold = 30 * time.Second

// DefaultGlobalLimit caps the global online list
const DefaultGlobalLimit = 10

// Load loads configuration from .env, file and environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := cfg.LoadFile(configPath); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFile merges a YAML file into the configuration
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			OpsPort:        9090,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			RequestTimeout: 5 * time.Second,
			Mode:           "release",
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Host:            "localhost",
			Port:            5432,
			User:            "chatroom",
			Password:        "chatroom_dev",
			Database:        "chatroom",
			SSLMode:         "disable",
			SQLitePath:      "./data/chatroom.db",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			AutoMigrate:     true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Presence: PresenceConfig{
			OnlineThreshold: DefaultOnlineThreshold,
			GlobalLimit:     DefaultGlobalLimit,
			SweepInterval:   0,
			SweepRetention:  10 * DefaultOnlineThreshold,
			PushInterval:    DefaultOnlineThreshold / 2,
		},
		Events: EventsConfig{
			SubjectPrefix: "chat",
			ClientName:    "chatroom",
			ReconnectWait: 500 * time.Millisecond,
			BufferSize:    256,
		},
	}
}

// getConfigPath returns the configuration file path
func getConfigPath() string {
	if path := os.Getenv("CHATROOM_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}

// applyEnv overrides configuration with environment variables
func (c *Config) applyEnv() {
	// Server configuration
	setString(&c.Server.Host, "CHATROOM_SERVER_HOST")
	setInt(&c.Server.Port, "CHATROOM_SERVER_PORT")
	setInt(&c.Server.OpsPort, "CHATROOM_SERVER_OPS_PORT")
	setDuration(&c.Server.ReadTimeout, "CHATROOM_SERVER_READ_TIMEOUT")
	setDuration(&c.Server.WriteTimeout, "CHATROOM_SERVER_WRITE_TIMEOUT")
	setDuration(&c.Server.RequestTimeout, "CHATROOM_SERVER_REQUEST_TIMEOUT")
	setString(&c.Server.Mode, "CHATROOM_SERVER_MODE")

	// Database configuration
	setString(&c.Database.Driver, "CHATROOM_DATABASE_DRIVER")
	setString(&c.Database.Host, "CHATROOM_DATABASE_HOST")
	setInt(&c.Database.Port, "CHATROOM_DATABASE_PORT")
	setString(&c.Database.User, "CHATROOM_DATABASE_USER")
	setString(&c.Database.Password, "CHATROOM_DATABASE_PASSWORD")
	setString(&c.Database.Database, "CHATROOM_DATABASE_NAME")
	setString(&c.Database.SSLMode, "CHATROOM_DATABASE_SSL_MODE")
	setString(&c.Database.SQLitePath, "CHATROOM_DATABASE_SQLITE_PATH")
	setInt(&c.Database.MaxOpenConns, "CHATROOM_DATABASE_MAX_OPEN_CONNS")
	setInt(&c.Database.MaxIdleConns, "CHATROOM_DATABASE_MAX_IDLE_CONNS")
	if v := os.Getenv("CHATROOM_DATABASE_AUTO_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Database.AutoMigrate = b
		}
	}

	// Logging configuration
	setString(&c.Logging.Level, "CHATROOM_LOGGING_LEVEL")
	setString(&c.Logging.Format, "CHATROOM_LOGGING_FORMAT")

	// Presence configuration
	setDuration(&c.Presence.OnlineThreshold, "CHATROOM_PRESENCE_ONLINE_THRESHOLD")
	setInt(&c.Presence.GlobalLimit, "CHATROOM_PRESENCE_GLOBAL_LIMIT")
	setDuration(&c.Presence.SweepInterval, "CHATROOM_PRESENCE_SWEEP_INTERVAL")
	setDuration(&c.Presence.SweepRetention, "CHATROOM_PRESENCE_SWEEP_RETENTION")
	setDuration(&c.Presence.PushInterval, "CHATROOM_PRESENCE_PUSH_INTERVAL")

	// Events configuration
	setString(&c.Events.NATSURL, "CHATROOM_EVENTS_NATS_URL")
	setString(&c.Events.SubjectPrefix, "CHATROOM_EVENTS_SUBJECT_PREFIX")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.OpsPort < 0 || c.Server.OpsPort > 65535 {
		return fmt.Errorf("invalid ops port: %d", c.Server.OpsPort)
	}
	if c.Server.OpsPort == c.Server.Port {
		return fmt.Errorf("ops port must differ from server port")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.Database == "" {
			return fmt.Errorf("postgres requires host and database name")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite requires sqlite_path")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}

	if c.Presence.OnlineThreshold <= 0 {
		return fmt.Errorf("presence online_threshold must be positive")
	}
	if c.Presence.GlobalLimit <= 0 {
		return fmt.Errorf("presence global_limit must be positive")
	}
	if c.Presence.SweepInterval < 0 {
		return fmt.Errorf("presence sweep_interval must not be negative")
	}
	if c.Presence.SweepInterval > 0 && c.Presence.SweepRetention < c.Presence.OnlineThreshold {
		return fmt.Errorf("presence sweep_retention must be at least online_threshold")
	}

	return nil
}

// GetDatabaseDSN returns the DSN for the configured driver
func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "postgres" {
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Host,
			c.Database.Port,
			c.Database.User,
			c.Database.Password,
			c.Database.Database,
			c.Database.SSLMode,
		)
	}
	return c.Database.SQLitePath + "?_busy_timeout=5000"
}

// ServerAddr returns the API listen address
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// OpsAddr returns the ops listen address
func (c *Config) OpsAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.OpsPort)
}

// String returns a string representation of the configuration (without secrets)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Ops: %d, Database: %s, Logging: %s/%s, Threshold: %s, GlobalLimit: %d}",
		c.ServerAddr(),
		c.Server.OpsPort,
		c.Database.Driver,
		c.Logging.Level,
		c.Logging.Format,
		c.Presence.OnlineThreshold,
		c.Presence.GlobalLimit,
	)
}
