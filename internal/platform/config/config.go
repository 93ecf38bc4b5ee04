// Package config loads service configuration from an optional config.yaml,
// AUDIT_-prefixed environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: server.addr becomes
// AUDIT_SERVER_ADDR.
const EnvPrefix = "AUDIT"

type Config struct {
	Server   Server      `mapstructure:"server"`
	Database Database    `mapstructure:"database"`
	Redis    RedisConfig `mapstructure:"redis"`
	Kafka    Kafka       `mapstructure:"kafka"`
	Sensors  Sensors     `mapstructure:"sensors"`
	Log      Log         `mapstructure:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr                string `mapstructure:"addr"`
	PrincipalSigningKey string `mapstructure:"principal_signing_key"`
	PrincipalIssuer     string `mapstructure:"principal_issuer"`
	PrincipalAudience   string `mapstructure:"principal_audience"`
	// AdminToken opens the chain verification route. Empty keeps it closed.
	AdminToken      string        `mapstructure:"admin_token"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Database selects the record store. An empty URL keeps records in memory.
type Database struct {
	URL            string `mapstructure:"url"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
	MaxOpenConns   int    `mapstructure:"max_open_conns"`
}

// RedisConfig configures the active-set cache. An empty URL disables it.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	ActiveSetTTL time.Duration `mapstructure:"active_set_ttl"`
}

// Kafka configures event announcements. No brokers disables them.
type Kafka struct {
	Brokers           []string      `mapstructure:"brokers"`
	Topic             string        `mapstructure:"topic"`
	Partitions        int32         `mapstructure:"partitions"`
	ReplicationFactor int16         `mapstructure:"replication_factor"`
	BufferSize        int           `mapstructure:"buffer_size"`
	BatchSize         int           `mapstructure:"batch_size"`
	FlushInterval     time.Duration `mapstructure:"flush_interval"`
}

type Sensors struct {
	// ConfigPath points at the YAML active-sensor file. Empty uses the
	// registry defaults.
	ConfigPath   string `mapstructure:"config_path"`
	SiteScope    int64  `mapstructure:"site_scope"`
	AnonymizeIP  bool   `mapstructure:"anonymize_ip"`
	FlattenDepth int    `mapstructure:"flatten_depth"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.principal_signing_key", "")
	v.SetDefault("server.principal_issuer", "audittrail")
	v.SetDefault("server.principal_audience", "audittrail-bridge")
	v.SetDefault("server.admin_token", "")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.migrate_on_start", true)
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.active_set_ttl", time.Minute)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "audit.events")
	v.SetDefault("kafka.partitions", 1)
	v.SetDefault("kafka.replication_factor", 1)
	v.SetDefault("kafka.buffer_size", 10000)
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.flush_interval", time.Second)

	v.SetDefault("sensors.config_path", "")
	v.SetDefault("sensors.site_scope", 0)
	v.SetDefault("sensors.anonymize_ip", false)
	v.SetDefault("sensors.flatten_depth", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads config.yaml from dir when present. Environment variables win
// over the file, the file wins over defaults.
func Load(dir string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects combinations the service cannot start with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required when brokers are set")
	}
	if c.Sensors.FlattenDepth < 0 {
		return fmt.Errorf("sensors.flatten_depth must not be negative, got %d", c.Sensors.FlattenDepth)
	}
	return nil
}
