package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Nearby    NearbyConfig    `mapstructure:"nearby"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	RequestTimeout int    `mapstructure:"request_timeout"` // whole navigation request, seconds
	AllowOrigins   string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	Enabled   bool   `mapstructure:"enabled"`
}

// ProvidersConfig selects and locates the external map services.
type ProvidersConfig struct {
	Routing          string        `mapstructure:"routing"` // osrm | google
	OSRMURL          string        `mapstructure:"osrm_url"`
	GoogleAPIKey     string        `mapstructure:"google_api_key"`
	NominatimURL     string        `mapstructure:"nominatim_url"`
	UserAgent        string        `mapstructure:"user_agent"`
	OverpassURL      string        `mapstructure:"overpass_url"`
	OverpassParallel int           `mapstructure:"overpass_parallel"`
	OpenMeteoURL     string        `mapstructure:"open_meteo_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

type ScoringConfig struct {
	Samples         int     `mapstructure:"samples"`
	EmergencyRadius float64 `mapstructure:"emergency_radius"`
	LampRadius      float64 `mapstructure:"lamp_radius"`
}

type NearbyConfig struct {
	Radius       float64 `mapstructure:"radius"`
	Limit        int     `mapstructure:"limit"`
	LightsRadius float64 `mapstructure:"lights_radius"`
}

// Load reads configuration from file and environment variables.
// A .env file in the working directory is loaded first when present.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.request_timeout", 45)
	v.SetDefault("server.allow_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "saferoute")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "saferoute")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "history-queue")
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("providers.routing", "osrm")
	v.SetDefault("providers.osrm_url", "https://router.project-osrm.org")
	v.SetDefault("providers.google_api_key", "")
	v.SetDefault("providers.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("providers.user_agent", "saferoute/1.0")
	v.SetDefault("providers.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("providers.overpass_parallel", 4)
	v.SetDefault("providers.open_meteo_url", "https://api.open-meteo.com")
	v.SetDefault("providers.timeout", "10s")
	v.SetDefault("scoring.samples", 5)
	v.SetDefault("scoring.emergency_radius", 500)
	v.SetDefault("scoring.lamp_radius", 800)
	v.SetDefault("nearby.radius", 1500)
	v.SetDefault("nearby.limit", 5)
	v.SetDefault("nearby.lights_radius", 1000)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SAFEROUTE_DATABASE_HOST → database.host
	v.SetEnvPrefix("SAFEROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Temporal.Enabled && c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required when temporal is enabled")
	}

	switch c.Providers.Routing {
	case "osrm":
	case "google":
		if c.Providers.GoogleAPIKey == "" {
			errs = append(errs, "providers.google_api_key is required for google routing")
		}
	default:
		errs = append(errs, fmt.Sprintf("providers.routing must be osrm or google, got %q", c.Providers.Routing))
	}
	if c.Providers.Timeout <= 0 {
		errs = append(errs, "providers.timeout must be positive")
	}
	if c.Scoring.Samples <= 0 {
		errs = append(errs, "scoring.samples must be positive")
	}
	if c.Scoring.EmergencyRadius <= 0 || c.Scoring.LampRadius <= 0 {
		errs = append(errs, "scoring radii must be positive")
	}
	if c.Nearby.Radius <= 0 || c.Nearby.LightsRadius <= 0 {
		errs = append(errs, "nearby radii must be positive")
	}
	if c.Nearby.Limit <= 0 {
		errs = append(errs, "nearby.limit must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
