// Package config loads service configuration from defaults, an optional YAML
// file named by GRADES_CONFIG, and environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"grade-platform/internal/repository"
	"grade-platform/pkg/database"
)

// Data sources for the crosswalk
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceS3       = "s3"
	SourceSQL      = "sql"
)

// Config is the root configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// DataConfig selects where the crosswalk table is read from
type DataConfig struct {
	Source string `yaml:"source" validate:"oneof=embedded file s3 sql"`
	Path   string `yaml:"path" validate:"required_if=Source file"`
	Sheet  string `yaml:"sheet"`
	// Watch reloads the registry when Path changes; file source only
	Watch bool     `yaml:"watch"`
	S3    S3Config `yaml:"s3"`
}

// S3Config locates a crosswalk object in S3 or an S3 compatible store
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Key             string `yaml:"key"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// DatabaseConfig configures the SQL crosswalk store
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" validate:"oneof=postgres pgx sqlite"`
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" validate:"min=0,max=65535"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `yaml:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int           `yaml:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Data: DataConfig{
			Source: SourceEmbedded,
		},
		Database: DatabaseConfig{
			Driver:          database.DriverPostgres,
			Host:            "localhost",
			Port:            5432,
			User:            "grades",
			Database:        "grades",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig builds the configuration from defaults, GRADES_CONFIG and the environment
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("GRADES_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	c.Server.Host = envOr("SERVER_HOST", c.Server.Host)
	c.Server.Port = envInt("SERVER_PORT", c.Server.Port, &errs)
	c.Server.ReadTimeout = envDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout, &errs)
	c.Server.WriteTimeout = envDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout, &errs)
	c.Server.IdleTimeout = envDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout, &errs)
	c.Server.ShutdownTimeout = envDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout, &errs)
	c.Server.CORSOrigins = csvOr("CORS_ORIGINS", c.Server.CORSOrigins)

	c.Data.Source = envOr("DATA_SOURCE", c.Data.Source)
	c.Data.Path = envOr("DATA_PATH", c.Data.Path)
	c.Data.Sheet = envOr("DATA_SHEET", c.Data.Sheet)
	c.Data.Watch = envBool("DATA_WATCH", c.Data.Watch)
	c.Data.S3.Bucket = envOr("S3_BUCKET", c.Data.S3.Bucket)
	c.Data.S3.Key = envOr("S3_KEY", c.Data.S3.Key)
	c.Data.S3.Region = envOr("AWS_REGION", c.Data.S3.Region)
	c.Data.S3.Endpoint = envOr("S3_ENDPOINT", c.Data.S3.Endpoint)
	c.Data.S3.AccessKeyID = envOr("AWS_ACCESS_KEY_ID", c.Data.S3.AccessKeyID)
	c.Data.S3.SecretAccessKey = envOr("AWS_SECRET_ACCESS_KEY", c.Data.S3.SecretAccessKey)
	c.Data.S3.UsePathStyle = envBool("S3_USE_PATH_STYLE", c.Data.S3.UsePathStyle)

	c.Database.Driver = envOr("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = envOr("DB_DSN", c.Database.DSN)
	c.Database.Host = envOr("DB_HOST", c.Database.Host)
	c.Database.Port = envInt("DB_PORT", c.Database.Port, &errs)
	c.Database.User = envOr("DB_USER", c.Database.User)
	c.Database.Password = envOr("DB_PASSWORD", c.Database.Password)
	c.Database.Database = envOr("DB_NAME", c.Database.Database)
	c.Database.SSLMode = envOr("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = envInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns, &errs)
	c.Database.MaxIdleConns = envInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns, &errs)
	c.Database.ConnMaxLifetime = envDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime, &errs)
	c.Database.ConnMaxIdleTime = envDuration("DB_CONN_MAX_IDLE_TIME", c.Database.ConnMaxIdleTime, &errs)

	c.Logging.Level = strings.ToLower(envOr("LOG_LEVEL", c.Logging.Level))

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}
	return nil
}

// Validate checks field constraints and source specific requirements
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.Data.Source {
	case SourceS3:
		if c.Data.S3.Bucket == "" || c.Data.S3.Key == "" {
			return errors.New("invalid configuration: s3 source requires bucket and key")
		}
		if c.Data.S3.Region == "" {
			return errors.New("invalid configuration: s3 source requires a region")
		}
	case SourceSQL:
		if c.Database.Driver == database.DriverSQLite && c.Database.DSN == "" && c.Database.Database == "" {
			return errors.New("invalid configuration: sqlite requires a dsn or database path")
		}
		if c.Database.Driver != database.DriverSQLite && c.Database.DSN == "" && c.Database.Host == "" {
			return errors.New("invalid configuration: sql source requires a dsn or host")
		}
	}

	if c.Data.Watch && c.Data.Source != SourceFile {
		return fmt.Errorf("invalid configuration: watch requires the file source, got %q", c.Data.Source)
	}

	return nil
}

// Connection returns the pkg/database settings
func (d DatabaseConfig) Connection() *database.Config {
	return &database.Config{
		Driver:          d.Driver,
		DSN:             d.DSN,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
	}
}

// ClientConfig returns the S3 client settings
func (s S3Config) ClientConfig() repository.S3ClientConfig {
	return repository.S3ClientConfig{
		Region:          s.Region,
		Endpoint:        s.Endpoint,
		AccessKeyID:     s.AccessKeyID,
		SecretAccessKey: s.SecretAccessKey,
		UsePathStyle:    s.UsePathStyle,
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int, errs *[]error) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", k, err))
		return def
	}
	return n
}

func envDuration(k string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", k, err))
		return def
	}
	return d
}

func csvOr(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
