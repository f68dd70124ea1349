// Package config loads service configuration from a YAML file, an optional
// SSM parameter and the environment, in that order.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"presensi.app/presensi/infrastructure/devops"
	"presensi.app/presensi/security"
	"presensi.app/presensi/utils"
)

const (
	DefaultPath        = "config.yaml"
	DefaultMaxEvidence = 10 << 20
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Driver         string `yaml:"driver"`
	DSN            string `yaml:"dsn"`
	MaxConnections int    `yaml:"max_connections"`
	LogLevel       string `yaml:"log_level"`
}

type AuthConfig struct {
	// SigningSecret is base64 encoded.
	SigningSecret string `yaml:"signing_secret"`
}

type PolicyConfig struct {
	RequireCheckInEvidence   bool `yaml:"require_checkin_evidence"`
	RequireCheckOutEvidence  bool `yaml:"require_checkout_evidence"`
	AdminOnlyFilteredReports bool `yaml:"admin_only_filtered_reports"`
	AdminOnlyDailyReport     bool `yaml:"admin_only_daily_report"`
}

type EvidenceConfig struct {
	Driver   string `yaml:"driver"`
	Dir      string `yaml:"dir"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	MaxBytes int64  `yaml:"max_bytes"`
}

type SlackConfig struct {
	Token        string `yaml:"token"`
	InfoChannel  string `yaml:"info_channel"`
	ErrorChannel string `yaml:"error_channel"`
}

func (s SlackConfig) Enabled() bool {
	return s.Token != ""
}

type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

type Config struct {
	Server       ServerConfig   `yaml:"server"`
	Database     DatabaseConfig `yaml:"database"`
	Auth         AuthConfig     `yaml:"auth"`
	Timezone     string         `yaml:"timezone"`
	Policy       PolicyConfig   `yaml:"policy"`
	Evidence     EvidenceConfig `yaml:"evidence"`
	Slack        SlackConfig    `yaml:"slack"`
	Log          LogConfig      `yaml:"log"`
	SSMParameter string         `yaml:"ssm_parameter"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8090"},
		Database: DatabaseConfig{
			Driver:         "mysql",
			MaxConnections: 10,
			LogLevel:       "warn",
		},
		Timezone: "Asia/Jakarta",
		Policy: PolicyConfig{
			AdminOnlyFilteredReports: true,
		},
		Evidence: EvidenceConfig{
			Driver:   "disk",
			Dir:      "uploads",
			Prefix:   "evidence",
			MaxBytes: DefaultMaxEvidence,
		},
		Log: LogConfig{Format: "text", Level: "info"},
	}
}

// ParameterLoader reads a YAML document from a remote parameter store.
type ParameterLoader interface {
	LoadYAML(ctx context.Context, name string, out interface{}) error
}

// Path returns the config file location from PRESENSI_CONFIG.
func Path() string {
	if p := os.Getenv("PRESENSI_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// LoadDotEnv loads .env into the process environment. A missing file is not
// an error.
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load builds the configuration. A missing file at path is allowed. When
// params is nil and an SSM parameter is configured, the default AWS client
// is used.
func Load(ctx context.Context, path string, params ParameterLoader) (*Config, error) {
	cfg := Default()

	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("PRESENSI_SSM_PARAMETER"); ok {
		cfg.SSMParameter = v
	}
	if cfg.SSMParameter != "" {
		if params == nil {
			store, err := devops.NewDefaultParameterStore(ctx)
			if err != nil {
				return nil, err
			}
			params = store
		}
		if err := params.LoadYAML(ctx, cfg.SSMParameter, &cfg); err != nil {
			return nil, fmt.Errorf("load ssm parameter %s: %w", cfg.SSMParameter, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) mergeFile(path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	str("SERVER_ADDR", &c.Server.Addr)

	str("DB_DRIVER", &c.Database.Driver)
	str("DSN", &c.Database.DSN)
	str("DB_LOG_LEVEL", &c.Database.LogLevel)
	if v, ok := os.LookupEnv("DB_MAX_CONNECTIONS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DB_MAX_CONNECTIONS: %w", err)
		}
		c.Database.MaxConnections = n
	}

	str("PRESENSI_SIGNING_SECRET", &c.Auth.SigningSecret)
	str("PRESENSI_TIMEZONE", &c.Timezone)

	for key, dst := range map[string]*bool{
		"PRESENSI_REQUIRE_CHECKIN_EVIDENCE":    &c.Policy.RequireCheckInEvidence,
		"PRESENSI_REQUIRE_CHECKOUT_EVIDENCE":   &c.Policy.RequireCheckOutEvidence,
		"PRESENSI_ADMIN_ONLY_FILTERED_REPORTS": &c.Policy.AdminOnlyFilteredReports,
		"PRESENSI_ADMIN_ONLY_DAILY_REPORT":     &c.Policy.AdminOnlyDailyReport,
	} {
		if err := boolean(key, dst); err != nil {
			return err
		}
	}

	str("EVIDENCE_DRIVER", &c.Evidence.Driver)
	str("EVIDENCE_DIR", &c.Evidence.Dir)
	str("EVIDENCE_BUCKET", &c.Evidence.Bucket)
	str("EVIDENCE_PREFIX", &c.Evidence.Prefix)

	str("SLACK_BOT_TOKEN", &c.Slack.Token)
	str("SLACK_INFO_CHANNEL", &c.Slack.InfoChannel)
	str("SLACK_ERROR_CHANNEL", &c.Slack.ErrorChannel)

	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_LEVEL", &c.Log.Level)
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Database.Driver) {
	case "memory":
	case "mysql", "postgres", "postgresql":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database.driver %q", c.Database.Driver))
	}

	if c.Auth.SigningSecret == "" {
		errs = append(errs, errors.New("auth.signing_secret is required"))
	} else if _, err := security.DecodeSecret(c.Auth.SigningSecret); err != nil {
		errs = append(errs, err)
	}

	if _, err := utils.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, err)
	}

	switch c.Evidence.Driver {
	case "disk":
		if c.Evidence.Dir == "" {
			errs = append(errs, errors.New("evidence.dir is required for the disk driver"))
		}
	case "s3":
		if c.Evidence.Bucket == "" {
			errs = append(errs, errors.New("evidence.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported evidence.driver %q", c.Evidence.Driver))
	}
	if c.Evidence.MaxBytes <= 0 {
		errs = append(errs, errors.New("evidence.max_bytes must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) Location() *time.Location {
	loc, err := utils.LoadLocation(c.Timezone)
	if err != nil {
		return utils.JakartaTZ
	}
	return loc
}

func (c *Config) Secret() ([]byte, error) {
	return security.DecodeSecret(c.Auth.SigningSecret)
}

// NewLogger builds the process logger. Format "json" selects the JSON
// handler; anything else is text.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(l.Level)}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
