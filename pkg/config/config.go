package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/duration"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// HTTPConfig is the HTTP configuration for the server.
type HTTPConfig struct {
	// ListenAddr is the address on which the HTTP server will listen.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`

	// TLSKeyPath is the path to the TLS private key.
	TLSKeyPath string `env:"TLS_KEY_PATH" yaml:"tls_key_path"`

	// TLSCertPath is the path to the TLS certificate.
	TLSCertPath string `env:"TLS_CERT_PATH" yaml:"tls_cert_path"`

	// PublicURL is the public URL of the HTTP server.
	PublicURL string `env:"PUBLIC_URL" yaml:"public_url"`

	// SecureCookies marks session cookies as Secure.
	SecureCookies bool `env:"SECURE_COOKIES" yaml:"secure_cookies"`
}

// StatsConfig is the configuration for the stats server.
type StatsConfig struct {
	// ListenAddr is the address on which the stats server will listen.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`
}

// LogConfig is the logger configuration.
type LogConfig struct {
	// Format is the format of the logs.
	// Valid values are "json", "logfmt", and "text".
	Format string `env:"FORMAT" yaml:"format"`

	// Time format for the log `ts` field.
	// Format must be described in Golang's time format.
	TimeFormat string `env:"TIME_FORMAT" yaml:"time_format"`

	// Path to a file to write logs to.
	// If not set, logs will be written to stderr.
	Path string `env:"PATH" yaml:"path"`
}

// DBConfig is the database connection configuration.
type DBConfig struct {
	// Driver is the driver for the database.
	Driver string `env:"DRIVER" yaml:"driver"`

	// DataSource is the database data source name.
	DataSource string `env:"DATA_SOURCE" yaml:"data_source"`
}

// AuthConfig is the identity provider configuration.
type AuthConfig struct {
	// KeyPath is the path to the ed25519 key used to sign session tokens.
	KeyPath string `env:"KEY_PATH" yaml:"key_path"`

	// SessionTTL is how long an identity session lasts, e.g. "7d" or "12h".
	SessionTTL string `env:"SESSION_TTL" yaml:"session_ttl"`
}

// AdminConfig is the break-glass admin configuration. The admin dashboard is
// disabled when Username is empty.
type AdminConfig struct {
	// Username is the fixed admin username.
	Username string `env:"USERNAME" yaml:"username"`

	// PasswordHash is the bcrypt hash of the admin password.
	// Use `mundesk hash-password` to generate one.
	PasswordHash string `env:"PASSWORD_HASH" yaml:"password_hash"`

	// Secret is the key used to sign admin markers.
	Secret string `env:"SECRET" yaml:"secret"`

	// TTL is how long an admin marker stays valid.
	TTL string `env:"TTL" yaml:"ttl"`
}

// AccessConfig is the access resolution configuration.
type AccessConfig struct {
	// RecoveryEmails always resolve as chair-equivalent, whatever the
	// directory says about them.
	RecoveryEmails []string `env:"RECOVERY_EMAILS" envSeparator:"," yaml:"recovery_emails"`

	// CacheTTL is how long privileged user lookups are cached. "0" disables
	// the cache.
	CacheTTL string `env:"CACHE_TTL" yaml:"cache_ttl"`
}

// RealtimeConfig is the live update feed configuration.
type RealtimeConfig struct {
	// Driver is one of "memory", "postgres", and "redis".
	Driver string `env:"DRIVER" yaml:"driver"`

	// RedisAddr is the Redis address [host][:port].
	RedisAddr string `env:"REDIS_ADDR" yaml:"redis_addr"`

	// RedisPassword is the Redis password.
	RedisPassword string `env:"REDIS_PASSWORD" yaml:"redis_password"`

	// RedisDB is the Redis database.
	RedisDB int `env:"REDIS_DB" yaml:"redis_db"`
}

// JobsConfig is the configuration for cron jobs.
type JobsConfig struct {
	PurgeSessions string `env:"PURGE_SESSIONS" yaml:"purge_sessions"`
}

// Config is the configuration for mundesk.
type Config struct {
	// Name is the name of the conference.
	Name string `env:"NAME" yaml:"name"`

	// HTTP is the configuration for the HTTP server.
	HTTP HTTPConfig `envPrefix:"HTTP_" yaml:"http"`

	// Stats is the configuration for the stats server.
	Stats StatsConfig `envPrefix:"STATS_" yaml:"stats"`

	// Log is the logger configuration.
	Log LogConfig `envPrefix:"LOG_" yaml:"log"`

	// DB is the database configuration.
	DB DBConfig `envPrefix:"DB_" yaml:"db"`

	// Auth is the identity provider configuration.
	Auth AuthConfig `envPrefix:"AUTH_" yaml:"auth"`

	// Admin is the break-glass admin configuration.
	Admin AdminConfig `envPrefix:"ADMIN_" yaml:"admin"`

	// Access is the access resolution configuration.
	Access AccessConfig `envPrefix:"ACCESS_" yaml:"access"`

	// Realtime is the live update feed configuration.
	Realtime RealtimeConfig `envPrefix:"REALTIME_" yaml:"realtime"`

	// Jobs is the configuration for cron jobs
	Jobs JobsConfig `envPrefix:"JOBS_" yaml:"jobs"`

	// DataPath is the path to the directory where mundesk will store its data.
	DataPath string `env:"DATA_PATH" yaml:"-"`
}

var (
	// ErrNilConfig is returned when a nil config is passed to a function.
	ErrNilConfig = errors.New("nil config")

	// ErrMissingAdminSecret is returned when the break-glass admin is
	// configured without a signing secret.
	ErrMissingAdminSecret = errors.New("admin secret is required when admin username is set")
)

// Environ returns the config as a list of environment variables.
func (c *Config) Environ() []string {
	envs := []string{}
	if c == nil {
		return envs
	}

	// TODO: do this dynamically
	envs = append(envs, []string{
		fmt.Sprintf("MUNDESK_DATA_PATH=%s", c.DataPath),
		fmt.Sprintf("MUNDESK_NAME=%s", c.Name),
		fmt.Sprintf("MUNDESK_HTTP_LISTEN_ADDR=%s", c.HTTP.ListenAddr),
		fmt.Sprintf("MUNDESK_HTTP_TLS_KEY_PATH=%s", c.HTTP.TLSKeyPath),
		fmt.Sprintf("MUNDESK_HTTP_TLS_CERT_PATH=%s", c.HTTP.TLSCertPath),
		fmt.Sprintf("MUNDESK_HTTP_PUBLIC_URL=%s", c.HTTP.PublicURL),
		fmt.Sprintf("MUNDESK_HTTP_SECURE_COOKIES=%t", c.HTTP.SecureCookies),
		fmt.Sprintf("MUNDESK_STATS_LISTEN_ADDR=%s", c.Stats.ListenAddr),
		fmt.Sprintf("MUNDESK_LOG_FORMAT=%s", c.Log.Format),
		fmt.Sprintf("MUNDESK_LOG_TIME_FORMAT=%s", c.Log.TimeFormat),
		fmt.Sprintf("MUNDESK_DB_DRIVER=%s", c.DB.Driver),
		fmt.Sprintf("MUNDESK_DB_DATA_SOURCE=%s", c.DB.DataSource),
		fmt.Sprintf("MUNDESK_AUTH_KEY_PATH=%s", c.Auth.KeyPath),
		fmt.Sprintf("MUNDESK_AUTH_SESSION_TTL=%s", c.Auth.SessionTTL),
		fmt.Sprintf("MUNDESK_ADMIN_USERNAME=%s", c.Admin.Username),
		fmt.Sprintf("MUNDESK_ADMIN_TTL=%s", c.Admin.TTL),
		fmt.Sprintf("MUNDESK_ACCESS_RECOVERY_EMAILS=%s", strings.Join(c.Access.RecoveryEmails, ",")),
		fmt.Sprintf("MUNDESK_ACCESS_CACHE_TTL=%s", c.Access.CacheTTL),
		fmt.Sprintf("MUNDESK_REALTIME_DRIVER=%s", c.Realtime.Driver),
		fmt.Sprintf("MUNDESK_REALTIME_REDIS_ADDR=%s", c.Realtime.RedisAddr),
		fmt.Sprintf("MUNDESK_REALTIME_REDIS_DB=%d", c.Realtime.RedisDB),
		fmt.Sprintf("MUNDESK_JOBS_PURGE_SESSIONS=%s", c.Jobs.PurgeSessions),
	}...)

	return envs
}

// IsDebug returns true if the server is running in debug mode.
func IsDebug() bool {
	debug, _ := strconv.ParseBool(os.Getenv("MUNDESK_DEBUG"))
	return debug
}

// IsVerbose returns true if the server is running in verbose mode.
// Verbose mode is only enabled if debug mode is enabled.
func IsVerbose() bool {
	verbose, _ := strconv.ParseBool(os.Getenv("MUNDESK_VERBOSE"))
	return IsDebug() && verbose
}

// parseFile parses the given file as a configuration file.
// The file must be in YAML format.
func parseFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	defer f.Close() // nolint: errcheck
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	return cfg.Validate()
}

// ParseFile parses the config from the default file path.
// This also calls Validate() on the config.
func (c *Config) ParseFile() error {
	return parseFile(c, c.ConfigPath())
}

// parseEnv parses the environment variables as a configuration file.
func parseEnv(cfg *Config) error {
	// Merge recovery emails from both config file and environment variables.
	recovery := append([]string{}, cfg.Access.RecoveryEmails...)

	// Override with environment variables
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix: "MUNDESK_",
	}); err != nil {
		return fmt.Errorf("parse environment variables: %w", err)
	}

	if recoveryEnv := os.Getenv("MUNDESK_ACCESS_RECOVERY_EMAILS"); recoveryEnv != "" {
		cfg.Access.RecoveryEmails = append(cfg.Access.RecoveryEmails, recovery...)
	}

	return cfg.Validate()
}

// ParseEnv parses the config from the environment variables.
// This also calls Validate() on the config.
func (c *Config) ParseEnv() error {
	return parseEnv(c)
}

// Parse parses the config from the default file path and environment variables.
// This also calls Validate() on the config.
func (c *Config) Parse() error {
	if err := c.ParseFile(); err != nil {
		return err
	}

	return c.ParseEnv()
}

// writeConfig writes the configuration to the given file.
func writeConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(newConfigFile(cfg)), 0o600) // nolint: errcheck, gosec
}

// WriteConfig writes the configuration to the default file.
func (c *Config) WriteConfig() error {
	return writeConfig(c, c.ConfigPath())
}

// DefaultDataPath returns the path to the data directory.
// It uses the MUNDESK_DATA_PATH environment variable if set, otherwise it
// uses "data".
func DefaultDataPath() string {
	dp := os.Getenv("MUNDESK_DATA_PATH")
	if dp == "" {
		dp = "data"
	}

	return dp
}

// ConfigPath returns the path to the config file.
// MUNDESK_CONFIG_LOCATION takes precedence when it points to an existing file.
func (c *Config) ConfigPath() string { // nolint:revive
	if path := os.Getenv("MUNDESK_CONFIG_LOCATION"); exist(path) {
		return path
	}

	return filepath.Join(c.DataPath, "config.yaml")
}

func exist(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Exist returns true if the config file exists.
func (c *Config) Exist() bool {
	return exist(c.ConfigPath())
}

// DefaultConfig returns the default Config. All the path values are relative
// to the data directory.
// Use Validate() to validate the config and ensure absolute paths.
func DefaultConfig() *Config {
	cfg := &Config{
		Name:     "Model United Nations",
		DataPath: DefaultDataPath(),
		HTTP: HTTPConfig{
			ListenAddr: ":8080",
			PublicURL:  "http://localhost:8080",
		},
		Stats: StatsConfig{
			ListenAddr: "localhost:8081",
		},
		Log: LogConfig{
			Format:     "text",
			TimeFormat: time.DateTime,
		},
		DB: DBConfig{
			Driver: "sqlite",
			DataSource: "mundesk.db" +
				"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		},
		Auth: AuthConfig{
			KeyPath:    filepath.Join("keys", "session_ed25519"),
			SessionTTL: "7d",
		},
		Admin: AdminConfig{
			Secret: randomSecret(),
			TTL:    "24h",
		},
		Access: AccessConfig{
			CacheTTL: "5s",
		},
		Realtime: RealtimeConfig{
			Driver:    "memory",
			RedisAddr: "localhost:6379",
		},
		Jobs: JobsConfig{
			PurgeSessions: "@every 1h",
		},
	}

	return cfg
}

// Validate validates the configuration.
// It updates the configuration with absolute paths.
func (c *Config) Validate() error {
	// Use absolute paths
	if !filepath.IsAbs(c.DataPath) {
		dp, err := filepath.Abs(c.DataPath)
		if err != nil {
			return err
		}
		c.DataPath = dp
	}

	c.HTTP.PublicURL = strings.TrimSuffix(c.HTTP.PublicURL, "/")

	if c.HTTP.TLSKeyPath != "" && !filepath.IsAbs(c.HTTP.TLSKeyPath) {
		c.HTTP.TLSKeyPath = filepath.Join(c.DataPath, c.HTTP.TLSKeyPath)
	}

	if c.HTTP.TLSCertPath != "" && !filepath.IsAbs(c.HTTP.TLSCertPath) {
		c.HTTP.TLSCertPath = filepath.Join(c.DataPath, c.HTTP.TLSCertPath)
	}

	if c.Auth.KeyPath != "" && !filepath.IsAbs(c.Auth.KeyPath) {
		c.Auth.KeyPath = filepath.Join(c.DataPath, c.Auth.KeyPath)
	}

	if strings.HasPrefix(c.DB.Driver, "sqlite") && !filepath.IsAbs(c.DB.DataSource) {
		c.DB.DataSource = filepath.Join(c.DataPath, c.DB.DataSource)
	}

	for name, d := range map[string]string{
		"auth.session_ttl": c.Auth.SessionTTL,
		"admin.ttl":        c.Admin.TTL,
		"access.cache_ttl": c.Access.CacheTTL,
	} {
		if _, err := parseDuration(d); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.Admin.Username != "" && c.Admin.Secret == "" {
		return ErrMissingAdminSecret
	}

	// Deduplicate recovery emails, keeping them exactly as written.
	seen := make(map[string]struct{}, len(c.Access.RecoveryEmails))
	emails := make([]string, 0, len(c.Access.RecoveryEmails))
	for _, e := range c.Access.RecoveryEmails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		emails = append(emails, e)
	}
	c.Access.RecoveryEmails = emails

	switch c.Realtime.Driver {
	case "", "memory", "postgres", "redis":
	default:
		return fmt.Errorf("unknown realtime driver %q", c.Realtime.Driver)
	}

	return nil
}

// SessionDuration returns the identity session lifetime.
func (c AuthConfig) SessionDuration() time.Duration {
	d, _ := parseDuration(c.SessionTTL)
	if d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}

// MarkerTTL returns how long an admin marker stays valid.
func (c AdminConfig) MarkerTTL() time.Duration {
	d, _ := parseDuration(c.TTL)
	if d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// Enabled reports whether the break-glass admin login is configured.
func (c AdminConfig) Enabled() bool {
	return c.Username != "" && c.PasswordHash != ""
}

// LookupCacheTTL returns the privileged user lookup cache TTL. Zero means
// the cache is disabled.
func (c AccessConfig) LookupCacheTTL() time.Duration {
	d, _ := parseDuration(c.CacheTTL)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	return duration.Parse(s) //nolint:wrapcheck
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
