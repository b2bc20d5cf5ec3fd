package config

import (
	"bytes"
	"text/template"
)

var configFileTmpl = template.Must(template.New("config").Parse(`# mundesk server configuration

# The name of the conference.
name: "{{ .Name }}"

# Logging configuration.
log:
  # Log format to use. Valid values are "json", "logfmt", and "text".
  format: "{{ .Log.Format }}"
  # Time format for the log "timestamp" field.
  # Should be described in Golang's time format.
  time_format: "{{ .Log.TimeFormat }}"
  # Path to the log file. Leave empty to write to stderr.
  #path: "{{ .Log.Path }}"

# The HTTP server configuration.
http:
  # The address on which the HTTP server will listen.
  listen_addr: "{{ .HTTP.ListenAddr }}"

  # The path to the TLS private key.
  tls_key_path: {{ .HTTP.TLSKeyPath }}

  # The path to the TLS certificate.
  tls_cert_path: {{ .HTTP.TLSCertPath }}

  # The public URL of the HTTP server.
  # This is also the issuer of session tokens.
  public_url: "{{ .HTTP.PublicURL }}"

  # Mark session cookies as Secure. Enable this behind HTTPS.
  secure_cookies: {{ .HTTP.SecureCookies }}

# The database configuration.
db:
  # The database driver to use.
  # Valid values are "sqlite" and "postgres".
  driver: "{{ .DB.Driver }}"
  # The database data source name.
  # This is driver specific and can be a file path or connection string.
  # Make sure foreign key support is enabled when using SQLite.
  data_source: "{{ .DB.DataSource }}"

# Identity provider configuration.
auth:
  # The ed25519 key used to sign session tokens. It is generated if missing.
  key_path: "{{ .Auth.KeyPath }}"
  # How long a signed-in session lasts, e.g. "7d", "12h".
  session_ttl: "{{ .Auth.SessionTTL }}"

# Break-glass admin login. Leave the username empty to disable it.
admin:
  username: "{{ .Admin.Username }}"
  # bcrypt hash of the admin password, see "mundesk hash-password".
  password_hash: "{{ .Admin.PasswordHash }}"
  # Key used to sign admin markers. Changing it signs everyone out.
  secret: "{{ .Admin.Secret }}"
  # How long an admin marker is valid.
  ttl: "{{ .Admin.TTL }}"

# Access resolution configuration.
access:
  # Emails that can never be locked out of the chair dashboard.
  recovery_emails:{{ range .Access.RecoveryEmails }}
    - "{{ . }}"{{ else }} []{{ end }}
  # How long privileged user lookups are cached. "0" disables the cache.
  cache_ttl: "{{ .Access.CacheTTL }}"

# Live update feed configuration.
realtime:
  # Valid values are "memory", "postgres", and "redis".
  driver: "{{ .Realtime.Driver }}"
  redis_addr: "{{ .Realtime.RedisAddr }}"
  redis_db: {{ .Realtime.RedisDB }}

# The stats server configuration.
stats:
  # The address on which the stats server will listen.
  listen_addr: "{{ .Stats.ListenAddr }}"

# Cron job configuration.
jobs:
  # How often expired sessions are purged.
  purge_sessions: "{{ .Jobs.PurgeSessions }}"
`))

func newConfigFile(cfg *Config) string {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var b bytes.Buffer
	configFileTmpl.Execute(&b, cfg) // nolint: errcheck

	return b.String()
}
