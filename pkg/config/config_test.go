package config

import (
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestParseRecoveryEmails(t *testing.T) {
	is := is.New(t)
	td := t.TempDir()
	is.NoErr(os.Setenv("MUNDESK_ACCESS_RECOVERY_EMAILS", "ops@example.com, ops@example.com,chair@example.com"))
	is.NoErr(os.Setenv("MUNDESK_DATA_PATH", td))
	t.Cleanup(func() {
		is.NoErr(os.Unsetenv("MUNDESK_ACCESS_RECOVERY_EMAILS"))
		is.NoErr(os.Unsetenv("MUNDESK_DATA_PATH"))
	})
	cfg := DefaultConfig()
	is.NoErr(cfg.ParseEnv())
	is.Equal(cfg.Access.RecoveryEmails, []string{
		"ops@example.com",
		"chair@example.com",
	})
}

func TestMergeRecoveryEmails(t *testing.T) {
	is := is.New(t)
	is.NoErr(os.Setenv("MUNDESK_ACCESS_RECOVERY_EMAILS", "env@example.com"))
	t.Cleanup(func() { is.NoErr(os.Unsetenv("MUNDESK_ACCESS_RECOVERY_EMAILS")) })
	cfg := DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Access.RecoveryEmails = []string{"file@example.com"}
	is.NoErr(cfg.WriteConfig())
	is.NoErr(cfg.Parse())
	is.Equal(cfg.Access.RecoveryEmails, []string{
		"env@example.com",
		"file@example.com",
	})
}

func TestCustomConfigLocation(t *testing.T) {
	is := is.New(t)
	td := t.TempDir()
	t.Cleanup(func() {
		is.NoErr(os.Unsetenv("MUNDESK_CONFIG_LOCATION"))
		is.NoErr(os.Unsetenv("MUNDESK_DATA_PATH"))
	})

	is.NoErr(os.Setenv("MUNDESK_CONFIG_LOCATION", "testdata/config.yaml"))
	is.NoErr(os.Setenv("MUNDESK_DATA_PATH", td))
	cfg := DefaultConfig()
	is.NoErr(cfg.Parse())
	is.Equal(cfg.Name, "Test conference")
	is.Equal(cfg.Access.RecoveryEmails, []string{"ops@example.com"})

	// A missing custom location falls back to the data path.
	is.NoErr(os.Setenv("MUNDESK_CONFIG_LOCATION", "testdata/config_nonexistent.yaml"))
	cfg = DefaultConfig()
	is.Equal(cfg.ConfigPath(), td+"/config.yaml")
}

func TestValidateDurations(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.DataPath = t.TempDir()
	is.NoErr(cfg.Validate())
	is.Equal(cfg.Auth.SessionDuration(), 7*24*time.Hour)
	is.Equal(cfg.Admin.MarkerTTL(), 24*time.Hour)
	is.Equal(cfg.Access.LookupCacheTTL(), 5*time.Second)

	cfg.Access.CacheTTL = "0"
	is.NoErr(cfg.Validate())
	is.Equal(cfg.Access.LookupCacheTTL(), time.Duration(0))

	cfg.Admin.TTL = "soon"
	is.True(cfg.Validate() != nil)
}

func TestValidateAdminSecret(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Admin.Username = "secretariat"
	cfg.Admin.Secret = ""
	is.Equal(cfg.Validate(), ErrMissingAdminSecret)
}

func TestValidateRealtimeDriver(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Realtime.Driver = "carrier-pigeon"
	is.True(cfg.Validate() != nil)
}

func TestWriteConfigRoundTrip(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Admin.Username = "secretariat"
	is.NoErr(cfg.WriteConfig())

	got := &Config{DataPath: cfg.DataPath}
	is.NoErr(got.ParseFile())
	is.Equal(got.Admin.Username, "secretariat")
	is.Equal(got.Admin.Secret, cfg.Admin.Secret)
	is.Equal(got.Realtime.Driver, "memory")
}

func TestEnviron(t *testing.T) {
	is := is.New(t)
	is.Equal(len((*Config)(nil).Environ()), 0)
	is.True(len(DefaultConfig().Environ()) > 0)
}
