package jwk

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"github.com/mundesk/mundesk/pkg/config"
)

func TestBadNewPair(t *testing.T) {
	_, err := NewPair(nil)
	if !errors.Is(err, config.ErrNilConfig) {
		t.Errorf("NewPair(nil) => %v, want %v", err, config.ErrNilConfig)
	}
}

func TestNewPairIsStable(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Auth.KeyPath = filepath.Join(t.TempDir(), "keys", "session_ed25519")

	p1, err := NewPair(cfg)
	is.NoErr(err)
	p2, err := NewPair(cfg)
	is.NoErr(err)

	// The second call reads the key written by the first.
	is.Equal(p1.JWK().KeyID, p2.JWK().KeyID)
	is.Equal(len(p1.KeySet().Keys), 1)
	is.Equal(p1.JWK().Algorithm, "EdDSA")
}
