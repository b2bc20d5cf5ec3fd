package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/keygen"
)

// KeyPair returns the session signing key pair, generating and writing it
// to KeyPath when missing.
func (c AuthConfig) KeyPair() (*keygen.SSHKeyPair, error) {
	if c.KeyPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.KeyPath), 0o700); err != nil {
			return nil, err
		}
	}

	return keygen.New(c.KeyPath, keygen.WithKeyType(keygen.Ed25519), keygen.WithWrite())
}

// KeyPair returns the session signing key pair of cfg.
func KeyPair(cfg *Config) (*keygen.SSHKeyPair, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	return cfg.Auth.KeyPair()
}
