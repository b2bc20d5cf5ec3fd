//go:build !unix

package web

import (
	"crypto/tls"
	"sync"

	"github.com/charmbracelet/log"
)

// CertReloader serves a TLS certificate loaded from disk. Without SIGHUP
// the certificate is only reloaded through Reload.
type CertReloader struct {
	mu       sync.RWMutex
	cert     *tls.Certificate
	certPath string
	keyPath  string
}

// NewCertReloader loads the key pair.
func NewCertReloader(certPath, keyPath string, _ *log.Logger) (*CertReloader, error) {
	cr := &CertReloader{certPath: certPath, keyPath: keyPath}
	if err := cr.Reload(); err != nil {
		return nil, err
	}

	return cr, nil
}

// Reload reads the key pair from disk.
func (cr *CertReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(cr.certPath, cr.keyPath)
	if err != nil {
		return err
	}

	cr.mu.Lock()
	cr.cert = &cert
	cr.mu.Unlock()
	return nil
}

// Stop is a no-op.
func (cr *CertReloader) Stop() {}

// GetCertificateFunc returns a tls.Config.GetCertificate callback.
func (cr *CertReloader) GetCertificateFunc() func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		cr.mu.RLock()
		defer cr.mu.RUnlock()
		return cr.cert, nil
	}
}

// TLSConfig returns a server TLS config backed by the reloader.
func (cr *CertReloader) TLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: cr.GetCertificateFunc(),
	}
}
