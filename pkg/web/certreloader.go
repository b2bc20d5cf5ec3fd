//go:build unix

package web

import (
	"crypto/tls"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
)

// CertReloader serves a TLS certificate that is reloaded from disk on
// SIGHUP.
type CertReloader struct {
	mu       sync.RWMutex
	cert     *tls.Certificate
	certPath string
	keyPath  string
	logger   *log.Logger
	sig      chan os.Signal
}

// NewCertReloader loads the key pair and starts watching for SIGHUP.
func NewCertReloader(certPath, keyPath string, logger *log.Logger) (*CertReloader, error) {
	cr := &CertReloader{
		certPath: certPath,
		keyPath:  keyPath,
		logger:   logger,
		sig:      make(chan os.Signal, 1),
	}

	if err := cr.Reload(); err != nil {
		return nil, err
	}

	signal.Notify(cr.sig, syscall.SIGHUP)
	go func() {
		for range cr.sig {
			logger.Info("reloading TLS certificate", "cert", certPath, "key", keyPath)
			if err := cr.Reload(); err != nil {
				logger.Error("failed to reload TLS certificate, keeping the old one", "err", err)
			}
		}
	}()

	return cr, nil
}

// Reload reads the key pair from disk. The current certificate is kept when
// reading fails.
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

// Stop stops watching for SIGHUP.
func (cr *CertReloader) Stop() {
	signal.Stop(cr.sig)
	close(cr.sig)
}

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
