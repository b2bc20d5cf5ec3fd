package web

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mundesk/mundesk/pkg/config"
)

// HTTPServer is the mundesk web server.
type HTTPServer struct {
	ctx         context.Context
	cfg         *config.Config
	certs       *CertReloader
	stopStreams context.CancelFunc
	Server      *http.Server
}

// NewHTTPServer creates a new HTTP server. TLS is enabled when both the
// certificate and key paths are configured.
func NewHTTPServer(ctx context.Context) (*HTTPServer, error) {
	cfg := config.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("http")
	streams, stopStreams := context.WithCancel(context.Background())
	s := &HTTPServer{
		ctx:         ctx,
		cfg:         cfg,
		stopStreams: stopStreams,
		Server: &http.Server{
			Addr:              cfg.HTTP.ListenAddr,
			Handler:           NewRouter(ctx),
			ReadHeaderTimeout: time.Second * 10,
			IdleTimeout:       time.Second * 60,
			MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
			ErrorLog:          logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}),
			BaseContext: func(net.Listener) context.Context {
				return WithStreamsDone(ctx, streams.Done())
			},
		},
	}

	// Shutdown waits for idle connections, so open event streams are told
	// to finish first.
	s.Server.RegisterOnShutdown(stopStreams)

	if cfg.HTTP.TLSCertPath != "" && cfg.HTTP.TLSKeyPath != "" {
		certs, err := NewCertReloader(cfg.HTTP.TLSCertPath, cfg.HTTP.TLSKeyPath, logger)
		if err != nil {
			return nil, err
		}
		s.certs = certs
		s.SetTLSConfig(certs.TLSConfig())
	}

	return s, nil
}

// SetTLSConfig sets the TLS configuration for the HTTP server.
func (s *HTTPServer) SetTLSConfig(tlsConfig *tls.Config) {
	s.Server.TLSConfig = tlsConfig
}

// Close closes the HTTP server.
func (s *HTTPServer) Close() error {
	s.stopStreams()
	s.stopCerts()
	return s.Server.Close()
}

// ListenAndServe starts the HTTP server.
func (s *HTTPServer) ListenAndServe() error {
	if s.Server.TLSConfig != nil {
		return s.Server.ListenAndServeTLS("", "")
	}
	return s.Server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.stopCerts()
	return s.Server.Shutdown(ctx)
}

func (s *HTTPServer) stopCerts() {
	if s.certs != nil {
		s.certs.Stop()
		s.certs = nil
	}
}
