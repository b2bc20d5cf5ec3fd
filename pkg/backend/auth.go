package backend

import (
	"crypto/subtle"
	"time"

	"github.com/mundesk/mundesk/pkg/identity"
	"github.com/mundesk/mundesk/pkg/marker"
	"github.com/mundesk/mundesk/pkg/proto"
)

// AdminRole is the role recorded in break-glass markers.
const AdminRole = "admin"

// AdminLogin checks the fixed admin credentials and issues a marker stamped
// at now.
func (d *Backend) AdminLogin(username, password string, now time.Time) (string, marker.Marker, error) {
	cfg := d.cfg.Admin
	if !cfg.Enabled() {
		return "", marker.Marker{}, proto.ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
	passOK := identity.VerifyPassword(password, cfg.PasswordHash)
	if !userOK || !passOK {
		d.logger.Warn("admin login failed", "username", username)
		return "", marker.Marker{}, proto.ErrInvalidCredentials
	}

	token, m, err := d.marker.Issue(marker.User{Email: cfg.Username, Role: AdminRole}, now)
	if err != nil {
		return "", marker.Marker{}, err
	}

	d.logger.Info("admin login", "username", username)
	return token, m, nil
}

// MarkerTTL returns the validity window of admin markers.
func (d *Backend) MarkerTTL() time.Duration {
	return d.marker.TTL()
}
