// Package identity is the identity provider: email and password accounts,
// signed session tokens, and the server-side session records that make
// sign-out stick.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-jose/go-jose/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mundesk/mundesk/pkg/config"
	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
	"github.com/mundesk/mundesk/pkg/jwk"
	"github.com/mundesk/mundesk/pkg/proto"
	"github.com/mundesk/mundesk/pkg/store"
)

// DefaultSessionTTL is used when the configured session TTL is zero.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Claims are the session token claims.
type Claims struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// Provider issues and verifies identity sessions.
type Provider struct {
	db     *db.DB
	store  store.IdentityStore
	keys   jwk.Pair
	issuer string
	ttl    time.Duration
	logger *log.Logger
}

// New returns a new identity provider.
func New(ctx context.Context, cfg *config.Config, dbx *db.DB, st store.IdentityStore, keys jwk.Pair) *Provider {
	ttl := cfg.Auth.SessionDuration()
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &Provider{
		db:     dbx,
		store:  st,
		keys:   keys,
		issuer: cfg.HTTP.PublicURL,
		ttl:    ttl,
		logger: log.FromContext(ctx).WithPrefix("identity"),
	}
}

// KeySet returns the public keys that verify session tokens.
func (p *Provider) KeySet() jose.JSONWebKeySet {
	return p.keys.KeySet()
}

// SignUp creates a new identity.
func (p *Provider) SignUp(ctx context.Context, email, password, name string) (*proto.Identity, error) {
	var m models.Identity
	if err := p.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = p.CreateIdentity(ctx, tx, email, password, name)
		if err != nil {
			return err
		}

		m, err = p.store.GetIdentityByID(ctx, tx, m.ID)
		return err
	}); err != nil {
		return nil, err
	}

	return identityFromModel(m), nil
}

// CreateIdentity creates an identity using h, so callers can create it in
// the same transaction as related records.
func (p *Provider) CreateIdentity(ctx context.Context, h db.Handler, email, password, name string) (models.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return models.Identity{}, fmt.Errorf("%w: email is required", proto.ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return models.Identity{}, fmt.Errorf("%w: password must be at least %d characters", proto.ErrInvalidInput, MinPasswordLength)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return models.Identity{}, err
	}

	m := models.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(name),
	}
	if err := p.store.CreateIdentity(ctx, h, m); err != nil {
		if errors.Is(err, db.ErrDuplicateKey) {
			return models.Identity{}, proto.ErrEmailTaken
		}
		return models.Identity{}, err
	}

	return m, nil
}

// IdentityByEmail returns the identity with the exact email.
func (p *Provider) IdentityByEmail(ctx context.Context, email string) (*proto.Identity, error) {
	m, err := p.store.FindIdentityByEmail(ctx, p.db, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrIdentityNotFound
		}
		return nil, err
	}

	return identityFromModel(m), nil
}

// SetPassword replaces the password of the identity with the exact email.
func (p *Provider) SetPassword(ctx context.Context, email, password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", proto.ErrInvalidInput, MinPasswordLength)
	}

	ident, err := p.IdentityByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	return p.store.SetIdentityPassword(ctx, p.db, ident.ID, hash)
}

// SignIn verifies the credentials and starts a session.
func (p *Provider) SignIn(ctx context.Context, email, password string, now time.Time) (string, *proto.Session, error) {
	m, err := p.store.FindIdentityByEmail(ctx, p.db, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return "", nil, proto.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !VerifyPassword(password, m.PasswordHash) {
		return "", nil, proto.ErrInvalidCredentials
	}

	expiresAt := now.Add(p.ttl)
	jti := uuid.NewString()
	claims := Claims{
		Email:  m.Email,
		Name:   m.DisplayName,
		Avatar: m.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   m.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwk.SigningMethod, claims)
	token.Header["kid"] = p.keys.JWK().KeyID
	signed, err := token.SignedString(p.keys.PrivateKey())
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session: %w", err)
	}

	if err := p.store.CreateIdentitySession(ctx, p.db, jti, m.ID, expiresAt); err != nil {
		return "", nil, err
	}

	p.logger.Debug("signed in", "email", m.Email, "session", jti)

	return signed, sessionFromClaims(claims), nil
}

func (p *Provider) parse(token string, now time.Time, validate bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwk.SigningMethod.Alg()}),
	}
	if validate {
		opts = append(opts,
			jwt.WithIssuer(p.issuer),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(func() time.Time { return now }),
		)
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	var claims Claims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return p.keys.PublicKey(), nil
	}, opts...); err != nil {
		return nil, err //nolint:wrapcheck
	}

	if claims.ID == "" || claims.Subject == "" || claims.Email == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &claims, nil
}

// CurrentSession returns the live session of token at now, or
// proto.ErrNoSession.
func (p *Provider) CurrentSession(ctx context.Context, token string, now time.Time) (*proto.Session, error) {
	if token == "" {
		return nil, proto.ErrNoSession
	}

	claims, err := p.parse(token, now, true)
	if err != nil {
		p.logger.Debug("rejected session token", "err", err)
		return nil, proto.ErrNoSession
	}

	row, err := p.store.GetIdentitySession(ctx, p.db, claims.ID)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrNoSession
		}
		return nil, err
	}

	if row.RevokedAt.Valid || row.IdentityID != claims.Subject || !now.Before(row.ExpiresAt) {
		return nil, proto.ErrNoSession
	}

	return sessionFromClaims(*claims), nil
}

// SignOut revokes the session of token. Expired tokens can still be signed
// out.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token, time.Time{}, false)
	if err != nil {
		return proto.ErrNoSession
	}

	return p.store.RevokeIdentitySession(ctx, p.db, claims.ID, time.Now())
}

// PurgeExpired deletes expired and revoked session records.
func (p *Provider) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return p.store.DeleteStaleIdentitySessions(ctx, p.db, now)
}

func sessionFromClaims(c Claims) *proto.Session {
	s := &proto.Session{
		ID:          c.ID,
		UserID:      c.Subject,
		Email:       c.Email,
		DisplayName: c.Name,
		AvatarURL:   c.Avatar,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}

	return s
}

func identityFromModel(m models.Identity) *proto.Identity {
	return &proto.Identity{
		ID:          m.ID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		AvatarURL:   m.AvatarURL,
		CreatedAt:   m.CreatedAt,
	}
}
