// Package jwk holds the key pair that signs identity session tokens and its
// public JSON Web Key.
package jwk

import (
	"crypto"
	"crypto/sha256"
	"fmt"

	"github.com/go-jose/go-jose/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mundesk/mundesk/pkg/config"
)

// SigningMethod is a JSON Web Token signing method. It uses Ed25519 keys to
// sign and verify tokens.
var SigningMethod = &jwt.SigningMethodEd25519{}

// Pair is a JSON Web Key pair.
type Pair struct {
	privateKey crypto.PrivateKey
	publicKey  crypto.PublicKey
	jwk        jose.JSONWebKey
}

// PrivateKey returns the private key.
func (p Pair) PrivateKey() crypto.PrivateKey {
	return p.privateKey
}

// PublicKey returns the public key.
func (p Pair) PublicKey() crypto.PublicKey {
	return p.publicKey
}

// JWK returns the JSON Web Key.
func (p Pair) JWK() jose.JSONWebKey {
	return p.jwk
}

// KeySet returns the public key set served at /.well-known/jwks.json.
func (p Pair) KeySet() jose.JSONWebKeySet {
	return jose.JSONWebKeySet{Keys: []jose.JSONWebKey{p.jwk}}
}

// NewPair loads or creates the session signing key pair.
func NewPair(cfg *config.Config) (Pair, error) {
	kp, err := config.KeyPair(cfg)
	if err != nil {
		return Pair{}, err
	}

	sum := sha256.Sum256(kp.RawPrivateKey())
	kid := fmt.Sprintf("%x", sum)
	jwk := jose.JSONWebKey{
		Key:       kp.CryptoPublicKey(),
		KeyID:     kid,
		Algorithm: SigningMethod.Alg(),
		Use:       "sig",
	}

	return Pair{privateKey: kp.PrivateKey(), publicKey: kp.CryptoPublicKey(), jwk: jwk}, nil
}
