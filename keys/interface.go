/*
 * Copyright (C) 2024 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package keys

import (
	"context"
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/nuts-foundation/nuts-vci/crypto"
	"github.com/nuts-foundation/nuts-vci/pki"
)

// ErrNotFound is returned by a Store when the requested key pair or certificate chain does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by a Store when a certificate chain is already registered for a key pair.
var ErrDuplicate = errors.New("already exists")

// SigningKeyPair is a key pair the issuer signs credentials with.
type SigningKeyPair struct {
	Kid       string
	Kty       string
	Crv       string
	X         string
	Y         string
	D         string
	CreatedAt time.Time
	RevokedAt *time.Time
}

// JWK returns the key pair as JWK.
func (p SigningKeyPair) JWK() crypto.JWK {
	return crypto.JWK{Kty: p.Kty, Crv: p.Crv, X: p.X, Y: p.Y, D: p.D, Kid: p.Kid}
}

// Revoked returns whether the key pair has been revoked.
func (p SigningKeyPair) Revoked() bool {
	return p.RevokedAt != nil
}

// SigningKey is the latest, non-revoked, signing key together with its certificate chain (if registered).
type SigningKey struct {
	Kid string
	// Key is the private key, with alg and kid set.
	Key jwk.Key
	// X5C is the registered certificate chain. It's empty if no chain was registered.
	X5C pki.Chain
}

// Store persists signing key pairs and their certificate chains.
type Store interface {
	// GetLatestSigningKeyPair returns the most recently created key pair that is not revoked.
	// It returns ErrNotFound if there is none.
	GetLatestSigningKeyPair(ctx context.Context) (*SigningKeyPair, error)
	// GetSigningKeyPair returns the key pair with the given kid, or ErrNotFound.
	GetSigningKeyPair(ctx context.Context, kid string) (*SigningKeyPair, error)
	// InsertSigningKeyPair stores a new key pair.
	InsertSigningKeyPair(ctx context.Context, pair SigningKeyPair) error
	// RevokeSigningKeyPair marks the key pair as revoked at the given moment.
	RevokeSigningKeyPair(ctx context.Context, kid string, revokedAt time.Time) error
	// AppendCertificateChain registers the chain for the key pair. It returns ErrDuplicate if one already exists.
	AppendCertificateChain(ctx context.Context, kid string, chain pki.Chain) error
	// GetCertificateChain returns the chain of the key pair, or ErrNotFound.
	GetCertificateChain(ctx context.Context, kid string) (pki.Chain, error)
}

// Manager administers the issuer's signing keys.
type Manager interface {
	// Generate creates and stores a new key pair on the given curve, which becomes the latest key.
	Generate(ctx context.Context, curve string) (*SigningKeyPair, error)
	// Revoke revokes the key pair.
	Revoke(ctx context.Context, kid string) error
	// RegisterChain registers the certificate chain for the key pair. The leaf certificate must contain the key pair's public key.
	RegisterChain(ctx context.Context, kid string, chain pki.Chain) error
	// Latest returns the key new credentials are signed with.
	Latest(ctx context.Context) (*SigningKey, error)
	// Get returns the key pair with the given kid.
	Get(ctx context.Context, kid string) (*SigningKeyPair, error)
	// CertificateChainPEM returns the registered chain of the key pair as PEM bundle.
	CertificateChainPEM(ctx context.Context, kid string) (string, error)
	// IssueSelfSigned issues a self-signed root certificate for the key pair and registers it as its chain.
	IssueSelfSigned(ctx context.Context, kid string, request SelfSignedRequest) (pki.Chain, error)
	// IssueCRL issues a CRL signed by the latest key, for the given revoked certificates.
	IssueCRL(ctx context.Context, request CRLRequest) (string, error)
}
