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
	"crypto/ed25519"
	"crypto/x509/pkix"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/nuts-foundation/nuts-vci/audit"
	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/crypto"
	"github.com/nuts-foundation/nuts-vci/keys/log"
	"github.com/nuts-foundation/nuts-vci/pki"
)

// ErrNoSigningKey is returned when there is no non-revoked signing key pair.
var ErrNoSigningKey = errors.New("no signing key available")

var nowFunc = time.Now

// SelfSignedRequest describes the root certificate issued by IssueSelfSigned.
type SelfSignedRequest struct {
	Subject  pkix.Name
	Validity time.Duration
	DNSNames []string
	URIs     []string
}

// CRLRequest describes the revocation list issued by IssueCRL.
type CRLRequest struct {
	Revoked    []pki.RevokedCertificate
	Number     *big.Int
	NextUpdate time.Time
}

var _ Manager = (*KeyManager)(nil)

// NewManager creates a KeyManager on the given store.
func NewManager(store Store) *KeyManager {
	return &KeyManager{store: store}
}

// KeyManager implements Manager.
type KeyManager struct {
	store Store
}

func (m *KeyManager) Generate(ctx context.Context, curve string) (*SigningKeyPair, error) {
	if curve == "" {
		return nil, newError(InvalidParameter, errors.New("curve is required"))
	}
	// a key that can't sign is useless
	if curve == crypto.CurveSecp256k1 && !crypto.ES256KSupported() {
		return nil, newError(UnsupportedCurve, fmt.Errorf("%w: %s requires ES256K support (jwx_es256k build tag)", crypto.ErrUnsupportedKey, curve))
	}
	generated, err := crypto.GenerateJWK(curve)
	if err != nil {
		return nil, fromCryptoError(err)
	}
	pair := SigningKeyPair{
		Kid:       generated.Kid,
		Kty:       generated.Kty,
		Crv:       generated.Crv,
		X:         generated.X,
		Y:         generated.Y,
		D:         generated.D,
		CreatedAt: nowFunc(),
	}
	if err = m.store.InsertSigningKeyPair(ctx, pair); err != nil {
		return nil, newError(InternalError, fmt.Errorf("unable to store signing key pair: %w", err))
	}
	audit.Log(ctx, log.Logger(), audit.KeyGeneratedEvent).
		WithField(core.LogFieldKeyID, pair.Kid).
		Infof("Generated signing key pair (curve=%s)", curve)
	return &pair, nil
}

func (m *KeyManager) Revoke(ctx context.Context, kid string) error {
	if _, err := m.getActivePair(ctx, kid); err != nil {
		return err
	}
	if err := m.store.RevokeSigningKeyPair(ctx, kid, nowFunc()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return newError(NotFound, err)
		}
		return newError(InternalError, err)
	}
	audit.Log(ctx, log.Logger(), audit.KeyRevokedEvent).
		WithField(core.LogFieldKeyID, kid).
		Info("Revoked signing key pair")
	return nil
}

func (m *KeyManager) RegisterChain(ctx context.Context, kid string, chain pki.Chain) error {
	pair, err := m.getActivePair(ctx, kid)
	if err != nil {
		return err
	}
	if len(chain) == 0 {
		return newError(InvalidParameter, errors.New("certificate chain is empty"))
	}
	certificates, err := chain.Certificates()
	if err != nil {
		return newError(InvalidParameter, err)
	}
	if err = checkLeafKey(*pair, chain, certificates[0].PublicKey); err != nil {
		return err
	}
	_, err = m.store.GetCertificateChain(ctx, kid)
	if err == nil {
		return newError(Duplicated, fmt.Errorf("certificate chain already registered (kid=%s)", kid))
	} else if !errors.Is(err, ErrNotFound) {
		return newError(InternalError, err)
	}
	if err = m.store.AppendCertificateChain(ctx, kid, chain); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return newError(Duplicated, err)
		}
		return newError(InternalError, err)
	}
	audit.Log(ctx, log.Logger(), audit.CertificateChainRegisteredEvent).
		WithField(core.LogFieldKeyID, kid).
		Infof("Registered certificate chain (subject=%s, length=%d)", certificates[0].Subject, len(chain))
	return nil
}

// checkLeafKey checks the leaf certificate holds the key pair's public key.
func checkLeafKey(pair SigningKeyPair, chain pki.Chain, leafKey interface{}) error {
	public := crypto.PublicJWK(pair.JWK())
	switch pair.Kty {
	case crypto.KeyTypeEC:
		pems, err := crypto.EllipticJWKToPEM(public)
		if err != nil {
			return fromCryptoError(err)
		}
		leafPEM, err := chain.LeafPEM()
		if err != nil {
			return newError(InvalidParameter, err)
		}
		equal, err := crypto.CheckECDSAKeyEquality(leafPEM, pems.PublicPEM)
		if errors.Is(err, crypto.ErrNotECDSA) {
			return newError(KeyDoesNotMatch, err)
		} else if err != nil {
			return newError(InvalidParameter, err)
		}
		if !equal {
			return newError(KeyDoesNotMatch, errors.New("leaf certificate does not contain the signing key"))
		}
	case crypto.KeyTypeOKP:
		publicKey, err := crypto.JWKToPublicKey(public)
		if err != nil {
			return fromCryptoError(err)
		}
		certKey, ok := leafKey.(ed25519.PublicKey)
		if !ok || !certKey.Equal(publicKey) {
			return newError(KeyDoesNotMatch, errors.New("leaf certificate does not contain the signing key"))
		}
	default:
		return newError(UnsupportedCurve, fmt.Errorf("%w: %s", crypto.ErrUnsupportedKeyType, pair.Kty))
	}
	return nil
}

func (m *KeyManager) Latest(ctx context.Context) (*SigningKey, error) {
	pair, err := m.store.GetLatestSigningKeyPair(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, newError(NotFound, ErrNoSigningKey)
	} else if err != nil {
		return nil, newError(InternalError, err)
	}
	key, err := crypto.ImportJWK(pair.JWK())
	if err != nil {
		return nil, fromCryptoError(err)
	}
	chain, err := m.store.GetCertificateChain(ctx, pair.Kid)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, newError(InternalError, err)
	}
	return &SigningKey{Kid: pair.Kid, Key: key, X5C: chain}, nil
}

func (m *KeyManager) Get(ctx context.Context, kid string) (*SigningKeyPair, error) {
	return m.getPair(ctx, kid)
}

func (m *KeyManager) CertificateChainPEM(ctx context.Context, kid string) (string, error) {
	if _, err := m.getPair(ctx, kid); err != nil {
		return "", err
	}
	chain, err := m.store.GetCertificateChain(ctx, kid)
	if errors.Is(err, ErrNotFound) {
		return "", newError(NotFound, fmt.Errorf("no certificate chain registered (kid=%s)", kid))
	} else if err != nil {
		return "", newError(InternalError, err)
	}
	return chain.PEM(), nil
}

func (m *KeyManager) IssueSelfSigned(ctx context.Context, kid string, request SelfSignedRequest) (pki.Chain, error) {
	if request.Validity <= 0 {
		return nil, newError(InvalidParameter, errors.New("validity must be positive"))
	}
	pair, err := m.getActivePair(ctx, kid)
	if err != nil {
		return nil, err
	}
	alg, err := crypto.KeyAlgorithm(pair.Kty, pair.Crv)
	if err != nil {
		return nil, fromCryptoError(err)
	}
	pems, err := crypto.EllipticJWKToPEM(pair.JWK())
	if err != nil {
		return nil, fromCryptoError(err)
	}
	var extensions []pkix.Extension
	if len(request.DNSNames) > 0 || len(request.URIs) > 0 {
		san, err := pki.NewSubjectAltNameExtension(request.DNSNames, request.URIs)
		if err != nil {
			return nil, newError(InvalidParameter, err)
		}
		extensions = append(extensions, san)
	}
	csr, err := pki.GenerateCSR(request.Subject, pems.PublicPEM, pems.PrivatePEM, alg, extensions)
	if err != nil {
		return nil, fromCryptoError(err)
	}
	notBefore := nowFunc()
	certificate, err := pki.GenerateRootCertificate(csr, notBefore, notBefore.Add(request.Validity), alg, pems.PrivatePEM)
	if err != nil {
		return nil, fromCryptoError(err)
	}
	chain := pki.Chain{pki.StripPEM(certificate)}
	if err = m.RegisterChain(ctx, kid, chain); err != nil {
		return nil, err
	}
	return chain, nil
}

func (m *KeyManager) IssueCRL(ctx context.Context, request CRLRequest) (string, error) {
	if request.Number == nil || request.Number.Sign() < 0 {
		return "", newError(InvalidParameter, errors.New("CRL number must be a non-negative integer"))
	}
	if !request.NextUpdate.After(nowFunc()) {
		return "", newError(InvalidParameter, errors.New("next update must be in the future"))
	}
	pair, err := m.store.GetLatestSigningKeyPair(ctx)
	if errors.Is(err, ErrNotFound) {
		return "", newError(NotFound, ErrNoSigningKey)
	} else if err != nil {
		return "", newError(InternalError, err)
	}
	chain, err := m.store.GetCertificateChain(ctx, pair.Kid)
	if errors.Is(err, ErrNotFound) {
		return "", newError(NotFound, fmt.Errorf("no certificate chain registered for the latest key (kid=%s)", pair.Kid))
	} else if err != nil {
		return "", newError(InternalError, err)
	}
	certificates, err := chain.Certificates()
	if err != nil {
		return "", newError(InternalError, err)
	}
	alg, err := crypto.KeyAlgorithm(pair.Kty, pair.Crv)
	if err != nil {
		return "", fromCryptoError(err)
	}
	pems, err := crypto.EllipticJWKToPEM(pair.JWK())
	if err != nil {
		return "", fromCryptoError(err)
	}
	leaf := certificates[0]
	result, err := pki.GenerateCRL(request.Revoked, leaf.Subject, request.Number, request.NextUpdate, alg, hex.EncodeToString(leaf.SubjectKeyId), pems.PrivatePEM)
	if err != nil {
		return "", fromCryptoError(err)
	}
	audit.Log(ctx, log.Logger(), audit.CRLIssuedEvent).
		WithField(core.LogFieldKeyID, pair.Kid).
		Infof("Issued CRL (number=%s, entries=%d)", request.Number, len(request.Revoked))
	return result, nil
}

func (m *KeyManager) getPair(ctx context.Context, kid string) (*SigningKeyPair, error) {
	if kid == "" {
		return nil, newError(InvalidParameter, errors.New("kid is required"))
	}
	pair, err := m.store.GetSigningKeyPair(ctx, kid)
	if errors.Is(err, ErrNotFound) {
		return nil, newError(NotFound, fmt.Errorf("signing key pair not found (kid=%s)", kid))
	} else if err != nil {
		return nil, newError(InternalError, err)
	}
	return pair, nil
}

func (m *KeyManager) getActivePair(ctx context.Context, kid string) (*SigningKeyPair, error) {
	pair, err := m.getPair(ctx, kid)
	if err != nil {
		return nil, err
	}
	if pair.Revoked() {
		return nil, newError(Gone, fmt.Errorf("signing key pair is revoked (kid=%s)", kid))
	}
	return pair, nil
}
