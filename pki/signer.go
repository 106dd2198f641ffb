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

package pki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha1"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/nuts-foundation/nuts-vci/crypto/util"
)

// signatureAlgorithm maps a JWS algorithm to the X.509 signature algorithm.
func signatureAlgorithm(alg jwa.SignatureAlgorithm) (x509.SignatureAlgorithm, error) {
	switch alg {
	case jwa.ES256:
		return x509.ECDSAWithSHA256, nil
	case jwa.EdDSA:
		return x509.PureEd25519, nil
	case jwa.ES256K:
		return x509.UnknownSignatureAlgorithm, ErrUnsupportedCurve
	}
	return x509.UnknownSignatureAlgorithm, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
}

// loadSigner parses the PEM private key and rejects keys the x509 package can't sign with.
func loadSigner(privateKeyPEM string) (crypto.Signer, error) {
	signer, err := util.PemToPrivateKey([]byte(privateKeyPEM))
	if err != nil {
		return nil, err
	}
	if err := checkCurve(signer.Public()); err != nil {
		return nil, err
	}
	return signer, nil
}

func checkCurve(publicKey crypto.PublicKey) error {
	if ecKey, ok := publicKey.(*ecdsa.PublicKey); ok && ecKey.Curve != elliptic.P256() {
		return ErrUnsupportedCurve
	}
	return nil
}

// subjectKeyID computes the key identifier as the SHA-1 hash of the subjectPublicKey (RFC 5280, section 4.2.1.2, method 1).
func subjectKeyID(publicKey crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	var spki struct {
		Algorithm asn1.RawValue
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(der, &spki); err != nil {
		return nil, err
	}
	digest := sha1.Sum(spki.PublicKey.Bytes)
	return digest[:], nil
}

func publicKeysEqual(a crypto.PublicKey, b crypto.PublicKey) bool {
	equaler, ok := a.(interface{ Equal(crypto.PublicKey) bool })
	if !ok {
		return false
	}
	return equaler.Equal(b)
}

var errNoPEM = errors.New("no PEM block found")
