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

package crypto

import (
	"bytes"
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/nuts-foundation/nuts-vci/crypto/util"
)

// PEMKeyPair holds the PEM encoding of a key pair. PrivatePEM is empty when the source JWK holds no private part.
type PEMKeyPair struct {
	PublicPEM  string
	PrivatePEM string
}

type keyCurve int

const (
	curveP256 keyCurve = iota
	curveSecp256k1
	curveEd25519
)

type curveKey struct {
	kty string
	crv string
}

// supportedCurves maps JWK naming to the encoders in this package.
var supportedCurves = map[curveKey]keyCurve{
	{KeyTypeEC, CurveP256}:      curveP256,
	{KeyTypeEC, CurveSecp256k1}: curveSecp256k1,
	{KeyTypeOKP, CurveEd25519}:  curveEd25519,
}

// EllipticJWKToPEM converts an EC (P-256, secp256k1) or OKP (Ed25519) JWK to PEM.
// The public key is encoded as SubjectPublicKeyInfo, the private key (if present) as PKCS #8,
// except for secp256k1 which is encoded as SEC 1 EC PRIVATE KEY.
func EllipticJWKToPEM(key JWK) (*PEMKeyPair, error) {
	curve, ok := supportedCurves[curveKey{kty: key.Kty, crv: key.Crv}]
	if !ok {
		return nil, fmt.Errorf("%w: kty=%s, crv=%s", ErrUnsupportedKey, key.Kty, key.Crv)
	}
	publicKey, privateKey, err := decodeJWK(curve, key)
	if err != nil {
		return nil, err
	}
	result := PEMKeyPair{}
	if result.PublicPEM, err = util.PublicKeyToPem(publicKey); err != nil {
		return nil, err
	}
	if privateKey != nil {
		if result.PrivatePEM, err = util.PrivateKeyToPem(privateKey); err != nil {
			return nil, err
		}
	}
	return &result, nil
}

// JWKToPublicKey decodes the public part of the JWK.
func JWKToPublicKey(key JWK) (crypto.PublicKey, error) {
	curve, ok := supportedCurves[curveKey{kty: key.Kty, crv: key.Crv}]
	if !ok {
		return nil, fmt.Errorf("%w: kty=%s, crv=%s", ErrUnsupportedKey, key.Kty, key.Crv)
	}
	publicKey, _, err := decodeJWK(curve, PublicJWK(key))
	return publicKey, err
}

func decodeJWK(curve keyCurve, key JWK) (crypto.PublicKey, crypto.PrivateKey, error) {
	if curve == curveEd25519 {
		return decodeEd25519(key)
	}
	x, err := decodeCoordinate(key.X, 32)
	if err != nil {
		return nil, nil, err
	}
	y, err := decodeCoordinate(key.Y, 32)
	if err != nil {
		return nil, nil, err
	}
	point := append(append([]byte{4}, x...), y...)
	if curve == curveSecp256k1 {
		return decodeSecp256k1(point, key.D)
	}
	return decodeP256(point, key.D)
}

func decodeP256(point []byte, d string) (crypto.PublicKey, crypto.PrivateKey, error) {
	if _, err := ecdh.P256().NewPublicKey(point); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	publicKey := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(point[1:33]),
		Y:     new(big.Int).SetBytes(point[33:]),
	}
	if d == "" {
		return publicKey, nil, nil
	}
	scalar, err := decodeCoordinate(d, 32)
	if err != nil {
		return nil, nil, err
	}
	ecdhKey, err := ecdh.P256().NewPrivateKey(scalar)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if !bytes.Equal(ecdhKey.PublicKey().Bytes(), point) {
		return nil, nil, fmt.Errorf("%w: private key does not match public key", ErrInvalidKey)
	}
	return publicKey, &ecdsa.PrivateKey{PublicKey: *publicKey, D: new(big.Int).SetBytes(scalar)}, nil
}

func decodeSecp256k1(point []byte, d string) (crypto.PublicKey, crypto.PrivateKey, error) {
	publicKey, err := secp256k1.ParsePubKey(point)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if d == "" {
		return publicKey.ToECDSA(), nil, nil
	}
	scalar, err := decodeCoordinate(d, 32)
	if err != nil {
		return nil, nil, err
	}
	privateKey := secp256k1.PrivKeyFromBytes(scalar)
	if !privateKey.PubKey().IsEqual(publicKey) {
		return nil, nil, fmt.Errorf("%w: private key does not match public key", ErrInvalidKey)
	}
	return publicKey.ToECDSA(), privateKey, nil
}

func decodeEd25519(key JWK) (crypto.PublicKey, crypto.PrivateKey, error) {
	x, err := decodeCoordinate(key.X, ed25519.PublicKeySize)
	if err != nil {
		return nil, nil, err
	}
	publicKey := ed25519.PublicKey(x)
	if key.D == "" {
		return publicKey, nil, nil
	}
	seed, err := decodeCoordinate(key.D, ed25519.SeedSize)
	if err != nil {
		return nil, nil, err
	}
	privateKey := ed25519.NewKeyFromSeed(seed)
	if !publicKey.Equal(privateKey.Public()) {
		return nil, nil, fmt.Errorf("%w: private key does not match public key", ErrInvalidKey)
	}
	return publicKey, privateKey, nil
}
