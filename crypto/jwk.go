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
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lestrrat-go/jwx/v2/jwk"
	sha256 "github.com/minio/sha256-simd"
)

const (
	// KeyTypeEC is the JWK key type for elliptic curve keys.
	KeyTypeEC = "EC"
	// KeyTypeOKP is the JWK key type for octet key pairs (EdDSA).
	KeyTypeOKP = "OKP"

	CurveP256      = "P-256"
	CurveSecp256k1 = "secp256k1"
	CurveEd25519   = "Ed25519"
)

// ErrUnsupportedKey is returned when a JWK has a key type and curve combination that can't be converted.
var ErrUnsupportedKey = errors.New("unsupported key")

// ErrUnsupportedKeyType is returned when no signature algorithm exists for a key type.
var ErrUnsupportedKeyType = errors.New("unsupported key type")

// ErrInvalidKey is returned when the key material of a JWK is malformed or inconsistent.
var ErrInvalidKey = errors.New("invalid key material")

// JWK is the stored representation of a signing key pair. Coordinates and the private part are base64url encoded.
// For OKP keys X holds the public key and D the seed.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y,omitempty"`
	D   string `json:"d,omitempty"`
	Kid string `json:"kid,omitempty"`
}

// IsPrivate returns whether the JWK contains private key material.
func (k JWK) IsPrivate() bool {
	return k.D != ""
}

// PublicJWK returns a copy of the JWK without its private part.
func PublicJWK(key JWK) JWK {
	key.D = ""
	return key
}

// ImportJWK converts the JWK to a jwx key which can be used for signing (private) or verification (public).
// The key's alg and kid are set.
func ImportJWK(key JWK) (jwk.Key, error) {
	alg, err := KeyAlgorithm(key.Kty, key.Crv)
	if err != nil {
		return nil, err
	}
	asJSON, _ := json.Marshal(key)
	result, err := jwk.ParseKey(asJSON)
	if err != nil {
		return nil, errors.Join(ErrInvalidKey, err)
	}
	_ = result.Set(jwk.AlgorithmKey, alg)
	kid := key.Kid
	if kid == "" {
		if kid, err = Thumbprint(key); err != nil {
			return nil, err
		}
	}
	_ = result.Set(jwk.KeyIDKey, kid)
	return result, nil
}

// Thumbprint computes the RFC 7638 SHA-256 thumbprint of the (public part of the) JWK, base64url encoded without padding.
func Thumbprint(key JWK) (string, error) {
	var members []string
	switch key.Kty {
	case KeyTypeEC:
		members = []string{member("crv", key.Crv), member("kty", key.Kty), member("x", key.X), member("y", key.Y)}
	case KeyTypeOKP:
		members = []string{member("crv", key.Crv), member("kty", key.Kty), member("x", key.X)}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKeyType, key.Kty)
	}
	digest := sha256.Sum256([]byte("{" + strings.Join(members, ",") + "}"))
	// trailing '=' not allowed in kid
	return base64.RawURLEncoding.EncodeToString(digest[:]), nil
}

func member(name string, value string) string {
	v, _ := json.Marshal(value)
	return `"` + name + `":` + string(v)
}

// GenerateJWK generates a new key pair on the given curve. The kid is set to the JWK thumbprint.
func GenerateJWK(curve string) (*JWK, error) {
	var result JWK
	switch curve {
	case CurveP256:
		privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, err
		}
		result = JWK{
			Kty: KeyTypeEC,
			Crv: CurveP256,
			X:   encodeCoordinate(privateKey.X.FillBytes(make([]byte, 32))),
			Y:   encodeCoordinate(privateKey.Y.FillBytes(make([]byte, 32))),
			D:   encodeCoordinate(privateKey.D.FillBytes(make([]byte, 32))),
		}
	case CurveSecp256k1:
		privateKey, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		point := privateKey.PubKey().SerializeUncompressed()
		result = JWK{
			Kty: KeyTypeEC,
			Crv: CurveSecp256k1,
			X:   encodeCoordinate(point[1:33]),
			Y:   encodeCoordinate(point[33:65]),
			D:   encodeCoordinate(privateKey.Serialize()),
		}
	case CurveEd25519:
		publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		result = JWK{
			Kty: KeyTypeOKP,
			Crv: CurveEd25519,
			X:   encodeCoordinate(publicKey),
			D:   encodeCoordinate(privateKey.Seed()),
		}
	default:
		return nil, fmt.Errorf("%w: curve %s", ErrUnsupportedKey, curve)
	}
	kid, err := Thumbprint(result)
	if err != nil {
		return nil, err
	}
	result.Kid = kid
	return &result, nil
}

func encodeCoordinate(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// decodeCoordinate decodes a base64url value and left-pads it to the given size.
func decodeCoordinate(value string, size int) ([]byte, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(value, "="))
	if err != nil {
		return nil, errors.Join(ErrInvalidKey, err)
	}
	if len(data) > size || len(data) == 0 {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, size, len(data))
	}
	if len(data) < size {
		data = append(make([]byte, size-len(data)), data...)
	}
	return data, nil
}
