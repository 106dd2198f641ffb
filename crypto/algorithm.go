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
	"fmt"
	"slices"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// SupportedAlgorithms holds the JWS algorithms accepted for proofs and used for signing.
// ES256K is added when built with the jwx_es256k tag, since jwx only registers secp256k1 then.
var SupportedAlgorithms = []jwa.SignatureAlgorithm{jwa.ES256, jwa.EdDSA}

// AddSupportedAlgorithm adds the given algorithm to the list of supported algorithms, if it's not already in there.
func AddSupportedAlgorithm(alg jwa.SignatureAlgorithm) bool {
	if slices.Contains(SupportedAlgorithms, alg) {
		return false
	}
	SupportedAlgorithms = append(SupportedAlgorithms, alg)
	return true
}

// ES256KSupported returns whether signing and verifying with secp256k1 keys is available.
func ES256KSupported() bool {
	return slices.Contains(SupportedAlgorithms, jwa.ES256K)
}

// SupportedAlgorithmsAsStrings returns the supported algorithms as string slice.
func SupportedAlgorithmsAsStrings() []string {
	result := make([]string, len(SupportedAlgorithms))
	for i, alg := range SupportedAlgorithms {
		result[i] = alg.String()
	}
	return result
}

// KeyAlgorithm returns the JWS algorithm for a key type and curve:
// EC on P-256 signs with ES256, any other EC curve with ES256K and OKP keys with EdDSA.
func KeyAlgorithm(kty string, crv string) (jwa.SignatureAlgorithm, error) {
	switch kty {
	case KeyTypeEC:
		if crv == CurveP256 {
			return jwa.ES256, nil
		}
		return jwa.ES256K, nil
	case KeyTypeOKP:
		return jwa.EdDSA, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedKeyType, kty)
}

// KeyAlgorithmOf is KeyAlgorithm for jwx keys.
func KeyAlgorithmOf(key jwk.Key) (jwa.SignatureAlgorithm, error) {
	var crv string
	if withCurve, ok := key.(interface {
		Crv() jwa.EllipticCurveAlgorithm
	}); ok {
		crv = withCurve.Crv().String()
	}
	return KeyAlgorithm(key.KeyType().String(), crv)
}
