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
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/nuts-foundation/nuts-vci/crypto/util"
)

// ErrNotECDSA is returned by CheckECDSAKeyEquality when one of the keys is not an ECDSA key.
var ErrNotECDSA = errors.New("not an ECDSA key")

// CheckECDSAKeyEquality reports whether both PEM documents hold the same ECDSA public key.
// Each document may be a PUBLIC KEY, an (EC) PRIVATE KEY or a CERTIFICATE.
func CheckECDSAKeyEquality(pemA string, pemB string) (bool, error) {
	keyA, err := ecdsaPublicKeyFromPEM(pemA)
	if err != nil {
		return false, err
	}
	keyB, err := ecdsaPublicKeyFromPEM(pemB)
	if err != nil {
		return false, err
	}
	return keyA.Curve.Params().Name == keyB.Curve.Params().Name &&
		keyA.X.Cmp(keyB.X) == 0 &&
		keyA.Y.Cmp(keyB.Y) == 0, nil
}

func ecdsaPublicKeyFromPEM(data string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(data))
	if block == nil {
		return nil, errors.New("invalid PEM")
	}
	var publicKey interface{}
	var err error
	switch block.Type {
	case util.PublicKeyPEMType:
		publicKey, err = util.PemToPublicKey([]byte(data))
	case util.ECPrivateKeyPEMType, util.PrivateKeyPEMType:
		signer, signerErr := util.PemToPrivateKey([]byte(data))
		if signerErr != nil {
			return nil, signerErr
		}
		publicKey = signer.Public()
	case util.CertificatePEMType:
		certificate, certErr := x509.ParseCertificate(block.Bytes)
		if certErr != nil {
			return nil, certErr
		}
		publicKey = certificate.PublicKey
	default:
		return nil, fmt.Errorf("unsupported PEM type: %s", block.Type)
	}
	if err != nil {
		return nil, err
	}
	result, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, ErrNotECDSA
	}
	return result, nil
}
