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

package util

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ErrWrongPublicKey is returned when the given PEM block does not contain a supported public key.
var ErrWrongPublicKey = errors.New("failed to decode PEM block containing public key, key is of the wrong type")

// ErrWrongPrivateKey is returned when the given PEM block does not contain a supported private key.
var ErrWrongPrivateKey = errors.New("failed to decode PEM block containing private key")

const (
	PublicKeyPEMType    = "PUBLIC KEY"
	ECPrivateKeyPEMType = "EC PRIVATE KEY"
	PrivateKeyPEMType   = "PRIVATE KEY"
	CertificatePEMType  = "CERTIFICATE"
)

// PemToPublicKey converts a PEM encoded public key to a crypto.PublicKey.
// Besides the curves supported by the x509 package it also accepts secp256k1 keys.
func PemToPublicKey(pub []byte) (crypto.PublicKey, error) {
	block, _ := pem.Decode(pub)
	if block == nil || block.Type != PublicKeyPEMType {
		return nil, ErrWrongPublicKey
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		if key, secpErr := unmarshalSecp256k1PublicKey(block.Bytes); secpErr == nil {
			return key, nil
		}
		return nil, errors.Join(ErrWrongPublicKey, err)
	}
	return key, nil
}

// PublicKeyToPem converts a public key to PEM encoding (SubjectPublicKeyInfo).
func PublicKeyToPem(pub crypto.PublicKey) (string, error) {
	var der []byte
	var err error
	if ecKey, ok := pub.(*ecdsa.PublicKey); ok && ecKey.Curve == secp256k1.S256() {
		der, err = marshalSecp256k1PublicKey(ecKey)
	} else {
		der, err = x509.MarshalPKIXPublicKey(pub)
	}
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: PublicKeyPEMType, Bytes: der})), nil
}

// PrivateKeyToPem converts a private key to PEM encoding.
// secp256k1 keys are encoded as SEC 1 EC PRIVATE KEY, other keys as PKCS #8.
func PrivateKeyToPem(privateKey crypto.PrivateKey) (string, error) {
	if pk, ok := privateKey.(*ecdsa.PrivateKey); ok && pk.Curve == secp256k1.S256() {
		privateKey = secp256k1.PrivKeyFromBytes(pk.D.Bytes())
	}

	var der []byte
	var err error
	var pemType string
	switch pk := privateKey.(type) {
	case *secp256k1.PrivateKey:
		der, err = marshalSecp256k1(pk)
		pemType = ECPrivateKeyPEMType
	default:
		der, err = x509.MarshalPKCS8PrivateKey(privateKey)
		pemType = PrivateKeyPEMType
	}
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: pemType, Bytes: der})), nil
}

// PemToPrivateKey converts a PEM encoded private key to a Signer interface. It supports EC (SEC 1, including secp256k1) and PKCS #8 PEM encoded keys.
func PemToPrivateKey(bytes []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(bytes)
	if block == nil {
		return nil, ErrWrongPrivateKey
	}
	var err error
	var result crypto.Signer
	switch block.Type {
	case ECPrivateKeyPEMType:
		result, err = parseECPrivateKey(block.Bytes)
	case PrivateKeyPEMType:
		var key interface{}
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			// x509 refuses PKCS #8 containers holding secp256k1 keys
			if container, containerErr := unmarshalSecp256k1PKCS8(block.Bytes); containerErr == nil {
				result, err = container, nil
			}
		} else {
			switch k := key.(type) {
			case *ecdsa.PrivateKey:
				result = k
			case ed25519.PrivateKey:
				result = k
			default:
				err = errors.New("unsupported private key type")
			}
		}
	}
	if result == nil {
		return nil, errors.Join(ErrWrongPrivateKey, err)
	}
	return result, nil
}

// parseECPrivateKey parses EC private keys, trying Golang's x509 package first,
// and then trying other, by default unsupported keys (secp256k1).
func parseECPrivateKey(der []byte) (crypto.Signer, error) {
	pk, err := x509.ParseECPrivateKey(der)
	if err != nil {
		if key, secpErr := unmarshalSecp256k1(der); secpErr == nil {
			return key, nil
		}
		return nil, err
	}
	return pk, nil
}
