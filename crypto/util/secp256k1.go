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
	"crypto/ecdsa"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// oidNamedCurveP256k1 is the ASN.1 object identifier of the secp256k1 curve.
// See http://oidref.com/1.3.132.0.10
var oidNamedCurveP256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}

var oidPublicKeyECDSA = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}

var errNotSecp256k1 = errors.New("unknown elliptic curve")

type asn1ECPrivateKey struct {
	Version int
	Data    []byte
	Curve   asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
}

type asn1PKCS8Container struct {
	Version int
	Algo    pkix.AlgorithmIdentifier
	Data    []byte
}

type asn1SubjectPublicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

// unmarshalSecp256k1 unmarshals into a secp256k1 private key, provided in ASN.1 format, according to section 4.3.6 of ANSI X9.62
func unmarshalSecp256k1(data []byte) (*ecdsa.PrivateKey, error) {
	var privateKeyDER asn1ECPrivateKey
	if _, err := asn1.Unmarshal(data, &privateKeyDER); err != nil {
		return nil, err
	}
	if !privateKeyDER.Curve.Equal(oidNamedCurveP256k1) {
		return nil, errNotSecp256k1
	}
	return secp256k1.PrivKeyFromBytes(privateKeyDER.Data).ToECDSA(), nil
}

// marshalSecp256k1 marshals a secp256k1 private key into ASN.1 format, according to section 4.3.6 of ANSI X9.62
func marshalSecp256k1(privateKey *secp256k1.PrivateKey) ([]byte, error) {
	pubKey := privateKey.PubKey()
	if !secp256k1.S256().IsOnCurve(pubKey.X(), pubKey.Y()) {
		return nil, errors.New("invalid secp256k1 public key")
	}
	return asn1.Marshal(asn1ECPrivateKey{
		Version: 1,
		Data:    privateKey.Serialize(),
		Curve:   oidNamedCurveP256k1,
	})
}

// unmarshalSecp256k1PKCS8 reads a secp256k1 private key wrapped in a PKCS #8 container.
func unmarshalSecp256k1PKCS8(data []byte) (*ecdsa.PrivateKey, error) {
	var container asn1PKCS8Container
	if _, err := asn1.Unmarshal(data, &container); err != nil {
		return nil, err
	}
	if !container.Algo.Algorithm.Equal(oidPublicKeyECDSA) {
		return nil, errNotSecp256k1
	}
	var curve asn1.ObjectIdentifier
	if _, err := asn1.Unmarshal(container.Algo.Parameters.FullBytes, &curve); err != nil {
		return nil, err
	}
	if !curve.Equal(oidNamedCurveP256k1) {
		return nil, errNotSecp256k1
	}
	return unmarshalSecp256k1(container.Data)
}

// marshalSecp256k1PublicKey marshals a secp256k1 public key into a SubjectPublicKeyInfo (RFC 5480) structure.
func marshalSecp256k1PublicKey(publicKey *ecdsa.PublicKey) ([]byte, error) {
	var x, y secp256k1.FieldVal
	if x.SetByteSlice(publicKey.X.Bytes()) || y.SetByteSlice(publicKey.Y.Bytes()) {
		return nil, errors.New("invalid secp256k1 public key")
	}
	pubKey := secp256k1.NewPublicKey(&x, &y)
	if !pubKey.IsOnCurve() {
		return nil, errors.New("invalid secp256k1 public key")
	}
	oidBytes, err := asn1.Marshal(oidNamedCurveP256k1)
	if err != nil {
		return nil, err
	}
	point := pubKey.SerializeUncompressed()
	return asn1.Marshal(asn1SubjectPublicKeyInfo{
		Algorithm: pkix.AlgorithmIdentifier{
			Algorithm:  oidPublicKeyECDSA,
			Parameters: asn1.RawValue{FullBytes: oidBytes},
		},
		PublicKey: asn1.BitString{Bytes: point, BitLength: 8 * len(point)},
	})
}

// unmarshalSecp256k1PublicKey parses a SubjectPublicKeyInfo structure holding a secp256k1 public key.
func unmarshalSecp256k1PublicKey(data []byte) (*ecdsa.PublicKey, error) {
	var spki asn1SubjectPublicKeyInfo
	if _, err := asn1.Unmarshal(data, &spki); err != nil {
		return nil, err
	}
	if !spki.Algorithm.Algorithm.Equal(oidPublicKeyECDSA) {
		return nil, errNotSecp256k1
	}
	var curve asn1.ObjectIdentifier
	if _, err := asn1.Unmarshal(spki.Algorithm.Parameters.FullBytes, &curve); err != nil {
		return nil, err
	}
	if !curve.Equal(oidNamedCurveP256k1) {
		return nil, errNotSecp256k1
	}
	pubKey, err := secp256k1.ParsePubKey(spki.PublicKey.RightAlign())
	if err != nil {
		return nil, err
	}
	return pubKey.ToECDSA(), nil
}

// marshalSecp256k1PKCS8 marshals a secp256k1 private key into ASN.1, PKCS #8 format.
// It's inspired by crypto/x509/pkcs8.go
func marshalSecp256k1PKCS8(privateKey *secp256k1.PrivateKey) ([]byte, error) {
	oidBytes, err := asn1.Marshal(oidNamedCurveP256k1)
	if err != nil {
		return nil, err
	}
	pkData, err := marshalSecp256k1(privateKey)
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(asn1PKCS8Container{
		Algo: pkix.AlgorithmIdentifier{
			Algorithm:  oidPublicKeyECDSA,
			Parameters: asn1.RawValue{FullBytes: oidBytes},
		},
		Data: pkData,
	})
}
