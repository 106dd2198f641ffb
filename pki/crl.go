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
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
)

const crlPEMType = "X509 CRL"

var nowFunc = time.Now

// GenerateCRL creates a PEM encoded X.509 v2 CRL with one entry per revoked certificate.
// The CRL carries the cRLNumber and authorityKeyIdentifier extensions. When authorityKeyIDHex is empty,
// the key identifier is derived from the issuer's key.
func GenerateCRL(revoked []RevokedCertificate, issuer pkix.Name, crlNumber *big.Int, nextUpdate time.Time, alg jwa.SignatureAlgorithm, authorityKeyIDHex string, issuerPrivateKeyPEM string) (string, error) {
	if crlNumber == nil || crlNumber.Sign() < 0 {
		return "", errors.New("CRL number must be a non-negative number")
	}
	sigAlg, err := signatureAlgorithm(alg)
	if err != nil {
		return "", err
	}
	signer, err := loadSigner(issuerPrivateKeyPEM)
	if err != nil {
		return "", err
	}
	var authorityKeyID []byte
	if authorityKeyIDHex != "" {
		if authorityKeyID, err = hex.DecodeString(authorityKeyIDHex); err != nil {
			return "", fmt.Errorf("invalid authority key identifier: %w", err)
		}
	} else if authorityKeyID, err = subjectKeyID(signer.Public()); err != nil {
		return "", err
	}

	entries := make([]x509.RevocationListEntry, 0, len(revoked))
	for _, curr := range revoked {
		serial, ok := new(big.Int).SetString(curr.SerialHex, 16)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrInvalidSerialNumber, curr.SerialHex)
		}
		entry := x509.RevocationListEntry{
			SerialNumber:   serial,
			RevocationTime: curr.RevocationDate,
		}
		if curr.Reason != nil {
			entry.ReasonCode = *curr.Reason
		}
		entries = append(entries, entry)
	}

	template := &x509.RevocationList{
		SignatureAlgorithm:        sigAlg,
		RevokedCertificateEntries: entries,
		Number:                    crlNumber,
		ThisUpdate:                nowFunc(),
		NextUpdate:                nextUpdate,
	}
	issuerCertificate := &x509.Certificate{
		Subject:      issuer,
		KeyUsage:     x509.KeyUsageCRLSign,
		SubjectKeyId: authorityKeyID,
	}
	der, err := x509.CreateRevocationList(rand.Reader, template, issuerCertificate, signer)
	if err != nil {
		return "", fmt.Errorf("unable to create CRL: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: crlPEMType, Bytes: der})), nil
}
