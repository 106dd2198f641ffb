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
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/nuts-foundation/nuts-vci/crypto/util"
)

// GenerateCertificate issues a v3 certificate for the CSR, signed by the issuer's private key.
// Subject, public key and requested extensions are copied from the CSR, the serial number is fresh and the validity is chosen by the issuer.
func GenerateCertificate(csrPEM string, issuer pkix.Name, notBefore time.Time, notAfter time.Time, alg jwa.SignatureAlgorithm, issuerPrivateKeyPEM string) (string, error) {
	csr, err := parseCSR(csrPEM)
	if err != nil {
		return "", err
	}
	sigAlg, err := signatureAlgorithm(alg)
	if err != nil {
		return "", err
	}
	signer, err := loadSigner(issuerPrivateKeyPEM)
	if err != nil {
		return "", err
	}
	issuerKeyID, err := subjectKeyID(signer.Public())
	if err != nil {
		return "", err
	}
	template := certificateTemplate(csr, notBefore, notAfter, sigAlg)
	template.KeyUsage = x509.KeyUsageDigitalSignature
	parent := &x509.Certificate{
		Subject:      issuer,
		SubjectKeyId: issuerKeyID,
	}
	return createCertificate(template, parent, csr, signer)
}

// GenerateRootCertificate issues a self-signed CA certificate for the CSR, using the CSR's subject as issuer.
// The private key must belong to the CSR's public key.
func GenerateRootCertificate(csrPEM string, notBefore time.Time, notAfter time.Time, alg jwa.SignatureAlgorithm, privateKeyPEM string) (string, error) {
	csr, err := parseCSR(csrPEM)
	if err != nil {
		return "", err
	}
	sigAlg, err := signatureAlgorithm(alg)
	if err != nil {
		return "", err
	}
	signer, err := loadSigner(privateKeyPEM)
	if err != nil {
		return "", err
	}
	if !publicKeysEqual(csr.PublicKey, signer.Public()) {
		return "", ErrKeyMismatch
	}
	keyID, err := subjectKeyID(csr.PublicKey)
	if err != nil {
		return "", err
	}
	template := certificateTemplate(csr, notBefore, notAfter, sigAlg)
	template.IsCA = true
	template.BasicConstraintsValid = true
	template.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature
	template.SubjectKeyId = keyID
	return createCertificate(template, template, csr, signer)
}

func certificateTemplate(csr *x509.CertificateRequest, notBefore time.Time, notAfter time.Time, sigAlg x509.SignatureAlgorithm) *x509.Certificate {
	return &x509.Certificate{
		SerialNumber: PositiveSerialNumber(),
		// RawSubject keeps the CSR's subject encoding byte for byte
		Subject:            csr.Subject,
		RawSubject:         csr.RawSubject,
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		SignatureAlgorithm: sigAlg,
		ExtraExtensions:    csr.Extensions,
	}
}

func createCertificate(template *x509.Certificate, parent *x509.Certificate, csr *x509.CertificateRequest, signer crypto.Signer) (string, error) {
	if err := checkCurve(csr.PublicKey); err != nil {
		return "", err
	}
	der, err := x509.CreateCertificate(rand.Reader, template, parent, csr.PublicKey, signer)
	if err != nil {
		return "", fmt.Errorf("unable to create certificate: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: util.CertificatePEMType, Bytes: der})), nil
}
