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
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/nuts-foundation/nuts-vci/crypto/util"
)

const csrPEMType = "CERTIFICATE REQUEST"

var oidExtensionSubjectAltName = asn1.ObjectIdentifier{2, 5, 29, 17}

// GenerateCSR creates a PEM encoded PKCS #10 certificate signing request for the given subject, signed with the private key.
// The extensions are added as extension requests.
func GenerateCSR(subject pkix.Name, publicKeyPEM string, privateKeyPEM string, alg jwa.SignatureAlgorithm, extensions []pkix.Extension) (string, error) {
	sigAlg, err := signatureAlgorithm(alg)
	if err != nil {
		return "", err
	}
	signer, err := loadSigner(privateKeyPEM)
	if err != nil {
		return "", err
	}
	publicKey, err := util.PemToPublicKey([]byte(publicKeyPEM))
	if err != nil {
		return "", err
	}
	if !publicKeysEqual(publicKey, signer.Public()) {
		return "", ErrKeyMismatch
	}
	der, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject:            subject,
		SignatureAlgorithm: sigAlg,
		ExtraExtensions:    extensions,
	}, signer)
	if err != nil {
		return "", fmt.Errorf("unable to create CSR: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: csrPEMType, Bytes: der})), nil
}

// parseCSR decodes the PEM encoded CSR and checks its signature.
func parseCSR(csrPEM string) (*x509.CertificateRequest, error) {
	block, _ := pem.Decode([]byte(csrPEM))
	if block == nil || block.Type != csrPEMType {
		return nil, errors.Join(ErrInvalidCSR, errNoPEM)
	}
	csr, err := x509.ParseCertificateRequest(block.Bytes)
	if err != nil {
		return nil, errors.Join(ErrInvalidCSR, err)
	}
	if err = csr.CheckSignature(); err != nil {
		return nil, errors.Join(ErrInvalidCSR, err)
	}
	return csr, nil
}

// NewSubjectAltNameExtension creates a subjectAltName extension holding the given DNS names and URIs.
func NewSubjectAltNameExtension(dnsNames []string, uris []string) (pkix.Extension, error) {
	var names []asn1.RawValue
	for _, name := range dnsNames {
		names = append(names, asn1.RawValue{Tag: 2, Class: asn1.ClassContextSpecific, Bytes: []byte(name)})
	}
	for _, uri := range uris {
		names = append(names, asn1.RawValue{Tag: 6, Class: asn1.ClassContextSpecific, Bytes: []byte(uri)})
	}
	if len(names) == 0 {
		return pkix.Extension{}, errors.New("subjectAltName requires at least one name")
	}
	value, err := asn1.Marshal(names)
	if err != nil {
		return pkix.Extension{}, err
	}
	return pkix.Extension{Id: oidExtensionSubjectAltName, Value: value}, nil
}

// ParseDistinguishedName parses a comma separated distinguished name like "CN=Issuer,O=Nuts,C=NL".
// Supported attributes are CN, O, OU, C, L, ST, STREET, POSTALCODE and SERIALNUMBER.
func ParseDistinguishedName(dn string) (pkix.Name, error) {
	var result pkix.Name
	for _, part := range strings.Split(dn, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(value) == "" {
			return pkix.Name{}, fmt.Errorf("invalid distinguished name attribute: %s", part)
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "CN":
			result.CommonName = value
		case "O":
			result.Organization = append(result.Organization, value)
		case "OU":
			result.OrganizationalUnit = append(result.OrganizationalUnit, value)
		case "C":
			result.Country = append(result.Country, value)
		case "L":
			result.Locality = append(result.Locality, value)
		case "ST":
			result.Province = append(result.Province, value)
		case "STREET":
			result.StreetAddress = append(result.StreetAddress, value)
		case "POSTALCODE":
			result.PostalCode = append(result.PostalCode, value)
		case "SERIALNUMBER":
			result.SerialNumber = value
		default:
			return pkix.Name{}, fmt.Errorf("unsupported distinguished name attribute: %s", key)
		}
	}
	if len(result.ToRDNSequence()) == 0 {
		return pkix.Name{}, errors.New("empty distinguished name")
	}
	return result, nil
}
