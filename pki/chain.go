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
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nuts-foundation/nuts-vci/crypto/util"
)

// Chain is an X.509 certificate chain, ordered leaf first. Every entry is a base64 (standard encoding) DER certificate,
// which is also the format of the JWS x5c header.
type Chain []string

// ParseChain parses a JSON array of base64 DER certificates. Every entry must decode to a certificate.
func ParseChain(data []byte) (Chain, error) {
	var result Chain
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.Join(ErrInvalidCertificate, err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: empty chain", ErrInvalidCertificate)
	}
	if _, err := result.Certificates(); err != nil {
		return nil, err
	}
	return result, nil
}

// ParseChainPEM parses a bundle of PEM encoded certificates, leaf first.
func ParseChainPEM(bundle string) (Chain, error) {
	entries, err := SplitPEMBundle(bundle)
	if err != nil {
		return nil, err
	}
	result := Chain(entries)
	if _, err := result.Certificates(); err != nil {
		return nil, err
	}
	return result, nil
}

// JSON returns the chain as JSON array.
func (c Chain) JSON() ([]byte, error) {
	return json.Marshal([]string(c))
}

// PEM returns the chain as PEM bundle, each certificate framed at 64 columns.
func (c Chain) PEM() string {
	var sb strings.Builder
	for _, entry := range c {
		sb.WriteString(WrapBase64PEM(entry, util.CertificatePEMType))
	}
	return sb.String()
}

// Certificates decodes all certificates in the chain.
func (c Chain) Certificates() ([]*x509.Certificate, error) {
	result := make([]*x509.Certificate, len(c))
	for i, entry := range c {
		der, err := base64.StdEncoding.DecodeString(entry)
		if err != nil {
			return nil, fmt.Errorf("%w (index=%d): %w", ErrInvalidCertificate, i, err)
		}
		if result[i], err = x509.ParseCertificate(der); err != nil {
			return nil, fmt.Errorf("%w (index=%d): %w", ErrInvalidCertificate, i, err)
		}
	}
	return result, nil
}

// LeafPEM returns the first certificate of the chain as PEM.
func (c Chain) LeafPEM() (string, error) {
	if len(c) == 0 {
		return "", fmt.Errorf("%w: empty chain", ErrInvalidCertificate)
	}
	return WrapBase64PEM(c[0], util.CertificatePEMType), nil
}
