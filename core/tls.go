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

package core

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// MinTLSVersion defines the minimal TLS version used by all TLS connections.
const MinTLSVersion uint16 = tls.VersionTLS12

// Load creates a tls.Config from the configured certificate, key and truststore. It returns nil if TLS is not enabled.
func (t TLSConfig) Load() (*tls.Config, error) {
	if !t.Enabled() {
		return nil, nil
	}
	if len(t.CertFile) == 0 || len(t.CertKeyFile) == 0 {
		return nil, errors.New("tls.certfile and tls.certkeyfile must both be configured when TLS is enabled")
	}
	certificate, err := tls.LoadX509KeyPair(t.CertFile, t.CertKeyFile)
	if err != nil {
		return nil, fmt.Errorf("unable to load TLS certificate: %w", err)
	}
	config := &tls.Config{
		MinVersion:   MinTLSVersion,
		Certificates: []tls.Certificate{certificate},
	}
	if len(t.TrustStoreFile) > 0 {
		trustStore, err := LoadTrustStore(t.TrustStoreFile)
		if err != nil {
			return nil, err
		}
		config.RootCAs = trustStore.CertPool
		config.ClientCAs = trustStore.CertPool
	}
	return config, nil
}

// TrustStore contains the CA certificates loaded from a PEM file.
type TrustStore struct {
	CertPool     *x509.CertPool
	certificates []*x509.Certificate
}

// Certificates returns a copy of the certificates in the trust store.
func (store *TrustStore) Certificates() []*x509.Certificate {
	return append([]*x509.Certificate{}, store.certificates...)
}

// LoadTrustStore creates a x509 certificate pool based on a truststore file
func LoadTrustStore(trustStoreFile string) (*TrustStore, error) {
	data, err := os.ReadFile(trustStoreFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read trust store (file=%s): %w", trustStoreFile, err)
	}
	certificates, err := ParseCertificates(data)
	if err != nil {
		return nil, err
	}
	certPool := x509.NewCertPool()
	for _, certificate := range certificates {
		certPool.AddCert(certificate)
	}
	return &TrustStore{
		CertPool:     certPool,
		certificates: certificates,
	}, nil
}

// ParseCertificates parses all PEM CERTIFICATE blocks in data, skipping other block types.
func ParseCertificates(data []byte) ([]*x509.Certificate, error) {
	var certificates []*x509.Certificate
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			if len(certificates) == 0 {
				return nil, errors.New("unable to decode PEM encoded data")
			}
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		certificate, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("unable to parse certificate: %w", err)
		}
		certificates = append(certificates, certificate)
	}
	return certificates, nil
}
