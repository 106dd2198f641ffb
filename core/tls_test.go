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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestCertificate writes a self-signed certificate and its key as PEM files, returning their paths.
func writeTestCertificate(t *testing.T) (string, string) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "localhost"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
	}
	certDER, err := x509.CreateCertificate(rand.Reader, template, template, key.Public(), key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	dir := t.TempDir()
	certFile := path.Join(dir, "cert.pem")
	keyFile := path.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}), 0600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}), 0600))
	return certFile, keyFile
}

func TestTLSConfig_Load(t *testing.T) {
	certFile, keyFile := writeTestCertificate(t)

	t.Run("disabled", func(t *testing.T) {
		config, err := TLSConfig{}.Load()

		assert.NoError(t, err)
		assert.Nil(t, config)
	})
	t.Run("ok", func(t *testing.T) {
		config, err := TLSConfig{CertFile: certFile, CertKeyFile: keyFile, TrustStoreFile: certFile}.Load()

		require.NoError(t, err)
		assert.Len(t, config.Certificates, 1)
		assert.Equal(t, MinTLSVersion, config.MinVersion)
		assert.NotNil(t, config.ClientCAs)
	})
	t.Run("without truststore", func(t *testing.T) {
		config, err := TLSConfig{CertFile: certFile, CertKeyFile: keyFile}.Load()

		require.NoError(t, err)
		assert.Nil(t, config.ClientCAs)
	})
	t.Run("key missing", func(t *testing.T) {
		_, err := TLSConfig{CertFile: certFile}.Load()

		assert.EqualError(t, err, "tls.certfile and tls.certkeyfile must both be configured when TLS is enabled")
	})
	t.Run("invalid key pair", func(t *testing.T) {
		_, err := TLSConfig{CertFile: certFile, CertKeyFile: certFile}.Load()

		assert.ErrorContains(t, err, "unable to load TLS certificate")
	})
}

func TestLoadTrustStore(t *testing.T) {
	certFile, keyFile := writeTestCertificate(t)

	t.Run("ok", func(t *testing.T) {
		store, err := LoadTrustStore(certFile)

		require.NoError(t, err)
		assert.Len(t, store.Certificates(), 1)
		assert.Equal(t, "localhost", store.Certificates()[0].Subject.CommonName)
	})
	t.Run("non-certificate blocks are skipped", func(t *testing.T) {
		store, err := LoadTrustStore(keyFile)

		require.NoError(t, err)
		assert.Empty(t, store.Certificates())
	})
	t.Run("file does not exist", func(t *testing.T) {
		_, err := LoadTrustStore("non-existing")

		assert.ErrorContains(t, err, "unable to read trust store (file=non-existing)")
	})
	t.Run("not PEM", func(t *testing.T) {
		_, err := ParseCertificates([]byte("not PEM"))

		assert.EqualError(t, err, "unable to decode PEM encoded data")
	})
}
