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
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/nuts-foundation/nuts-vci/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositiveSerialNumber(t *testing.T) {
	for i := 0; i < 1000; i++ {
		serial := PositiveSerialNumber()
		require.Equal(t, 1, serial.Sign())
		require.LessOrEqual(t, len(serial.Bytes()), 20)
		require.Less(t, serial.BitLen(), 160)
	}
}

func TestGenerateCSR(t *testing.T) {
	pair := keyPair(t, crypto.CurveP256)
	subject := pkix.Name{CommonName: "Issuer", Organization: []string{"Nuts"}, Country: []string{"NL"}}

	t.Run("ok", func(t *testing.T) {
		san, _ := NewSubjectAltNameExtension([]string{"issuer.example.com"}, []string{"https://issuer.example.com"})

		csrPEM, err := GenerateCSR(subject, pair.PublicPEM, pair.PrivatePEM, jwa.ES256, []pkix.Extension{san})

		require.NoError(t, err)
		csr, err := parseCSR(csrPEM)
		require.NoError(t, err)
		assert.Equal(t, "Issuer", csr.Subject.CommonName)
		assert.Equal(t, []string{"issuer.example.com"}, csr.DNSNames)
		assert.Equal(t, "https://issuer.example.com", csr.URIs[0].String())
	})
	t.Run("Ed25519", func(t *testing.T) {
		edPair := keyPair(t, crypto.CurveEd25519)

		csrPEM, err := GenerateCSR(subject, edPair.PublicPEM, edPair.PrivatePEM, jwa.EdDSA, nil)

		require.NoError(t, err)
		_, err = parseCSR(csrPEM)
		assert.NoError(t, err)
	})
	t.Run("public key of other key pair", func(t *testing.T) {
		other := keyPair(t, crypto.CurveP256)

		_, err := GenerateCSR(subject, other.PublicPEM, pair.PrivatePEM, jwa.ES256, nil)

		assert.ErrorIs(t, err, ErrKeyMismatch)
	})
	t.Run("secp256k1", func(t *testing.T) {
		secpPair := keyPair(t, crypto.CurveSecp256k1)

		_, err := GenerateCSR(subject, secpPair.PublicPEM, secpPair.PrivatePEM, jwa.ES256, nil)

		assert.ErrorIs(t, err, ErrUnsupportedCurve)
	})
	t.Run("ES256K", func(t *testing.T) {
		_, err := GenerateCSR(subject, pair.PublicPEM, pair.PrivatePEM, jwa.ES256K, nil)

		assert.ErrorIs(t, err, ErrUnsupportedCurve)
	})
	t.Run("unsupported algorithm", func(t *testing.T) {
		_, err := GenerateCSR(subject, pair.PublicPEM, pair.PrivatePEM, jwa.RS256, nil)

		assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})
}

func TestGenerateCertificate(t *testing.T) {
	issuerPair := keyPair(t, crypto.CurveP256)
	subjectPair := keyPair(t, crypto.CurveP256)
	issuerName := pkix.Name{CommonName: "Root CA", Organization: []string{"Nuts"}}
	san, _ := NewSubjectAltNameExtension([]string{"holder.example.com"}, nil)
	csrPEM, err := GenerateCSR(pkix.Name{CommonName: "Subject"}, subjectPair.PublicPEM, subjectPair.PrivatePEM, jwa.ES256, []pkix.Extension{san})
	require.NoError(t, err)
	notBefore := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	notAfter := notBefore.AddDate(1, 0, 0)

	certPEM, err := GenerateCertificate(csrPEM, issuerName, notBefore, notAfter, jwa.ES256, issuerPair.PrivatePEM)

	require.NoError(t, err)
	certificate := parseCertificate(t, certPEM)
	t.Run("validity round-trips", func(t *testing.T) {
		assert.True(t, notBefore.Equal(certificate.NotBefore))
		assert.True(t, notAfter.Equal(certificate.NotAfter))
	})
	t.Run("subject, issuer and SAN", func(t *testing.T) {
		assert.Equal(t, "Subject", certificate.Subject.CommonName)
		assert.Equal(t, "Root CA", certificate.Issuer.CommonName)
		assert.Equal(t, []string{"holder.example.com"}, certificate.DNSNames)
		assert.Equal(t, 3, certificate.Version)
		assert.Equal(t, 1, certificate.SerialNumber.Sign())
	})
	t.Run("public key copied from CSR", func(t *testing.T) {
		equal, err := crypto.CheckECDSAKeyEquality(certPEM, subjectPair.PublicPEM)

		require.NoError(t, err)
		assert.True(t, equal)
	})
	t.Run("authority key identifier", func(t *testing.T) {
		signer, _ := loadSigner(issuerPair.PrivatePEM)
		expected, _ := subjectKeyID(signer.Public())

		assert.Equal(t, expected, certificate.AuthorityKeyId)
	})
	t.Run("invalid CSR", func(t *testing.T) {
		_, err := GenerateCertificate("not a CSR", issuerName, notBefore, notAfter, jwa.ES256, issuerPair.PrivatePEM)

		assert.ErrorIs(t, err, ErrInvalidCSR)
	})
}

func TestGenerateRootCertificate(t *testing.T) {
	pair := keyPair(t, crypto.CurveP256)
	csrPEM, _ := GenerateCSR(pkix.Name{CommonName: "Root"}, pair.PublicPEM, pair.PrivatePEM, jwa.ES256, nil)
	now := time.Now().Truncate(time.Second)

	t.Run("ok", func(t *testing.T) {
		certPEM, err := GenerateRootCertificate(csrPEM, now, now.Add(time.Hour), jwa.ES256, pair.PrivatePEM)

		require.NoError(t, err)
		certificate := parseCertificate(t, certPEM)
		assert.True(t, certificate.IsCA)
		assert.Equal(t, "Root", certificate.Issuer.CommonName)
		assert.NotEmpty(t, certificate.SubjectKeyId)
		assert.NoError(t, certificate.CheckSignatureFrom(certificate))
	})
	t.Run("other private key", func(t *testing.T) {
		other := keyPair(t, crypto.CurveP256)

		_, err := GenerateRootCertificate(csrPEM, now, now.Add(time.Hour), jwa.ES256, other.PrivatePEM)

		assert.ErrorIs(t, err, ErrKeyMismatch)
	})
}

func TestGenerateCRL(t *testing.T) {
	pair := keyPair(t, crypto.CurveP256)
	issuer := pkix.Name{CommonName: "Root CA"}
	revocationDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	keyCompromise := 1
	revoked := []RevokedCertificate{
		{SerialHex: "0a1b", RevocationDate: revocationDate, Reason: &keyCompromise},
		{SerialHex: "ff", RevocationDate: revocationDate},
	}
	nextUpdate := time.Now().Add(24 * time.Hour).Truncate(time.Second)

	t.Run("ok", func(t *testing.T) {
		crlPEM, err := GenerateCRL(revoked, issuer, big.NewInt(7), nextUpdate, jwa.ES256, "01020304", pair.PrivatePEM)

		require.NoError(t, err)
		block, _ := pem.Decode([]byte(crlPEM))
		require.Equal(t, "X509 CRL", block.Type)
		crl, err := x509.ParseRevocationList(block.Bytes)
		require.NoError(t, err)
		assert.Equal(t, int64(7), crl.Number.Int64())
		assert.Equal(t, "01020304", hex.EncodeToString(crl.AuthorityKeyId))
		assert.Equal(t, "Root CA", crl.Issuer.CommonName)
		assert.True(t, nextUpdate.Equal(crl.NextUpdate))
		require.Len(t, crl.RevokedCertificateEntries, 2)
		assert.Equal(t, int64(0x0a1b), crl.RevokedCertificateEntries[0].SerialNumber.Int64())
		assert.Equal(t, 1, crl.RevokedCertificateEntries[0].ReasonCode)
		assert.True(t, revocationDate.Equal(crl.RevokedCertificateEntries[1].RevocationTime))
		assert.Equal(t, 0, crl.RevokedCertificateEntries[1].ReasonCode)
	})
	t.Run("derived authority key identifier", func(t *testing.T) {
		crlPEM, err := GenerateCRL(nil, issuer, big.NewInt(1), nextUpdate, jwa.ES256, "", pair.PrivatePEM)

		require.NoError(t, err)
		block, _ := pem.Decode([]byte(crlPEM))
		crl, _ := x509.ParseRevocationList(block.Bytes)
		assert.Len(t, crl.AuthorityKeyId, 20)
	})
	t.Run("invalid serial", func(t *testing.T) {
		_, err := GenerateCRL([]RevokedCertificate{{SerialHex: "xyz"}}, issuer, big.NewInt(1), nextUpdate, jwa.ES256, "", pair.PrivatePEM)

		assert.ErrorIs(t, err, ErrInvalidSerialNumber)
	})
	t.Run("Ed25519", func(t *testing.T) {
		edPair := keyPair(t, crypto.CurveEd25519)

		_, err := GenerateCRL(revoked, issuer, big.NewInt(1), nextUpdate, jwa.EdDSA, "", edPair.PrivatePEM)

		assert.NoError(t, err)
	})
}

func TestPEMHelpers(t *testing.T) {
	pair := keyPair(t, crypto.CurveP256)
	csrPEM, _ := GenerateCSR(pkix.Name{CommonName: "Root"}, pair.PublicPEM, pair.PrivatePEM, jwa.ES256, nil)
	now := time.Now()
	certPEM, _ := GenerateRootCertificate(csrPEM, now, now.Add(time.Hour), jwa.ES256, pair.PrivatePEM)

	t.Run("strip and wrap is byte exact", func(t *testing.T) {
		body := StripPEM(certPEM)

		assert.NotContains(t, body, "\n")
		assert.NotContains(t, body, "CERTIFICATE")
		assert.Equal(t, certPEM, WrapBase64PEM(body, "CERTIFICATE"))
	})
	t.Run("custom markers", func(t *testing.T) {
		body := StripPEM(csrPEM, "CERTIFICATE REQUEST")

		_, err := base64.StdEncoding.DecodeString(body)
		assert.NoError(t, err)
	})
	t.Run("chain round-trip", func(t *testing.T) {
		chain, err := ParseChainPEM(certPEM + certPEM)
		require.NoError(t, err)
		require.Len(t, chain, 2)

		asJSON, _ := chain.JSON()
		parsed, err := ParseChain(asJSON)

		require.NoError(t, err)
		assert.Equal(t, chain, parsed)
		assert.Equal(t, certPEM+certPEM, parsed.PEM())
		leaf, _ := parsed.LeafPEM()
		assert.Equal(t, certPEM, leaf)
	})
	t.Run("chain with invalid certificate", func(t *testing.T) {
		_, err := ParseChain([]byte(`["Zm9v"]`))

		assert.ErrorIs(t, err, ErrInvalidCertificate)
	})
	t.Run("empty bundle", func(t *testing.T) {
		_, err := ParseChainPEM("")

		assert.ErrorIs(t, err, ErrInvalidCertificate)
	})
}

func TestParseDistinguishedName(t *testing.T) {
	name, err := ParseDistinguishedName("CN=Issuer, O=Nuts,C=NL")

	require.NoError(t, err)
	assert.Equal(t, "CN=Issuer,O=Nuts,C=NL", name.String())

	_, err = ParseDistinguishedName("FOO=bar")
	assert.EqualError(t, err, "unsupported distinguished name attribute: FOO")
	_, err = ParseDistinguishedName("")
	assert.EqualError(t, err, "empty distinguished name")
}

func keyPair(t *testing.T, curve string) *crypto.PEMKeyPair {
	key, err := crypto.GenerateJWK(curve)
	require.NoError(t, err)
	pair, err := crypto.EllipticJWKToPEM(*key)
	require.NoError(t, err)
	return pair
}

func parseCertificate(t *testing.T, certPEM string) *x509.Certificate {
	block, _ := pem.Decode([]byte(certPEM))
	require.NotNil(t, block)
	certificate, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	return certificate
}
