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

package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	apiV0 "github.com/nuts-foundation/nuts-vci/keys/api/v0"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainPEM = "-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n"

type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        []byte
}

// newAdminServer starts a server that records the last request and responds with the given status and body.
func newAdminServer(t *testing.T, status int, contentType string, response string) (string, *recordedRequest) {
	recorded := &recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, _ := io.ReadAll(request.Body)
		*recorded = recordedRequest{
			method:      request.Method,
			path:        request.URL.EscapedPath(),
			contentType: request.Header.Get("Content-Type"),
			body:        body,
		}
		if contentType != "" {
			writer.Header().Set("Content-Type", contentType)
		}
		writer.WriteHeader(status)
		_, _ = writer.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server.URL, recorded
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	outBuf := new(bytes.Buffer)
	cmd.SetOut(outBuf)
	cmd.SetErr(outBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return outBuf.String(), err
}

func TestCmd_Generate(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		address, recorded := newAdminServer(t, http.StatusCreated, "application/json", `{"kid":"kid-1","kty":"EC","crv":"P-256","x":"x","y":"y","created_at":"2024-01-01T12:00:00Z"}`)

		output, err := execute(t, Cmd(), "generate", "--address", address, "--curve", "secp256k1")

		require.NoError(t, err)
		assert.Contains(t, output, `"kid": "kid-1"`)
		assert.Equal(t, http.MethodPost, recorded.method)
		assert.Equal(t, keysPath, recorded.path)
		assert.JSONEq(t, `{"curve":"secp256k1"}`, string(recorded.body))
	})
	t.Run("unsupported curve", func(t *testing.T) {
		address, _ := newAdminServer(t, http.StatusBadRequest, "application/problem+json", `{"title":"GenerateKey failed","status":400,"detail":"unsupported curve: P-384","code":"UNSUPPORTED_CURVE"}`)

		_, err := execute(t, Cmd(), "generate", "--address", address, "--curve", "P-384")

		assert.EqualError(t, err, "unable to generate key: GenerateKey failed (status=400, code=UNSUPPORTED_CURVE): unsupported curve: P-384")
	})
}

func TestCmd_Latest(t *testing.T) {
	address, recorded := newAdminServer(t, http.StatusOK, "application/json", `{"kid":"kid-1","jwk":{"kty":"EC","crv":"P-256","x":"x","y":"y"},"x5c":[]}`)

	output, err := execute(t, Cmd(), "latest", "--address", address)

	require.NoError(t, err)
	assert.Equal(t, keysPath+"/latest", recorded.path)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &response))
	assert.Equal(t, "kid-1", response["kid"])
}

func TestCmd_Get(t *testing.T) {
	address, recorded := newAdminServer(t, http.StatusOK, "application/json", `{"kid":"kid#1","kty":"OKP","crv":"Ed25519","x":"x","created_at":"2024-01-01T12:00:00Z"}`)

	output, err := execute(t, Cmd(), "get", "--address", address, "kid#1")

	require.NoError(t, err)
	assert.Equal(t, keysPath+"/kid%231", recorded.path)
	var response apiV0.KeyPairResponse
	require.NoError(t, json.Unmarshal([]byte(output), &response))
	assert.Equal(t, "Ed25519", response.Crv)
}

func TestCmd_Revoke(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		address, recorded := newAdminServer(t, http.StatusNoContent, "", "")

		output, err := execute(t, Cmd(), "revoke", "--address", address, "kid-1")

		require.NoError(t, err)
		assert.Equal(t, "Key kid-1 revoked\n", output)
		assert.Equal(t, http.MethodDelete, recorded.method)
		assert.Equal(t, keysPath+"/kid-1", recorded.path)
	})
	t.Run("already revoked", func(t *testing.T) {
		address, _ := newAdminServer(t, http.StatusGone, "application/problem+json", `{"title":"RevokeKey failed","status":410,"detail":"signing key pair is revoked","code":"GONE"}`)

		_, err := execute(t, Cmd(), "revoke", "--address", address, "kid-1")

		assert.ErrorContains(t, err, "code=GONE")
	})
	t.Run("missing kid", func(t *testing.T) {
		_, err := execute(t, Cmd(), "revoke")

		assert.Error(t, err)
	})
}

func TestCmd_RegisterChain(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		address, recorded := newAdminServer(t, http.StatusNoContent, "", "")
		chainFile := filepath.Join(t.TempDir(), "chain.pem")
		require.NoError(t, os.WriteFile(chainFile, []byte(testChainPEM), 0600))

		output, err := execute(t, Cmd(), "register-chain", "--address", address, "kid-1", chainFile)

		require.NoError(t, err)
		assert.Equal(t, "Certificate chain registered for key kid-1\n", output)
		assert.Equal(t, http.MethodPut, recorded.method)
		assert.Equal(t, keysPath+"/kid-1/chain", recorded.path)
		assert.Equal(t, apiV0.MIMEPEMCertificateChain, recorded.contentType)
		assert.Equal(t, testChainPEM, string(recorded.body))
	})
	t.Run("file not found", func(t *testing.T) {
		_, err := execute(t, Cmd(), "register-chain", "kid-1", filepath.Join(t.TempDir(), "chain.pem"))

		assert.ErrorContains(t, err, "unable to read certificate chain")
	})
}

func TestCmd_Chain(t *testing.T) {
	address, recorded := newAdminServer(t, http.StatusOK, apiV0.MIMEPEMCertificateChain, testChainPEM)

	output, err := execute(t, Cmd(), "chain", "--address", address, "kid-1")

	require.NoError(t, err)
	assert.Equal(t, testChainPEM, output)
	assert.Equal(t, http.MethodGet, recorded.method)
}

func TestCmd_SelfSigned(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		address, recorded := newAdminServer(t, http.StatusOK, apiV0.MIMEPEMCertificateChain, testChainPEM)

		output, err := execute(t, Cmd(), "selfsigned", "--address", address, "kid-1",
			"--cn", "Issuer", "--country", "NL", "--validity-days", "30", "--dns", "issuer.example.com")

		require.NoError(t, err)
		assert.Equal(t, testChainPEM, output)
		assert.Equal(t, keysPath+"/kid-1/selfsigned", recorded.path)
		assert.Equal(t, "application/json", recorded.contentType)
		var request apiV0.SelfSignedRequest
		require.NoError(t, json.Unmarshal(recorded.body, &request))
		assert.Equal(t, apiV0.SelfSignedRequest{
			CommonName:   "Issuer",
			Country:      "NL",
			ValidityDays: 30,
			DNSNames:     []string{"issuer.example.com"},
		}, request)
	})
	t.Run("missing common name", func(t *testing.T) {
		_, err := execute(t, Cmd(), "selfsigned", "kid-1")

		assert.ErrorContains(t, err, `required flag(s) "cn" not set`)
	})
}

func TestPKICmd_CRL(t *testing.T) {
	const crlPEM = "-----BEGIN X509 CRL-----\nMIIB\n-----END X509 CRL-----\n"
	t.Run("ok", func(t *testing.T) {
		address, recorded := newAdminServer(t, http.StatusOK, apiV0.MIMEPEMFile, crlPEM)

		output, err := execute(t, PKICmd(), "crl", "--address", address, "--number", "2", "--next-update", "24h", "--revoked", "0a1b", "--revoked", "ff:1")

		require.NoError(t, err)
		assert.Equal(t, crlPEM, output)
		assert.Equal(t, crlPath, recorded.path)
		var request apiV0.IssueCRLRequest
		require.NoError(t, json.Unmarshal(recorded.body, &request))
		assert.Equal(t, "2", request.Number)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), request.NextUpdate, time.Minute)
		require.Len(t, request.Revoked, 2)
		assert.Equal(t, "0a1b", request.Revoked[0].SerialHex)
		assert.Nil(t, request.Revoked[0].Reason)
		assert.Equal(t, "ff", request.Revoked[1].SerialHex)
		require.NotNil(t, request.Revoked[1].Reason)
		assert.Equal(t, 1, *request.Revoked[1].Reason)
	})
	t.Run("invalid reason", func(t *testing.T) {
		_, err := execute(t, PKICmd(), "crl", "--number", "2", "--revoked", "ff:keyCompromise")

		assert.EqualError(t, err, "invalid reason code of revoked certificate ff")
	})
	t.Run("missing number", func(t *testing.T) {
		_, err := execute(t, PKICmd(), "crl")

		assert.ErrorContains(t, err, `required flag(s) "number" not set`)
	})
}
