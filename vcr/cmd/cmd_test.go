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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	apiV0 "github.com/nuts-foundation/nuts-vci/vcr/api/issuer/v0"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagSet(t *testing.T) {
	flags := FlagSet()

	var keys []string
	flags.VisitAll(func(flag *pflag.Flag) {
		keys = append(keys, flag.Name)
	})

	assert.Equal(t, []string{
		"issuer.accesstokenttl",
		"issuer.anonymousaccess",
		"issuer.cnoncettl",
		"issuer.credential.validity",
		"issuer.credential.x5u",
		"issuer.identifier",
		"issuer.offerendpoint",
		"issuer.preauthorizedcode.maxpinattempts",
		"issuer.preauthorizedcode.needsproof",
		"issuer.preauthorizedcode.singleuse",
		"issuer.preauthorizedcode.ttl",
		"issuer.preauthorizedcode.txcodelength",
	}, keys)
}

const offerURL = "openid-credential-offer://?credential_offer=%7B%22credential_issuer%22%3A%22https%3A%2F%2Fissuer.example.com%22%2C%22credential_configuration_ids%22%3A%5B%22UniversityDegree%22%5D%7D"

func newOfferServer(t *testing.T, status int, response string) (string, *apiV0.CreateOfferRequest) {
	var received apiV0.CreateOfferRequest
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != apiV0.OfferPath || request.Header.Get("Authorization") != "Bearer admin-token" {
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(request.Body).Decode(&received)
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(status)
		_, _ = writer.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server.URL, &received
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

func TestOfferCmd_Create(t *testing.T) {
	const response = `{"url":"` + offerURL + `","pin":"493536","expires_at":"2024-01-01T12:05:00Z","offer":{}}`

	t.Run("ok", func(t *testing.T) {
		address, received := newOfferServer(t, http.StatusOK, response)

		output, err := execute(t, OfferCmd(), "create", "--address", address, "--token", "admin-token",
			"--id", "UniversityDegree", "--claims", `{"name":"Jane"}`, "--pin", "--needs-proof=false", "--no-qr")

		require.NoError(t, err)
		assert.Contains(t, output, offerURL)
		assert.Contains(t, output, "PIN (provide it to the holder out-of-band): 493536")
		assert.Contains(t, output, "Expires at: 2024-01-01T12:05:00Z")
		assert.Equal(t, []string{"UniversityDegree"}, received.CredentialConfigurationIDs)
		assert.Equal(t, map[string]interface{}{"name": "Jane"}, received.Claims)
		assert.True(t, received.RequirePIN)
		require.NotNil(t, received.NeedsProof)
		assert.False(t, *received.NeedsProof)
	})
	t.Run("renders QR code and uses server default for proof", func(t *testing.T) {
		address, received := newOfferServer(t, http.StatusOK, response)
		claimsFile := filepath.Join(t.TempDir(), "claims.json")
		require.NoError(t, os.WriteFile(claimsFile, []byte(`{"name":"Jane"}`), 0600))

		output, err := execute(t, OfferCmd(), "create", "--address", address, "--token", "admin-token",
			"--id", "UniversityDegree", "--claims-file", claimsFile)

		require.NoError(t, err)
		assert.Greater(t, len(output), len(offerURL)*2)
		assert.Nil(t, received.NeedsProof)
		assert.Equal(t, "Jane", received.Claims["name"])
	})
	t.Run("server error", func(t *testing.T) {
		address, _ := newOfferServer(t, http.StatusBadRequest, `{"title":"CreateOffer failed","status":400,"detail":"unknown credential configuration","code":"INVALID_PARAMETER"}`)

		_, err := execute(t, OfferCmd(), "create", "--address", address, "--token", "admin-token", "--id", "Unknown")

		assert.EqualError(t, err, "unable to create offer: CreateOffer failed (status=400, code=INVALID_PARAMETER): unknown credential configuration")
	})
	t.Run("missing id", func(t *testing.T) {
		_, err := execute(t, OfferCmd(), "create")

		assert.ErrorContains(t, err, `required flag(s) "id" not set`)
	})
	t.Run("invalid claims", func(t *testing.T) {
		_, err := execute(t, OfferCmd(), "create", "--id", "UniversityDegree", "--claims", "[]")

		assert.ErrorContains(t, err, "claims must be a JSON object")
	})
	t.Run("claims and claims file", func(t *testing.T) {
		_, err := execute(t, OfferCmd(), "create", "--id", "UniversityDegree", "--claims", "{}", "--claims-file", "claims.json")

		assert.EqualError(t, err, "--claims and --claims-file are mutually exclusive")
	})
}

func TestOfferCmd_Decode(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		output, err := execute(t, OfferCmd(), "decode", offerURL)

		require.NoError(t, err)
		var offer openid4vci.CredentialOffer
		require.NoError(t, json.Unmarshal([]byte(output), &offer))
		assert.Equal(t, "https://issuer.example.com", offer.CredentialIssuer)
		assert.Equal(t, []string{"UniversityDegree"}, offer.CredentialConfigurationIDs)
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := execute(t, OfferCmd(), "decode", "openid-credential-offer://")

		assert.ErrorIs(t, err, openid4vci.ErrInvalidOffer)
	})
}
