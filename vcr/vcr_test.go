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

package vcr

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nuts-foundation/nuts-vci/audit"
	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/crypto"
	"github.com/nuts-foundation/nuts-vci/storage"
	"github.com/nuts-foundation/nuts-vci/vcr/issuer"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
	"github.com/nuts-foundation/nuts-vci/vcr/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIdentifier = "https://issuer.example.com"

func TestVCR_Configure(t *testing.T) {
	t.Run("identifier defaults to server URL", func(t *testing.T) {
		instance := NewIssuerInstance(storage.NewTestStorageEngine(t)).(*vcr)

		err := instance.Configure(core.ServerConfig{URL: "https://example.com/", Strictmode: true})

		require.NoError(t, err)
		assert.Equal(t, "https://example.com", instance.Identifier())
		assert.NotNil(t, instance.Keys())
	})
	t.Run("configured identifier takes precedence", func(t *testing.T) {
		instance := NewIssuerInstance(storage.NewTestStorageEngine(t)).(*vcr)
		instance.config.Identifier = testIdentifier

		err := instance.Configure(core.ServerConfig{URL: "https://example.com"})

		require.NoError(t, err)
		assert.Equal(t, testIdentifier, instance.Identifier())
	})
	t.Run("no identifier", func(t *testing.T) {
		instance := NewIssuerInstance(storage.NewTestStorageEngine(t)).(*vcr)

		err := instance.Configure(core.ServerConfig{})

		assert.EqualError(t, err, "issuer.identifier or url must be configured")
	})
	t.Run("HTTP identifier in strict mode", func(t *testing.T) {
		instance := NewIssuerInstance(storage.NewTestStorageEngine(t)).(*vcr)

		err := instance.Configure(core.ServerConfig{URL: "http://example.com", Strictmode: true})

		assert.EqualError(t, err, "credential issuer identifier must be HTTPS in strict mode: http://example.com")
	})
	t.Run("HTTP identifier without strict mode", func(t *testing.T) {
		instance := NewIssuerInstance(storage.NewTestStorageEngine(t)).(*vcr)

		err := instance.Configure(core.ServerConfig{URL: "http://localhost:8080"})

		assert.NoError(t, err)
	})
	t.Run("invalid identifier", func(t *testing.T) {
		instance := NewIssuerInstance(storage.NewTestStorageEngine(t)).(*vcr)

		err := instance.Configure(core.ServerConfig{URL: "not a URL"})

		assert.ErrorContains(t, err, "invalid credential issuer identifier")
	})
	t.Run("identifier with query", func(t *testing.T) {
		instance := NewIssuerInstance(storage.NewTestStorageEngine(t)).(*vcr)

		err := instance.Configure(core.ServerConfig{URL: "https://example.com?a=b"})

		assert.ErrorContains(t, err, "must not contain query or fragment")
	})
	t.Run("invalid config", func(t *testing.T) {
		testCases := []struct {
			name   string
			modify func(config *Config)
			err    string
		}{
			{"code TTL", func(config *Config) { config.PreAuthorizedCode.TTL = 0 }, "issuer.preauthorizedcode.ttl must be greater than 0"},
			{"access token TTL", func(config *Config) { config.AccessTokenTTL = -1 }, "issuer.accesstokenttl must be greater than 0"},
			{"c_nonce TTL", func(config *Config) { config.CNonceTTL = 0 }, "issuer.cnoncettl must be greater than 0"},
			{"validity", func(config *Config) { config.Credential.Validity = 0 }, "issuer.credential.validity must be greater than 0"},
			{"tx_code length", func(config *Config) { config.PreAuthorizedCode.TxCodeLength = 2 }, "issuer.preauthorizedcode.txcodelength must be between 4 and 12"},
			{"PIN attempts", func(config *Config) { config.PreAuthorizedCode.MaxPINAttempts = -1 }, "issuer.preauthorizedcode.maxpinattempts must not be negative"},
		}
		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				instance := NewIssuerInstance(storage.NewTestStorageEngine(t)).(*vcr)
				testCase.modify(&instance.config)

				err := instance.Configure(core.ServerConfig{URL: testIdentifier})

				assert.EqualError(t, err, testCase.err)
			})
		}
	})
}

func TestVCR_Diagnostics(t *testing.T) {
	instance := NewIssuerInstance(storage.NewTestStorageEngine(t)).(*vcr)
	require.NoError(t, instance.Configure(core.ServerConfig{URL: testIdentifier}))

	actual := core.DiagnosticResultMap(instance.Diagnostics())

	assert.Equal(t, testIdentifier, actual["identifier"])
	assert.Equal(t, true, actual["preauthorizedcode_singleuse"])
	assert.Equal(t, false, actual["anonymous_access"])
}

func TestVCR_Collectors(t *testing.T) {
	assert.Len(t, NewIssuerInstance(nil).(*vcr).Collectors(), 3)
}

func TestVCR_PreAuthorizedFlow(t *testing.T) {
	ctx := audit.TestContext()
	instance := NewIssuerInstance(storage.NewTestStorageEngine(t)).(*vcr)
	require.NoError(t, instance.Configure(core.ServerConfig{URL: testIdentifier}))
	signingKey, err := instance.Keys().Generate(ctx, crypto.CurveP256)
	require.NoError(t, err)
	issuerKey, err := crypto.ImportJWK(crypto.PublicJWK(signingKey.JWK()))
	require.NoError(t, err)
	holderKey := newHolderKey(t)

	t.Run("jwt_vc_json with PIN", func(t *testing.T) {
		offer, err := instance.CreateOffer(ctx, issuer.OfferRequest{
			CredentialConfigurationIDs: []string{"HealthcareProviderCredential"},
			Claims:                     map[string]interface{}{"id": "did:example:holder", "name": "Hospital"},
			RequirePIN:                 true,
		})
		require.NoError(t, err)
		parsedOffer, err := openid4vci.URLToCredentialOffer(offer.URL)
		require.NoError(t, err)
		code := parsedOffer.Grants.PreAuthorizedCode.PreAuthorizedCode

		token, err := instance.HandleTokenRequest(ctx, openid4vci.TokenRequest{
			GrantType:         openid4vci.PreAuthorizedCodeGrant,
			PreAuthorizedCode: code,
			UserPIN:           &offer.PIN,
		})
		require.NoError(t, err)
		require.NotNil(t, token.CNonce)

		response, err := instance.HandleCredentialRequest(ctx, "Bearer "+token.AccessToken, openid4vci.CredentialRequest{
			Format: openid4vci.JWTVCJSONFormat,
			CredentialDefinition: &openid4vci.CredentialDefinition{
				Type:              []string{"VerifiableCredential", "HealthcareProviderCredential"},
				CredentialSubject: map[string]interface{}{},
			},
			Proof: newProof(t, holderKey, *token.CNonce),
		})
		require.NoError(t, err)

		assert.Equal(t, openid4vci.JWTVCJSONFormat, response.Format)
		require.NotNil(t, response.CNonce)
		assert.NotEqual(t, *token.CNonce, *response.CNonce)
		credential, err := jwt.ParseString(response.Credential, jwt.WithKey(jwa.ES256, issuerKey))
		require.NoError(t, err)
		assert.Equal(t, testIdentifier, credential.Issuer())
		vc, _ := credential.Get("vc")
		assert.Equal(t, "Hospital", vc.(map[string]interface{})["credentialSubject"].(map[string]interface{})["name"])

		t.Run("code can't be redeemed again", func(t *testing.T) {
			_, err := instance.HandleTokenRequest(ctx, openid4vci.TokenRequest{
				GrantType:         openid4vci.PreAuthorizedCodeGrant,
				PreAuthorizedCode: code,
				UserPIN:           &offer.PIN,
			})

			var protocolErr openid4vci.Error
			require.ErrorAs(t, err, &protocolErr)
			assert.Equal(t, openid4vci.InvalidRequest, protocolErr.Code)
		})
		t.Run("old c_nonce is rejected", func(t *testing.T) {
			_, err := instance.HandleCredentialRequest(ctx, "Bearer "+token.AccessToken, openid4vci.CredentialRequest{
				Format: openid4vci.JWTVCJSONFormat,
				CredentialDefinition: &openid4vci.CredentialDefinition{
					Type:              []string{"VerifiableCredential", "HealthcareProviderCredential"},
					CredentialSubject: map[string]interface{}{},
				},
				Proof: newProof(t, holderKey, *token.CNonce),
			})

			var protocolErr openid4vci.Error
			require.ErrorAs(t, err, &protocolErr)
			assert.Equal(t, openid4vci.InvalidOrMissingProof, protocolErr.Code)
		})
	})
	t.Run("concurrent requests with the same proof", func(t *testing.T) {
		offer, err := instance.CreateOffer(ctx, issuer.OfferRequest{
			CredentialConfigurationIDs: []string{"HealthcareProviderCredential"},
			Claims:                     map[string]interface{}{"id": "did:example:holder"},
		})
		require.NoError(t, err)
		token, err := instance.HandleTokenRequest(ctx, openid4vci.TokenRequest{
			GrantType:         openid4vci.PreAuthorizedCodeGrant,
			PreAuthorizedCode: offer.Offer.Grants.PreAuthorizedCode.PreAuthorizedCode,
		})
		require.NoError(t, err)
		request := openid4vci.CredentialRequest{
			Format: openid4vci.JWTVCJSONFormat,
			CredentialDefinition: &openid4vci.CredentialDefinition{
				Type:              []string{"VerifiableCredential", "HealthcareProviderCredential"},
				CredentialSubject: map[string]interface{}{},
			},
			Proof: newProof(t, holderKey, *token.CNonce),
		}

		const requests = 5
		errs := make([]error, requests)
		wg := sync.WaitGroup{}
		for i := 0; i < requests; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = instance.HandleCredentialRequest(ctx, "Bearer "+token.AccessToken, request)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			var protocolErr openid4vci.Error
			require.ErrorAs(t, err, &protocolErr)
			assert.Equal(t, openid4vci.InvalidOrMissingProof, protocolErr.Code)
		}
		assert.Equal(t, 1, succeeded)
	})
	t.Run("vc+sd-jwt without proof", func(t *testing.T) {
		needsProof := false
		offer, err := instance.CreateOffer(ctx, issuer.OfferRequest{
			CredentialConfigurationIDs: []string{"IdentityCredential"},
			Claims:                     map[string]interface{}{"given_name": "John", "family_name": "Doe"},
			NeedsProof:                 &needsProof,
		})
		require.NoError(t, err)

		token, err := instance.HandleTokenRequest(ctx, openid4vci.TokenRequest{
			GrantType:         openid4vci.PreAuthorizedCodeGrant,
			PreAuthorizedCode: offer.Offer.Grants.PreAuthorizedCode.PreAuthorizedCode,
		})
		require.NoError(t, err)
		assert.Nil(t, token.CNonce)

		response, err := instance.HandleCredentialRequest(ctx, "bearer "+token.AccessToken, openid4vci.CredentialRequest{
			Format: openid4vci.SDJWTVCFormat,
			VCT:    "IdentityCredential",
		})
		require.NoError(t, err)

		assert.Nil(t, response.CNonce)
		assert.True(t, strings.HasSuffix(response.Credential, "~"))
		claims, err := signer.VerifySDJWT(response.Credential, issuerKey)
		require.NoError(t, err)
		assert.Equal(t, "John", claims["given_name"])
		assert.Equal(t, "IdentityCredential", claims["vct"])
	})
}

func newHolderKey(t *testing.T) jwk.Key {
	t.Helper()
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	key, err := jwk.FromRaw(privateKey)
	require.NoError(t, err)
	return key
}

func newProof(t *testing.T, key jwk.Key, nonce string) *openid4vci.Proof {
	t.Helper()
	token := jwt.New()
	require.NoError(t, token.Set(jwt.IssuerKey, "wallet"))
	require.NoError(t, token.Set(jwt.AudienceKey, testIdentifier))
	require.NoError(t, token.Set(jwt.IssuedAtKey, time.Now()))
	require.NoError(t, token.Set("nonce", nonce))
	publicKey, err := key.PublicKey()
	require.NoError(t, err)
	headers := jws.NewHeaders()
	require.NoError(t, headers.Set(jws.TypeKey, openid4vci.ProofJWTType))
	require.NoError(t, headers.Set(jws.JWKKey, publicKey))
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256, key, jws.WithProtectedHeaders(headers)))
	require.NoError(t, err)
	return &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: string(signed)}
}
