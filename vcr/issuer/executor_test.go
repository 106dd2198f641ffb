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

package issuer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/nuts-foundation/nuts-vci/keys"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
	"github.com/nuts-foundation/nuts-vci/vcr/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestJWTVCExecutor_Issue(t *testing.T) {
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	freezeTime(t, now)
	issuerKey := holderKey(t)
	holder := holderKey(t)
	holderPublicKey, _ := holder.PublicKey()
	config := ExecutorConfig{CredentialIssuer: testIssuerIdentifier, CredentialValidity: time.Hour}
	request := IssuanceRequest{
		Request: openid4vci.CredentialRequest{
			Format: openid4vci.JWTVCJSONFormat,
			CredentialDefinition: &openid4vci.CredentialDefinition{
				Type:              []string{"VerifiableCredential", "HealthcareProviderCredential"},
				CredentialSubject: map[string]interface{}{},
			},
		},
		Code: AuthorizedCode{Claims: map[string]interface{}{"id": "did:example:holder", "name": "Hospital"}},
	}

	t.Run("ok - with proof and x5c", func(t *testing.T) {
		keySource := NewMockSigningKeySource(gomock.NewController(t))
		keySource.EXPECT().Latest(ctx).Return(&keys.SigningKey{Kid: "kid", Key: issuerKey, X5C: []string{"MIIB"}}, nil)
		withProof := request
		withProof.Proof = &ProofOfPossession{Header: ProofHeader{Alg: jwa.ES256, JWK: holderPublicKey}}

		credential, err := JWTVCExecutor{keySource: keySource, config: config}.Issue(ctx, withProof)

		require.NoError(t, err)
		headers, claims := verifyJWS(t, credential, issuerKey)
		assert.Equal(t, "JWT", headers.Type())
		assert.Equal(t, []string{"MIIB"}, certificateChain(t, headers))
		assert.Empty(t, headers.X509URL())
		assert.Equal(t, testIssuerIdentifier, claims["iss"])
		assert.Equal(t, "did:example:holder", claims["sub"])
		assert.EqualValues(t, now.Unix(), claims["iat"])
		assert.EqualValues(t, now.Unix(), claims["nbf"])
		assert.EqualValues(t, now.Add(time.Hour).Unix(), claims["exp"])
		assert.True(t, strings.HasPrefix(claims["jti"].(string), "urn:uuid:"))
		vc := claims["vc"].(map[string]interface{})
		assert.Equal(t, []interface{}{DefaultCredentialContext}, vc["@context"])
		assert.Equal(t, []interface{}{"VerifiableCredential", "HealthcareProviderCredential"}, vc["type"])
		assert.Equal(t, map[string]interface{}{"id": "did:example:holder", "name": "Hospital"}, vc["credentialSubject"])
		cnf := claims["cnf"].(map[string]interface{})
		assert.Equal(t, "EC", cnf["jwk"].(map[string]interface{})["kty"])
		assert.NotContains(t, cnf["jwk"], "d")
	})
	t.Run("ok - x5u and requested context, no proof", func(t *testing.T) {
		keySource := NewMockSigningKeySource(gomock.NewController(t))
		keySource.EXPECT().Latest(ctx).Return(&keys.SigningKey{Kid: "kid", Key: issuerKey, X5C: []string{"MIIB"}}, nil)
		withContext := request
		definition := *request.Request.CredentialDefinition
		definition.Context = []string{"https://www.w3.org/2018/credentials/v1", "https://example.com/context"}
		withContext.Request.CredentialDefinition = &definition
		configWithX5U := config
		configWithX5U.X5U = "https://issuer.example.com/pki/chain.pem"

		credential, err := JWTVCExecutor{keySource: keySource, config: configWithX5U}.Issue(ctx, withContext)

		require.NoError(t, err)
		headers, claims := verifyJWS(t, credential, issuerKey)
		assert.Equal(t, "https://issuer.example.com/pki/chain.pem", headers.X509URL())
		assert.Empty(t, headers.X509CertChain())
		assert.NotContains(t, claims, "cnf")
		vc := claims["vc"].(map[string]interface{})
		assert.Len(t, vc["@context"], 2)
	})
	t.Run("no signing key", func(t *testing.T) {
		keySource := NewMockSigningKeySource(gomock.NewController(t))
		keySource.EXPECT().Latest(ctx).Return(nil, keys.ErrNoSigningKey)

		_, err := JWTVCExecutor{keySource: keySource, config: config}.Issue(ctx, request)

		assert.ErrorIs(t, err, keys.ErrNoSigningKey)
	})
}

func TestSDJWTExecutor_Issue(t *testing.T) {
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	freezeTime(t, now)
	issuerKey := holderKey(t)
	holder := holderKey(t)
	holderPublicKey, _ := holder.PublicKey()
	config := ExecutorConfig{CredentialIssuer: testIssuerIdentifier, CredentialValidity: time.Hour, X5U: "https://ignored"}
	request := IssuanceRequest{
		Request: openid4vci.CredentialRequest{Format: openid4vci.SDJWTVCFormat, VCT: "HealthcareProviderCredential"},
		Code:    AuthorizedCode{Claims: map[string]interface{}{"name": "Hospital", "city": "Utrecht"}},
		Proof:   &ProofOfPossession{Header: ProofHeader{Alg: jwa.ES256, JWK: holderPublicKey}},
	}

	t.Run("ok", func(t *testing.T) {
		keySource := NewMockSigningKeySource(gomock.NewController(t))
		keySource.EXPECT().Latest(ctx).Return(&keys.SigningKey{Kid: "kid", Key: issuerKey, X5C: []string{"MIIB"}}, nil)

		credential, err := SDJWTExecutor{keySource: keySource, config: config}.Issue(ctx, request)

		require.NoError(t, err)
		publicKey, _ := issuerKey.PublicKey()
		claims, err := signer.VerifySDJWT(credential, publicKey)
		require.NoError(t, err)
		assert.Equal(t, "Hospital", claims["name"])
		assert.Equal(t, "Utrecht", claims["city"])
		assert.Equal(t, testIssuerIdentifier, claims["iss"])
		assert.Equal(t, "HealthcareProviderCredential", claims["vct"])
		assert.EqualValues(t, now.Add(time.Hour).Unix(), claims["exp"])
		assert.Contains(t, claims, "cnf")
		headers, _ := verifyJWS(t, strings.Split(credential, "~")[0], issuerKey)
		assert.Equal(t, []string{"MIIB"}, certificateChain(t, headers))
		assert.Empty(t, headers.X509URL())
	})
	t.Run("claims of the code are not modified", func(t *testing.T) {
		keySource := NewMockSigningKeySource(gomock.NewController(t))
		keySource.EXPECT().Latest(ctx).Return(&keys.SigningKey{Kid: "kid", Key: issuerKey}, nil)

		_, err := SDJWTExecutor{keySource: keySource, config: config}.Issue(ctx, request)

		require.NoError(t, err)
		assert.Len(t, request.Code.Claims, 2)
	})
	t.Run("no signing key", func(t *testing.T) {
		keySource := NewMockSigningKeySource(gomock.NewController(t))
		keySource.EXPECT().Latest(ctx).Return(nil, errors.New("failed"))

		_, err := SDJWTExecutor{keySource: keySource, config: config}.Issue(ctx, request)

		assert.EqualError(t, err, "unable to resolve signing key: failed")
	})
}

func TestDefaultExecutors(t *testing.T) {
	executors := DefaultExecutors(nil, ExecutorConfig{})

	assert.IsType(t, &JWTVCExecutor{}, executors[openid4vci.JWTVCJSONFormat])
	assert.IsType(t, &SDJWTExecutor{}, executors[openid4vci.SDJWTVCFormat])
	assert.Len(t, executors, 2)
}

func verifyJWS(t *testing.T, compact string, key jwk.Key) (jws.Headers, map[string]interface{}) {
	t.Helper()
	publicKey, err := key.PublicKey()
	require.NoError(t, err)
	payload, err := jws.Verify([]byte(compact), jws.WithKey(jwa.ES256, publicKey))
	require.NoError(t, err)
	message, err := jws.ParseString(compact)
	require.NoError(t, err)
	claims := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(payload, &claims))
	return message.Signatures()[0].ProtectedHeaders(), claims
}

func certificateChain(t *testing.T, headers jws.Headers) []string {
	chain := headers.X509CertChain()
	require.NotNil(t, chain)
	var result []string
	for i := 0; i < chain.Len(); i++ {
		entry, _ := chain.Get(i)
		result = append(result, string(entry))
	}
	return result
}
