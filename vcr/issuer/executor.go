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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/nuts-foundation/nuts-vci/keys"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
	"github.com/nuts-foundation/nuts-vci/vcr/signer"
)

// DefaultCredentialContext is the JSON-LD context of JWT-VC credentials when the request doesn't specify one.
const DefaultCredentialContext = "https://www.w3.org/2018/credentials/v1"

// IssuanceRequest contains everything a FormatExecutor needs to issue a credential.
type IssuanceRequest struct {
	Request openid4vci.CredentialRequest
	// Code is the pre-authorized code the access token was issued for. Its claims are the credential subject.
	Code AuthorizedCode
	// Proof is the validated proof of possession. It's nil when the code doesn't require a proof.
	Proof *ProofOfPossession
}

// FormatExecutor issues credentials of a single format.
type FormatExecutor interface {
	Issue(ctx context.Context, request IssuanceRequest) (string, error)
}

// SigningKeySource provides the key credentials are signed with.
type SigningKeySource interface {
	Latest(ctx context.Context) (*keys.SigningKey, error)
}

// ExecutorConfig contains the settings shared by the default executors.
type ExecutorConfig struct {
	// CredentialIssuer is the iss of issued credentials.
	CredentialIssuer string
	// CredentialValidity is the time between iat and exp of issued credentials.
	CredentialValidity time.Duration
	// X5U is the certificate chain URL put in the header of JWT-VC credentials. If empty, x5c is used.
	X5U string
}

// DefaultExecutors returns the executors for jwt_vc_json and vc+sd-jwt.
func DefaultExecutors(keySource SigningKeySource, config ExecutorConfig) map[string]FormatExecutor {
	return map[string]FormatExecutor{
		openid4vci.JWTVCJSONFormat: &JWTVCExecutor{keySource: keySource, config: config},
		openid4vci.SDJWTVCFormat:   &SDJWTExecutor{keySource: keySource, config: config},
	}
}

// JWTVCExecutor issues W3C credentials as JWT (jwt_vc_json).
type JWTVCExecutor struct {
	keySource SigningKeySource
	config    ExecutorConfig
}

func (e JWTVCExecutor) Issue(ctx context.Context, request IssuanceRequest) (string, error) {
	key, err := e.keySource.Latest(ctx)
	if err != nil {
		return "", fmt.Errorf("unable to resolve signing key: %w", err)
	}
	now := timeFunc()
	definition := request.Request.CredentialDefinition
	credentialContext := definition.Context
	if len(credentialContext) == 0 {
		credentialContext = []string{DefaultCredentialContext}
	}
	claims := map[string]interface{}{
		"iss": e.config.CredentialIssuer,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(e.config.CredentialValidity).Unix(),
		"jti": "urn:uuid:" + uuid.NewString(),
		"vc": map[string]interface{}{
			"@context":          credentialContext,
			"type":              definition.Type,
			"credentialSubject": request.Code.Claims,
		},
	}
	if subject, ok := request.Code.Claims["id"].(string); ok && subject != "" {
		claims["sub"] = subject
	}
	if err = setConfirmation(claims, request.Proof); err != nil {
		return "", err
	}
	return signer.IssueJWTCredential(claims, key.Key, signer.X509Options{X5U: e.config.X5U, X5C: key.X5C})
}

// SDJWTExecutor issues SD-JWT VC credentials (vc+sd-jwt). All claims of the offer are selectively disclosable.
type SDJWTExecutor struct {
	keySource SigningKeySource
	config    ExecutorConfig
}

func (e SDJWTExecutor) Issue(ctx context.Context, request IssuanceRequest) (string, error) {
	key, err := e.keySource.Latest(ctx)
	if err != nil {
		return "", fmt.Errorf("unable to resolve signing key: %w", err)
	}
	now := timeFunc()
	claims := make(map[string]interface{}, len(request.Code.Claims)+5)
	for name, value := range request.Code.Claims {
		claims[name] = value
	}
	claims["iss"] = e.config.CredentialIssuer
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(e.config.CredentialValidity).Unix()
	claims["vct"] = request.Request.VCT
	if err = setConfirmation(claims, request.Proof); err != nil {
		return "", err
	}
	return signer.IssueFlatCredential(claims, key.Key, key.X5C)
}

// setConfirmation binds the credential to the holder's key (cnf.jwk), if a proof was presented.
func setConfirmation(claims map[string]interface{}, proof *ProofOfPossession) error {
	if proof == nil {
		return nil
	}
	holderKey, err := jwkToMap(proof.Header.JWK)
	if err != nil {
		return err
	}
	claims["cnf"] = map[string]interface{}{"jwk": holderKey}
	return nil
}

func jwkToMap(key jwk.Key) (map[string]interface{}, error) {
	data, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal holder key: %w", err)
	}
	var result map[string]interface{}
	if err = json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unable to marshal holder key: %w", err)
	}
	return result, nil
}
