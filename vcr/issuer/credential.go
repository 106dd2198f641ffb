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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nuts-foundation/nuts-vci/audit"
	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/crypto"
	"github.com/nuts-foundation/nuts-vci/vcr/log"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
)

const bearerPrefix = "bearer "

// CredentialIssuerConfig contains the settings of the CredentialIssuer.
type CredentialIssuerConfig struct {
	// Identifier is the Credential Issuer Identifier, which proofs must have as audience.
	Identifier string
	// AnonymousAccess allows wallets without client ID (proofs without iss) in the pre-authorized code flow.
	AnonymousAccess bool
	// CNonceTTL is the lifetime of nonces issued after a credential was issued.
	CNonceTTL time.Duration
}

// NewCredentialIssuer creates a CredentialIssuer. The executors are keyed by credential format.
func NewCredentialIssuer(store Store, executors map[string]FormatExecutor, config CredentialIssuerConfig) *CredentialIssuer {
	return &CredentialIssuer{
		store:     store,
		executors: executors,
		config:    config,
		proofValidator: ProofValidator{
			CredentialIssuer: config.Identifier,
			AnonymousAccess:  config.AnonymousAccess,
		},
	}
}

// CredentialIssuer issues credentials to wallets that present an access token (and, if required, a proof of possession).
type CredentialIssuer struct {
	store          Store
	executors      map[string]FormatExecutor
	config         CredentialIssuerConfig
	proofValidator ProofValidator
}

// HandleCredentialRequest authenticates the Authorization header, validates the proof and issues the credential
// in the requested format. Errors the client should see are returned as openid4vci.Error.
func (c CredentialIssuer) HandleCredentialRequest(ctx context.Context, authorization string, request openid4vci.CredentialRequest) (*openid4vci.CredentialResponse, error) {
	response, err := c.handleCredentialRequest(ctx, authorization, request)
	if err != nil {
		credentialRequestsCounter.WithLabelValues(request.Format, errorCodeLabel(err)).Inc()
		return nil, err
	}
	credentialRequestsCounter.WithLabelValues(request.Format, resultOK).Inc()
	return response, nil
}

func (c CredentialIssuer) handleCredentialRequest(ctx context.Context, authorization string, request openid4vci.CredentialRequest) (*openid4vci.CredentialResponse, error) {
	record, err := c.authenticate(ctx, authorization)
	if err != nil {
		return nil, err
	}
	var proof *ProofOfPossession
	if record.AuthorizedCode.NeedsProof {
		if proof, err = c.proofValidator.Validate(request.Proof, record.AuthorizedCode, record.CNonce); err != nil {
			return nil, err
		}
	}
	executor, err := c.selectExecutor(request)
	if err != nil {
		return nil, err
	}
	credential, err := executor.Issue(ctx, IssuanceRequest{Request: request, Code: record.AuthorizedCode, Proof: proof})
	if err != nil {
		var protocolErr openid4vci.Error
		if errors.As(err, &protocolErr) {
			return nil, err
		}
		return nil, unexpectedError(fmt.Errorf("unable to issue credential (format=%s): %w", request.Format, err))
	}
	response := &openid4vci.CredentialResponse{
		Format:     request.Format,
		Credential: credential,
	}
	if record.AuthorizedCode.NeedsProof {
		nonce := CNonce{
			Nonce:         crypto.GenerateNonce(),
			ExpiresIn:     int(c.config.CNonceTTL.Seconds()),
			CreatedAt:     timeFunc(),
			AccessTokenID: record.AccessToken.ID,
		}
		// the nonce the proof was made with can be replaced once, a concurrent request with the same proof loses
		err = c.store.RotateCNonce(ctx, record.CNonce.Nonce, nonce)
		if errors.Is(err, ErrCNonceConsumed) {
			log.Logger().Warn("Client tried retrieving credential over OpenID4VCI with a proof for a c_nonce that was already used")
			return nil, openid4vci.NewError(openid4vci.InvalidOrMissingProof, "c_nonce was already used")
		} else if err != nil {
			return nil, unexpectedError(fmt.Errorf("unable to rotate c_nonce: %w", err))
		}
		response.CNonce = &nonce.Nonce
		response.CNonceExpiresIn = &nonce.ExpiresIn
	}
	audit.Log(ctx, log.Logger(), audit.CredentialIssuedEvent).
		WithField(core.LogFieldCredentialType, credentialType(request)).
		WithField(core.LogFieldCredentialIssuer, c.config.Identifier).
		WithField(core.LogFieldCredentialFormat, request.Format).
		Info("Issued credential over OpenID4VCI")
	return response, nil
}

// authenticate resolves the bearer token in the Authorization header (scheme is case-insensitive).
func (c CredentialIssuer) authenticate(ctx context.Context, authorization string) (*AccessTokenRecord, error) {
	if len(authorization) < len(bearerPrefix) || !strings.EqualFold(authorization[:len(bearerPrefix)], bearerPrefix) {
		return nil, openid4vci.NewError(openid4vci.InvalidToken, "malformed Authorization header")
	}
	token := strings.TrimSpace(authorization[len(bearerPrefix):])
	if token == "" {
		return nil, openid4vci.NewError(openid4vci.InvalidToken, "malformed Authorization header")
	}
	record, err := c.store.GetAccessTokenByToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		log.Logger().Warn("Client tried retrieving credential over OpenID4VCI with unknown access token")
		return nil, openid4vci.NewError(openid4vci.InvalidToken, "unknown access token")
	} else if err != nil {
		return nil, unexpectedError(err)
	}
	if !timeFunc().Before(record.AccessToken.ExpiresAt()) {
		return nil, openid4vci.NewError(openid4vci.InvalidToken, "access token expired")
	}
	return record, nil
}

// selectExecutor validates the format specific parameters and returns the executor of the format.
// Requested types aren't matched against the offered credential configuration ids: those are identifiers
// of issuer metadata entries, not credential types.
func (c CredentialIssuer) selectExecutor(request openid4vci.CredentialRequest) (FormatExecutor, error) {
	switch request.Format {
	case openid4vci.JWTVCJSONFormat:
		definition := request.CredentialDefinition
		if definition == nil || len(definition.Type) == 0 || definition.CredentialSubject == nil {
			return nil, openid4vci.NewError(openid4vci.InvalidRequest, "credential_definition with type and credentialSubject is required")
		}
	case openid4vci.SDJWTVCFormat:
		if request.VCT == "" {
			return nil, openid4vci.NewError(openid4vci.InvalidRequest, "vct is required")
		}
	default:
		return nil, openid4vci.NewError(openid4vci.UnsupportedCredentialFormat, fmt.Sprintf("unsupported format: %s", request.Format))
	}
	executor, ok := c.executors[request.Format]
	if !ok {
		return nil, unexpectedError(fmt.Errorf("no executor for format: %s", request.Format))
	}
	return executor, nil
}

func credentialType(request openid4vci.CredentialRequest) string {
	if request.VCT != "" {
		return request.VCT
	}
	if request.CredentialDefinition != nil {
		return strings.Join(request.CredentialDefinition.Type, ",")
	}
	return ""
}

func unexpectedError(err error) error {
	result := openid4vci.NewError(openid4vci.UnexpectedError, "")
	result.Err = err
	return result
}
