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
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nuts-foundation/nuts-vci/audit"
	"github.com/nuts-foundation/nuts-vci/crypto"
	"github.com/nuts-foundation/nuts-vci/vcr/log"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
)

// secretSizeBits is the size of generated pre-authorized codes and access tokens in bits.
const secretSizeBits = 128

var timeFunc = time.Now

// AccessTokenIssuer mints the access token (and, if the code requires a proof, the first c_nonce) for a redeemed code.
type AccessTokenIssuer interface {
	IssueAccessToken(ctx context.Context, code AuthorizedCode) (*openid4vci.TokenResponse, error)
}

// NewStoreAccessTokenIssuer returns an AccessTokenIssuer that mints random tokens and nonces and persists them in the store.
func NewStoreAccessTokenIssuer(store Store, accessTokenTTL time.Duration, cNonceTTL time.Duration) AccessTokenIssuer {
	return &storeAccessTokenIssuer{store: store, accessTokenTTL: accessTokenTTL, cNonceTTL: cNonceTTL}
}

type storeAccessTokenIssuer struct {
	store          Store
	accessTokenTTL time.Duration
	cNonceTTL      time.Duration
}

func (s storeAccessTokenIssuer) IssueAccessToken(ctx context.Context, code AuthorizedCode) (*openid4vci.TokenResponse, error) {
	now := timeFunc()
	token := AccessToken{
		ID:               uuid.NewString(),
		Token:            crypto.GenerateSecret(secretSizeBits),
		ExpiresIn:        int(s.accessTokenTTL.Seconds()),
		CreatedAt:        now,
		AuthorizedCodeID: code.ID,
	}
	response := &openid4vci.TokenResponse{
		AccessToken: token.Token,
		TokenType:   openid4vci.TokenTypeBearer,
		ExpiresIn:   token.ExpiresIn,
	}
	var nonce *CNonce
	if code.NeedsProof {
		nonce = &CNonce{
			Nonce:         crypto.GenerateNonce(),
			ExpiresIn:     int(s.cNonceTTL.Seconds()),
			CreatedAt:     now,
			AccessTokenID: token.ID,
		}
		response.CNonce = &nonce.Nonce
		response.CNonceExpiresIn = &nonce.ExpiresIn
	}
	if err := s.store.CreateAccessToken(ctx, token, nonce); err != nil {
		return nil, fmt.Errorf("unable to store access token: %w", err)
	}
	return response, nil
}

// TokenIssuerConfig contains the redemption policy of the TokenIssuer.
type TokenIssuerConfig struct {
	// SingleUse makes PIN-less codes single-use as well. PIN protected codes are always single-use.
	SingleUse bool
	// MaxPINAttempts is the number of times a PIN may be presented for a code, 0 means unlimited.
	MaxPINAttempts int
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(store Store, accessTokenIssuer AccessTokenIssuer, config TokenIssuerConfig) *TokenIssuer {
	return &TokenIssuer{store: store, accessTokenIssuer: accessTokenIssuer, config: config}
}

// TokenIssuer exchanges pre-authorized codes for access tokens.
type TokenIssuer struct {
	store             Store
	accessTokenIssuer AccessTokenIssuer
	config            TokenIssuerConfig
}

// HandleTokenRequest validates the token request and redeems its pre-authorized code.
// Errors the client should see are returned as openid4vci.Error.
func (t TokenIssuer) HandleTokenRequest(ctx context.Context, request openid4vci.TokenRequest) (*openid4vci.TokenResponse, error) {
	response, err := t.handleTokenRequest(ctx, request)
	if err != nil {
		tokenRequestsCounter.WithLabelValues(errorCodeLabel(err)).Inc()
		return nil, err
	}
	tokenRequestsCounter.WithLabelValues(resultOK).Inc()
	return response, nil
}

func (t TokenIssuer) handleTokenRequest(ctx context.Context, request openid4vci.TokenRequest) (*openid4vci.TokenResponse, error) {
	if request.GrantType != openid4vci.PreAuthorizedCodeGrant {
		return nil, openid4vci.NewError(openid4vci.UnsupportedGrantType, fmt.Sprintf("grant_type must be %s", openid4vci.PreAuthorizedCodeGrant))
	}
	code, err := t.store.GetAuthorizedCode(ctx, request.PreAuthorizedCode)
	if errors.Is(err, ErrNotFound) {
		return nil, openid4vci.NewError(openid4vci.InvalidGrant, "wrong code")
	} else if err != nil {
		return nil, serverError(err)
	}
	if !timeFunc().Before(code.ExpiresAt()) {
		return nil, openid4vci.NewError(openid4vci.InvalidGrant, "expired")
	}
	pinProtected := code.TxCode != nil
	if err = checkPINPresence(*code, request.UserPIN); err != nil {
		return nil, err
	}
	if pinProtected {
		if err = t.reservePINAttempt(ctx, *code); err != nil {
			return nil, err
		}
	}
	if err = checkPIN(*code, request.UserPIN); err != nil {
		return nil, err
	}
	if !pinProtected && t.config.SingleUse && code.UsedAt != nil {
		return nil, openid4vci.NewError(openid4vci.InvalidGrant, "code already used")
	}
	markRedeemed := pinProtected || t.config.SingleUse
	usedAt := timeFunc()
	if markRedeemed {
		if err = t.store.MarkCodeRedeemed(ctx, code.ID, usedAt); err != nil {
			if !errors.Is(err, ErrCodeAlreadyRedeemed) {
				return nil, serverError(err)
			}
			if pinProtected {
				return nil, openid4vci.NewError(openid4vci.InvalidRequest, "PIN already used")
			}
			return nil, openid4vci.NewError(openid4vci.InvalidGrant, "code already used")
		}
	}
	response, err := t.accessTokenIssuer.IssueAccessToken(ctx, *code)
	if err != nil {
		if markRedeemed {
			// the code may only be used up by a successful redemption
			if unmarkErr := t.store.UnmarkCodeRedeemed(ctx, code.ID, usedAt); unmarkErr != nil {
				log.Logger().WithError(unmarkErr).Errorf("Unable to release pre-authorized code after failed redemption (id=%s)", code.ID)
			}
		}
		return nil, serverError(err)
	}
	audit.Log(ctx, log.Logger(), audit.AccessTokenIssuedEvent).
		WithField("codeID", code.ID).
		Info("Redeemed pre-authorized code for access token")
	return response, nil
}

func (t TokenIssuer) reservePINAttempt(ctx context.Context, code AuthorizedCode) error {
	if t.config.MaxPINAttempts <= 0 {
		return nil
	}
	err := t.store.ReservePINAttempt(ctx, code.ID, t.config.MaxPINAttempts)
	if errors.Is(err, ErrPINAttemptsExceeded) {
		log.Logger().Warnf("Too many PIN attempts for pre-authorized code (id=%s)", code.ID)
		return openid4vci.NewError(openid4vci.InvalidGrant, "too many PIN attempts")
	} else if err != nil {
		return serverError(err)
	}
	return nil
}

// checkPINPresence checks whether a PIN was sent if, and only if, the code requires one. An empty PIN counts as no PIN.
func checkPINPresence(code AuthorizedCode, pin *string) error {
	pinSent := pin != nil && *pin != ""
	if code.TxCode == nil {
		if pinSent {
			return openid4vci.NewError(openid4vci.InvalidRequest, "PIN not expected")
		}
		return nil
	}
	if !pinSent {
		return openid4vci.NewError(openid4vci.InvalidRequest, "PIN required")
	}
	return nil
}

// checkPIN compares the PIN of a PIN protected code, which must be present.
func checkPIN(code AuthorizedCode, pin *string) error {
	if code.TxCode == nil {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(*pin), []byte(*code.TxCode)) != 1 {
		return openid4vci.NewError(openid4vci.InvalidGrant, "wrong PIN")
	}
	if code.UsedAt != nil {
		return openid4vci.NewError(openid4vci.InvalidRequest, "PIN already used")
	}
	return nil
}

func serverError(err error) error {
	result := openid4vci.NewError(openid4vci.ServerError, "")
	result.Err = err
	return result
}
