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
	"time"
)

// ErrNotFound is returned by a Store when the requested code or access token does not exist.
var ErrNotFound = errors.New("not found")

// ErrCodeAlreadyRedeemed is returned by Store.MarkCodeRedeemed when the code was already redeemed.
var ErrCodeAlreadyRedeemed = errors.New("authorized code already redeemed")

// ErrPINAttemptsExceeded is returned by Store.ReservePINAttempt when no PIN attempts are left for the code.
var ErrPINAttemptsExceeded = errors.New("maximum number of PIN attempts exceeded")

// ErrCNonceConsumed is returned by Store.RotateCNonce when the nonce was already replaced by another request.
var ErrCNonceConsumed = errors.New("c_nonce already consumed")

// AuthorizedCode is a pre-authorized code created for a credential offer.
type AuthorizedCode struct {
	// ID identifies the code in storage.
	ID string
	// Code is the pre-authorized code sent to the wallet in the credential offer.
	Code string
	// ExpiresIn is the lifetime of the code in seconds, counted from CreatedAt.
	ExpiresIn int
	CreatedAt time.Time
	// PreAuthorizedFlow indicates the code was issued for the pre-authorized code flow.
	PreAuthorizedFlow bool
	// TxCode is the PIN (transaction code) the wallet must present. Nil when no PIN is required.
	TxCode *string
	// NeedsProof indicates the wallet must prove possession of a key, which is bound to the credential.
	NeedsProof bool
	// UsedAt is set when the code is redeemed.
	UsedAt *time.Time
	// PINAttempts is the number of times a PIN was presented for the code.
	PINAttempts int
	// CredentialConfigurationIDs are the ids of the credentials that were offered.
	CredentialConfigurationIDs []string
	// Claims is the credential subject data the offer was created for.
	Claims map[string]interface{}
}

// ExpiresAt returns the moment the code expires.
func (c AuthorizedCode) ExpiresAt() time.Time {
	return c.CreatedAt.Add(time.Duration(c.ExpiresIn) * time.Second)
}

// AccessToken is issued when a pre-authorized code is redeemed.
type AccessToken struct {
	ID               string
	Token            string
	ExpiresIn        int
	CreatedAt        time.Time
	AuthorizedCodeID string
}

// ExpiresAt returns the moment the access token expires.
func (t AccessToken) ExpiresAt() time.Time {
	return t.CreatedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// CNonce is a nonce the wallet must include in its proof of possession.
type CNonce struct {
	Nonce         string
	ExpiresIn     int
	CreatedAt     time.Time
	AccessTokenID string
}

// ExpiresAt returns the moment the nonce expires.
func (n CNonce) ExpiresAt() time.Time {
	return n.CreatedAt.Add(time.Duration(n.ExpiresIn) * time.Second)
}

// AccessTokenRecord is an access token together with the code it was issued for and its latest nonce.
type AccessTokenRecord struct {
	AccessToken    AccessToken
	AuthorizedCode AuthorizedCode
	// CNonce is the most recently issued nonce, nil if none was issued.
	CNonce *CNonce
}

// Store persists the state of pre-authorized issuance flows.
type Store interface {
	// CreateAuthorizedCode stores a new pre-authorized code.
	CreateAuthorizedCode(ctx context.Context, code AuthorizedCode) error
	// GetAuthorizedCode returns the pre-authorized code, or ErrNotFound.
	GetAuthorizedCode(ctx context.Context, code string) (*AuthorizedCode, error)
	// MarkCodeRedeemed atomically marks the code as used. It returns ErrCodeAlreadyRedeemed when it was already used.
	MarkCodeRedeemed(ctx context.Context, id string, usedAt time.Time) error
	// UnmarkCodeRedeemed reverts MarkCodeRedeemed when no access token could be issued.
	// It only clears the mark if it was set at usedAt.
	UnmarkCodeRedeemed(ctx context.Context, id string, usedAt time.Time) error
	// ReservePINAttempt atomically counts a PIN attempt for the code.
	// It returns ErrPINAttemptsExceeded when maxAttempts were already made.
	ReservePINAttempt(ctx context.Context, id string, maxAttempts int) error
	// CreateAccessToken stores the access token and, if given, its first nonce.
	CreateAccessToken(ctx context.Context, token AccessToken, nonce *CNonce) error
	// GetAccessTokenByToken returns the access token with its code and latest nonce, or ErrNotFound.
	GetAccessTokenByToken(ctx context.Context, token string) (*AccessTokenRecord, error)
	// RotateCNonce stores next as the latest nonce of its access token, replacing the nonce previous.
	// A nonce can be replaced once: it returns ErrCNonceConsumed when previous was already replaced.
	RotateCNonce(ctx context.Context, previous string, next CNonce) error
}
