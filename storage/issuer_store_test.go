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

package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nuts-foundation/nuts-vci/vcr/issuer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthorizedCode(txCode *string) issuer.AuthorizedCode {
	return issuer.AuthorizedCode{
		ID:                         uuid.NewString(),
		Code:                       uuid.NewString(),
		ExpiresIn:                  300,
		CreatedAt:                  time.Unix(1700000000, 0),
		PreAuthorizedFlow:          true,
		TxCode:                     txCode,
		NeedsProof:                 true,
		CredentialConfigurationIDs: []string{"UniversityDegree_jwt"},
		Claims: map[string]interface{}{
			"given_name": "Alice",
			"degree":     map[string]interface{}{"type": "BachelorDegree"},
		},
	}
}

func TestSQLIssuerStore_AuthorizedCode(t *testing.T) {
	ctx := context.Background()
	store := NewSQLIssuerStore(NewTestInMemoryDatabase(t))

	t.Run("create and get", func(t *testing.T) {
		pin := "123456"
		code := testAuthorizedCode(&pin)
		require.NoError(t, store.CreateAuthorizedCode(ctx, code))

		actual, err := store.GetAuthorizedCode(ctx, code.Code)

		require.NoError(t, err)
		assert.Equal(t, code, *actual)
	})
	t.Run("without PIN and claims", func(t *testing.T) {
		code := testAuthorizedCode(nil)
		code.Claims = nil
		require.NoError(t, store.CreateAuthorizedCode(ctx, code))

		actual, err := store.GetAuthorizedCode(ctx, code.Code)

		require.NoError(t, err)
		assert.Nil(t, actual.TxCode)
		assert.Empty(t, actual.Claims)
		assert.Nil(t, actual.UsedAt)
	})
	t.Run("unknown code", func(t *testing.T) {
		_, err := store.GetAuthorizedCode(ctx, "unknown")

		assert.ErrorIs(t, err, issuer.ErrNotFound)
	})
	t.Run("duplicate code", func(t *testing.T) {
		code := testAuthorizedCode(nil)
		require.NoError(t, store.CreateAuthorizedCode(ctx, code))
		code.ID = uuid.NewString()

		assert.Error(t, store.CreateAuthorizedCode(ctx, code))
	})
}

func TestSQLIssuerStore_MarkCodeRedeemed(t *testing.T) {
	ctx := context.Background()
	store := NewSQLIssuerStore(NewTestInMemoryDatabase(t))
	usedAt := time.Unix(1700000100, 0)

	t.Run("ok", func(t *testing.T) {
		code := testAuthorizedCode(nil)
		require.NoError(t, store.CreateAuthorizedCode(ctx, code))

		require.NoError(t, store.MarkCodeRedeemed(ctx, code.ID, usedAt))

		actual, err := store.GetAuthorizedCode(ctx, code.Code)
		require.NoError(t, err)
		require.NotNil(t, actual.UsedAt)
		assert.Equal(t, usedAt, *actual.UsedAt)
	})
	t.Run("already redeemed", func(t *testing.T) {
		code := testAuthorizedCode(nil)
		require.NoError(t, store.CreateAuthorizedCode(ctx, code))
		require.NoError(t, store.MarkCodeRedeemed(ctx, code.ID, usedAt))

		err := store.MarkCodeRedeemed(ctx, code.ID, usedAt.Add(time.Second))

		assert.ErrorIs(t, err, issuer.ErrCodeAlreadyRedeemed)
	})
	t.Run("unknown", func(t *testing.T) {
		err := store.MarkCodeRedeemed(ctx, "unknown", usedAt)

		assert.ErrorIs(t, err, issuer.ErrNotFound)
	})
	t.Run("concurrent redemptions, only one succeeds", func(t *testing.T) {
		code := testAuthorizedCode(nil)
		require.NoError(t, store.CreateAuthorizedCode(ctx, code))
		const attempts = 10
		errs := make(chan error, attempts)
		wg := sync.WaitGroup{}
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- store.MarkCodeRedeemed(ctx, code.ID, usedAt)
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, issuer.ErrCodeAlreadyRedeemed)
			}
		}
		assert.Equal(t, 1, succeeded)
	})
}

func TestSQLIssuerStore_AccessToken(t *testing.T) {
	ctx := context.Background()
	store := NewSQLIssuerStore(NewTestInMemoryDatabase(t))
	createdAt := time.Unix(1700000200, 0)
	newToken := func(t *testing.T) (issuer.AuthorizedCode, issuer.AccessToken) {
		code := testAuthorizedCode(nil)
		require.NoError(t, store.CreateAuthorizedCode(ctx, code))
		return code, issuer.AccessToken{
			ID:               uuid.NewString(),
			Token:            uuid.NewString(),
			ExpiresIn:        900,
			CreatedAt:        createdAt,
			AuthorizedCodeID: code.ID,
		}
	}

	t.Run("with nonce", func(t *testing.T) {
		code, token := newToken(t)
		nonce := issuer.CNonce{Nonce: "nonce-1", ExpiresIn: 300, CreatedAt: createdAt, AccessTokenID: token.ID}
		require.NoError(t, store.CreateAccessToken(ctx, token, &nonce))

		record, err := store.GetAccessTokenByToken(ctx, token.Token)

		require.NoError(t, err)
		assert.Equal(t, token, record.AccessToken)
		assert.Equal(t, code, record.AuthorizedCode)
		require.NotNil(t, record.CNonce)
		assert.Equal(t, nonce, *record.CNonce)
	})
	t.Run("without nonce", func(t *testing.T) {
		_, token := newToken(t)
		require.NoError(t, store.CreateAccessToken(ctx, token, nil))

		record, err := store.GetAccessTokenByToken(ctx, token.Token)

		require.NoError(t, err)
		assert.Nil(t, record.CNonce)
	})
	t.Run("unknown code", func(t *testing.T) {
		_, token := newToken(t)
		token.AuthorizedCodeID = "unknown"

		assert.Error(t, store.CreateAccessToken(ctx, token, nil))
	})
	t.Run("unknown token", func(t *testing.T) {
		_, err := store.GetAccessTokenByToken(ctx, "unknown")

		assert.ErrorIs(t, err, issuer.ErrNotFound)
	})
	t.Run("rotated nonce becomes latest", func(t *testing.T) {
		_, token := newToken(t)
		first := issuer.CNonce{Nonce: "first", ExpiresIn: 300, CreatedAt: createdAt, AccessTokenID: token.ID}
		require.NoError(t, store.CreateAccessToken(ctx, token, &first))
		// same second, so ordering falls back to insertion order
		second := issuer.CNonce{Nonce: "second", ExpiresIn: 300, CreatedAt: createdAt, AccessTokenID: token.ID}
		require.NoError(t, store.RotateCNonce(ctx, "first", second))
		record, err := store.GetAccessTokenByToken(ctx, token.Token)
		require.NoError(t, err)
		assert.Equal(t, "second", record.CNonce.Nonce)
		third := issuer.CNonce{Nonce: "third", ExpiresIn: 300, CreatedAt: createdAt.Add(time.Second), AccessTokenID: token.ID}
		require.NoError(t, store.RotateCNonce(ctx, "second", third))

		record, err = store.GetAccessTokenByToken(ctx, token.Token)

		require.NoError(t, err)
		assert.Equal(t, "third", record.CNonce.Nonce)
	})
	t.Run("nonce can be replaced once", func(t *testing.T) {
		_, token := newToken(t)
		first := issuer.CNonce{Nonce: "first", ExpiresIn: 300, CreatedAt: createdAt, AccessTokenID: token.ID}
		require.NoError(t, store.CreateAccessToken(ctx, token, &first))
		require.NoError(t, store.RotateCNonce(ctx, "first", issuer.CNonce{Nonce: "second", ExpiresIn: 300, CreatedAt: createdAt, AccessTokenID: token.ID}))

		err := store.RotateCNonce(ctx, "first", issuer.CNonce{Nonce: "other", ExpiresIn: 300, CreatedAt: createdAt, AccessTokenID: token.ID})

		assert.ErrorIs(t, err, issuer.ErrCNonceConsumed)
		record, err := store.GetAccessTokenByToken(ctx, token.Token)
		require.NoError(t, err)
		assert.Equal(t, "second", record.CNonce.Nonce)
	})
	t.Run("concurrent rotations of the same nonce, only one succeeds", func(t *testing.T) {
		_, token := newToken(t)
		first := issuer.CNonce{Nonce: "first", ExpiresIn: 300, CreatedAt: createdAt, AccessTokenID: token.ID}
		require.NoError(t, store.CreateAccessToken(ctx, token, &first))
		const attempts = 10
		errs := make(chan error, attempts)
		wg := sync.WaitGroup{}
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- store.RotateCNonce(ctx, "first", issuer.CNonce{Nonce: uuid.NewString(), ExpiresIn: 300, CreatedAt: createdAt, AccessTokenID: token.ID})
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, issuer.ErrCNonceConsumed)
			}
		}
		assert.Equal(t, 1, succeeded)
	})
	t.Run("nonce for unknown token", func(t *testing.T) {
		err := store.RotateCNonce(ctx, "", issuer.CNonce{Nonce: "n", ExpiresIn: 300, CreatedAt: createdAt, AccessTokenID: "unknown"})

		assert.Error(t, err)
		assert.NotErrorIs(t, err, issuer.ErrCNonceConsumed)
	})
}

func TestSQLIssuerStore_UnmarkCodeRedeemed(t *testing.T) {
	ctx := context.Background()
	store := NewSQLIssuerStore(NewTestInMemoryDatabase(t))
	usedAt := time.Unix(1700000100, 0)

	t.Run("ok", func(t *testing.T) {
		code := testAuthorizedCode(nil)
		require.NoError(t, store.CreateAuthorizedCode(ctx, code))
		require.NoError(t, store.MarkCodeRedeemed(ctx, code.ID, usedAt))

		require.NoError(t, store.UnmarkCodeRedeemed(ctx, code.ID, usedAt))

		actual, err := store.GetAuthorizedCode(ctx, code.Code)
		require.NoError(t, err)
		assert.Nil(t, actual.UsedAt)
		// can be redeemed again
		assert.NoError(t, store.MarkCodeRedeemed(ctx, code.ID, usedAt))
	})
	t.Run("redeemed at another moment is kept", func(t *testing.T) {
		code := testAuthorizedCode(nil)
		require.NoError(t, store.CreateAuthorizedCode(ctx, code))
		require.NoError(t, store.MarkCodeRedeemed(ctx, code.ID, usedAt))

		require.NoError(t, store.UnmarkCodeRedeemed(ctx, code.ID, usedAt.Add(time.Minute)))

		actual, err := store.GetAuthorizedCode(ctx, code.Code)
		require.NoError(t, err)
		assert.NotNil(t, actual.UsedAt)
	})
}

func TestSQLIssuerStore_ReservePINAttempt(t *testing.T) {
	ctx := context.Background()
	store := NewSQLIssuerStore(NewTestInMemoryDatabase(t))
	pin := "123456"

	t.Run("attempts are counted up to the maximum", func(t *testing.T) {
		code := testAuthorizedCode(&pin)
		require.NoError(t, store.CreateAuthorizedCode(ctx, code))

		require.NoError(t, store.ReservePINAttempt(ctx, code.ID, 2))
		require.NoError(t, store.ReservePINAttempt(ctx, code.ID, 2))
		err := store.ReservePINAttempt(ctx, code.ID, 2)

		assert.ErrorIs(t, err, issuer.ErrPINAttemptsExceeded)
		actual, err := store.GetAuthorizedCode(ctx, code.Code)
		require.NoError(t, err)
		assert.Equal(t, 2, actual.PINAttempts)
	})
	t.Run("concurrent attempts don't exceed the maximum", func(t *testing.T) {
		code := testAuthorizedCode(&pin)
		require.NoError(t, store.CreateAuthorizedCode(ctx, code))
		const attempts = 10
		errs := make(chan error, attempts)
		wg := sync.WaitGroup{}
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- store.ReservePINAttempt(ctx, code.ID, 3)
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
			}
		}
		assert.Equal(t, 3, succeeded)
	})
}
