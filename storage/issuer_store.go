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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nuts-foundation/nuts-vci/vcr/issuer"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

var _ issuer.Store = (*sqlIssuerStore)(nil)
var _ schema.Tabler = (*authorizedCodeRecord)(nil)

type authorizedCodeRecord struct {
	ID                string `gorm:"primaryKey"`
	Code              string
	ExpiresIn         int
	CreatedAt         int64
	PreAuthorizedFlow bool
	TxCode            *string
	NeedsProof        bool
	UsedAt            *int64
	PINAttempts       int `gorm:"column:pin_attempts"`
	// CredentialConfigurationIDs is a JSON array
	CredentialConfigurationIDs string `gorm:"column:credential_configuration_ids"`
	// Claims is a JSON object
	Claims string
}

func (a authorizedCodeRecord) TableName() string {
	return "authorized_codes"
}

type accessTokenRecord struct {
	ID               string `gorm:"primaryKey"`
	Token            string
	ExpiresIn        int
	CreatedAt        int64
	AuthorizedCodeID string               `gorm:"column:authorized_code_id"`
	AuthorizedCode   authorizedCodeRecord `gorm:"foreignKey:AuthorizedCodeID;references:ID"`
}

func (a accessTokenRecord) TableName() string {
	return "access_tokens"
}

type cNonceRecord struct {
	Seq           uint64 `gorm:"primaryKey;autoIncrement"`
	Nonce         string
	ExpiresIn     int
	CreatedAt     int64
	AccessTokenID string `gorm:"column:access_token_id"`
	Replaces      string
}

func (c cNonceRecord) TableName() string {
	return "c_nonces"
}

// sqlIssuerStore stores the state of pre-authorized issuance flows in the SQL database.
type sqlIssuerStore struct {
	db *gorm.DB
}

// NewSQLIssuerStore creates an issuer.Store backed by the given database, which must be migrated.
func NewSQLIssuerStore(db *gorm.DB) issuer.Store {
	return &sqlIssuerStore{db: db}
}

func (s *sqlIssuerStore) CreateAuthorizedCode(ctx context.Context, code issuer.AuthorizedCode) error {
	record, err := toAuthorizedCodeRecord(code)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *sqlIssuerStore) GetAuthorizedCode(ctx context.Context, code string) (*issuer.AuthorizedCode, error) {
	var record authorizedCodeRecord
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, issuer.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return record.toAuthorizedCode()
}

// MarkCodeRedeemed only updates the code if it wasn't redeemed yet, so concurrent redemptions can't both succeed.
func (s *sqlIssuerStore) MarkCodeRedeemed(ctx context.Context, id string, usedAt time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&authorizedCodeRecord{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", usedAt.Unix())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&authorizedCodeRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return issuer.ErrNotFound
	}
	return issuer.ErrCodeAlreadyRedeemed
}

func (s *sqlIssuerStore) UnmarkCodeRedeemed(ctx context.Context, id string, usedAt time.Time) error {
	return s.db.WithContext(ctx).
		Model(&authorizedCodeRecord{}).
		Where("id = ? AND used_at = ?", id, usedAt.Unix()).
		Update("used_at", nil).Error
}

// ReservePINAttempt increments the attempt counter only while it's below maxAttempts,
// so concurrent guesses can't exceed the maximum.
func (s *sqlIssuerStore) ReservePINAttempt(ctx context.Context, id string, maxAttempts int) error {
	result := s.db.WithContext(ctx).
		Model(&authorizedCodeRecord{}).
		Where("id = ? AND pin_attempts < ?", id, maxAttempts).
		Update("pin_attempts", gorm.Expr("pin_attempts + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return issuer.ErrPINAttemptsExceeded
	}
	return nil
}

func (s *sqlIssuerStore) CreateAccessToken(ctx context.Context, token issuer.AccessToken, nonce *issuer.CNonce) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := accessTokenRecord{
			ID:               token.ID,
			Token:            token.Token,
			ExpiresIn:        token.ExpiresIn,
			CreatedAt:        token.CreatedAt.Unix(),
			AuthorizedCodeID: token.AuthorizedCodeID,
		}
		if err := tx.Omit("AuthorizedCode").Create(&record).Error; err != nil {
			return err
		}
		if nonce == nil {
			return nil
		}
		return tx.Create(toCNonceRecord(*nonce, "")).Error
	})
}

func (s *sqlIssuerStore) GetAccessTokenByToken(ctx context.Context, token string) (*issuer.AccessTokenRecord, error) {
	var record accessTokenRecord
	db := s.db.WithContext(ctx)
	err := db.Preload("AuthorizedCode").Where("token = ?", token).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, issuer.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	code, err := record.AuthorizedCode.toAuthorizedCode()
	if err != nil {
		return nil, err
	}
	result := &issuer.AccessTokenRecord{
		AccessToken: issuer.AccessToken{
			ID:               record.ID,
			Token:            record.Token,
			ExpiresIn:        record.ExpiresIn,
			CreatedAt:        time.Unix(record.CreatedAt, 0),
			AuthorizedCodeID: record.AuthorizedCodeID,
		},
		AuthorizedCode: *code,
	}
	var nonces []cNonceRecord
	err = db.Where("access_token_id = ?", record.ID).
		Order("created_at DESC").Order("seq DESC").
		Limit(1).
		Find(&nonces).Error
	if err != nil {
		return nil, err
	}
	if len(nonces) > 0 {
		result.CNonce = &issuer.CNonce{
			Nonce:         nonces[0].Nonce,
			ExpiresIn:     nonces[0].ExpiresIn,
			CreatedAt:     time.Unix(nonces[0].CreatedAt, 0),
			AccessTokenID: nonces[0].AccessTokenID,
		}
	}
	return result, nil
}

// RotateCNonce inserts the nonce. Nonces are never updated, the last one inserted is the latest.
// The unique (access_token_id, replaces) index rejects a second replacement of the same nonce.
func (s *sqlIssuerStore) RotateCNonce(ctx context.Context, previous string, next issuer.CNonce) error {
	err := s.db.WithContext(ctx).Create(toCNonceRecord(next, previous)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return issuer.ErrCNonceConsumed
	}
	return err
}

func toCNonceRecord(nonce issuer.CNonce, replaces string) *cNonceRecord {
	return &cNonceRecord{
		Nonce:         nonce.Nonce,
		ExpiresIn:     nonce.ExpiresIn,
		CreatedAt:     nonce.CreatedAt.Unix(),
		AccessTokenID: nonce.AccessTokenID,
		Replaces:      replaces,
	}
}

func toAuthorizedCodeRecord(code issuer.AuthorizedCode) (*authorizedCodeRecord, error) {
	ids, err := json.Marshal(code.CredentialConfigurationIDs)
	if err != nil {
		return nil, err
	}
	claims := code.Claims
	if claims == nil {
		claims = map[string]interface{}{}
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal claims: %w", err)
	}
	record := &authorizedCodeRecord{
		ID:                         code.ID,
		Code:                       code.Code,
		ExpiresIn:                  code.ExpiresIn,
		CreatedAt:                  code.CreatedAt.Unix(),
		PreAuthorizedFlow:          code.PreAuthorizedFlow,
		TxCode:                     code.TxCode,
		NeedsProof:                 code.NeedsProof,
		PINAttempts:                code.PINAttempts,
		CredentialConfigurationIDs: string(ids),
		Claims:                     string(claimsJSON),
	}
	if code.UsedAt != nil {
		usedAt := code.UsedAt.Unix()
		record.UsedAt = &usedAt
	}
	return record, nil
}

func (a authorizedCodeRecord) toAuthorizedCode() (*issuer.AuthorizedCode, error) {
	result := &issuer.AuthorizedCode{
		ID:                a.ID,
		Code:              a.Code,
		ExpiresIn:         a.ExpiresIn,
		CreatedAt:         time.Unix(a.CreatedAt, 0),
		PreAuthorizedFlow: a.PreAuthorizedFlow,
		TxCode:            a.TxCode,
		NeedsProof:        a.NeedsProof,
		PINAttempts:       a.PINAttempts,
	}
	if a.UsedAt != nil {
		usedAt := time.Unix(*a.UsedAt, 0)
		result.UsedAt = &usedAt
	}
	if err := json.Unmarshal([]byte(a.CredentialConfigurationIDs), &result.CredentialConfigurationIDs); err != nil {
		return nil, fmt.Errorf("invalid credential configuration IDs of authorized code %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(a.Claims), &result.Claims); err != nil {
		return nil, fmt.Errorf("invalid claims of authorized code %s: %w", a.ID, err)
	}
	return result, nil
}
