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
	"errors"
	"fmt"
	"time"

	"github.com/nuts-foundation/nuts-vci/keys"
	"github.com/nuts-foundation/nuts-vci/pki"
	"gorm.io/gorm"
)

var _ keys.Store = (*sqlKeyStore)(nil)

type signingKeyPairRecord struct {
	Seq       uint64 `gorm:"primaryKey;autoIncrement"`
	Kid       string
	Kty       string
	Crv       string
	X         string
	Y         *string
	D         string
	CreatedAt int64
	RevokedAt *int64
}

func (s signingKeyPairRecord) TableName() string {
	return "signing_key_pairs"
}

func (s signingKeyPairRecord) toSigningKeyPair() *keys.SigningKeyPair {
	result := &keys.SigningKeyPair{
		Kid:       s.Kid,
		Kty:       s.Kty,
		Crv:       s.Crv,
		X:         s.X,
		D:         s.D,
		CreatedAt: time.Unix(s.CreatedAt, 0),
	}
	if s.Y != nil {
		result.Y = *s.Y
	}
	if s.RevokedAt != nil {
		revokedAt := time.Unix(*s.RevokedAt, 0)
		result.RevokedAt = &revokedAt
	}
	return result
}

type certificateChainRecord struct {
	Kid string `gorm:"primaryKey"`
	// Chain is a JSON array of base64 encoded DER certificates
	Chain     string
	CreatedAt int64
}

func (c certificateChainRecord) TableName() string {
	return "certificate_chains"
}

// sqlKeyStore stores signing key pairs and certificate chains in the SQL database.
type sqlKeyStore struct {
	db *gorm.DB
}

// NewSQLKeyStore creates a keys.Store backed by the given database, which must be migrated.
func NewSQLKeyStore(db *gorm.DB) keys.Store {
	return &sqlKeyStore{db: db}
}

func (s *sqlKeyStore) GetLatestSigningKeyPair(ctx context.Context) (*keys.SigningKeyPair, error) {
	var record signingKeyPairRecord
	err := s.db.WithContext(ctx).
		Where("revoked_at IS NULL").
		Order("created_at DESC").Order("seq DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, keys.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return record.toSigningKeyPair(), nil
}

func (s *sqlKeyStore) GetSigningKeyPair(ctx context.Context, kid string) (*keys.SigningKeyPair, error) {
	var record signingKeyPairRecord
	err := s.db.WithContext(ctx).Where("kid = ?", kid).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, keys.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return record.toSigningKeyPair(), nil
}

func (s *sqlKeyStore) InsertSigningKeyPair(ctx context.Context, pair keys.SigningKeyPair) error {
	record := signingKeyPairRecord{
		Kid:       pair.Kid,
		Kty:       pair.Kty,
		Crv:       pair.Crv,
		X:         pair.X,
		D:         pair.D,
		CreatedAt: pair.CreatedAt.Unix(),
	}
	if pair.Y != "" {
		record.Y = &pair.Y
	}
	if pair.RevokedAt != nil {
		revokedAt := pair.RevokedAt.Unix()
		record.RevokedAt = &revokedAt
	}
	err := s.db.WithContext(ctx).Create(&record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: signing key pair (kid=%s)", keys.ErrDuplicate, pair.Kid)
	}
	return err
}

func (s *sqlKeyStore) RevokeSigningKeyPair(ctx context.Context, kid string, revokedAt time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&signingKeyPairRecord{}).
		Where("kid = ? AND revoked_at IS NULL", kid).
		Update("revoked_at", revokedAt.Unix())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return keys.ErrNotFound
	}
	return nil
}

func (s *sqlKeyStore) AppendCertificateChain(ctx context.Context, kid string, chain pki.Chain) error {
	data, err := chain.JSON()
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Create(&certificateChainRecord{
		Kid:       kid,
		Chain:     string(data),
		CreatedAt: time.Now().Unix(),
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: certificate chain (kid=%s)", keys.ErrDuplicate, kid)
	}
	return err
}

func (s *sqlKeyStore) GetCertificateChain(ctx context.Context, kid string) (pki.Chain, error) {
	var record certificateChainRecord
	err := s.db.WithContext(ctx).Where("kid = ?", kid).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, keys.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return pki.ParseChain([]byte(record.Chain))
}
