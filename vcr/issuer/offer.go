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
	"time"

	"github.com/google/uuid"
	"github.com/nuts-foundation/nuts-vci/audit"
	"github.com/nuts-foundation/nuts-vci/crypto"
	"github.com/nuts-foundation/nuts-vci/vcr/log"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
)

// ErrInvalidOfferRequest is returned when an offer request lacks credential configuration ids.
var ErrInvalidOfferRequest = errors.New("invalid offer request")

// OfferRequest describes the credential offer to create.
type OfferRequest struct {
	// CredentialConfigurationIDs are the ids of the offered credentials.
	CredentialConfigurationIDs []string
	// Claims is the credential subject data.
	Claims map[string]interface{}
	// RequirePIN makes the code PIN protected. The generated PIN must be communicated to the holder out-of-band.
	RequirePIN bool
	// NeedsProof overrides the configured default for requiring a proof of possession.
	NeedsProof *bool
}

// Offer is a created credential offer.
type Offer struct {
	Offer openid4vci.CredentialOffer
	// URL is the offer encoded as URL, to be rendered as QR code or link.
	URL string
	// PIN is the transaction code, empty when not PIN protected.
	PIN string
	// ExpiresAt is the moment the pre-authorized code expires.
	ExpiresAt time.Time
}

// OfferServiceConfig contains the settings of the OfferService.
type OfferServiceConfig struct {
	// CredentialIssuer is the credential_issuer of created offers.
	CredentialIssuer string
	// CodeTTL is the lifetime of the pre-authorized code.
	CodeTTL time.Duration
	// PINLength is the number of digits of generated PINs.
	PINLength int
	// NeedsProof is the default for requiring a proof of possession.
	NeedsProof bool
	// OfferEndpoint is the scheme or wallet endpoint offers are encoded for.
	OfferEndpoint string
}

// NewOfferService creates an OfferService.
func NewOfferService(store Store, config OfferServiceConfig) *OfferService {
	return &OfferService{store: store, config: config}
}

// OfferService creates pre-authorized credential offers.
type OfferService struct {
	store  Store
	config OfferServiceConfig
}

// CreateOffer creates and stores a pre-authorized code for the given claims and returns the credential offer.
func (o OfferService) CreateOffer(ctx context.Context, request OfferRequest) (*Offer, error) {
	if len(request.CredentialConfigurationIDs) == 0 {
		return nil, fmt.Errorf("%w: no credential configuration ids", ErrInvalidOfferRequest)
	}
	needsProof := o.config.NeedsProof
	if request.NeedsProof != nil {
		needsProof = *request.NeedsProof
	}
	claims := request.Claims
	if claims == nil {
		claims = map[string]interface{}{}
	}
	code := AuthorizedCode{
		ID:                         uuid.NewString(),
		Code:                       crypto.GenerateSecret(secretSizeBits),
		ExpiresIn:                  int(o.config.CodeTTL.Seconds()),
		CreatedAt:                  timeFunc(),
		PreAuthorizedFlow:          true,
		NeedsProof:                 needsProof,
		CredentialConfigurationIDs: request.CredentialConfigurationIDs,
		Claims:                     claims,
	}
	var txCode *openid4vci.TxCode
	if request.RequirePIN {
		pin := crypto.GenerateNumericPIN(o.config.PINLength)
		code.TxCode = &pin
		txCode = &openid4vci.TxCode{InputMode: "numeric", Length: o.config.PINLength}
	}
	if err := o.store.CreateAuthorizedCode(ctx, code); err != nil {
		return nil, fmt.Errorf("unable to store pre-authorized code: %w", err)
	}
	offer := openid4vci.GeneratePreAuthCredentialOffer(o.config.CredentialIssuer, code.CredentialConfigurationIDs, code.Code, txCode)
	offerURL, err := openid4vci.CredentialOfferToURL(offer, o.config.OfferEndpoint)
	if err != nil {
		return nil, err
	}
	offersCounter.Inc()
	audit.Log(ctx, log.Logger(), audit.CredentialOfferCreatedEvent).
		WithField("codeID", code.ID).
		Infof("Created credential offer (credentials=%v, pin=%t)", code.CredentialConfigurationIDs, request.RequirePIN)
	result := &Offer{Offer: offer, URL: offerURL, ExpiresAt: code.ExpiresAt()}
	if code.TxCode != nil {
		result.PIN = *code.TxCode
	}
	return result, nil
}
