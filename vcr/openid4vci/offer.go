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

package openid4vci

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// CredentialOfferParam is the query parameter holding the JSON credential offer.
const CredentialOfferParam = "credential_offer"

// ErrInvalidOffer is returned when a credential offer URL can't be decoded.
var ErrInvalidOffer = errors.New("invalid credential offer")

// CredentialOffer is a credential offer as sent to the wallet, by value.
type CredentialOffer struct {
	CredentialIssuer           string   `json:"credential_issuer"`
	CredentialConfigurationIDs []string `json:"credential_configuration_ids"`
	Grants                     *Grants  `json:"grants,omitempty"`
}

// Grants holds the grants the wallet can use to obtain an access token.
type Grants struct {
	PreAuthorizedCode *PreAuthorizedCodeParams `json:"urn:ietf:params:oauth:grant-type:pre-authorized_code,omitempty"`
}

// PreAuthorizedCodeParams holds the parameters of the pre-authorized code grant.
type PreAuthorizedCodeParams struct {
	PreAuthorizedCode string `json:"pre-authorized_code"`
	// TxCode is present when the code is PIN protected, describing the PIN the wallet has to ask for.
	TxCode *TxCode `json:"tx_code,omitempty"`
}

// TxCode describes the transaction code (PIN) policy. All fields are optional, so it may be empty.
type TxCode struct {
	InputMode   string `json:"input_mode,omitempty" validate:"omitempty,oneof=numeric text"`
	Length      int    `json:"length,omitempty" validate:"omitempty,min=1,max=12"`
	Description string `json:"description,omitempty" validate:"omitempty,max=300"`
}

// GeneratePreAuthCredentialOffer creates a credential offer with a pre-authorized code grant.
// The tx_code object is only present when txCode is not nil.
func GeneratePreAuthCredentialOffer(credentialIssuer string, credentialConfigurationIDs []string, preAuthorizedCode string, txCode *TxCode) CredentialOffer {
	return CredentialOffer{
		CredentialIssuer:           credentialIssuer,
		CredentialConfigurationIDs: credentialConfigurationIDs,
		Grants: &Grants{
			PreAuthorizedCode: &PreAuthorizedCodeParams{
				PreAuthorizedCode: preAuthorizedCode,
				TxCode:            txCode,
			},
		},
	}
}

// CredentialOfferToURL encodes the offer as credential_offer query parameter of the endpoint.
// The endpoint is a custom scheme (e.g. openid-credential-offer://) or the wallet's offer endpoint; it defaults to DefaultOfferScheme.
func CredentialOfferToURL(offer CredentialOffer, endpoint string) (string, error) {
	if endpoint == "" {
		endpoint = DefaultOfferScheme
	}
	data, err := json.Marshal(offer)
	if err != nil {
		return "", err
	}
	// Built by hand: url.URL.String() drops the // of schemes without host
	separator := "?"
	if strings.Contains(endpoint, "?") {
		separator = "&"
	}
	return endpoint + separator + CredentialOfferParam + "=" + url.QueryEscape(string(data)), nil
}

// URLToCredentialOffer decodes the credential offer from its URL.
func URLToCredentialOffer(offerURL string) (*CredentialOffer, error) {
	parsed, err := url.Parse(offerURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidOffer, err)
	}
	values := parsed.Query()
	if !values.Has(CredentialOfferParam) {
		if values.Has(CredentialOfferParam + "_uri") {
			return nil, fmt.Errorf("%w: offers by reference (credential_offer_uri) are not supported", ErrInvalidOffer)
		}
		return nil, fmt.Errorf("%w: missing %s parameter", ErrInvalidOffer, CredentialOfferParam)
	}
	var result CredentialOffer
	if err := json.Unmarshal([]byte(values.Get(CredentialOfferParam)), &result); err != nil {
		return nil, errors.Join(ErrInvalidOffer, err)
	}
	return &result, nil
}
