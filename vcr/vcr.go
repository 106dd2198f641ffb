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

package vcr

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/keys"
	"github.com/nuts-foundation/nuts-vci/storage"
	"github.com/nuts-foundation/nuts-vci/vcr/issuer"
	"github.com/nuts-foundation/nuts-vci/vcr/log"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
	"github.com/prometheus/client_golang/prometheus"
)

var _ Issuer = (*vcr)(nil)
var _ core.Injectable = (*vcr)(nil)
var _ core.MetricsProvider = (*vcr)(nil)
var _ core.Diagnosable = (*vcr)(nil)

// NewIssuerInstance creates a new credential issuer engine with default config. Its stores are provided by the storage engine.
func NewIssuerInstance(storageInstance storage.Engine) Issuer {
	return &vcr{
		config:  DefaultConfig(),
		storage: storageInstance,
	}
}

type vcr struct {
	config           Config
	storage          storage.Engine
	identifier       string
	keyManager       *keys.KeyManager
	tokenIssuer      *issuer.TokenIssuer
	credentialIssuer *issuer.CredentialIssuer
	offerService     *issuer.OfferService
}

func (c *vcr) Name() string {
	return ModuleName
}

func (c *vcr) Config() interface{} {
	return &c.config
}

func (c *vcr) Configure(config core.ServerConfig) error {
	var err error
	if c.identifier, err = c.resolveIdentifier(config); err != nil {
		return err
	}
	if err = c.config.validate(); err != nil {
		return err
	}

	issuerStore := c.storage.IssuerStore()
	c.keyManager = keys.NewManager(c.storage.KeyStore())
	c.tokenIssuer = issuer.NewTokenIssuer(
		issuerStore,
		issuer.NewStoreAccessTokenIssuer(issuerStore, c.config.AccessTokenTTL, c.config.CNonceTTL),
		issuer.TokenIssuerConfig{
			SingleUse:      c.config.PreAuthorizedCode.SingleUse,
			MaxPINAttempts: c.config.PreAuthorizedCode.MaxPINAttempts,
		},
	)
	executors := issuer.DefaultExecutors(c.keyManager, issuer.ExecutorConfig{
		CredentialIssuer:   c.identifier,
		CredentialValidity: c.config.Credential.Validity,
		X5U:                c.config.Credential.X5U,
	})
	c.credentialIssuer = issuer.NewCredentialIssuer(issuerStore, executors, issuer.CredentialIssuerConfig{
		Identifier:      c.identifier,
		AnonymousAccess: c.config.AnonymousAccess,
		CNonceTTL:       c.config.CNonceTTL,
	})
	c.offerService = issuer.NewOfferService(issuerStore, issuer.OfferServiceConfig{
		CredentialIssuer: c.identifier,
		CodeTTL:          c.config.PreAuthorizedCode.TTL,
		PINLength:        c.config.PreAuthorizedCode.TxCodeLength,
		NeedsProof:       c.config.PreAuthorizedCode.NeedsProof,
		OfferEndpoint:    c.config.OfferEndpoint,
	})
	log.Logger().Infof("Credential issuer configured (identifier=%s)", c.identifier)
	return nil
}

// resolveIdentifier returns the configured identifier, falling back to the server URL.
func (c *vcr) resolveIdentifier(config core.ServerConfig) (string, error) {
	identifier := c.config.Identifier
	if identifier == "" {
		identifier = config.URL
	}
	if identifier == "" {
		return "", errors.New("issuer.identifier or url must be configured")
	}
	parsed, err := url.Parse(identifier)
	if err != nil {
		return "", fmt.Errorf("invalid credential issuer identifier: %w", err)
	}
	if parsed.Host == "" || (parsed.Scheme != "https" && parsed.Scheme != "http") {
		return "", fmt.Errorf("invalid credential issuer identifier: %s", identifier)
	}
	if config.Strictmode && parsed.Scheme != "https" {
		return "", fmt.Errorf("credential issuer identifier must be HTTPS in strict mode: %s", identifier)
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return "", fmt.Errorf("credential issuer identifier must not contain query or fragment: %s", identifier)
	}
	return strings.TrimSuffix(identifier, "/"), nil
}

func (c Config) validate() error {
	if c.PreAuthorizedCode.TTL <= 0 {
		return errors.New("issuer.preauthorizedcode.ttl must be greater than 0")
	}
	if c.AccessTokenTTL <= 0 {
		return errors.New("issuer.accesstokenttl must be greater than 0")
	}
	if c.CNonceTTL <= 0 {
		return errors.New("issuer.cnoncettl must be greater than 0")
	}
	if c.Credential.Validity <= 0 {
		return errors.New("issuer.credential.validity must be greater than 0")
	}
	if c.PreAuthorizedCode.TxCodeLength < 4 || c.PreAuthorizedCode.TxCodeLength > 12 {
		return errors.New("issuer.preauthorizedcode.txcodelength must be between 4 and 12")
	}
	if c.PreAuthorizedCode.MaxPINAttempts < 0 {
		return errors.New("issuer.preauthorizedcode.maxpinattempts must not be negative")
	}
	return nil
}

func (c *vcr) Identifier() string {
	return c.identifier
}

func (c *vcr) HandleTokenRequest(ctx context.Context, request openid4vci.TokenRequest) (*openid4vci.TokenResponse, error) {
	return c.tokenIssuer.HandleTokenRequest(ctx, request)
}

func (c *vcr) HandleCredentialRequest(ctx context.Context, authorization string, request openid4vci.CredentialRequest) (*openid4vci.CredentialResponse, error) {
	return c.credentialIssuer.HandleCredentialRequest(ctx, authorization, request)
}

func (c *vcr) CreateOffer(ctx context.Context, request issuer.OfferRequest) (*issuer.Offer, error) {
	return c.offerService.CreateOffer(ctx, request)
}

func (c *vcr) Keys() keys.Manager {
	return c.keyManager
}

// Collectors returns the issuance counters, registered by the metrics engine.
func (c *vcr) Collectors() []prometheus.Collector {
	return issuer.Collectors()
}

func (c *vcr) Diagnostics() []core.DiagnosticResult {
	return []core.DiagnosticResult{
		&core.GenericDiagnosticResult{Title: "identifier", Outcome: c.identifier},
		&core.GenericDiagnosticResult{Title: "preauthorizedcode_singleuse", Outcome: c.config.PreAuthorizedCode.SingleUse},
		&core.GenericDiagnosticResult{Title: "anonymous_access", Outcome: c.config.AnonymousAccess},
	}
}
