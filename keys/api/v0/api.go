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

package v0

import (
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"io"
	"math/big"
	"mime"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/nuts-foundation/nuts-vci/core"
	httpNuts "github.com/nuts-foundation/nuts-vci/http"
	"github.com/nuts-foundation/nuts-vci/http/cache"
	"github.com/nuts-foundation/nuts-vci/keys"
	"github.com/nuts-foundation/nuts-vci/pki"
)

const keysModuleName = "Keys"
const pkiModuleName = "PKI"

// MIMEPEMCertificateChain is the content type of PEM encoded certificate chains.
const MIMEPEMCertificateChain = "application/pem-certificate-chain"

// MIMEPEMFile is the content type of PEM files other than certificate chains, e.g. CRLs.
const MIMEPEMFile = "application/x-pem-file"

// maxChainSize limits the size of uploaded certificate chains.
const maxChainSize = 64 * 1024

// chainMaxAge is how long clients may cache a downloaded certificate chain.
const chainMaxAge = time.Minute

// GenerateKeyRequest is the request body for generating a signing key pair.
type GenerateKeyRequest struct {
	Curve string `json:"curve" validate:"required"`
}

// KeyPairResponse describes a signing key pair. The private key is never returned.
type KeyPairResponse struct {
	Kid       string     `json:"kid"`
	Kty       string     `json:"kty"`
	Crv       string     `json:"crv"`
	X         string     `json:"x"`
	Y         string     `json:"y,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// LatestKeyResponse describes the key new credentials are signed with.
type LatestKeyResponse struct {
	Kid string  `json:"kid"`
	JWK jwk.Key `json:"jwk"`
	// X5C is the registered certificate chain as base64 DER, leaf first. Empty when no chain is registered.
	X5C []string `json:"x5c"`
}

// SelfSignedRequest is the request body for issuing a self-signed certificate for a key pair.
type SelfSignedRequest struct {
	CommonName   string   `json:"common_name" validate:"required"`
	Organization string   `json:"organization,omitempty"`
	Country      string   `json:"country,omitempty" validate:"omitempty,len=2"`
	ValidityDays int      `json:"validity_days" validate:"required,min=1,max=3650"`
	DNSNames     []string `json:"dns_names,omitempty" validate:"dive,hostname_rfc1123"`
	URIs         []string `json:"uris,omitempty" validate:"dive,uri"`
}

// IssueCRLRequest is the request body for issuing a CRL.
type IssueCRLRequest struct {
	// Number is the CRL number as decimal string, since it may exceed JSON's integer precision.
	Number     string                   `json:"number" validate:"required,numeric"`
	NextUpdate time.Time                `json:"next_update" validate:"required"`
	Revoked    []pki.RevokedCertificate `json:"revoked" validate:"dive"`
}

var _ core.ErrorWriter = (*Wrapper)(nil)

// Wrapper serves the signing key and PKI administration APIs.
type Wrapper struct {
	Keys keys.Manager
}

// Routes registers the API routes
func (w Wrapper) Routes(router core.EchoRouter) {
	router.POST("/internal/keys/v0", w.GenerateKey, w.preprocess(keysModuleName, "GenerateKey"))
	router.GET("/internal/keys/v0/latest", w.GetLatestKey, w.preprocess(keysModuleName, "GetLatestKey"))
	router.GET("/internal/keys/v0/:kid", w.GetKey, w.preprocess(keysModuleName, "GetKey"))
	router.DELETE("/internal/keys/v0/:kid", w.RevokeKey, w.preprocess(keysModuleName, "RevokeKey"))
	router.PUT("/internal/keys/v0/:kid/chain", w.RegisterChain, w.preprocess(keysModuleName, "RegisterChain"))
	// a chain can be registered once, so it only changes when the key pair is revoked
	router.GET("/internal/keys/v0/:kid/chain", w.GetChain, cache.MaxAge(chainMaxAge), w.preprocess(keysModuleName, "GetChain"))
	router.POST("/internal/keys/v0/:kid/selfsigned", w.IssueSelfSigned, w.preprocess(keysModuleName, "IssueSelfSigned"))
	router.POST("/internal/pki/v0/crl", w.IssueCRL, w.preprocess(pkiModuleName, "IssueCRL"))
}

func (w Wrapper) preprocess(moduleName string, operationID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			httpNuts.Preprocess(ctx, w, moduleName, operationID)
			return next(ctx)
		}
	}
}

func (w Wrapper) Write(echoContext echo.Context, statusCode int, title string, err error) error {
	return httpNuts.WriteAdminProblem(echoContext, statusCode, title, err)
}

// GenerateKey generates a signing key pair, which becomes the latest key.
func (w Wrapper) GenerateKey(ctx echo.Context) error {
	var request GenerateKeyRequest
	if err := httpNuts.BindAndValidate(ctx, &request); err != nil {
		return err
	}
	pair, err := w.Keys.Generate(ctx.Request().Context(), request.Curve)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, toKeyPairResponse(*pair))
}

// GetLatestKey returns the public key and certificate chain new credentials are signed with.
func (w Wrapper) GetLatestKey(ctx echo.Context) error {
	key, err := w.Keys.Latest(ctx.Request().Context())
	if err != nil {
		return err
	}
	publicKey, err := jwk.PublicKeyOf(key.Key)
	if err != nil {
		return fmt.Errorf("unable to derive public key: %w", err)
	}
	x5c := []string(key.X5C)
	if x5c == nil {
		x5c = []string{}
	}
	return ctx.JSON(http.StatusOK, LatestKeyResponse{Kid: key.Kid, JWK: publicKey, X5C: x5c})
}

// GetKey returns the key pair with the given kid.
func (w Wrapper) GetKey(ctx echo.Context) error {
	pair, err := w.Keys.Get(ctx.Request().Context(), ctx.Param("kid"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toKeyPairResponse(*pair))
}

// RevokeKey revokes the key pair, so it's no longer used for signing.
func (w Wrapper) RevokeKey(ctx echo.Context) error {
	if err := w.Keys.Revoke(ctx.Request().Context(), ctx.Param("kid")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// RegisterChain registers the certificate chain of a key pair.
// The chain is either a JSON array of base64 DER certificates or a PEM bundle, leaf first.
func (w Wrapper) RegisterChain(ctx echo.Context) error {
	data, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxChainSize+1))
	if err != nil {
		return keys.Error{Code: keys.InvalidParameter, Err: err}
	}
	if len(data) > maxChainSize {
		return keys.Error{Code: keys.InvalidParameter, Err: errors.New("certificate chain too large")}
	}
	var chain pki.Chain
	mediaType, _, _ := mime.ParseMediaType(ctx.Request().Header.Get(echo.HeaderContentType))
	if mediaType == echo.MIMEApplicationJSON {
		chain, err = pki.ParseChain(data)
	} else {
		chain, err = pki.ParseChainPEM(string(data))
	}
	if err != nil {
		return keys.Error{Code: keys.InvalidParameter, Err: err}
	}
	if err = w.Keys.RegisterChain(ctx.Request().Context(), ctx.Param("kid"), chain); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// GetChain returns the registered certificate chain of a key pair as PEM bundle.
func (w Wrapper) GetChain(ctx echo.Context) error {
	bundle, err := w.Keys.CertificateChainPEM(ctx.Request().Context(), ctx.Param("kid"))
	if err != nil {
		return err
	}
	return ctx.Blob(http.StatusOK, MIMEPEMCertificateChain, []byte(bundle))
}

// IssueSelfSigned issues a self-signed certificate for the key pair and registers it as its chain.
func (w Wrapper) IssueSelfSigned(ctx echo.Context) error {
	var request SelfSignedRequest
	if err := httpNuts.BindAndValidate(ctx, &request); err != nil {
		return err
	}
	subject := pkix.Name{CommonName: request.CommonName}
	if request.Organization != "" {
		subject.Organization = []string{request.Organization}
	}
	if request.Country != "" {
		subject.Country = []string{request.Country}
	}
	chain, err := w.Keys.IssueSelfSigned(ctx.Request().Context(), ctx.Param("kid"), keys.SelfSignedRequest{
		Subject:  subject,
		Validity: time.Duration(request.ValidityDays) * 24 * time.Hour,
		DNSNames: request.DNSNames,
		URIs:     request.URIs,
	})
	if err != nil {
		return err
	}
	return ctx.Blob(http.StatusOK, MIMEPEMCertificateChain, []byte(chain.PEM()))
}

// IssueCRL issues a CRL signed by the latest key.
func (w Wrapper) IssueCRL(ctx echo.Context) error {
	var request IssueCRLRequest
	if err := httpNuts.BindAndValidate(ctx, &request); err != nil {
		return err
	}
	number, ok := new(big.Int).SetString(request.Number, 10)
	if !ok {
		return keys.Error{Code: keys.InvalidParameter, Err: fmt.Errorf("invalid CRL number: %s", request.Number)}
	}
	crl, err := w.Keys.IssueCRL(ctx.Request().Context(), keys.CRLRequest{
		Revoked:    request.Revoked,
		Number:     number,
		NextUpdate: request.NextUpdate,
	})
	if err != nil {
		return err
	}
	return ctx.Blob(http.StatusOK, MIMEPEMFile, []byte(crl))
}

func toKeyPairResponse(pair keys.SigningKeyPair) KeyPairResponse {
	return KeyPairResponse{
		Kid:       pair.Kid,
		Kty:       pair.Kty,
		Crv:       pair.Crv,
		X:         pair.X,
		Y:         pair.Y,
		CreatedAt: pair.CreatedAt,
		RevokedAt: pair.RevokedAt,
	}
}
