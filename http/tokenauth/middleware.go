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

package tokenauth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nuts-foundation/nuts-vci/audit"
	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/http/log"
)

// MaximumCredentialLength defines the maximum number of characters in a credential
const MaximumCredentialLength = 4096

// maximumTokenLifetime is the maximum time between iat (or nbf) and exp of a token.
const maximumTokenLifetime = 1470 * time.Minute

const auditModuleName = "HTTP"
const auditOperation = "TokenAuth"

// Middleware authenticates requests using JWT bearer tokens signed by one of the authorized keys.
type Middleware interface {
	Handler(next echo.HandlerFunc) echo.HandlerFunc
}

// New creates the middleware given the contents of an SSH authorized_keys file.
// Requests are authorized when they carry a JWT bearer token for the given audience, signed by one of the keys.
// Requests for which the skipper returns true are passed through.
func New(skipper middleware.Skipper, audience string, authorizedKeys []byte) (Middleware, error) {
	parsed, err := parseAuthorizedKeys(authorizedKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorized keys: %w", err)
	}
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}
	return &middlewareImpl{
		skipper:        skipper,
		audience:       audience,
		authorizedKeys: parsed,
	}, nil
}

// NewFromFile is like New but reads the authorized_keys file at the given path.
func NewFromFile(skipper middleware.Skipper, audience string, authorizedKeysPath string) (Middleware, error) {
	contents, err := os.ReadFile(authorizedKeysPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", authorizedKeysPath, err)
	}
	return New(skipper, audience, contents)
}

type middlewareImpl struct {
	skipper        middleware.Skipper
	audience       string
	authorizedKeys []authorizedKey
}

func (m middlewareImpl) Handler(next echo.HandlerFunc) echo.HandlerFunc {
	return func(context echo.Context) error {
		if m.skipper(context) {
			return next(context)
		}
		credential := authenticationCredential(context)
		if credential == "" {
			return unauthorizedError(context, errors.New("missing/malformed credential"))
		}
		if err := credentialIsSecure(credential); err != nil {
			return unauthorizedError(context, fmt.Errorf("insecure credential: %w", err))
		}
		for _, authorizedKey := range m.authorizedKeys {
			keySet := jwk.NewSet()
			_ = keySet.AddKey(authorizedKey.JWK)
			// Signature only, claims are validated below so their errors can be told apart from a key mismatch.
			token, err := jwt.ParseString(credential,
				jwt.WithKeySet(keySet, jws.WithInferAlgorithmFromKey(true), jws.WithRequireKid(false)),
				jwt.WithValidate(false))
			if err != nil {
				log.Logger().WithError(err).Debugf("Token not signed by authorized key (kid=%s)", authorizedKey.JWK.KeyID())
				continue
			}
			if err := jwt.Validate(token, jwt.WithAudience(m.audience)); err != nil {
				return unauthorizedError(context, fmt.Errorf("invalid token: %w", err))
			}
			if err := bestPracticesCheck(token); err != nil {
				return unauthorizedError(context, fmt.Errorf("insecure credential: %w", err))
			}
			user := authorizedKey.Comment
			if sub := token.Subject(); sub != "" {
				user = sub
			}
			auditContext := audit.Context(context.Request().Context(), user, auditModuleName, auditOperation)
			audit.Log(auditContext, log.Logger(), audit.AccessGrantedEvent).
				Infof("Access granted (key=%s)", authorizedKey.Comment)
			context.Set(core.UserContextKey, user)
			return next(context)
		}
		return unauthorizedError(context, errors.New("credential not signed by an authorized key"))
	}
}

// credentialIsSecure checks the credential's size and signing algorithms. It does not verify the signature.
func credentialIsSecure(credential string) error {
	if len(credential) > MaximumCredentialLength {
		return errors.New("credential is too long")
	}
	message, err := jws.ParseString(credential)
	if err != nil {
		return fmt.Errorf("cannot parse credential: %w", err)
	}
	if len(message.Signatures()) == 0 {
		return errors.New("no signatures found")
	}
	for _, signature := range message.Signatures() {
		algorithm := signature.ProtectedHeaders().Algorithm()
		if !acceptableSignatureAlgorithm(algorithm) {
			return fmt.Errorf("signing algorithm %s is not permitted", algorithm)
		}
	}
	return nil
}

// bestPracticesCheck requires iat, exp and nbf, and limits the lifetime of the token.
func bestPracticesCheck(token jwt.Token) error {
	for _, claim := range []string{jwt.IssuedAtKey, jwt.ExpirationKey, jwt.NotBeforeKey} {
		if _, ok := token.Get(claim); !ok {
			return fmt.Errorf("missing field: %s", claim)
		}
	}
	if token.Expiration().After(token.NotBefore().Add(maximumTokenLifetime)) {
		return errors.New("token expires too long after nbf")
	}
	if token.Expiration().After(token.IssuedAt().Add(maximumTokenLifetime)) {
		return errors.New("token expires too long after iat")
	}
	if token.IssuedAt().After(token.NotBefore()) {
		return errors.New("token nbf occurs before iat")
	}
	return nil
}

// acceptableSignatureAlgorithm allows EC, EdDSA and the strongest RSA algorithms.
// RS512 is allowed since it's the strongest RSA algorithm supported by ssh-agent.
func acceptableSignatureAlgorithm(algorithm jwa.SignatureAlgorithm) bool {
	switch algorithm {
	case jwa.ES256, jwa.ES384, jwa.ES512, jwa.EdDSA, jwa.RS512, jwa.PS512:
		return true
	default:
		return false
	}
}

// authenticationCredential returns the bearer token of the Authorization header, or an empty string.
func authenticationCredential(context echo.Context) string {
	fields := strings.Fields(context.Request().Header.Get("Authorization"))
	if len(fields) != 2 || !strings.EqualFold(fields[0], "bearer") {
		return ""
	}
	return fields[1]
}

func unauthorizedError(context echo.Context, reason error) *echo.HTTPError {
	context.Set(core.UserContextKey, "")
	auditContext := audit.Context(context.Request().Context(), context.RealIP(), auditModuleName, auditOperation)
	audit.Log(auditContext, log.Logger(), audit.AccessDeniedEvent).
		WithError(reason).
		Warn("Access denied")
	return &echo.HTTPError{
		Code:     http.StatusUnauthorized,
		Message:  "Unauthorized",
		Internal: reason,
	}
}
