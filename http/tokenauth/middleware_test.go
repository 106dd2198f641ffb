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
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nuts-foundation/nuts-vci/audit"
	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

const testAudience = "https://issuer.example.com"
const testUser = "admin@issuer.example.com"

type testKey struct {
	private        jwk.Key
	authorizedKeys []byte
}

func newTestKey(t *testing.T, raw interface{}, public interface{}) testKey {
	sshKey, err := ssh.NewPublicKey(public)
	require.NoError(t, err)
	private, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	require.NoError(t, private.Set(jwk.KeyIDKey, ssh.FingerprintSHA256(sshKey)))
	line := strings.TrimSuffix(string(ssh.MarshalAuthorizedKey(sshKey)), "\n") + " " + testUser + "\n"
	return testKey{private: private, authorizedKeys: []byte(line)}
}

func newECKey(t *testing.T) testKey {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return newTestKey(t, key, key.Public())
}

func newEd25519Key(t *testing.T) testKey {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return newTestKey(t, priv, pub)
}

func (k testKey) sign(t *testing.T, alg jwa.SignatureAlgorithm, modify func(builder *jwt.Builder)) string {
	now := time.Now()
	builder := jwt.NewBuilder().
		Audience([]string{testAudience}).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(time.Hour))
	if modify != nil {
		modify(builder)
	}
	token, err := builder.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(token, jwt.WithKey(alg, k.private))
	require.NoError(t, err)
	return string(signed)
}

func invoke(t *testing.T, m Middleware, authorization string) (*httptest.ResponseRecorder, echo.Context, error) {
	e := echo.New()
	request := httptest.NewRequest(http.MethodPost, "/internal/keys/v0", nil)
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	ctx := e.NewContext(request, recorder)
	err := m.Handler(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})(ctx)
	return recorder, ctx, err
}

func requireUnauthorized(t *testing.T, err error) {
	t.Helper()
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestMiddleware_Handler(t *testing.T) {
	key := newECKey(t)
	m, err := New(nil, testAudience, key.authorizedKeys)
	require.NoError(t, err)

	t.Run("ok", func(t *testing.T) {
		logs := audit.CaptureLogs(t)

		recorder, ctx, err := invoke(t, m, "Bearer "+key.sign(t, jwa.ES256, nil))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, testUser, ctx.Get(core.UserContextKey))
		logs.AssertContains(t, "HTTP", audit.AccessGrantedEvent, testUser, "Access granted (key="+testUser+")")
	})
	t.Run("ok - Ed25519 key, lowercase scheme", func(t *testing.T) {
		edKey := newEd25519Key(t)
		m, err := New(nil, testAudience, edKey.authorizedKeys)
		require.NoError(t, err)

		_, _, err = invoke(t, m, "bearer "+edKey.sign(t, jwa.EdDSA, nil))

		require.NoError(t, err)
	})
	t.Run("subject is used as user", func(t *testing.T) {
		token := key.sign(t, jwa.ES256, func(builder *jwt.Builder) {
			builder.Subject("alice")
		})

		_, ctx, err := invoke(t, m, "Bearer "+token)

		require.NoError(t, err)
		assert.Equal(t, "alice", ctx.Get(core.UserContextKey))
	})
	t.Run("skipped", func(t *testing.T) {
		m, err := New(func(echo.Context) bool { return true }, testAudience, key.authorizedKeys)
		require.NoError(t, err)

		recorder, _, err := invoke(t, m, "")

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
	t.Run("missing credential", func(t *testing.T) {
		logs := audit.CaptureLogs(t)

		_, ctx, err := invoke(t, m, "")

		requireUnauthorized(t, err)
		assert.Equal(t, "", ctx.Get(core.UserContextKey))
		assert.Contains(t, logs.Events(), audit.AccessDeniedEvent)
	})
	t.Run("wrong scheme", func(t *testing.T) {
		_, _, err := invoke(t, m, "Basic "+key.sign(t, jwa.ES256, nil))

		requireUnauthorized(t, err)
	})
	t.Run("signed by unknown key", func(t *testing.T) {
		other := newECKey(t)

		_, _, err := invoke(t, m, "Bearer "+other.sign(t, jwa.ES256, nil))

		requireUnauthorized(t, err)
		assert.ErrorContains(t, err, "credential not signed by an authorized key")
	})
	t.Run("wrong audience", func(t *testing.T) {
		token := key.sign(t, jwa.ES256, func(builder *jwt.Builder) {
			builder.Audience([]string{"https://other.example.com"})
		})

		_, _, err := invoke(t, m, "Bearer "+token)

		requireUnauthorized(t, err)
		assert.ErrorContains(t, err, "invalid token")
	})
	t.Run("expired", func(t *testing.T) {
		token := key.sign(t, jwa.ES256, func(builder *jwt.Builder) {
			past := time.Now().Add(-2 * time.Hour)
			builder.IssuedAt(past).NotBefore(past).Expiration(past.Add(time.Hour))
		})

		_, _, err := invoke(t, m, "Bearer "+token)

		requireUnauthorized(t, err)
	})
	t.Run("lifetime too long", func(t *testing.T) {
		token := key.sign(t, jwa.ES256, func(builder *jwt.Builder) {
			builder.Expiration(time.Now().Add(48 * time.Hour))
		})

		_, _, err := invoke(t, m, "Bearer "+token)

		requireUnauthorized(t, err)
		assert.ErrorContains(t, err, "token expires too long after nbf")
	})
	t.Run("insecure algorithm", func(t *testing.T) {
		rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		k := newTestKey(t, rsaKey, rsaKey.Public())
		m, err := New(nil, testAudience, k.authorizedKeys)
		require.NoError(t, err)

		_, _, err = invoke(t, m, "Bearer "+k.sign(t, jwa.RS256, nil))

		requireUnauthorized(t, err)
		assert.ErrorContains(t, err, "signing algorithm RS256 is not permitted")
	})
}

func TestBestPracticesCheck(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	build := func(modify func(builder *jwt.Builder)) jwt.Token {
		builder := jwt.NewBuilder().IssuedAt(now).NotBefore(now).Expiration(now.Add(time.Hour))
		if modify != nil {
			modify(builder)
		}
		token, err := builder.Build()
		require.NoError(t, err)
		return token
	}

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, bestPracticesCheck(build(nil)))
	})
	t.Run("missing nbf", func(t *testing.T) {
		token := build(nil)
		require.NoError(t, token.Remove(jwt.NotBeforeKey))

		assert.EqualError(t, bestPracticesCheck(token), "missing field: nbf")
	})
	t.Run("iat after nbf", func(t *testing.T) {
		token := build(func(builder *jwt.Builder) {
			builder.IssuedAt(now.Add(time.Minute))
		})

		assert.EqualError(t, bestPracticesCheck(token), "token nbf occurs before iat")
	})
	t.Run("exp too long after iat", func(t *testing.T) {
		token := build(func(builder *jwt.Builder) {
			builder.IssuedAt(now.Add(-24 * time.Hour)).NotBefore(now).Expiration(now.Add(2 * time.Hour))
		})

		assert.EqualError(t, bestPracticesCheck(token), "token expires too long after iat")
	})
}

func TestCredentialIsSecure(t *testing.T) {
	t.Run("too long", func(t *testing.T) {
		credential := make([]byte, MaximumCredentialLength+1)

		assert.EqualError(t, credentialIsSecure(string(credential)), "credential is too long")
	})
	t.Run("not a JWS", func(t *testing.T) {
		assert.ErrorContains(t, credentialIsSecure("not-a-jws"), "cannot parse credential")
	})
}

func TestParseAuthorizedKeys(t *testing.T) {
	t.Run("comments and blank lines", func(t *testing.T) {
		key := newECKey(t)
		contents := append([]byte("# admins\n\n"), key.authorizedKeys...)

		keys, err := parseAuthorizedKeys(contents)

		require.NoError(t, err)
		require.Len(t, keys, 1)
		assert.Equal(t, testUser, keys[0].Comment)
		assert.Equal(t, key.private.KeyID(), keys[0].JWK.KeyID())
	})
	t.Run("small RSA key is skipped", func(t *testing.T) {
		rsaKey, err := rsa.GenerateKey(rand.Reader, 1024)
		require.NoError(t, err)
		key := newTestKey(t, rsaKey, rsaKey.Public())

		keys, err := parseAuthorizedKeys(key.authorizedKeys)

		require.NoError(t, err)
		assert.Empty(t, keys)
	})
	t.Run("unparseable", func(t *testing.T) {
		_, err := parseAuthorizedKeys([]byte("ssh-ed25519 garbage"))

		assert.ErrorContains(t, err, "unparseable line")
	})
	t.Run("String", func(t *testing.T) {
		key := newEd25519Key(t)

		keys, err := parseAuthorizedKeys(key.authorizedKeys)

		require.NoError(t, err)
		assert.Equal(t, string(key.authorizedKeys[:len(key.authorizedKeys)-1]), keys[0].String())
	})
}

func TestNewFromFile(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "authorized_keys")
		require.NoError(t, os.WriteFile(path, newECKey(t).authorizedKeys, 0600))

		m, err := NewFromFile(nil, testAudience, path)

		require.NoError(t, err)
		assert.NotNil(t, m)
	})
	t.Run("file does not exist", func(t *testing.T) {
		_, err := NewFromFile(nil, testAudience, filepath.Join(t.TempDir(), "missing"))

		assert.ErrorContains(t, err, "cannot read")
	})
}
