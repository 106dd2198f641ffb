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

package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestAdapter(startErr error) *echoAdapter {
	return &echoAdapter{Echo: echo.New(), startFn: func(_ string) error {
		return startErr
	}}
}

func TestMultiEcho_Bind(t *testing.T) {
	creator := func() (EchoServer, error) {
		return newTestAdapter(nil), nil
	}
	t.Run("same address shares interface", func(t *testing.T) {
		m := NewMultiEcho()
		require.NoError(t, m.Bind(RootPath, ":8080", creator))
		require.NoError(t, m.Bind("internal", ":8080", creator))

		assert.Len(t, m.interfaces, 1)
		assert.Same(t, m.getInterface("/"), m.getInterface("/internal/keys/v0"))
	})
	t.Run("different address", func(t *testing.T) {
		m := NewMultiEcho()
		require.NoError(t, m.Bind(RootPath, ":8080", creator))
		require.NoError(t, m.Bind("/internal", ":8081", creator))

		assert.Len(t, m.interfaces, 2)
		assert.Equal(t, ":8081", m.getAddressForPath("/Internal/issuer/v0/offer"))
		assert.Equal(t, ":8080", m.getAddressForPath("/token"))
		assert.Equal(t, ":8080", m.getAddressForPath("/"))
	})
	t.Run("bind twice", func(t *testing.T) {
		m := NewMultiEcho()
		require.NoError(t, m.Bind("internal", ":8080", creator))

		err := m.Bind("/internal/", ":8081", creator)

		assert.EqualError(t, err, "http bind already exists: /internal")
	})
	t.Run("subpath", func(t *testing.T) {
		err := NewMultiEcho().Bind("internal/keys", ":8080", creator)

		assert.EqualError(t, err, "bind can't contain subpaths: internal/keys")
	})
	t.Run("empty address", func(t *testing.T) {
		err := NewMultiEcho().Bind(RootPath, "", creator)

		assert.EqualError(t, err, "empty address")
	})
	t.Run("creator fails", func(t *testing.T) {
		m := NewMultiEcho()

		err := m.Bind(RootPath, ":8080", func() (EchoServer, error) {
			return nil, errors.New("failed")
		})

		assert.EqualError(t, err, "failed")
		assert.Empty(t, m.binds)
	})
}

func TestMultiEcho_Routes(t *testing.T) {
	root := newTestAdapter(nil)
	internal := newTestAdapter(nil)
	m := NewMultiEcho()
	require.NoError(t, m.Bind(RootPath, ":8080", func() (EchoServer, error) { return root, nil }))
	require.NoError(t, m.Bind("internal", ":8081", func() (EchoServer, error) { return internal, nil }))
	handler := func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}

	m.POST("/token", handler)
	m.GET("/internal/keys/v0/latest", handler)

	call := func(server *echoAdapter, method, path string) int {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, call(root, http.MethodPost, "/token"))
	assert.Equal(t, http.StatusNotFound, call(internal, http.MethodPost, "/token"))
	assert.Equal(t, http.StatusNoContent, call(internal, http.MethodGet, "/internal/keys/v0/latest"))
	assert.Equal(t, http.StatusNotFound, call(root, http.MethodGet, "/internal/keys/v0/latest"))
}

func TestMultiEcho_Start(t *testing.T) {
	t.Run("error is returned", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		m := NewMultiEcho()
		require.NoError(t, m.Bind(RootPath, ":8080", func() (EchoServer, error) { return newTestAdapter(nil), nil }))
		require.NoError(t, m.Bind("internal", ":8081", func() (EchoServer, error) { return newTestAdapter(errors.New("port in use")), nil }))

		err := m.Start()

		assert.EqualError(t, err, "port in use")
	})
}

func TestMultiEcho_Shutdown(t *testing.T) {
	m := NewMultiEcho()
	require.NoError(t, m.Bind(RootPath, ":8080", func() (EchoServer, error) { return newTestAdapter(nil), nil }))

	assert.NoError(t, m.Shutdown(context.Background()))
}

func Test_bindOf(t *testing.T) {
	assert.Equal(t, "/", bindOf(""))
	assert.Equal(t, "/", bindOf("/"))
	assert.Equal(t, "/token", bindOf("/token"))
	assert.Equal(t, "/internal", bindOf("/INTERNAL/keys/v0"))
	assert.Equal(t, "/internal", bindOf("internal/"))
}
