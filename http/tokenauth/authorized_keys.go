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
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/nuts-foundation/nuts-vci/http/log"
	"golang.org/x/crypto/ssh"
)

// minimumRSAKeySize is the minimum size (in bits) of RSA keys in the authorized_keys file.
const minimumRSAKeySize = 2048

// authorizedKey is an entry of an SSH authorized_keys file.
type authorizedKey struct {
	Key     ssh.PublicKey
	Comment string
	Options []string
	JWK     jwk.Key
}

func (a authorizedKey) String() string {
	encodedOptions := strings.Join(a.Options, ",")
	if encodedOptions != "" {
		encodedOptions += " "
	}
	return fmt.Sprintf("%s%s %s %s", encodedOptions, a.Key.Type(), base64.StdEncoding.EncodeToString(a.Key.Marshal()), a.Comment)
}

// jwkFromSSHKey converts the SSH public key to a JWK. Its kid is the SHA256 fingerprint of the SSH key.
func jwkFromSSHKey(key ssh.PublicKey) (jwk.Key, error) {
	cryptoPublicKey, ok := key.(ssh.CryptoPublicKey)
	if !ok {
		return nil, fmt.Errorf("key (%T) can't be converted to a crypto.PublicKey", key)
	}
	result, err := jwk.FromRaw(cryptoPublicKey.CryptoPublicKey())
	if err != nil {
		return nil, err
	}
	if err := result.Set(jwk.KeyIDKey, ssh.FingerprintSHA256(key)); err != nil {
		return nil, fmt.Errorf("failed to set key id: %w", err)
	}
	return result, nil
}

// parseAuthorizedKeys parses the contents of an SSH authorized_keys file. DSA keys and RSA keys that are too small are skipped.
func parseAuthorizedKeys(contents []byte) ([]authorizedKey, error) {
	var result []authorizedKey
	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.Trim(line, " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		publicKey, comment, options, rest, err := ssh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("unparseable line (%s): %w", line, err)
		}
		if len(rest) > 0 {
			return nil, fmt.Errorf("line not completely parseable: %s: rest=%s", line, string(rest))
		}
		if publicKey.Type() == ssh.KeyAlgoDSA {
			log.Logger().Warnf("Ignoring insecure authorized key: %s", line)
			continue
		}
		publicJWK, err := jwkFromSSHKey(publicKey)
		if err != nil {
			return nil, err
		}
		if err := insecureKey(publicJWK); err != nil {
			log.Logger().WithError(err).Warnf("Ignoring insecure authorized key: %s", line)
			continue
		}
		result = append(result, authorizedKey{
			Key:     publicKey,
			Comment: comment,
			Options: options,
			JWK:     publicJWK,
		})
	}
	return result, nil
}

// insecureKey returns an error if the key is too weak to sign admin tokens.
func insecureKey(key jwk.Key) error {
	if key.KeyType() != jwa.RSA {
		return nil
	}
	var rsaKey rsa.PublicKey
	if err := key.Raw(&rsaKey); err != nil {
		return fmt.Errorf("unable to convert jwk key: %w", err)
	}
	if rsaKey.N.BitLen() < minimumRSAKeySize {
		return errors.New("RSA keys must be at least 2048-bit")
	}
	return nil
}
