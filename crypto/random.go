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

package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"strings"
)

// GenerateNonce creates a 256 bit secure random
func GenerateNonce() string {
	return GenerateSecret(256)
}

// GenerateSecret creates a secure random of the given size in bits, base64url encoded without padding.
// It's used for pre-authorized codes and access tokens.
func GenerateSecret(bits int) string {
	buf := make([]byte, bits/8)
	_, err := rand.Read(buf)
	if err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// GenerateNumericPIN creates a random PIN consisting of the given number of decimal digits.
func GenerateNumericPIN(length int) string {
	var sb strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		digit, err := rand.Int(rand.Reader, ten)
		if err != nil {
			panic(err)
		}
		sb.WriteString(digit.String())
	}
	return sb.String()
}
