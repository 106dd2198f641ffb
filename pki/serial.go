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

package pki

import (
	"crypto/rand"
	"math/big"
)

const serialNumberSize = 20

// PositiveSerialNumber returns a random 20 byte serial number. It's resampled until the most significant bit is 0,
// so the DER encoding is positive and doesn't exceed 20 octets (RFC 5280, section 4.1.2.2).
func PositiveSerialNumber() *big.Int {
	buf := make([]byte, serialNumberSize)
	for {
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}
		if buf[0]&0x80 == 0 && !allZero(buf) {
			return new(big.Int).SetBytes(buf)
		}
	}
}

func allZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
