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

package core

const (
	// LogFieldModule is the log field for the module name.
	LogFieldModule = "module"
	// LogFieldOperation is the log field for the name of the API operation being called.
	LogFieldOperation = "operation"
	// LogFieldUser is the log field for the administrator that called an internal API.
	LogFieldUser = "user"

	// LogFieldCredentialType is the log field key for the type of an issued credential.
	LogFieldCredentialType = "credentialType"
	// LogFieldCredentialIssuer is the log field key for the issuer of an issued credential.
	LogFieldCredentialIssuer = "credentialIssuer"
	// LogFieldCredentialFormat is the log field key for the format (jwt_vc_json, vc+sd-jwt) of an issued credential.
	LogFieldCredentialFormat = "credentialFormat"

	// LogFieldKeyID is the log field key for the kid of a signing key.
	LogFieldKeyID = "keyID"

	// LogFieldStore is the log field key for the name of a store managed by the storage module.
	LogFieldStore = "store"
	// LogFieldDatabase is the log field key for the SQL database type (sqlite, postgres, mysql, sqlserver).
	LogFieldDatabase = "database"
)
