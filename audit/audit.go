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

package audit

import (
	"bytes"
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// KeyGeneratedEvent occurs when a new signing key pair was generated.
	KeyGeneratedEvent = "KeyGenerated"
	// KeyRevokedEvent occurs when a signing key pair was revoked.
	KeyRevokedEvent = "KeyRevoked"
	// CertificateChainRegisteredEvent occurs when a certificate chain was registered for a signing key pair.
	CertificateChainRegisteredEvent = "CertificateChainRegistered"
	// CRLIssuedEvent occurs when a certificate revocation list was issued.
	CRLIssuedEvent = "CRLIssued"
	// CredentialOfferCreatedEvent occurs when a pre-authorized credential offer was created.
	CredentialOfferCreatedEvent = "CredentialOfferCreated"
	// AccessTokenIssuedEvent occurs when a pre-authorized code was exchanged for an access token.
	AccessTokenIssuedEvent = "AccessTokenIssued"
	// CredentialIssuedEvent occurs when a credential was issued to a wallet.
	CredentialIssuedEvent = "CredentialIssued"
	// AccessGrantedEvent occurs when an administrator was authenticated on the internal API.
	AccessGrantedEvent = "AccessGranted"
	// AccessDeniedEvent occurs when a request to the internal API was rejected because of a missing or invalid token.
	AccessDeniedEvent = "AccessDenied"
)

const auditLevel = "audit"

type auditContextKey struct{}

// Info contains contextual information about the invoker of an operation, which is used when logging audit events.
type Info struct {
	// Actor is the party that invoked the operation.
	Actor string
	// Operation is the module and operation that was invoked, e.g. keys.Generate.
	Operation string
}

var auditLoggerInstance *logrus.Logger
var initAuditLoggerOnce = &sync.Once{}

// auditLogger returns the logger for audit events. It shares the formatter and output of the standard logger,
// but always logs regardless of the configured verbosity.
func auditLogger() *logrus.Logger {
	initAuditLoggerOnce.Do(func() {
		auditLoggerInstance = logrus.New()
		auditLoggerInstance.SetOutput(logrus.StandardLogger().Out)
		auditLoggerInstance.SetFormatter(auditFormatter{})
	})
	return auditLoggerInstance
}

// auditFormatter formats entries with the standard logger's formatter and replaces the level with "audit".
type auditFormatter struct{}

func (a auditFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	formatted, err := logrus.StandardLogger().Formatter.Format(entry)
	if err != nil {
		return nil, err
	}
	level := entry.Level.String()
	formatted = bytes.Replace(formatted, []byte("level="+level), []byte("level="+auditLevel), 1)
	formatted = bytes.Replace(formatted, []byte(`"level":"`+level+`"`), []byte(`"level":"`+auditLevel+`"`), 1)
	return formatted, nil
}

// Context returns a child context of the given context, which contains the audit info.
func Context(ctx context.Context, actor, moduleName, operation string) context.Context {
	return context.WithValue(ctx, auditContextKey{}, Info{
		Actor:     actor,
		Operation: moduleName + "." + operation,
	})
}

// InfoFromContext returns the audit info from the context, or nil if it's not present.
func InfoFromContext(ctx context.Context) *Info {
	info, ok := ctx.Value(auditContextKey{}).(Info)
	if !ok {
		return nil
	}
	return &info
}

// Log returns a log entry for the given audit event. The fields of the given logger (e.g. module) are copied.
// It panics when the context does not contain an actor or when no event name is given,
// since audit events must always be attributable.
func Log(ctx context.Context, logger *logrus.Entry, eventName string) *logrus.Entry {
	info := InfoFromContext(ctx)
	if info == nil || info.Actor == "" {
		panic("audit: no actor in context")
	}
	if eventName == "" {
		panic("audit: no event name")
	}
	return auditLogger().
		WithFields(logger.Data).
		WithField("log", auditLevel).
		WithField("actor", info.Actor).
		WithField("operation", info.Operation).
		WithField("event", eventName)
}
