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
	"fmt"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// TestActor is the actor of TestContext.
const TestActor = "test-actor"

// TestContext returns a context with audit info, for use in tests of operations that log audit events.
func TestContext() context.Context {
	return Context(context.Background(), TestActor, "TestModule", "TestOperation")
}

// ContextWithAuditInfo returns a gomock matcher that matches contexts containing audit info.
func ContextWithAuditInfo() gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		ctx, ok := x.(context.Context)
		return ok && InfoFromContext(ctx) != nil
	})
}

// AssertAuditInfo asserts the request context of the echo.Context contains the given audit info.
func AssertAuditInfo(t *testing.T, ctx echo.Context, actor, module, operation string) {
	t.Helper()
	info := InfoFromContext(ctx.Request().Context())
	require.NotNil(t, info)
	assert.Equal(t, actor, info.Actor)
	assert.Equal(t, module+"."+operation, info.Operation)
}

// CapturedLog holds the audit log entries captured during a test.
type CapturedLog struct {
	hook *test.Hook
}

// Events returns the names of all captured audit events, in order.
func (c *CapturedLog) Events() []string {
	var result []string
	for _, entry := range c.hook.AllEntries() {
		if name, ok := entry.Data["event"].(string); ok {
			result = append(result, name)
		}
	}
	return result
}

// AssertContains asserts an audit event with the given module, actor and message was logged on the audit level.
func (c *CapturedLog) AssertContains(t *testing.T, module string, event string, actor string, message string) {
	t.Helper()
	var found []string
	for _, entry := range c.hook.AllEntries() {
		found = append(found, fmt.Sprintf("%s (%v)", entry.Message, entry.Data))
		if entry.Data["module"] != module || entry.Data["event"] != event || entry.Data["actor"] != actor || entry.Message != message {
			continue
		}
		formatted, err := auditFormatter{}.Format(entry)
		require.NoError(t, err)
		if !bytes.Contains(formatted, []byte("level="+auditLevel)) && !bytes.Contains(formatted, []byte(`"level":"`+auditLevel+`"`)) {
			t.Error("audit event is not logged on the audit level")
		}
		return
	}
	t.Errorf("audit log doesn't contain event=%s module=%s actor=%s message=%q, found: %v", event, module, actor, message, found)
}

// CaptureLogs captures the audit log entries until the test ends.
func CaptureLogs(t *testing.T) *CapturedLog {
	logger := auditLogger()
	previous := logger.Hooks
	t.Cleanup(func() {
		logger.ReplaceHooks(previous)
	})
	hooks := make(logrus.LevelHooks)
	for level, levelHooks := range previous {
		hooks[level] = append([]logrus.Hook{}, levelHooks...)
	}
	logger.ReplaceHooks(hooks)

	hook := &test.Hook{}
	logger.AddHook(hook)
	return &CapturedLog{hook: hook}
}
