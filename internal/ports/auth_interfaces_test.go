package ports_test

import (
	"testing"

	redisadapter "github.com/edukit/admin-dashboard/internal/adapters/redis"
	mocks "github.com/edukit/admin-dashboard/internal/mocks/auth"
	"github.com/edukit/admin-dashboard/internal/ports"
)

// This test only verifies that our mocks and adapters conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.Authenticator = (*mocks.MockAuthenticator)(nil)
	var _ ports.SessionStore = (*mocks.MemorySessionStore)(nil)
	var _ ports.SessionStore = (*redisadapter.SessionStore)(nil)
}
