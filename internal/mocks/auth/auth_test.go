package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
	"github.com/edukit/admin-dashboard/internal/ports"
)

func TestMockAuthenticator_SignIn_Defaults(t *testing.T) {
	a := NewMockAuthenticator("secret")
	ctx := context.Background()

	id, tokens, err := a.SignIn(ctx, domainauth.Credentials{Email: "ops@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "admin-1", id.AdminID)
	assert.Equal(t, "ops@example.com", id.Email)
	assert.Equal(t, "access-1", tokens.AccessToken)
	require.Len(t, tokens.Cookies, 1)

	_, tokens2, err := a.SignIn(ctx, domainauth.Credentials{Email: "ops@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "access-2", tokens2.AccessToken)

	_, _, err = a.SignIn(ctx, domainauth.Credentials{Email: "ops@example.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMockAuthenticator_SignOutRecordsTokens(t *testing.T) {
	a := NewMockAuthenticator("x")
	require.NoError(t, a.SignOut(context.Background(), domainauth.Tokens{AccessToken: "t"}))
	require.Len(t, a.SignOuts, 1)
	assert.Equal(t, "t", a.SignOuts[0].AccessToken)
}

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	sess := domainauth.Session{ID: "s1", Email: "ops@example.com", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, sess))
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess.Email, got.Email)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	assert.Error(t, store.Save(ctx, domainauth.Session{}))
}
