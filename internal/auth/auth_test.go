package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (m *memRevoker) RevokeToken(_ context.Context, jti string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked == nil {
		m.revoked = make(map[string]time.Time)
	}
	m.revoked[jti] = until
	return nil
}

func (m *memRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

func TestPasswordHashing(t *testing.T) {
	a := NewAuth("secret", time.Hour, nil)

	hash, err := a.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, a.CheckPassword(hash, "correct horse"))
	assert.False(t, a.CheckPassword(hash, "wrong horse"))
	assert.False(t, a.CheckPassword("not-a-hash", "correct horse"))
}

func TestTokenRoundTrip(t *testing.T) {
	a := NewAuth("secret", time.Hour, nil)

	token, err := a.GenerateToken(42, "alice")
	require.NoError(t, err)

	claims, err := a.ParseToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestParseTokenRejects(t *testing.T) {
	a := NewAuth("secret", time.Hour, nil)
	token, err := a.GenerateToken(1, "bob")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuth("other", time.Hour, nil)
		_, err := other.ParseToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewAuth("secret", time.Hour, nil)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.ParseToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := a.ParseToken(context.Background(), "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 1})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = a.ParseToken(context.Background(), s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	rev := &memRevoker{}
	a := NewAuth("secret", time.Hour, rev)

	token, err := a.GenerateToken(7, "carol")
	require.NoError(t, err)
	claims, err := a.ParseToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, a.Revoke(ctx, claims))
	assert.WithinDuration(t, claims.ExpiresAt.Time, rev.revoked[claims.ID], time.Second)

	_, err = a.ParseToken(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	fresh, err := a.GenerateToken(7, "carol")
	require.NoError(t, err)
	_, err = a.ParseToken(ctx, fresh)
	assert.NoError(t, err)
}
