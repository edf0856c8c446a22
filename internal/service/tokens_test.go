package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 24*time.Hour)

	pair, err := issuer.IssuePair(42)
	require.NoError(t, err)

	userID, err := issuer.ParseAccessToken(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	userID, err = issuer.ParseRefreshToken(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenTypeMismatchRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 24*time.Hour)

	pair, err := issuer.IssuePair(42)
	require.NoError(t, err)

	_, err = issuer.ParseAccessToken(pair.Refresh)
	assert.Error(t, err)

	_, err = issuer.ParseRefreshToken(pair.Access)
	assert.Error(t, err)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 24*time.Hour)
	other := NewTokenIssuer("different", time.Hour, 24*time.Hour)

	pair, err := issuer.IssuePair(42)
	require.NoError(t, err)

	_, err = other.ParseAccessToken(pair.Access)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute, 24*time.Hour)

	pair, err := issuer.IssuePair(42)
	require.NoError(t, err)

	_, err = issuer.ParseAccessToken(pair.Access)
	assert.Error(t, err)
}
