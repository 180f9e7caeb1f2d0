package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndValidate(t *testing.T) {
	svc := New("test-signing-key", "voxgate", 5*time.Minute)

	signed, err := svc.Mint("+15551234567", 0.93)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := svc.Validate(signed)
	require.NoError(t, err)

	assert.Equal(t, "+15551234567", claims.Subject)
	assert.Equal(t, "voiceprint", claims.Amr)
	assert.InDelta(t, 0.93, claims.Score, 1e-9)
	assert.Equal(t, "voxgate", claims.Issuer)
}

func TestValidate_WrongKey(t *testing.T) {
	signed, err := New("key-a", "voxgate", 5*time.Minute).Mint("id", 0.9)
	require.NoError(t, err)

	_, err = New("key-b", "voxgate", 5*time.Minute).Validate(signed)
	require.Error(t, err)
}

func TestValidate_Expired(t *testing.T) {
	svc := New("test-signing-key", "voxgate", -time.Minute)

	signed, err := svc.Mint("id", 0.9)
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	require.Error(t, err)
}

func TestValidate_WrongIssuer(t *testing.T) {
	signed, err := New("test-signing-key", "someone-else", 5*time.Minute).Mint("id", 0.9)
	require.NoError(t, err)

	_, err = New("test-signing-key", "voxgate", 5*time.Minute).Validate(signed)
	require.Error(t, err)
}
