package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAccountIsDeterministic(t *testing.T) {
	secret := []byte("s3cret")
	a := SignAccount(secret, 42)
	require.Equal(t, a, SignAccount(secret, 42))
	require.Len(t, a, 64)
	require.NotEqual(t, a, SignAccount(secret, 43))
	require.NotEqual(t, a, SignAccount([]byte("other"), 42))
}

func TestVerifyAccount(t *testing.T) {
	secret := []byte("s3cret")
	token := SignAccount(secret, 7)
	require.True(t, VerifyAccount(secret, 7, token))
	require.False(t, VerifyAccount(secret, 8, token))
	require.False(t, VerifyAccount(secret, 7, ""))
	require.False(t, VerifyAccount(secret, 7, token[:63]))
}

func TestSignAccountKnownVector(t *testing.T) {
	require.Equal(t, "f2991b7ce981d0b5adc5e6a0f31acaeb407bfc21354bbcc31a0c43eaffa83d65", SignAccount([]byte("key"), 42))
}
