package amm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ammEngine/internal/ledger"
)

func TestDerivePoolAddressIgnoresOrder(t *testing.T) {
	a, b := newKey(t), newKey(t)
	ab, nonceAB, err := DerivePoolAddress(testProgram, a, b)
	require.NoError(t, err)
	ba, nonceBA, err := DerivePoolAddress(testProgram, b, a)
	require.NoError(t, err)
	require.Equal(t, ab, ba)
	require.Equal(t, nonceAB, nonceBA)

	other, _, err := DerivePoolAddress(testProgram, a, newKey(t))
	require.NoError(t, err)
	require.NotEqual(t, ab, other)
}

func TestPoolAuthorityMatchesDerivedAddress(t *testing.T) {
	a, b := newKey(t), newKey(t)
	addr, nonce, err := DerivePoolAddress(testProgram, a, b)
	require.NoError(t, err)

	auth := ledger.NewPoolAuthority(testProgram, PoolSeeds(b, a), nonce)
	key, err := auth.Key()
	require.NoError(t, err)
	require.Equal(t, addr, key)
}
