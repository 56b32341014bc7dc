package crypto

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPairDeterministic(t *testing.T) {
	a, b := big.NewInt(3), big.NewInt(5)
	first := HashPair(a, b)
	second := HashPair(a, b)
	require.Zero(t, first.Cmp(second))

	// Order matters: H(a,b) != H(b,a).
	swapped := HashPair(b, a)
	require.NotZero(t, first.Cmp(swapped))
}

func TestHashPairZeroEncoding(t *testing.T) {
	// Zero must hash as a full-width field element, not as empty bytes, so
	// the native hash matches the in-circuit gadget.
	h := HashPair(new(big.Int), new(big.Int))
	require.NotZero(t, h.Sign())
}

func TestDeriveCommitment(t *testing.T) {
	sk := big.NewInt(8)
	require.Zero(t, DeriveCommitment(sk).Cmp(HashPair(sk, sk)))
}

// TestNullifierStability: the nullifier depends only on (sk, processID), not
// on the census the voter happens to be registered in.
func TestNullifierStability(t *testing.T) {
	sk := big.NewInt(8)
	pid := big.NewInt(42)

	first := DeriveNullifier(sk, pid)
	second := DeriveNullifier(sk, pid)
	require.Zero(t, first.Cmp(second))
}

// TestNullifierProcessIndependence: the same key under different process ids
// yields different nullifiers, so votes across processes cannot be linked by
// nullifier equality.
func TestNullifierProcessIndependence(t *testing.T) {
	sk := big.NewInt(8)

	n1 := DeriveNullifier(sk, big.NewInt(42))
	n2 := DeriveNullifier(sk, big.NewInt(43))
	require.NotZero(t, n1.Cmp(n2))
}

func TestNullifierKeySeparation(t *testing.T) {
	pid := big.NewInt(42)

	n1 := DeriveNullifier(big.NewInt(8), pid)
	n2 := DeriveNullifier(big.NewInt(9), pid)
	require.NotZero(t, n1.Cmp(n2))
}

func TestGenerateSecretKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 8; i++ {
		sk, err := GenerateSecretKey()
		require.NoError(t, err)
		require.NotZero(t, sk.Sign())
		require.False(t, seen[sk.String()], "duplicate secret key generated")
		seen[sk.String()] = true
	}
}
