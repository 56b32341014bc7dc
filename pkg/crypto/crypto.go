// Package crypto provides the native (out-of-circuit) Poseidon2 primitives
// used to build census trees and witness assignments. Every function here
// mirrors an in-circuit gadget bit-for-bit; the two must never diverge.
package crypto

import (
	"crypto/rand"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
)

// HashPair computes the two-to-one Poseidon2 hash of (left, right). This is
// the node hash at every level of the census tree and the compression used
// for leaf commitments and nullifiers. Inputs are converted to the canonical
// 32-byte fr.Element encoding so that a zero value writes 32 zero bytes,
// matching the circuit, instead of the empty slice big.Int.Bytes() returns.
func HashPair(left, right *big.Int) *big.Int {
	h := poseidon2.NewMerkleDamgardHasher()

	var lFr, rFr fr.Element
	lFr.SetBigInt(left)
	rFr.SetBigInt(right)

	lBytes := lFr.Bytes()
	rBytes := rFr.Bytes()
	h.Write(lBytes[:])
	h.Write(rBytes[:])

	return new(big.Int).SetBytes(h.Sum(nil))
}

// DeriveCommitment computes the census leaf for a voter:
// commitment = H(secretKey, secretKey), matching the circuit's leaf
// derivation.
func DeriveCommitment(secretKey *big.Int) *big.Int {
	return HashPair(secretKey, secretKey)
}

// DeriveNullifier computes nullifier = H(secretKey, processID). The result
// is a deterministic function of the pair: two votes by the same voter in
// the same process collide on it, while different processes yield unlinkable
// values.
func DeriveNullifier(secretKey, processID *big.Int) *big.Int {
	return HashPair(secretKey, processID)
}

// GenerateSecretKey generates a random non-zero BN254 scalar field element.
func GenerateSecretKey() (*big.Int, error) {
	for {
		sk, err := rand.Int(rand.Reader, ecc.BN254.ScalarField())
		if err != nil {
			return nil, err
		}
		if sk.Sign() != 0 {
			return sk, nil
		}
	}
}
