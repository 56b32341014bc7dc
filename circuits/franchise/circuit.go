package franchise

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/permutation/poseidon2"
)

// FranchiseCircuit proves that the prover knows a secret key whose commitment
// H(sk, sk) is a leaf of the census Merkle tree with the given public root,
// and that Nullifier = H(sk, ProcessID). The secret key and the tree path
// stay private; the verifier learns only the public tuple
// {Root, ProcessID, Nullifier, VoteValue}.
type FranchiseCircuit struct {
	// Publics
	Root      frontend.Variable `gnark:"root,public"`
	ProcessID frontend.Variable `gnark:"processId,public"`
	Nullifier frontend.Variable `gnark:"nullifier,public"`
	VoteValue frontend.Variable `gnark:"voteValue,public"`

	// Privates
	SecretKey frontend.Variable   `gnark:"secretKey"`
	Siblings  []frontend.Variable `gnark:"siblings"`
	PathBits  []frontend.Variable `gnark:"pathBits"`
}

func (circuit *FranchiseCircuit) Define(api frontend.API) error {
	if len(circuit.Siblings) == 0 || len(circuit.Siblings) != len(circuit.PathBits) {
		return fmt.Errorf("malformed circuit shape: %d siblings, %d path bits",
			len(circuit.Siblings), len(circuit.PathBits))
	}

	p, err := poseidon2.NewPoseidon2FromParameters(api, poseidonWidth, poseidonFullRounds, poseidonPartialRounds)
	if err != nil {
		return err
	}
	hasher := hash.NewMerkleDamgardHasher(api, p, 0)

	// A zero secret key would make the leaf and nullifier trivially
	// recomputable by anyone.
	api.AssertIsEqual(api.IsZero(circuit.SecretKey), 0)

	// 1. Leaf commitment: leaf == H(sk, sk).
	leaf := hashPair(hasher, circuit.SecretKey, circuit.SecretKey)

	// 2. Census membership: the leaf hashes up to the public root.
	root := verifyPath(api, hasher, leaf, circuit.Siblings, circuit.PathBits)
	api.AssertIsEqual(root, circuit.Root)

	// 3. Nullifier derivation: nullifier == H(sk, processId). Constrained,
	// not asserted by the prover, so a matching nullifier implies the same
	// secret key was used.
	nullifier := hashPair(hasher, circuit.SecretKey, circuit.ProcessID)
	api.AssertIsEqual(nullifier, circuit.Nullifier)

	// VoteValue carries no arithmetic constraint. Exposing it as a public
	// input binds the ballot into the proof: altering it after proving
	// invalidates verification.
	_ = circuit.VoteValue

	return nil
}

// hashPair computes the two-to-one Poseidon2 hash used for leaf commitments,
// nullifiers and every census tree node.
func hashPair(h hash.FieldHasher, left, right frontend.Variable) frontend.Variable {
	h.Reset()
	h.Write(left, right)
	return h.Sum()
}
