package franchise_test

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"

	"github.com/vocdoni/franchise-zkproof/circuits/franchise"
	"github.com/vocdoni/franchise-zkproof/pkg/crypto"
)

// rawAssignment builds a circuit assignment directly, bypassing
// BuildAssignment, so constraint behavior can be probed with values the
// builder would reject.
func rawAssignment(secretKey, processID, nullifier, root, voteValue *big.Int, siblings []*big.Int, bits []int) *franchise.FranchiseCircuit {
	c := &franchise.FranchiseCircuit{
		Root:      root,
		ProcessID: processID,
		Nullifier: nullifier,
		VoteValue: voteValue,
		SecretKey: secretKey,
		Siblings:  make([]frontend.Variable, len(siblings)),
		PathBits:  make([]frontend.Variable, len(bits)),
	}
	for i := range siblings {
		c.Siblings[i] = siblings[i]
		c.PathBits[i] = bits[i]
	}
	return c
}

// pathToRoot computes the root for a synthetic witness, mirroring the
// census tree convention natively.
func pathToRoot(leaf *big.Int, siblings []*big.Int, bits []int) *big.Int {
	current := leaf
	for i := range siblings {
		if bits[i] == 0 {
			current = crypto.HashPair(current, siblings[i])
		} else {
			current = crypto.HashPair(siblings[i], current)
		}
	}
	return current
}

// syntheticWitness builds a depth-length witness with alternating directions
// and deterministic sibling values, like the original franchise test data.
func syntheticWitness(depth int) ([]*big.Int, []int) {
	siblings := make([]*big.Int, depth)
	bits := make([]int, depth)
	for i := 0; i < depth; i++ {
		siblings[i] = big.NewInt(int64(100 + i))
		bits[i] = i % 2
	}
	return siblings, bits
}

func TestCircuitSolvesHonestAssignment(t *testing.T) {
	assert := test.NewAssert(t)
	const depth = 5

	secretKey := big.NewInt(8)
	processID := big.NewInt(42)
	siblings, bits := syntheticWitness(depth)
	root := pathToRoot(crypto.DeriveCommitment(secretKey), siblings, bits)
	nullifier := crypto.DeriveNullifier(secretKey, processID)

	circuit, err := franchise.NewCircuit(franchise.Params{Depth: depth})
	assert.NoError(err)

	assignment := rawAssignment(secretKey, processID, nullifier, root, big.NewInt(1), siblings, bits)
	assert.NoError(test.IsSolved(circuit, assignment, ecc.BN254.ScalarField()))
}

func TestCircuitRejectsWrongRoot(t *testing.T) {
	assert := test.NewAssert(t)
	const depth = 5

	secretKey := big.NewInt(8)
	processID := big.NewInt(42)
	siblings, bits := syntheticWitness(depth)
	root := pathToRoot(crypto.DeriveCommitment(secretKey), siblings, bits)
	nullifier := crypto.DeriveNullifier(secretKey, processID)

	circuit, err := franchise.NewCircuit(franchise.Params{Depth: depth})
	assert.NoError(err)

	badRoot := new(big.Int).Add(root, big.NewInt(1))
	assignment := rawAssignment(secretKey, processID, nullifier, badRoot, big.NewInt(1), siblings, bits)
	assert.Error(test.IsSolved(circuit, assignment, ecc.BN254.ScalarField()))
}

func TestCircuitRejectsForgedNullifier(t *testing.T) {
	assert := test.NewAssert(t)
	const depth = 5

	secretKey := big.NewInt(8)
	processID := big.NewInt(42)
	siblings, bits := syntheticWitness(depth)
	root := pathToRoot(crypto.DeriveCommitment(secretKey), siblings, bits)

	circuit, err := franchise.NewCircuit(franchise.Params{Depth: depth})
	assert.NoError(err)

	// A nullifier the prover merely asserts, not derived from sk.
	forged := big.NewInt(12345)
	assignment := rawAssignment(secretKey, processID, forged, root, big.NewInt(1), siblings, bits)
	assert.Error(test.IsSolved(circuit, assignment, ecc.BN254.ScalarField()))
}

func TestCircuitRejectsWrongSecretKey(t *testing.T) {
	assert := test.NewAssert(t)
	const depth = 5

	secretKey := big.NewInt(8)
	processID := big.NewInt(42)
	siblings, bits := syntheticWitness(depth)
	root := pathToRoot(crypto.DeriveCommitment(secretKey), siblings, bits)

	circuit, err := franchise.NewCircuit(franchise.Params{Depth: depth})
	assert.NoError(err)

	// Another key with the first voter's witness: leaf no longer matches.
	otherKey := big.NewInt(9)
	nullifier := crypto.DeriveNullifier(otherKey, processID)
	assignment := rawAssignment(otherKey, processID, nullifier, root, big.NewInt(1), siblings, bits)
	assert.Error(test.IsSolved(circuit, assignment, ecc.BN254.ScalarField()))
}

func TestCircuitRejectsNonBooleanPathBit(t *testing.T) {
	assert := test.NewAssert(t)
	const depth = 5

	secretKey := big.NewInt(8)
	processID := big.NewInt(42)
	siblings, bits := syntheticWitness(depth)
	root := pathToRoot(crypto.DeriveCommitment(secretKey), siblings, bits)
	nullifier := crypto.DeriveNullifier(secretKey, processID)

	circuit, err := franchise.NewCircuit(franchise.Params{Depth: depth})
	assert.NoError(err)

	assignment := rawAssignment(secretKey, processID, nullifier, root, big.NewInt(1), siblings, bits)
	assignment.PathBits[2] = 2
	assert.Error(test.IsSolved(circuit, assignment, ecc.BN254.ScalarField()))
}

func TestCircuitRejectsZeroSecretKey(t *testing.T) {
	assert := test.NewAssert(t)
	const depth = 5

	processID := big.NewInt(42)
	siblings, bits := syntheticWitness(depth)
	zero := big.NewInt(0)
	root := pathToRoot(crypto.DeriveCommitment(zero), siblings, bits)
	nullifier := crypto.DeriveNullifier(zero, processID)

	circuit, err := franchise.NewCircuit(franchise.Params{Depth: depth})
	assert.NoError(err)

	assignment := rawAssignment(zero, processID, nullifier, root, big.NewInt(1), siblings, bits)
	assert.Error(test.IsSolved(circuit, assignment, ecc.BN254.ScalarField()))
}
