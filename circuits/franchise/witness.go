package franchise

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/vocdoni/franchise-zkproof/pkg/census"
	"github.com/vocdoni/franchise-zkproof/pkg/crypto"
	"github.com/vocdoni/franchise-zkproof/pkg/field"
)

// PublicInputs is the tuple bound into every franchise proof, in circuit
// order.
type PublicInputs struct {
	Root      *big.Int
	ProcessID *big.Int
	Nullifier *big.Int
	VoteValue *big.Int
}

// Bytes returns the fixed-layout serialization of the tuple: four canonical
// 32-byte big-endian field elements, circuit order.
func (pi *PublicInputs) Bytes() ([]byte, error) {
	buf := make([]byte, 0, 4*field.ElementSize)
	var err error
	for _, v := range []*big.Int{pi.Root, pi.ProcessID, pi.Nullifier, pi.VoteValue} {
		if buf, err = field.Encode(buf, v); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// ParsePublicInputs decodes a tuple serialized by Bytes. Trailing bytes are
// returned to the caller (the proof serialization places the backend proof
// after the tuple).
func ParsePublicInputs(data []byte) (*PublicInputs, []byte, error) {
	var pi PublicInputs
	var err error
	for _, dst := range []**big.Int{&pi.Root, &pi.ProcessID, &pi.Nullifier, &pi.VoteValue} {
		if *dst, data, err = field.Decode(data); err != nil {
			return nil, nil, err
		}
	}
	return &pi, data, nil
}

// Assignment is one fully populated proof instance: the circuit values plus
// the public tuple they were derived for. It holds the voter's secret key
// and tree path; produce it, prove with it, then discard it. It must never
// be logged or persisted.
type Assignment struct {
	Circuit FranchiseCircuit
	Public  PublicInputs
}

// BuildAssignment derives a complete circuit assignment from the minimal
// independent inputs: the voter's secret key, the public process id and
// vote value, and the membership witness against the published census root.
//
// Encoding errors (values outside the field, witness length not equal to the
// compiled depth) are rejected here, before any proving attempt. A witness
// that does not hash up to the root is also rejected: proving would only
// fail later with an unsatisfied constraint.
func BuildAssignment(params Params, secretKey, processID, voteValue, root *big.Int, siblings []*big.Int, pathBits []int) (*Assignment, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	sk, err := field.FromBig(secretKey)
	if err != nil {
		return nil, fmt.Errorf("secret key: %w", err)
	}
	if sk.Sign() == 0 {
		return nil, fmt.Errorf("secret key must be non-zero")
	}
	pid, err := field.FromBig(processID)
	if err != nil {
		return nil, fmt.Errorf("process id: %w", err)
	}
	vote, err := field.FromBig(voteValue)
	if err != nil {
		return nil, fmt.Errorf("vote value: %w", err)
	}
	r, err := field.FromBig(root)
	if err != nil {
		return nil, fmt.Errorf("census root: %w", err)
	}

	if len(siblings) != params.Depth || len(pathBits) != params.Depth {
		return nil, fmt.Errorf("witness length mismatch: got %d siblings and %d bits, circuit depth is %d",
			len(siblings), len(pathBits), params.Depth)
	}
	for i, s := range siblings {
		if _, err := field.FromBig(s); err != nil {
			return nil, fmt.Errorf("sibling %d: %w", i, err)
		}
	}

	leaf := crypto.DeriveCommitment(sk)
	if !census.CheckWitness(leaf, r, siblings, pathBits) {
		return nil, fmt.Errorf("membership witness does not hash up to the census root")
	}

	nullifier := crypto.DeriveNullifier(sk, pid)

	assignment := Assignment{
		Public: PublicInputs{
			Root:      r,
			ProcessID: pid,
			Nullifier: nullifier,
			VoteValue: vote,
		},
	}
	assignment.Circuit = FranchiseCircuit{
		Root:      r,
		ProcessID: pid,
		Nullifier: nullifier,
		VoteValue: vote,
		SecretKey: sk,
		Siblings:  make([]frontend.Variable, params.Depth),
		PathBits:  make([]frontend.Variable, params.Depth),
	}
	for i := 0; i < params.Depth; i++ {
		assignment.Circuit.Siblings[i] = siblings[i]
		assignment.Circuit.PathBits[i] = pathBits[i]
	}

	return &assignment, nil
}
