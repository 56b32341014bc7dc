package franchise

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
)

// Poseidon2 parameters over the BN254 scalar field: width 2, 6 full rounds,
// 50 partial rounds. These must match pkg/crypto's native hasher bit-for-bit;
// both sides inherit them from gnark-crypto's BN254 defaults.
const (
	poseidonWidth         = 2
	poseidonFullRounds    = 6
	poseidonPartialRounds = 50
)

// Params fixes the compile-time shape of the franchise circuit. The census
// builder and the prover must share the same value: a drift in depth or in
// the hash/ordering convention makes every honest proof fail, not just
// malicious ones.
type Params struct {
	// Depth is the number of levels between a leaf and the root, i.e. the
	// length of every membership witness. A census holds up to 2^Depth
	// voters; larger censuses are a configuration error, smaller ones are
	// padded with zero leaves by the census tree.
	Depth int
}

// Supported census depths. Each depth is a distinct circuit shape with its
// own proving and verifying keys.
var (
	ParamsSmall = Params{Depth: 9}
	ParamsLarge = Params{Depth: 21}
)

// Validate rejects parameter values the circuit cannot be compiled for.
func (p Params) Validate() error {
	if p.Depth < 1 {
		return fmt.Errorf("census depth must be at least 1, got %d", p.Depth)
	}
	if p.Depth > 32 {
		return fmt.Errorf("census depth %d exceeds the supported maximum of 32", p.Depth)
	}
	return nil
}

// NewCircuit returns an unassigned circuit shape for the given parameters,
// ready to be passed to frontend.Compile. The slice lengths fix the witness
// shape: an assignment with a different number of siblings is rejected
// before any proving attempt.
func NewCircuit(params Params) (*FranchiseCircuit, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &FranchiseCircuit{
		Siblings: make([]frontend.Variable, params.Depth),
		PathBits: make([]frontend.Variable, params.Depth),
	}, nil
}
