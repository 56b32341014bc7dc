package franchise

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
)

// verifyPath recomputes the census root from a leaf and its membership
// witness, leaf to root. Every path bit is boolean-constrained and selects
// the hashing order at its level:
//
//	bit == 0 → current node is the LEFT child  (sibling on the right)
//	bit == 1 → current node is the RIGHT child (sibling on the left)
//
// The census builder emits witnesses in exactly this convention
// (pkg/census); both sides must stay in lockstep or every honest proof
// fails. The witness length is fixed at compile time by the circuit shape.
func verifyPath(api frontend.API, h hash.FieldHasher, leaf frontend.Variable, siblings, bits []frontend.Variable) frontend.Variable {
	current := leaf
	for i := range siblings {
		api.AssertIsBoolean(bits[i])
		left := api.Select(bits[i], siblings[i], current)
		right := api.Select(bits[i], current, siblings[i])
		current = hashPair(h, left, right)
	}
	return current
}
