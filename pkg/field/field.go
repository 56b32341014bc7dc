// Package field handles the boundary between external byte/integer inputs
// and BN254 scalar field elements. Every value entering a circuit assignment
// must pass through here: malformed or non-reduced encodings are rejected at
// the boundary instead of silently wrapping modulo the prime.
package field

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// ElementSize is the byte width of one field element in the fixed-layout
// big-endian encoding used for public inputs and serialized proofs.
const ElementSize = fr.Bytes

// Modulus returns the BN254 scalar field modulus.
func Modulus() *big.Int {
	return fr.Modulus()
}

// FromBig validates that v is a canonical field element: non-nil,
// non-negative and strictly below the modulus. It returns a defensive copy
// so later caller mutations cannot corrupt an assignment.
func FromBig(v *big.Int) (*big.Int, error) {
	if v == nil {
		return nil, fmt.Errorf("nil value is not a field element")
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s is not a field element", v)
	}
	if v.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("value %s is not reduced modulo the field prime", v)
	}
	return new(big.Int).Set(v), nil
}

// Encode appends the canonical 32-byte big-endian encoding of v to dst and
// returns the extended slice. v must be a valid field element.
func Encode(dst []byte, v *big.Int) ([]byte, error) {
	if _, err := FromBig(v); err != nil {
		return nil, err
	}
	var elem fr.Element
	elem.SetBigInt(v)
	b := elem.Bytes()
	return append(dst, b[:]...), nil
}

// Decode reads one field element from the front of data and returns it along
// with the remaining bytes. Encodings of values at or above the modulus are
// rejected, never reduced.
func Decode(data []byte) (*big.Int, []byte, error) {
	if len(data) < ElementSize {
		return nil, nil, fmt.Errorf("truncated field element: got %d bytes, need %d", len(data), ElementSize)
	}
	var elem fr.Element
	if err := elem.SetBytesCanonical(data[:ElementSize]); err != nil {
		return nil, nil, fmt.Errorf("non-canonical field element encoding: %w", err)
	}
	v := new(big.Int)
	elem.BigInt(v)
	return v, data[ElementSize:], nil
}
