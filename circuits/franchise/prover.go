package franchise

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"

	"github.com/vocdoni/franchise-zkproof/pkg/setup"
)

// Proof is a non-interactive argument of census membership plus the public
// tuple it was produced for. It is immutable once produced; any change to
// the proof bytes or to a public input makes verification fail.
type Proof struct {
	Proof  plonk.Proof
	Public PublicInputs
}

// Compile compiles the franchise circuit shape for the given parameters into
// the backend's constraint representation. The result is deterministic in
// the parameters and safe to share across concurrent Prove/Verify calls.
func Compile(params Params) (constraint.ConstraintSystem, error) {
	circuit, err := NewCircuit(params)
	if err != nil {
		return nil, err
	}
	return setup.CompileCircuit(circuit)
}

// Prove generates a proof for the given assignment. It fails if the
// assignment does not satisfy the constraint system (wrong secret key, stale
// witness against a since-updated root, wrong process id); no partial proof
// is ever returned. The proving key is read-only and may be shared across
// concurrent calls.
func Prove(ccs constraint.ConstraintSystem, pk plonk.ProvingKey, assignment *Assignment) (*Proof, error) {
	witness, err := frontend.NewWitness(&assignment.Circuit, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("create witness: %w", err)
	}

	proof, err := plonk.Prove(ccs, pk, witness)
	if err != nil {
		return nil, fmt.Errorf("prove: %w", err)
	}

	return &Proof{Proof: proof, Public: assignment.Public}, nil
}

// Verify checks a proof against its public tuple. It returns false for any
// tampered proof, mismatched public input, or proof generated for a
// different circuit shape; it never panics on malformed input and does not
// report which check failed.
func Verify(vk plonk.VerifyingKey, proof *Proof) bool {
	if proof == nil || proof.Proof == nil {
		return false
	}

	public := FranchiseCircuit{
		Root:      proof.Public.Root,
		ProcessID: proof.Public.ProcessID,
		Nullifier: proof.Public.Nullifier,
		VoteValue: proof.Public.VoteValue,
	}
	publicWitness, err := frontend.NewWitness(&public, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false
	}

	return plonk.Verify(proof.Proof, vk, publicWitness) == nil
}

// Bytes serializes the proof as a fixed-layout byte sequence: the four
// public inputs as canonical 32-byte big-endian field elements, followed by
// the backend proof encoding.
func (p *Proof) Bytes() ([]byte, error) {
	head, err := p.Public.Bytes()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(head)
	if _, err := p.Proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize proof: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseProof deserializes a proof produced by Bytes. Malformed encodings are
// rejected; verification of the parsed proof is the caller's job.
func ParseProof(data []byte) (*Proof, error) {
	public, rest, err := ParsePublicInputs(data)
	if err != nil {
		return nil, fmt.Errorf("parse public inputs: %w", err)
	}

	backendProof := plonk.NewProof(ecc.BN254)
	if _, err := backendProof.ReadFrom(bytes.NewReader(rest)); err != nil {
		return nil, fmt.Errorf("parse proof: %w", err)
	}

	return &Proof{Proof: backendProof, Public: *public}, nil
}
