package franchise

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/vocdoni/franchise-zkproof/pkg/census"
	"github.com/vocdoni/franchise-zkproof/pkg/crypto"
	"github.com/vocdoni/franchise-zkproof/pkg/setup"
)

// ProofFixture holds a serialized proof and its public tuple in hex, for
// external verifier integration tests (e.g. the exported Solidity verifier).
type ProofFixture struct {
	ProofBytes string `json:"proof_bytes"`
	Root       string `json:"root"`
	ProcessID  string `json:"process_id"`
	Nullifier  string `json:"nullifier"`
	VoteValue  string `json:"vote_value"`
}

// ExportProofFixture builds a deterministic census, proves membership for a
// fixed voter, verifies the proof, and returns the fixture as indented JSON.
// keysDir must contain keys exported by setup.ExportKeys for the "franchise"
// circuit at ParamsSmall depth.
func ExportProofFixture(keysDir string) ([]byte, error) {
	params := ParamsSmall

	ccs, err := Compile(params)
	if err != nil {
		return nil, err
	}

	pk, vk, err := setup.LoadKeys(keysDir, "franchise")
	if err != nil {
		return nil, fmt.Errorf("load keys: %w", err)
	}

	// Deterministic census: 32 voters, the fixture voter at leaf index 5.
	secretKey := big.NewInt(8)
	tree, err := census.NewTree(params.Depth)
	if err != nil {
		return nil, err
	}
	for i := 0; i < 32; i++ {
		var commitment *big.Int
		if i == 5 {
			commitment = crypto.DeriveCommitment(secretKey)
		} else {
			commitment = crypto.DeriveCommitment(big.NewInt(int64(1000 + i)))
		}
		if _, err := tree.Add(commitment); err != nil {
			return nil, fmt.Errorf("add voter %d: %w", i, err)
		}
	}

	siblings, bits, err := tree.Witness(5)
	if err != nil {
		return nil, fmt.Errorf("membership witness: %w", err)
	}

	processID := big.NewInt(42)
	voteValue := big.NewInt(1)

	assignment, err := BuildAssignment(params, secretKey, processID, voteValue, tree.Root(), siblings, bits)
	if err != nil {
		return nil, fmt.Errorf("build assignment: %w", err)
	}

	proof, err := Prove(ccs, pk, assignment)
	if err != nil {
		return nil, err
	}
	if !Verify(vk, proof) {
		return nil, fmt.Errorf("fixture proof did not verify")
	}

	proofBytes, err := proof.Bytes()
	if err != nil {
		return nil, err
	}

	fixture := ProofFixture{
		ProofBytes: fmt.Sprintf("0x%x", proofBytes),
		Root:       fmt.Sprintf("0x%064x", proof.Public.Root),
		ProcessID:  fmt.Sprintf("0x%064x", proof.Public.ProcessID),
		Nullifier:  fmt.Sprintf("0x%064x", proof.Public.Nullifier),
		VoteValue:  fmt.Sprintf("0x%064x", proof.Public.VoteValue),
	}

	jsonOut, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal fixture: %w", err)
	}
	return jsonOut, nil
}
