package franchise_test

import (
	"encoding/json"
	"testing"

	"github.com/vocdoni/franchise-zkproof/circuits/franchise"
	"github.com/vocdoni/franchise-zkproof/pkg/setup"
)

// TestExportProofFixture generates a deterministic fixture and verifies that
// it round-trips through JSON.
func TestExportProofFixture(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping fixture export in short mode")
	}

	circuit, err := franchise.NewCircuit(franchise.ParamsSmall)
	if err != nil {
		t.Fatalf("new circuit: %v", err)
	}

	tmpDir := t.TempDir()
	if err := setup.DevSetup(circuit, tmpDir, "franchise"); err != nil {
		t.Fatalf("dev setup: %v", err)
	}

	jsonOut, err := franchise.ExportProofFixture(tmpDir)
	if err != nil {
		t.Fatalf("export proof fixture: %v", err)
	}

	var fixture franchise.ProofFixture
	if err := json.Unmarshal(jsonOut, &fixture); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	if fixture.ProofBytes == "" {
		t.Fatal("fixture proof bytes are empty")
	}
	if fixture.Root == "" || fixture.Nullifier == "" {
		t.Fatal("fixture public inputs are empty")
	}

	jsonRoundTrip, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		t.Fatalf("re-marshal fixture: %v", err)
	}
	if string(jsonRoundTrip) != string(jsonOut) {
		t.Fatal("fixture JSON round-trip mismatch")
	}
}
