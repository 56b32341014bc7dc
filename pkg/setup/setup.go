// Package setup turns a circuit shape into proving and verifying keys. The
// franchise circuits use PLONK over BN254 with KZG commitments: the SRS is
// universal (one public ceremony serves every circuit), so key generation is
// a deterministic function of the compiled constraint system and the SRS —
// no per-circuit trusted ceremony exists anywhere in this pipeline.
package setup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/kzg"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/consensys/gnark/test/unsafekzg"
	"github.com/rs/zerolog"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
	Timestamp().Str("pkg", "setup").Logger()

// CompileCircuit compiles a gnark circuit into a PLONK (sparse R1CS)
// constraint system.
func CompileCircuit(circuit frontend.Circuit) (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), scs.NewBuilder, circuit)
	if err != nil {
		return nil, fmt.Errorf("compile circuit: %w", err)
	}
	return ccs, nil
}

// Keys performs the PLONK setup for a compiled circuit over the given SRS.
// The result depends only on the circuit shape and the SRS; it is read-only
// afterwards and safe to share across concurrent Prove/Verify calls.
func Keys(ccs constraint.ConstraintSystem, srs, srsLagrange kzg.SRS) (plonk.ProvingKey, plonk.VerifyingKey, error) {
	pk, vk, err := plonk.Setup(ccs, srs, srsLagrange)
	if err != nil {
		return nil, nil, fmt.Errorf("plonk setup: %w", err)
	}
	return pk, vk, nil
}

// DevSRS generates an in-memory KZG SRS sized for the circuit. The toxic
// waste is known to this process, so the result is for development and tests
// only; production deployments load a ceremony SRS with LoadSRS.
func DevSRS(ccs constraint.ConstraintSystem) (srs, srsLagrange kzg.SRS, err error) {
	log.Warn().Msg("generating unsafe KZG SRS (1-of-1 trust assumption), do not use in production")
	srs, srsLagrange, err = unsafekzg.NewSRS(ccs)
	if err != nil {
		return nil, nil, fmt.Errorf("generate unsafe KZG SRS: %w", err)
	}
	return srs, srsLagrange, nil
}

// DevSetup compiles the circuit, generates an unsafe SRS, runs the PLONK
// setup, and writes the resulting keys and Solidity verifier to outputDir.
func DevSetup(circuit frontend.Circuit, outputDir, circuitName string) error {
	ccs, err := CompileCircuit(circuit)
	if err != nil {
		return err
	}
	log.Info().Int("constraints", ccs.GetNbConstraints()).Str("circuit", circuitName).
		Msg("circuit compiled")

	srs, srsLagrange, err := DevSRS(ccs)
	if err != nil {
		return err
	}

	pk, vk, err := Keys(ccs, srs, srsLagrange)
	if err != nil {
		return err
	}

	return ExportKeys(pk, vk, outputDir, circuitName)
}

// SaveSRS writes a canonical/Lagrange SRS pair to dir as <name>.srs and
// <name>_lagrange.srs.
func SaveSRS(srs, srsLagrange kzg.SRS, dir, name string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create srs dir: %w", err)
	}
	if err := saveObject(filepath.Join(dir, name+".srs"), srs); err != nil {
		return err
	}
	return saveObject(filepath.Join(dir, name+"_lagrange.srs"), srsLagrange)
}

// LoadSRS reads a canonical/Lagrange SRS pair written by SaveSRS, or
// obtained from a public ceremony and converted to the same layout.
func LoadSRS(dir, name string) (srs, srsLagrange kzg.SRS, err error) {
	srs = kzg.NewSRS(ecc.BN254)
	if err = loadObject(filepath.Join(dir, name+".srs"), srs); err != nil {
		return nil, nil, err
	}
	srsLagrange = kzg.NewSRS(ecc.BN254)
	if err = loadObject(filepath.Join(dir, name+"_lagrange.srs"), srsLagrange); err != nil {
		return nil, nil, err
	}
	return srs, srsLagrange, nil
}

// ExportKeys writes the proving key, verifying key, and Solidity verifier to
// outputDir. Files are named <circuitName>_prover.key,
// <circuitName>_verifier.key, <circuitName>_verifier.sol.
func ExportKeys(pk plonk.ProvingKey, vk plonk.VerifyingKey, outputDir, circuitName string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	solPath := filepath.Join(outputDir, circuitName+"_verifier.sol")
	f, err := os.Create(solPath)
	if err != nil {
		return fmt.Errorf("create solidity verifier: %w", err)
	}
	if err := vk.ExportSolidity(f); err != nil {
		f.Close()
		return fmt.Errorf("export solidity verifier: %w", err)
	}
	f.Close()

	vkPath := filepath.Join(outputDir, circuitName+"_verifier.key")
	if err := saveObject(vkPath, vk); err != nil {
		return err
	}

	pkPath := filepath.Join(outputDir, circuitName+"_prover.key")
	if err := saveObject(pkPath, pk); err != nil {
		return err
	}

	log.Info().Str("pk", pkPath).Str("vk", vkPath).Str("sol", solPath).Msg("keys exported")
	return nil
}

// LoadKeys loads the proving and verifying keys from the given directory.
func LoadKeys(dir, circuitName string) (plonk.ProvingKey, plonk.VerifyingKey, error) {
	pk := plonk.NewProvingKey(ecc.BN254)
	if err := loadObject(filepath.Join(dir, circuitName+"_prover.key"), pk); err != nil {
		return nil, nil, fmt.Errorf("proving key: %w", err)
	}

	vk := plonk.NewVerifyingKey(ecc.BN254)
	if err := loadObject(filepath.Join(dir, circuitName+"_verifier.key"), vk); err != nil {
		return nil, nil, fmt.Errorf("verifying key: %w", err)
	}

	return pk, vk, nil
}

// LoadVerifyingKey loads only the verifying key, for verifier-side services
// that never prove.
func LoadVerifyingKey(dir, circuitName string) (plonk.VerifyingKey, error) {
	vk := plonk.NewVerifyingKey(ecc.BN254)
	if err := loadObject(filepath.Join(dir, circuitName+"_verifier.key"), vk); err != nil {
		return nil, fmt.Errorf("verifying key: %w", err)
	}
	return vk, nil
}

func saveObject(path string, obj io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := obj.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func loadObject(path string, obj io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := obj.ReadFrom(f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
