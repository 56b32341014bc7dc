// Command franchise is the operator CLI around the franchise proof pipeline:
// key setup, census building, proving and verifying. The core packages do no
// I/O; everything file- and flag-shaped lives here.
package main

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/vocdoni/franchise-zkproof/circuits/franchise"
	"github.com/vocdoni/franchise-zkproof/pkg/census"
	"github.com/vocdoni/franchise-zkproof/pkg/crypto"
	"github.com/vocdoni/franchise-zkproof/pkg/setup"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func main() {
	app := &cli.App{
		Name:  "franchise",
		Usage: "anonymous census membership proofs with per-process nullifiers",
		Commands: []*cli.Command{
			setupCmd(),
			censusCmd(),
			proveCmd(),
			verifyCmd(),
			fixtureCmd(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func paramsFromDepth(depth int) (franchise.Params, error) {
	p := franchise.Params{Depth: depth}
	return p, p.Validate()
}

func parseElement(s string) (*big.Int, error) {
	v := new(big.Int)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if _, ok := v.SetString(s[2:], 16); !ok {
			return nil, fmt.Errorf("invalid hex value %q", s)
		}
		return v, nil
	}
	if _, ok := v.SetString(s, 10); !ok {
		return nil, fmt.Errorf("invalid decimal value %q", s)
	}
	return v, nil
}

func setupCmd() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "compile the circuit and generate proving/verifying keys (dev SRS)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "depth", Value: franchise.ParamsSmall.Depth, Usage: "census tree depth"},
			&cli.StringFlag{Name: "out", Value: ".", Usage: "output directory for keys"},
		},
		Action: func(c *cli.Context) error {
			params, err := paramsFromDepth(c.Int("depth"))
			if err != nil {
				return err
			}
			circuit, err := franchise.NewCircuit(params)
			if err != nil {
				return err
			}
			return setup.DevSetup(circuit, c.String("out"), "franchise")
		},
	}
}

func censusCmd() *cli.Command {
	return &cli.Command{
		Name:  "census",
		Usage: "build and inspect census trees",
		Subcommands: []*cli.Command{
			{
				Name:  "new",
				Usage: "create an empty census tree",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "depth", Value: franchise.ParamsSmall.Depth},
					&cli.StringFlag{Name: "tree", Required: true, Usage: "output tree file"},
				},
				Action: func(c *cli.Context) error {
					t, err := census.NewTree(c.Int("depth"))
					if err != nil {
						return err
					}
					return saveTree(t, c.String("tree"))
				},
			},
			{
				Name:      "add",
				Usage:     "add voter commitments (hex or decimal field elements)",
				ArgsUsage: "COMMITMENT...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tree", Required: true},
				},
				Action: func(c *cli.Context) error {
					t, err := loadTree(c.String("tree"))
					if err != nil {
						return err
					}
					for _, arg := range c.Args().Slice() {
						commitment, err := parseElement(arg)
						if err != nil {
							return err
						}
						index, err := t.Add(commitment)
						if err != nil {
							return err
						}
						log.Info().Int("index", index).Msg("voter added")
					}
					return saveTree(t, c.String("tree"))
				},
			},
			{
				Name:      "commit",
				Usage:     "derive the leaf commitment for a secret key (local testing)",
				ArgsUsage: "SECRET_KEY",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected exactly one secret key argument")
					}
					secretKey, err := parseElement(c.Args().First())
					if err != nil {
						return err
					}
					fmt.Printf("0x%064x\n", crypto.DeriveCommitment(secretKey))
					return nil
				},
			},
			{
				Name:  "root",
				Usage: "print the census root",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tree", Required: true},
				},
				Action: func(c *cli.Context) error {
					t, err := loadTree(c.String("tree"))
					if err != nil {
						return err
					}
					fmt.Printf("0x%064x\n", t.Root())
					return nil
				},
			},
		},
	}
}

func proveCmd() *cli.Command {
	return &cli.Command{
		Name:  "prove",
		Usage: "prove census membership and derive the process nullifier",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "keys", Value: ".", Usage: "directory with proving/verifying keys"},
			&cli.StringFlag{Name: "tree", Required: true, Usage: "census tree file"},
			&cli.IntFlag{Name: "index", Required: true, Usage: "voter leaf index"},
			&cli.StringFlag{Name: "secret-key", Required: true, Usage: "voter secret key"},
			&cli.StringFlag{Name: "process-id", Required: true, Usage: "voting process identifier"},
			&cli.StringFlag{Name: "vote", Required: true, Usage: "vote value to bind into the proof"},
			&cli.StringFlag{Name: "out", Value: "franchise.proof", Usage: "output proof file"},
		},
		Action: func(c *cli.Context) error {
			t, err := loadTree(c.String("tree"))
			if err != nil {
				return err
			}
			params, err := paramsFromDepth(t.Depth())
			if err != nil {
				return err
			}

			secretKey, err := parseElement(c.String("secret-key"))
			if err != nil {
				return err
			}
			processID, err := parseElement(c.String("process-id"))
			if err != nil {
				return err
			}
			voteValue, err := parseElement(c.String("vote"))
			if err != nil {
				return err
			}

			siblings, bits, err := t.Witness(c.Int("index"))
			if err != nil {
				return err
			}

			assignment, err := franchise.BuildAssignment(params, secretKey, processID, voteValue, t.Root(), siblings, bits)
			if err != nil {
				return err
			}

			ccs, err := franchise.Compile(params)
			if err != nil {
				return err
			}
			pk, _, err := setup.LoadKeys(c.String("keys"), "franchise")
			if err != nil {
				return err
			}

			proof, err := franchise.Prove(ccs, pk, assignment)
			if err != nil {
				return err
			}
			proofBytes, err := proof.Bytes()
			if err != nil {
				return err
			}
			if err := os.WriteFile(c.String("out"), proofBytes, 0o644); err != nil {
				return fmt.Errorf("write proof: %w", err)
			}
			log.Info().Str("file", c.String("out")).
				Str("nullifier", fmt.Sprintf("0x%064x", proof.Public.Nullifier)).
				Msg("proof written")
			return nil
		},
	}
}

func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "verify a serialized proof against its public inputs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "keys", Value: ".", Usage: "directory with the verifying key"},
			&cli.StringFlag{Name: "proof", Required: true, Usage: "proof file"},
		},
		Action: func(c *cli.Context) error {
			data, err := os.ReadFile(c.String("proof"))
			if err != nil {
				return fmt.Errorf("read proof: %w", err)
			}
			proof, err := franchise.ParseProof(data)
			if err != nil {
				return err
			}
			vk, err := setup.LoadVerifyingKey(c.String("keys"), "franchise")
			if err != nil {
				return err
			}
			if !franchise.Verify(vk, proof) {
				return fmt.Errorf("proof rejected")
			}
			log.Info().
				Str("root", fmt.Sprintf("0x%064x", proof.Public.Root)).
				Str("nullifier", fmt.Sprintf("0x%064x", proof.Public.Nullifier)).
				Msg("proof verified")
			return nil
		},
	}
}

func fixtureCmd() *cli.Command {
	return &cli.Command{
		Name:  "fixture",
		Usage: "generate a deterministic proof fixture for external verifiers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "keys", Value: ".", Usage: "directory with proving/verifying keys"},
		},
		Action: func(c *cli.Context) error {
			jsonOut, err := franchise.ExportProofFixture(c.String("keys"))
			if err != nil {
				return err
			}
			fmt.Println(string(jsonOut))
			return nil
		},
	}
}

func saveTree(t *census.Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create tree file: %w", err)
	}
	defer f.Close()
	return t.Save(f)
}

func loadTree(path string) (*census.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tree file: %w", err)
	}
	defer f.Close()
	return census.Load(f)
}
