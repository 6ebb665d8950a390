package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/merkledrop-go/pkg/allocation"
	"github.com/Layr-Labs/merkledrop-go/pkg/config"
	"github.com/Layr-Labs/merkledrop-go/pkg/logger"
	"github.com/Layr-Labs/merkledrop-go/pkg/merkle"
	"github.com/Layr-Labs/merkledrop-go/pkg/persistence/factory"
	"github.com/Layr-Labs/merkledrop-go/pkg/types"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "merkledrop",
		Usage: "Merkle allocation tree builder",
		Description: `Builds the merkle commitment for a token allocation campaign.

Consumes an allocation source file (recipients + decimal amounts), produces
the campaign root for publication to the distributor, and derives per-recipient
inclusion proofs for out-of-band distribution.`,
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Build the tree, write the root and optionally all proofs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Allocation source JSON file",
						EnvVars:  []string{config.EnvInputPath},
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "File the root hash is written to",
						EnvVars:  []string{config.EnvOutputPath},
						Required: true,
					},
					&cli.StringFlag{
						Name:    "proof-dir",
						Usage:   "Directory receiving one proof JSON per recipient",
						EnvVars: []string{config.EnvProofDir},
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Usage:   "Enable verbose logging",
						EnvVars: []string{config.EnvVerbose},
					},
				},
				Action: runGenerate,
			},
			{
				Name:  "proof",
				Usage: "Print the proof for one recipient or index",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Allocation source JSON file",
						EnvVars:  []string{config.EnvInputPath},
						Required: true,
					},
					&cli.StringFlag{
						Name:  "recipient",
						Usage: "Recipient address to derive the proof for",
					},
					&cli.Int64Flag{
						Name:  "index",
						Usage: "Allocation index to derive the proof for",
						Value: -1,
					},
				},
				Action: runProof,
			},
			{
				Name:  "verify",
				Usage: "Check a proof file against a root",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "proof",
						Usage:    "Proof JSON file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "root",
						Usage:    "Expected root (hex)",
						Required: true,
					},
				},
				Action: runVerify,
			},
			{
				Name:  "campaigns",
				Usage: "List distributor campaigns from the persistence store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "store-backend",
						Usage:   fmt.Sprintf("Persistence backend (%s)", config.SupportedStoreBackendsString()),
						EnvVars: []string{config.EnvStoreBackend},
						Value:   string(config.StoreBackendBadger),
					},
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Badger data directory",
						EnvVars: []string{config.EnvDataDir},
					},
					&cli.StringFlag{
						Name:    "redis-address",
						Usage:   "Redis server address (host:port)",
						EnvVars: []string{config.EnvRedisAddress},
					},
					&cli.IntFlag{
						Name:    "redis-db",
						Usage:   "Redis database number",
						EnvVars: []string{config.EnvRedisDB},
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Usage:   "Enable verbose logging",
						EnvVars: []string{config.EnvVerbose},
					},
				},
				Action: runCampaigns,
			},
		},
	}
}

// buildTree loads an allocation file and constructs the canonical tree.
func buildTree(inputPath string) (*merkle.Tree, []types.CanonicalEntry, error) {
	file, err := allocation.LoadFile(inputPath)
	if err != nil {
		return nil, nil, err
	}

	entries, err := file.Entries()
	if err != nil {
		return nil, nil, err
	}

	canonical, err := merkle.Canonicalize(entries)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to canonicalize allocations: %w", err)
	}

	tree, err := merkle.BuildTree(canonical)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build merkle tree: %w", err)
	}

	return tree, canonical, nil
}

func runGenerate(c *cli.Context) error {
	cfg := &config.GeneratorConfig{
		InputPath:  c.String("input"),
		OutputPath: c.String("output"),
		ProofDir:   c.String("proof-dir"),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})

	tree, canonical, err := buildTree(cfg.InputPath)
	if err != nil {
		return err
	}

	if err := os.WriteFile(cfg.OutputPath, []byte(tree.Root().Hex()+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write root to %s: %w", cfg.OutputPath, err)
	}
	l.Sugar().Infow("Root generated",
		"root", tree.Root().Hex(), "leaves", tree.NumLeaves(), "output", cfg.OutputPath)

	if cfg.ProofDir == "" {
		return nil
	}

	if err := os.MkdirAll(cfg.ProofDir, 0o755); err != nil {
		return fmt.Errorf("failed to create proof directory %s: %w", cfg.ProofDir, err)
	}
	for _, entry := range canonical {
		proof, err := tree.GenerateProof(entry.Index)
		if err != nil {
			return fmt.Errorf("failed to derive proof for index %d: %w", entry.Index, err)
		}

		data, err := json.MarshalIndent(proof, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal proof for index %d: %w", entry.Index, err)
		}

		name := fmt.Sprintf("%s.json", strings.ToLower(entry.Recipient.Hex()))
		if err := os.WriteFile(filepath.Join(cfg.ProofDir, name), data, 0o644); err != nil {
			return fmt.Errorf("failed to write proof file %s: %w", name, err)
		}
	}
	l.Sugar().Infow("Proofs written", "count", len(canonical), "dir", cfg.ProofDir)

	return nil
}

func runProof(c *cli.Context) error {
	tree, canonical, err := buildTree(c.String("input"))
	if err != nil {
		return err
	}

	index := c.Int64("index")
	if recipient := c.String("recipient"); recipient != "" {
		if !common.IsHexAddress(recipient) {
			return fmt.Errorf("invalid recipient address: %s", recipient)
		}
		addr := common.HexToAddress(recipient)
		index = -1
		for _, entry := range canonical {
			if entry.Recipient == addr {
				index = int64(entry.Index)
				break
			}
		}
		if index < 0 {
			return fmt.Errorf("recipient %s is not in the allocation", addr.Hex())
		}
	}
	if index < 0 {
		return fmt.Errorf("either --recipient or --index is required")
	}

	proof, err := tree.GenerateProof(uint64(index))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(proof, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal proof: %w", err)
	}

	fmt.Printf("root: %s\n%s\n", tree.Root().Hex(), data)
	return nil
}

func runVerify(c *cli.Context) error {
	data, err := os.ReadFile(c.String("proof"))
	if err != nil {
		return fmt.Errorf("failed to read proof file: %w", err)
	}

	var proof types.Proof
	if err := json.Unmarshal(data, &proof); err != nil {
		return fmt.Errorf("failed to parse proof file: %w", err)
	}
	if proof.Amount == nil {
		return fmt.Errorf("proof file %s is missing the amount field", c.String("proof"))
	}

	root := common.HexToHash(c.String("root"))
	leaf := merkle.HashEntry(proof.Index, proof.Recipient, proof.Amount)
	if !merkle.VerifyProof(leaf, proof.Siblings, root) {
		return fmt.Errorf("proof does not verify against root %s", root.Hex())
	}

	fmt.Printf("OK: index %d, recipient %s, amount %s\n",
		proof.Index, proof.Recipient.Hex(), proof.Amount.String())
	return nil
}

func runCampaigns(c *cli.Context) error {
	cfg := &config.StoreConfig{
		Backend:      config.StoreBackend(c.String("store-backend")),
		DataDir:      c.String("data-dir"),
		RedisAddress: c.String("redis-address"),
		RedisDB:      c.Int("redis-db"),
	}

	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})

	store, err := factory.NewStore(cfg, l)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	campaigns, err := store.ListCampaigns()
	if err != nil {
		return fmt.Errorf("failed to list campaigns: %w", err)
	}
	if len(campaigns) == 0 {
		fmt.Println("no campaigns")
		return nil
	}

	for _, campaign := range campaigns {
		fmt.Printf("campaign %d\n", campaign.ID)
		fmt.Printf("  token:   %s\n", campaign.Token.Hex())
		fmt.Printf("  root:    %s\n", campaign.Root.Hex())
		fmt.Printf("  window:  %d - %d\n", campaign.ClaimStart, campaign.ClaimEnd)
		fmt.Printf("  claimed: %d claims, %s of %s\n",
			campaign.Claimed.Count(), campaign.ClaimedAmount.String(), campaign.TotalAmount.String())
	}
	return nil
}
