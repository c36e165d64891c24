package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

type proofOutput struct {
	Wallet    controls.Address `json:"wallet"`
	Price     uint64           `json:"allowlist_price"`
	MaxClaims uint64           `json:"allowlist_max_claims"`
	Proof     []controls.Hash  `json:"merkle_proof"`
	Root      controls.Hash    `json:"merkle_root"`
}

func newAllowlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allowlist",
		Short: "Build allowlist roots and proofs from an entries file",
	}

	var file string
	cmd.PersistentFlags().StringVarP(&file, "file", "f", "", "YAML or JSON list of {wallet, price, max_claims} (required)")
	cmd.MarkPersistentFlagRequired("file")

	rootCmd := &cobra.Command{
		Use:     "root",
		Short:   "Print the merkle root to configure on a private phase",
		Example: "  mintctl allowlist root -f allowlist.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadTree(file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", tree.Root())
			return nil
		},
	}

	proofCmd := &cobra.Command{
		Use:     "proof <wallet>",
		Short:   "Print the claim fields a wallet sends with its mint",
		Example: "  mintctl allowlist proof -f allowlist.yaml EQ...",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wallet, err := controls.ParseAddress(args[0])
			if err != nil {
				return err
			}
			out, err := proofFor(file, wallet)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.AddCommand(rootCmd, proofCmd)
	return cmd
}

func loadTree(file string) (*controls.Tree, error) {
	entries, err := readAllowlist(file)
	if err != nil {
		return nil, err
	}
	return controls.BuildTree(entries)
}

func proofFor(file string, wallet controls.Address) (*proofOutput, error) {
	tree, err := loadTree(file)
	if err != nil {
		return nil, err
	}
	entry, idx, ok := tree.Find(wallet)
	if !ok {
		return nil, fmt.Errorf("%s is not on the allowlist", wallet.Friendly())
	}
	proof, err := tree.Proof(idx)
	if err != nil {
		return nil, err
	}
	return &proofOutput{
		Wallet:    wallet,
		Price:     entry.Price,
		MaxClaims: entry.MaxClaims,
		Proof:     proof,
		Root:      tree.Root(),
	}, nil
}
