package cli

import (
	"encoding/json"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

type mintFlags struct {
	phase      uint32
	minter     string
	payer      string
	allowlist  string
	price      uint64
	recipients []string
}

func newMintCmd(g *globalFlags) *cobra.Command {
	f := &mintFlags{}

	cmd := &cobra.Command{
		Use:   "mint <collection>",
		Short: "Run one mint attempt",
		Example: `  mintctl mint EQ... --phase 0 --minter EQ...
  mintctl mint EQ... --phase 1 --minter EQ... --allowlist allowlist.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := collectionPath(args[0], "/mint")
			if err != nil {
				return err
			}
			body, err := buildMintBody(f, cmd.Flags().Changed("price"))
			if err != nil {
				return err
			}
			resp, err := newClient(g).do(cmd.Context(), http.MethodPost, path, body)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().Uint32Var(&f.phase, "phase", 0, "phase index")
	cmd.Flags().StringVar(&f.minter, "minter", "", "minting wallet (required)")
	cmd.Flags().StringVar(&f.payer, "payer", "", "paying account (default minter)")
	cmd.Flags().StringVar(&f.allowlist, "allowlist", "", "entries file; the minter's proof is attached")
	cmd.Flags().Uint64Var(&f.price, "price", 0, "expected price; rejected if it differs")
	cmd.Flags().StringSliceVar(&f.recipients, "recipients", nil, "fee recipient per slot, comma separated")
	cmd.MarkFlagRequired("minter")
	return cmd
}

func buildMintBody(f *mintFlags, withPrice bool) ([]byte, error) {
	minter, err := controls.ParseAddress(f.minter)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"phase_index": f.phase,
		"minter":      minter.String(),
	}
	if f.payer != "" {
		payer, err := controls.ParseAddress(f.payer)
		if err != nil {
			return nil, err
		}
		body["payer"] = payer.String()
	}
	if withPrice {
		body["price"] = f.price
	}
	if len(f.recipients) > 0 {
		recipients := make([]string, 0, len(f.recipients))
		for _, r := range f.recipients {
			a, err := controls.ParseAddress(r)
			if err != nil {
				return nil, err
			}
			recipients = append(recipients, a.String())
		}
		body["recipients"] = recipients
	}
	if f.allowlist != "" {
		proof, err := proofFor(f.allowlist, minter)
		if err != nil {
			return nil, err
		}
		body["merkle_proof"] = proof.Proof
		body["allowlist_price"] = proof.Price
		body["allowlist_max_claims"] = proof.MaxClaims
	}
	return json.Marshal(body)
}
