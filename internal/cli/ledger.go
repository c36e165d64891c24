package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/suspectuso/ton-mintgate/internal/auth"
	"github.com/suspectuso/ton-mintgate/internal/controls"
)

func newStatsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <collection> <wallet>",
		Short: "Show what a wallet minted in a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wallet, err := controls.ParseAddress(args[1])
			if err != nil {
				return err
			}
			path, err := collectionPath(args[0], "/wallets/"+url.PathEscape(wallet.String()))
			if err != nil {
				return err
			}
			resp, err := newClient(g).do(cmd.Context(), http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newReceiptsCmd(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "receipts <collection>",
		Short: "List recent mint receipts, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := collectionPath(args[0], "/receipts?limit="+strconv.Itoa(limit))
			if err != nil {
				return err
			}
			resp, err := newClient(g).do(cmd.Context(), http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of receipts")
	return cmd
}

func newCreditCmd(g *globalFlags) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:     "credit <account> <amount>",
		Short:   "Credit an account on the ledger (platform admins only)",
		Example: "  mintctl credit EQ... 5000000000 --token TON",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := controls.ParseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			body, _ := json.Marshal(map[string]any{
				"account": account.String(),
				"token":   token,
				"amount":  amount,
			})
			resp, err := newClient(g).do(cmd.Context(), http.MethodPost, "/v1/ledger/credit", body)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&token, "token", "TON", "token identifier")
	return cmd
}

func newBalanceCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account>",
		Short: "Show ledger balances of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := controls.ParseAddress(args[0])
			if err != nil {
				return err
			}
			resp, err := newClient(g).do(cmd.Context(), http.MethodGet, "/v1/ledger/"+url.PathEscape(account.String()), nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:     "token <wallet>",
		Short:   "Issue a bearer token for a wallet, signed with $JWT_SECRET",
		Example: "  export MINTGATE_TOKEN=$(mintctl token EQ... --ttl 1h)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := envOr("JWT_SECRET", "")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is required")
			}
			wallet, err := controls.ParseAddress(args[0])
			if err != nil {
				return err
			}
			if wallet.IsZero() {
				return fmt.Errorf("wallet address required")
			}
			token, err := auth.NewVerifier(secret).Issue(wallet, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
