package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

func newCollectionCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Create and inspect collections",
	}

	var file string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a collection with its mint controls (caller becomes creator)",
		Example: `  mintctl collection create -f collection.yaml
  # collection.yaml
  collection: EQ...
  name: Apes
  symbol: APE
  max_supply: 1000
  treasury: EQ...
  max_mints_per_wallet: 3
  platform_fee: {value: 250, is_flat: false, recipients: [{address: EQ..., share: 100}]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readJSONBody(file)
			if err != nil {
				return err
			}
			resp, err := newClient(g).do(cmd.Context(), http.MethodPost, "/v1/collections", body)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	createCmd.Flags().StringVarP(&file, "file", "f", "", "collection document (required)")
	createCmd.MarkFlagRequired("file")

	showCmd := &cobra.Command{
		Use:   "show <collection>",
		Short: "Show a collection with its controls and phases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := collectionPath(args[0], "")
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

	cmd.AddCommand(createCmd, showCmd)
	return cmd
}

func newPhaseCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Append phases and switch them on or off",
	}

	var file string
	addCmd := &cobra.Command{
		Use:   "add <collection>",
		Short: "Append a phase; its index is printed",
		Example: `  mintctl phase add EQ... -f presale.yaml
  # presale.yaml
  start_time: "2025-03-01T12:00:00Z"
  end_time: "2025-03-02T12:00:00Z"
  price_amount: 0
  max_mints_total: 500
  allowlist: allowlist.yaml   # private phase, root computed from the list`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := collectionPath(args[0], "/phases")
			if err != nil {
				return err
			}
			body, err := readPhase(file)
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
	addCmd.Flags().StringVarP(&file, "file", "f", "", "phase document (required)")
	addCmd.MarkFlagRequired("file")

	var active bool
	setCmd := &cobra.Command{
		Use:     "set <collection> <index>",
		Short:   "Turn a phase on or off",
		Example: "  mintctl phase set EQ... 0 --active=false",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("phase index: %w", err)
			}
			path, err := collectionPath(args[0], "/phases/"+strconv.FormatUint(index, 10))
			if err != nil {
				return err
			}
			body, _ := json.Marshal(map[string]bool{"active": active})
			if _, err := newClient(g).do(cmd.Context(), http.MethodPatch, path, body); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "phase %d active=%t\n", index, active)
			return nil
		},
	}
	setCmd.Flags().BoolVar(&active, "active", true, "whether the phase accepts mints")

	cmd.AddCommand(addCmd, setCmd)
	return cmd
}

func newFeeCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fee",
		Short: "Manage the platform fee of a collection",
	}

	var file string
	updateCmd := &cobra.Command{
		Use:   "update <collection>",
		Short: "Replace the platform fee (platform fee admins only)",
		Example: `  mintctl fee update EQ... -f fee.yaml
  # fee.yaml
  value: 250
  is_flat: false
  recipients:
    - {address: EQ..., share: 70}
    - {address: EQ..., share: 30}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := collectionPath(args[0], "/fees")
			if err != nil {
				return err
			}
			body, err := readJSONBody(file)
			if err != nil {
				return err
			}
			if _, err := newClient(g).do(cmd.Context(), http.MethodPut, path, body); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "fee updated")
			return nil
		},
	}
	updateCmd.Flags().StringVarP(&file, "file", "f", "", "fee document (required)")
	updateCmd.MarkFlagRequired("file")

	cmd.AddCommand(updateCmd)
	return cmd
}

// collectionPath validates the address locally before building the route
func collectionPath(collection, suffix string) (string, error) {
	a, err := controls.ParseAddress(collection)
	if err != nil {
		return "", err
	}
	if a.IsZero() {
		return "", fmt.Errorf("collection address required")
	}
	return "/v1/collections/" + url.PathEscape(a.String()) + suffix, nil
}
