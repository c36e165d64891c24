package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	url   string
	token string
}

// NewRootCmd builds the mintctl command tree
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "mintctl",
		Short:         "Operate a mintgate service",
		Long:          "Build allowlists, configure collections and phases, and inspect mints of a mintgate service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.url == "" {
				g.url = envOr("MINTGATE_URL", "http://localhost:8080")
			}
			if g.token == "" {
				g.token = os.Getenv("MINTGATE_TOKEN")
			}
		},
	}
	root.PersistentFlags().StringVar(&g.url, "url", "", "service base URL (default $MINTGATE_URL or http://localhost:8080)")
	root.PersistentFlags().StringVar(&g.token, "token", "", "bearer token (default $MINTGATE_TOKEN)")

	root.AddCommand(
		newAllowlistCmd(),
		newCollectionCmd(g),
		newPhaseCmd(g),
		newFeeCmd(g),
		newMintCmd(g),
		newStatsCmd(g),
		newReceiptsCmd(g),
		newCreditCmd(g),
		newBalanceCmd(g),
		newTokenCmd(),
	)
	return root
}

// Execute runs mintctl with the process arguments
func Execute() error {
	_ = godotenv.Load()
	return NewRootCmd().Execute()
}

func envOr(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
