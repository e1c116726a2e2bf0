// cmd/ghbrowse/root.go
package main

import (
	"time"

	"github.com/spf13/cobra"
)

const defaultTimeout = 30 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ghbrowse",
		Short: "Browse GitHub repositories and users from the terminal",
		Long: `ghbrowse drives the same repository store and request orchestration as the
service, without the HTTP surface. Configuration is read from the environment
and an optional .env file (GITHUB_TOKEN, GITHUB_BASE_URL, LOG_LEVEL, ...).`,
		SilenceUsage: true,
	}

	root.PersistentFlags().Bool("json", false, "Output as JSON")
	root.PersistentFlags().Duration("timeout", defaultTimeout, "Give up waiting for GitHub after this long")

	root.AddCommand(newSearchCmd(), newUserCmd(), newSuggestCmd())
	return root
}
