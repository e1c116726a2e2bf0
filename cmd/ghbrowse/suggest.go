// cmd/ghbrowse/suggest.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github-repo-browser/internal/store"
)

func newSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Suggest repository names for a search prefix",
		Args:  cobra.ExactArgs(1),
		RunE:  runSuggest,
	}
}

func runSuggest(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := waitContext(cmd)
	defer cancel()

	s.store.Dispatch(store.SuggestionsRequested{Prefix: args[0]})
	st, err := s.await(ctx, func(st store.State) bool { return !st.Search.SuggestionsLoading })
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, st.Search.Suggestions)
	}
	for _, name := range st.Search.Suggestions {
		fmt.Fprintln(out, name)
	}
	return nil
}
