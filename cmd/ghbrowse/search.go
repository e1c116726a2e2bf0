// cmd/ghbrowse/search.go
package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github-repo-browser/internal/format"
	"github-repo-browser/internal/model"
	"github-repo-browser/internal/store"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search repositories",
		Long: `Search GitHub repositories, 20 per page.

Examples:
  ghbrowse search react
  ghbrowse search "language:go cli" --sort updated --order asc
  ghbrowse search kubernetes --pages 3 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}
	cmd.Flags().String("sort", string(model.SortStars), "Sort by stars, forks, help-wanted-issues or updated")
	cmd.Flags().String("order", string(model.OrderDesc), "Order asc or desc")
	cmd.Flags().Int("pages", 1, "Number of pages to load")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errors.New("search query must not be empty")
	}
	sortFlag, _ := cmd.Flags().GetString("sort")
	orderFlag, _ := cmd.Flags().GetString("order")
	pages, _ := cmd.Flags().GetInt("pages")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	sort, err := model.ParseSortOption(sortFlag)
	if err != nil {
		return err
	}
	order, err := model.ParseOrderOption(orderFlag)
	if err != nil {
		return err
	}
	if pages < 1 {
		return errors.New("--pages must be at least 1")
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := waitContext(cmd)
	defer cancel()

	// No query is active yet, so filter changes do not trigger a search of their own.
	s.store.Dispatch(store.SortChanged{Sort: sort})
	s.store.Dispatch(store.OrderChanged{Order: order})
	s.store.Dispatch(store.SearchRequested{Query: query, Page: 1})

	idle := func(st store.State) bool { return !st.Search.Loading }
	st, err := s.await(ctx, idle)
	for loaded := 1; err == nil && st.Search.Error == nil && loaded < pages; loaded++ {
		next, ok := store.NextPage(st)
		if !ok {
			break
		}
		s.store.Dispatch(next)
		st, err = s.await(ctx, idle)
	}
	if err != nil {
		return err
	}
	if st.Search.Error != nil {
		return fmt.Errorf("search failed: %s", *st.Search.Error)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, st.Search)
	}
	for _, r := range st.Search.Items {
		fmt.Fprintf(out, "%-50s ★ %-8s ⑂ %-8s %s\n", r.FullName, format.Count(r.Stars), format.Count(r.Forks), language(r.Language))
		if r.Description != nil {
			fmt.Fprintf(out, "    %s\n", *r.Description)
		}
	}
	fmt.Fprintf(out, "\n%d repositories, page %d", len(st.Search.Items), st.Search.CurrentPage)
	if st.Search.HasMore {
		fmt.Fprint(out, ", more available")
	}
	fmt.Fprintln(out)
	return nil
}

func language(l *string) string {
	if l == nil {
		return "-"
	}
	return *l
}
