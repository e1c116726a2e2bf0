// cmd/ghbrowse/user.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github-repo-browser/internal/format"
	"github-repo-browser/internal/store"
)

func newUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user <login>",
		Short: "Show a user profile",
		Args:  cobra.ExactArgs(1),
		RunE:  runUser,
	}
}

func runUser(cmd *cobra.Command, args []string) error {
	login := strings.TrimSpace(args[0])
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := waitContext(cmd)
	defer cancel()

	s.store.Dispatch(store.UserLookupRequested{Slot: store.SlotSelected, Username: login})
	st, err := s.await(ctx, func(st store.State) bool { return !st.SelectedUser.Loading })
	if err != nil {
		return err
	}

	lookup := st.SelectedUser
	if lookup.Error != nil {
		return fmt.Errorf("no data for %s: %s", login, *lookup.Error)
	}
	u := lookup.User
	if u == nil {
		return fmt.Errorf("no data for %s", login)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, u)
	}
	fmt.Fprintf(out, "%s", u.Login)
	if u.Name != nil {
		fmt.Fprintf(out, " (%s)", *u.Name)
	}
	fmt.Fprintln(out)
	if u.Bio != nil {
		fmt.Fprintf(out, "%s\n", *u.Bio)
	}
	fmt.Fprintf(out, "Repositories: %d  Followers: %s  Following: %s\n",
		u.PublicRepos, format.Count(u.Followers), format.Count(u.Following))
	for _, field := range []struct {
		label string
		value *string
	}{
		{"Company", u.Company},
		{"Location", u.Location},
		{"Blog", u.Blog},
		{"Email", u.Email},
	} {
		if field.value != nil {
			fmt.Fprintf(out, "%s: %s\n", field.label, *field.value)
		}
	}
	fmt.Fprintf(out, "Joined %s\n", format.Date(u.CreatedAt))
	return nil
}
