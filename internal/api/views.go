// internal/api/views.go
package api

import (
	"github-repo-browser/internal/format"
	"github-repo-browser/internal/model"
	"github-repo-browser/internal/store"
)

type repositoryView struct {
	model.RepositorySummary
	StarsLabel   string `json:"starsLabel"`
	ForksLabel   string `json:"forksLabel"`
	UpdatedLabel string `json:"updatedLabel"`
}

type userView struct {
	*model.UserProfile
	FollowersLabel string `json:"followersLabel"`
	FollowingLabel string `json:"followingLabel"`
	JoinedLabel    string `json:"joinedLabel"`
}

type lookupView struct {
	User    *userView `json:"user"`
	Loading bool      `json:"loading"`
	Error   *string   `json:"error"`
}

type searchView struct {
	store.SearchState
	Items []repositoryView `json:"items"`
}

type stateView struct {
	Search          searchView `json:"search"`
	SelectedUser    lookupView `json:"selectedUser"`
	ProfileUser     lookupView `json:"profileUser"`
	EditingUsername bool       `json:"editingUsername"`
}

func newStateView(st store.State) stateView {
	items := make([]repositoryView, 0, len(st.Search.Items))
	for _, r := range st.Search.Items {
		items = append(items, repositoryView{
			RepositorySummary: r,
			StarsLabel:        format.Count(r.Stars),
			ForksLabel:        format.Count(r.Forks),
			UpdatedLabel:      format.Date(r.UpdatedAt),
		})
	}
	return stateView{
		Search:          searchView{SearchState: st.Search, Items: items},
		SelectedUser:    newLookupView(st.SelectedUser),
		ProfileUser:     newLookupView(st.ProfileUser),
		EditingUsername: st.EditingUsername,
	}
}

func newLookupView(l store.UserLookupState) lookupView {
	v := lookupView{Loading: l.Loading, Error: l.Error}
	if l.User != nil {
		v.User = &userView{
			UserProfile:    l.User,
			FollowersLabel: format.Count(l.User.Followers),
			FollowingLabel: format.Count(l.User.Following),
			JoinedLabel:    format.Date(l.User.CreatedAt),
		}
	}
	return v
}
