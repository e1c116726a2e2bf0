// internal/orchestrator/suggestions.go
package orchestrator

import (
	"strings"
)

const (
	minSuggestionPrefix  = 2
	maxLocalSuggestions  = 5
	maxRemoteSuggestions = 3
	maxSuggestions       = 8
)

// popularRepos seeds suggestions before the live search answers.
var popularRepos = []string{
	"react", "vue", "angular", "node", "python",
	"java", "javascript", "typescript", "docker", "kubernetes",
	"tensorflow", "pytorch", "django", "flask", "express",
	"next.js", "nuxt.js", "laravel", "spring", "dotnet",
	"go", "rust", "swift", "kotlin", "flutter",
	"react-native", "electron", "vscode", "atom", "vim",
}

// localSuggestions returns up to five popular names containing prefix, case-insensitively.
func localSuggestions(prefix string) []string {
	needle := strings.ToLower(prefix)
	matches := make([]string, 0, maxLocalSuggestions)
	for _, name := range popularRepos {
		if strings.Contains(strings.ToLower(name), needle) {
			matches = append(matches, name)
			if len(matches) == maxLocalSuggestions {
				break
			}
		}
	}
	return matches
}

// mergeSuggestions keeps first-seen order, local names first, and caps the result.
func mergeSuggestions(local, remote []string) []string {
	seen := make(map[string]struct{}, len(local)+len(remote))
	merged := make([]string, 0, maxSuggestions)
	for _, list := range [][]string{local, remote} {
		for _, name := range list {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			merged = append(merged, name)
			if len(merged) == maxSuggestions {
				return merged
			}
		}
	}
	return merged
}
