package workspace

import (
	git "github.com/go-git/go-git/v5"
)

// gitOrigin returns the URL of the repository's "origin" remote, or ""
// when the project is not a git checkout or has no origin configured.
func gitOrigin(root string) string {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return ""
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}
