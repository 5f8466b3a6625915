package config

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
)

// ShortSHALength is the number of hex digits kept from a commit hash.
const ShortSHALength = 7

// errShaRequired is returned when the root is not a git checkout and no sha was given.
var errShaRequired = errors.New("commit sha cannot be resolved from git, pass --sha")

// ResolveShortSHA returns the abbreviated HEAD commit of the repository that
// contains root.
func ResolveShortSHA(root string) (string, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", errShaRequired
		}

		return "", fmt.Errorf("open git repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}

	return head.Hash().String()[:ShortSHALength], nil
}
