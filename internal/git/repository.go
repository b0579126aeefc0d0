package git

import (
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/bashhack/gitguard/internal/errors"
)

// DetachedHead is reported by CurrentBranch when HEAD does not point at a branch.
const DetachedHead = "HEAD (detached)"

func open(path string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, errors.Wrapf(errors.ErrNotGitRepository, "%s", path)
		}
		return nil, errors.Wrapf(err, "failed to open repository at %s", path)
	}
	return repo, nil
}

// IsRepository reports whether path is inside a git working tree.
// A path outside any repository returns (false, nil); other failures
// such as unreadable directories are returned as errors.
func IsRepository(path string) (bool, error) {
	_, err := open(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, errors.ErrNotGitRepository) {
		return false, nil
	}
	return false, err
}

// FindRoot returns the top-level directory of the working tree containing path.
func FindRoot(path string) (string, error) {
	repo, err := open(path)
	if err != nil {
		return "", err
	}

	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, gogit.ErrIsBareRepository) {
			return "", errors.Wrapf(errors.ErrNotGitRepository, "%s is a bare repository", path)
		}
		return "", errors.Wrap(err, "failed to resolve worktree")
	}
	return wt.Filesystem.Root(), nil
}

// CurrentBranch returns the short name of the checked out branch. An unborn
// branch (no commits yet) still reports its name; a detached HEAD reports
// DetachedHead.
func CurrentBranch(path string) (string, error) {
	repo, err := open(path)
	if err != nil {
		return "", err
	}

	head, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", errors.Wrap(err, "failed to read HEAD")
	}

	if head.Type() == plumbing.SymbolicReference {
		return head.Target().Short(), nil
	}
	return DetachedHead, nil
}
