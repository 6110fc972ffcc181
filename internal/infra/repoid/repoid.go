// Package repoid derives the repository identifier used by repo-scoped config
// from the git remote of a working directory.
package repoid

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// Detect opens the repository containing dir and returns the normalized URL
// of its "origin" remote (or the first remote by name if there is no origin).
func Detect(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", domain.ErrNotGitRepository
	}
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return "", fmt.Errorf("list remotes: %w", err)
	}
	if len(remotes) == 0 {
		return "", domain.ErrNoOriginRemote
	}
	sort.Slice(remotes, func(i, j int) bool {
		a, b := remotes[i].Config().Name, remotes[j].Config().Name
		if (a == git.DefaultRemoteName) != (b == git.DefaultRemoteName) {
			return a == git.DefaultRemoteName
		}
		return a < b
	})
	urls := remotes[0].Config().URLs
	if len(urls) == 0 {
		return "", domain.ErrNoOriginRemote
	}
	return Normalize(urls[0]), nil
}

// Normalize maps the usual spellings of a remote to "host/owner/name":
//
//	git@github.com:acme/app.git       -> github.com/acme/app
//	https://github.com/acme/app.git   -> github.com/acme/app
//	ssh://git@github.com:22/acme/app  -> github.com/acme/app
//
// Local paths are returned cleaned but otherwise untouched.
func Normalize(remote string) string {
	remote = strings.TrimSpace(remote)
	var host, path string

	switch {
	case strings.Contains(remote, "://"):
		u, err := url.Parse(remote)
		if err != nil {
			return strings.TrimSuffix(remote, ".git")
		}
		if u.Scheme == "file" {
			return strings.TrimSuffix(u.Path, ".git")
		}
		host, path = u.Hostname(), u.Path
	case strings.Contains(remote, ":") && !strings.HasPrefix(remote, "/"):
		// scp-like syntax: [user@]host:path
		before, after, _ := strings.Cut(remote, ":")
		if i := strings.LastIndex(before, "@"); i >= 0 {
			before = before[i+1:]
		}
		host, path = before, after
	default:
		return strings.TrimSuffix(strings.TrimRight(remote, "/"), ".git")
	}

	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")
	return strings.ToLower(host) + "/" + path
}
