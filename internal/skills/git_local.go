package skills

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// gitRepo is the local repository backend behind the git skill. All methods
// take the repository path so a single instance serves every repo.
type gitRepo interface {
	Clone(url, path, token string) error
	Status(path string) (string, error)
	Add(path string, files []string) error
	Commit(path, message, author string) (string, error)
	Push(path, remote, branch, token string) error
	Pull(path, remote, branch, token string) error
	Log(path string, limit int) ([]gitLogEntry, error)
	CreateBranch(path, branch string) error
	Checkout(path, branch string) error
}

type gitLogEntry struct {
	Hash    string `json:"hash"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

// goGitRepo implements gitRepo with go-git, no system git needed.
type goGitRepo struct{}

func tokenAuth(token string) *githttp.BasicAuth {
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "git", Password: token}
}

func (g *goGitRepo) Clone(url, path, token string) error {
	opts := &git.CloneOptions{URL: url}
	if a := tokenAuth(token); a != nil {
		opts.Auth = a
	}
	if _, err := git.PlainClone(path, false, opts); err != nil {
		return fmt.Errorf("clone: %w", err)
	}
	return nil
}

func (g *goGitRepo) Status(path string) (string, error) {
	w, err := openWorktree(path)
	if err != nil {
		return "", err
	}
	status, err := w.Status()
	if err != nil {
		return "", fmt.Errorf("status: %w", err)
	}
	return status.String(), nil
}

func (g *goGitRepo) Add(path string, files []string) error {
	w, err := openWorktree(path)
	if err != nil {
		return err
	}
	for _, f := range files {
		if _, err := w.Add(f); err != nil {
			return fmt.Errorf("add %s: %w", f, err)
		}
	}
	return nil
}

func (g *goGitRepo) Commit(path, message, author string) (string, error) {
	w, err := openWorktree(path)
	if err != nil {
		return "", err
	}

	name, email := "Skillbox", "skillbox@local"
	if author != "" {
		parts := strings.SplitN(author, " <", 2)
		name = parts[0]
		if len(parts) == 2 {
			email = strings.TrimSuffix(parts[1], ">")
		}
	}

	hash, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: name, Email: email, When: time.Now()},
	})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return hash.String(), nil
}

func (g *goGitRepo) Push(path, remote, branch, token string) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	opts := &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	}
	if a := tokenAuth(token); a != nil {
		opts.Auth = a
	}
	if err := repo.Push(opts); err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

func (g *goGitRepo) Pull(path, remote, branch, token string) error {
	w, err := openWorktree(path)
	if err != nil {
		return err
	}

	opts := &git.PullOptions{
		RemoteName:    remote,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
	}
	if a := tokenAuth(token); a != nil {
		opts.Auth = a
	}
	if err := w.Pull(opts); err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("pull: %w", err)
	}
	return nil
}

var errLogLimit = fmt.Errorf("log limit reached")

func (g *goGitRepo) Log(path string, limit int) ([]gitLogEntry, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	defer iter.Close()

	var entries []gitLogEntry
	err = iter.ForEach(func(c *object.Commit) error {
		if len(entries) >= limit {
			return errLogLimit
		}
		entries = append(entries, gitLogEntry{
			Hash:    c.Hash.String(),
			Author:  c.Author.Name,
			Date:    c.Author.When.Format(time.RFC3339),
			Message: strings.TrimSpace(c.Message),
		})
		return nil
	})
	if err != nil && err != errLogLimit {
		return nil, fmt.Errorf("log iterate: %w", err)
	}
	return entries, nil
}

func (g *goGitRepo) CreateBranch(path, branch string) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("head: %w", err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), head.Hash())
	if err := repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	return nil
}

func (g *goGitRepo) Checkout(path, branch string) error {
	w, err := openWorktree(path)
	if err != nil {
		return err
	}
	if err := w.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
	}); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	return nil
}

func openWorktree(path string) (*git.Worktree, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	return w, nil
}
