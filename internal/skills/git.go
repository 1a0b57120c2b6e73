package skills

import (
	"fmt"
	"strings"

	"skillbox/internal/domain"
	"skillbox/internal/schema"
)

// GitSkill covers local repository operations through go-git and issue/PR
// operations through the GitHub and GitLab APIs. Remote tools pick the
// provider from the "provider" argument, defaulting to github.
type GitSkill struct {
	repo        gitRepo
	githubToken string
	gitlabToken string

	// injectable for tests
	newGitHub func(token string) gitRemote
	newGitLab func(token string) (gitRemote, error)
}

func NewGitSkill(githubToken, gitlabToken string) *GitSkill {
	return &GitSkill{
		repo:        &goGitRepo{},
		githubToken: githubToken,
		gitlabToken: gitlabToken,
		newGitHub:   func(token string) gitRemote { return newGitHubRemote(token) },
		newGitLab:   func(token string) (gitRemote, error) { return newGitLabRemote(token) },
	}
}

func (s *GitSkill) Name() string        { return "git" }
func (s *GitSkill) Description() string { return "Git: local repos, GitHub/GitLab issues and PRs" }

type gitCloneInput struct {
	URL  string `json:"url" jsonschema:"description=Repository URL"`
	Path string `json:"path" jsonschema:"description=Destination directory"`
}

type gitPathInput struct {
	Path string `json:"path" jsonschema:"description=Repository path"`
}

type gitAddInput struct {
	Path  string   `json:"path" jsonschema:"description=Repository path"`
	Files []string `json:"files" jsonschema:"description=Files to stage"`
}

type gitCommitInput struct {
	Path    string `json:"path" jsonschema:"description=Repository path"`
	Message string `json:"message" jsonschema:"description=Commit message"`
	Author  string `json:"author,omitempty" jsonschema:"description=Author as 'Name <email>'"`
}

type gitRemoteOpInput struct {
	Path   string `json:"path" jsonschema:"description=Repository path"`
	Remote string `json:"remote,omitempty" jsonschema:"description=Remote name (default: origin)"`
	Branch string `json:"branch,omitempty" jsonschema:"description=Branch name (default: main)"`
}

type gitLogInput struct {
	Path  string `json:"path" jsonschema:"description=Repository path"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Max commits (default: 10)"`
}

type gitBranchInput struct {
	Path   string `json:"path" jsonschema:"description=Repository path"`
	Branch string `json:"branch" jsonschema:"description=Branch name"`
}

type gitRepoRefInput struct {
	Owner    string `json:"owner" jsonschema:"description=Repository owner or group"`
	Repo     string `json:"repo" jsonschema:"description=Repository name"`
	Provider string `json:"provider,omitempty" jsonschema:"description='github' or 'gitlab' (default: github)"`
}

type gitIssueCreateInput struct {
	Owner    string `json:"owner" jsonschema:"description=Repository owner or group"`
	Repo     string `json:"repo" jsonschema:"description=Repository name"`
	Title    string `json:"title" jsonschema:"description=Issue title"`
	Body     string `json:"body,omitempty" jsonschema:"description=Issue body"`
	Provider string `json:"provider,omitempty" jsonschema:"description='github' or 'gitlab' (default: github)"`
}

type gitPRCreateInput struct {
	Owner    string `json:"owner" jsonschema:"description=Repository owner or group"`
	Repo     string `json:"repo" jsonschema:"description=Repository name"`
	Title    string `json:"title" jsonschema:"description=PR title"`
	Body     string `json:"body,omitempty" jsonschema:"description=PR body"`
	Base     string `json:"base" jsonschema:"description=Target branch"`
	Head     string `json:"head" jsonschema:"description=Source branch"`
	Provider string `json:"provider,omitempty" jsonschema:"description='github' or 'gitlab' (default: github)"`
}

type gitPRCommentInput struct {
	Owner    string `json:"owner" jsonschema:"description=Repository owner or group"`
	Repo     string `json:"repo" jsonschema:"description=Repository name"`
	Number   int    `json:"number" jsonschema:"description=PR number"`
	Body     string `json:"body" jsonschema:"description=Comment body"`
	Provider string `json:"provider,omitempty" jsonschema:"description='github' or 'gitlab' (default: github)"`
}

func (s *GitSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("git_clone", "Clone a repository", gitCloneInput{}, s.clone),
		newTool("git_status", "Show working tree status", gitPathInput{}, s.status),
		newTool("git_add", "Stage files", gitAddInput{}, s.add),
		newTool("git_commit", "Commit staged changes", gitCommitInput{}, s.commit),
		newTool("git_push", "Push commits to a remote", gitRemoteOpInput{}, s.push),
		newTool("git_pull", "Pull changes from a remote", gitRemoteOpInput{}, s.pull),
		newTool("git_log", "Show recent commits", gitLogInput{}, s.log),
		newTool("git_branch", "Create a branch at HEAD", gitBranchInput{}, s.branch),
		newTool("git_checkout", "Switch to a branch", gitBranchInput{}, s.checkout),
		newTool("git_issues", "List open issues", gitRepoRefInput{}, s.listIssues),
		newTool("git_issue_create", "Create an issue", gitIssueCreateInput{}, s.createIssue),
		newTool("git_prs", "List open pull requests", gitRepoRefInput{}, s.listPRs),
		newTool("git_pr_create", "Create a pull request", gitPRCreateInput{}, s.createPR),
		newTool("git_pr_comment", "Comment on a pull request", gitPRCommentInput{}, s.commentPR),
	}
}

// remote resolves the provider backend named in args, checking that the
// matching token is configured.
func (s *GitSkill) remote(args schema.Args) (gitRemote, string, error) {
	switch provider := strings.ToLower(args.String("provider", "github")); provider {
	case "github", "":
		if s.githubToken == "" {
			return nil, "", fmt.Errorf("no GitHub token configured")
		}
		return s.newGitHub(s.githubToken), "github", nil
	case "gitlab":
		if s.gitlabToken == "" {
			return nil, "", fmt.Errorf("no GitLab token configured")
		}
		r, err := s.newGitLab(s.gitlabToken)
		return r, "gitlab", err
	default:
		return nil, "", fmt.Errorf("unknown provider: %s", provider)
	}
}

func (s *GitSkill) clone(args schema.Args) (string, error) {
	url := args.String("url", "")
	path := expandHome(args.String("path", ""))
	if err := s.repo.Clone(url, path, s.githubToken); err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return fmt.Sprintf("Cloned %s to %s", url, path), nil
}

func (s *GitSkill) status(args schema.Args) (string, error) {
	status, err := s.repo.Status(expandHome(args.String("path", "")))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	if strings.TrimSpace(status) == "" {
		return "Working tree clean", nil
	}
	return status, nil
}

func (s *GitSkill) add(args schema.Args) (string, error) {
	files := args.Strings("files")
	if len(files) == 0 {
		return "No files given", nil
	}
	if err := s.repo.Add(expandHome(args.String("path", "")), files); err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return fmt.Sprintf("Staged %d file(s)", len(files)), nil
}

func (s *GitSkill) commit(args schema.Args) (string, error) {
	hash, err := s.repo.Commit(
		expandHome(args.String("path", "")),
		args.String("message", ""),
		args.String("author", ""))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return jsonBlob(map[string]string{"commit": hash}), nil
}

func (s *GitSkill) push(args schema.Args) (string, error) {
	remote := args.String("remote", "origin")
	branch := args.String("branch", "main")
	if err := s.repo.Push(expandHome(args.String("path", "")), remote, branch, s.githubToken); err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return fmt.Sprintf("Pushed %s to %s", branch, remote), nil
}

func (s *GitSkill) pull(args schema.Args) (string, error) {
	remote := args.String("remote", "origin")
	branch := args.String("branch", "main")
	if err := s.repo.Pull(expandHome(args.String("path", "")), remote, branch, s.githubToken); err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return fmt.Sprintf("Pulled %s from %s", branch, remote), nil
}

func (s *GitSkill) log(args schema.Args) (string, error) {
	limit := args.Int("limit", 10)
	if limit <= 0 {
		limit = 10
	}
	entries, err := s.repo.Log(expandHome(args.String("path", "")), limit)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return jsonBlob(map[string]interface{}{
		"count":   len(entries),
		"commits": entries,
	}), nil
}

func (s *GitSkill) branch(args schema.Args) (string, error) {
	branch := args.String("branch", "")
	if err := s.repo.CreateBranch(expandHome(args.String("path", "")), branch); err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return fmt.Sprintf("Created branch %s", branch), nil
}

func (s *GitSkill) checkout(args schema.Args) (string, error) {
	branch := args.String("branch", "")
	if err := s.repo.Checkout(expandHome(args.String("path", "")), branch); err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return fmt.Sprintf("Switched to branch %s", branch), nil
}

func (s *GitSkill) listIssues(args schema.Args) (string, error) {
	remote, provider, err := s.remote(args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	issues, err := remote.ListIssues(args.String("owner", ""), args.String("repo", ""))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return jsonBlob(map[string]interface{}{
		"provider": provider,
		"count":    len(issues),
		"issues":   issues,
	}), nil
}

func (s *GitSkill) createIssue(args schema.Args) (string, error) {
	remote, _, err := s.remote(args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	issue, err := remote.CreateIssue(
		args.String("owner", ""), args.String("repo", ""),
		args.String("title", ""), args.String("body", ""))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return jsonBlob(issue), nil
}

func (s *GitSkill) listPRs(args schema.Args) (string, error) {
	remote, provider, err := s.remote(args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	prs, err := remote.ListPullRequests(args.String("owner", ""), args.String("repo", ""))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return jsonBlob(map[string]interface{}{
		"provider":      provider,
		"count":         len(prs),
		"pull_requests": prs,
	}), nil
}

func (s *GitSkill) createPR(args schema.Args) (string, error) {
	remote, _, err := s.remote(args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	pr, err := remote.CreatePullRequest(
		args.String("owner", ""), args.String("repo", ""),
		args.String("title", ""), args.String("body", ""),
		args.String("base", ""), args.String("head", ""))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return jsonBlob(pr), nil
}

func (s *GitSkill) commentPR(args schema.Args) (string, error) {
	remote, _, err := s.remote(args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	number := args.Int("number", 0)
	if err := remote.CommentOnPR(args.String("owner", ""), args.String("repo", ""),
		number, args.String("body", "")); err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return fmt.Sprintf("Comment added to #%d", number), nil
}
