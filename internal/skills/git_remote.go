package skills

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"
	gitlab "github.com/xanzy/go-gitlab"
)

// gitRemote is the hosting-provider backend behind the git skill's issue and
// pull-request tools.
type gitRemote interface {
	ListIssues(owner, repo string) ([]gitIssue, error)
	CreateIssue(owner, repo, title, body string) (*gitIssue, error)
	ListPullRequests(owner, repo string) ([]gitPullRequest, error)
	CreatePullRequest(owner, repo, title, body, base, head string) (*gitPullRequest, error)
	CommentOnPR(owner, repo string, number int, body string) error
}

type gitIssue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body,omitempty"`
	State  string `json:"state"`
	URL    string `json:"url"`
}

type gitPullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body,omitempty"`
	State  string `json:"state"`
	URL    string `json:"url"`
	Base   string `json:"base"`
	Head   string `json:"head"`
}

// githubRemote implements gitRemote against the GitHub API.
type githubRemote struct {
	client *github.Client
}

func newGitHubRemote(token string) *githubRemote {
	return &githubRemote{client: github.NewClient(nil).WithAuthToken(token)}
}

func (g *githubRemote) ListIssues(owner, repo string) ([]gitIssue, error) {
	issues, _, err := g.client.Issues.ListByRepo(context.Background(), owner, repo,
		&github.IssueListByRepoOptions{State: "open"})
	if err != nil {
		return nil, fmt.Errorf("github list issues: %w", err)
	}

	var result []gitIssue
	for _, issue := range issues {
		// The issues endpoint also returns pull requests.
		if issue.PullRequestLinks != nil {
			continue
		}
		result = append(result, gitIssue{
			Number: issue.GetNumber(),
			Title:  issue.GetTitle(),
			Body:   issue.GetBody(),
			State:  issue.GetState(),
			URL:    issue.GetHTMLURL(),
		})
	}
	return result, nil
}

func (g *githubRemote) CreateIssue(owner, repo, title, body string) (*gitIssue, error) {
	issue, _, err := g.client.Issues.Create(context.Background(), owner, repo,
		&github.IssueRequest{Title: &title, Body: &body})
	if err != nil {
		return nil, fmt.Errorf("github create issue: %w", err)
	}
	return &gitIssue{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
		State:  issue.GetState(),
		URL:    issue.GetHTMLURL(),
	}, nil
}

func (g *githubRemote) ListPullRequests(owner, repo string) ([]gitPullRequest, error) {
	prs, _, err := g.client.PullRequests.List(context.Background(), owner, repo,
		&github.PullRequestListOptions{State: "open"})
	if err != nil {
		return nil, fmt.Errorf("github list PRs: %w", err)
	}

	var result []gitPullRequest
	for _, pr := range prs {
		result = append(result, gitPullRequest{
			Number: pr.GetNumber(),
			Title:  pr.GetTitle(),
			Body:   pr.GetBody(),
			State:  pr.GetState(),
			URL:    pr.GetHTMLURL(),
			Base:   pr.GetBase().GetRef(),
			Head:   pr.GetHead().GetRef(),
		})
	}
	return result, nil
}

func (g *githubRemote) CreatePullRequest(owner, repo, title, body, base, head string) (*gitPullRequest, error) {
	pr, _, err := g.client.PullRequests.Create(context.Background(), owner, repo,
		&github.NewPullRequest{Title: &title, Body: &body, Base: &base, Head: &head})
	if err != nil {
		return nil, fmt.Errorf("github create PR: %w", err)
	}
	return &gitPullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		Body:   pr.GetBody(),
		State:  pr.GetState(),
		URL:    pr.GetHTMLURL(),
		Base:   pr.GetBase().GetRef(),
		Head:   pr.GetHead().GetRef(),
	}, nil
}

func (g *githubRemote) CommentOnPR(owner, repo string, number int, body string) error {
	_, _, err := g.client.Issues.CreateComment(context.Background(), owner, repo, number,
		&github.IssueComment{Body: &body})
	if err != nil {
		return fmt.Errorf("github comment on PR: %w", err)
	}
	return nil
}

// gitlabRemote implements gitRemote against the GitLab API. Pull requests map
// to merge requests.
type gitlabRemote struct {
	client *gitlab.Client
}

func newGitLabRemote(token string) (*gitlabRemote, error) {
	client, err := gitlab.NewClient(token)
	if err != nil {
		return nil, fmt.Errorf("gitlab client init: %w", err)
	}
	return &gitlabRemote{client: client}, nil
}

func projectPath(owner, repo string) string {
	return owner + "/" + repo
}

func (g *gitlabRemote) ListIssues(owner, repo string) ([]gitIssue, error) {
	state := "opened"
	issues, _, err := g.client.Issues.ListProjectIssues(projectPath(owner, repo),
		&gitlab.ListProjectIssuesOptions{State: &state})
	if err != nil {
		return nil, fmt.Errorf("gitlab list issues: %w", err)
	}

	var result []gitIssue
	for _, issue := range issues {
		result = append(result, gitIssue{
			Number: issue.IID,
			Title:  issue.Title,
			Body:   issue.Description,
			State:  issue.State,
			URL:    issue.WebURL,
		})
	}
	return result, nil
}

func (g *gitlabRemote) CreateIssue(owner, repo, title, body string) (*gitIssue, error) {
	issue, _, err := g.client.Issues.CreateIssue(projectPath(owner, repo),
		&gitlab.CreateIssueOptions{Title: &title, Description: &body})
	if err != nil {
		return nil, fmt.Errorf("gitlab create issue: %w", err)
	}
	return &gitIssue{
		Number: issue.IID,
		Title:  issue.Title,
		Body:   issue.Description,
		State:  issue.State,
		URL:    issue.WebURL,
	}, nil
}

func (g *gitlabRemote) ListPullRequests(owner, repo string) ([]gitPullRequest, error) {
	state := "opened"
	mrs, _, err := g.client.MergeRequests.ListProjectMergeRequests(projectPath(owner, repo),
		&gitlab.ListProjectMergeRequestsOptions{State: &state})
	if err != nil {
		return nil, fmt.Errorf("gitlab list merge requests: %w", err)
	}

	var result []gitPullRequest
	for _, mr := range mrs {
		result = append(result, gitPullRequest{
			Number: mr.IID,
			Title:  mr.Title,
			Body:   mr.Description,
			State:  mr.State,
			URL:    mr.WebURL,
			Base:   mr.TargetBranch,
			Head:   mr.SourceBranch,
		})
	}
	return result, nil
}

func (g *gitlabRemote) CreatePullRequest(owner, repo, title, body, base, head string) (*gitPullRequest, error) {
	mr, _, err := g.client.MergeRequests.CreateMergeRequest(projectPath(owner, repo),
		&gitlab.CreateMergeRequestOptions{
			Title:        &title,
			Description:  &body,
			TargetBranch: &base,
			SourceBranch: &head,
		})
	if err != nil {
		return nil, fmt.Errorf("gitlab create merge request: %w", err)
	}
	return &gitPullRequest{
		Number: mr.IID,
		Title:  mr.Title,
		Body:   mr.Description,
		State:  mr.State,
		URL:    mr.WebURL,
		Base:   mr.TargetBranch,
		Head:   mr.SourceBranch,
	}, nil
}

func (g *gitlabRemote) CommentOnPR(owner, repo string, number int, body string) error {
	_, _, err := g.client.Notes.CreateMergeRequestNote(projectPath(owner, repo), number,
		&gitlab.CreateMergeRequestNoteOptions{Body: &body})
	if err != nil {
		return fmt.Errorf("gitlab comment on MR: %w", err)
	}
	return nil
}
