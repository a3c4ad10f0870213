package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v60/github"
)

// commentMarker tags the comment so later runs update it instead of adding a new one.
const commentMarker = "<!-- deploywrap:deploy-errors -->"

// Client posts deployment reports on pull requests.
type Client struct {
	gh    *gh.Client
	owner string
	repo  string
}

// New creates a GitHub client for owner/repo. A non-empty baseURL targets
// GitHub Enterprise.
func New(token, owner, repo, baseURL string) (*Client, error) {
	ghClient := gh.NewClient(&http.Client{}).WithAuthToken(token)
	if baseURL != "" {
		var err error
		ghClient, err = ghClient.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing github base url %q: %w", baseURL, err)
		}
	}
	return newWithClient(ghClient, owner, repo), nil
}

// newWithClient creates a Client around an injected GitHub client (for testing).
func newWithClient(ghClient *gh.Client, owner, repo string) *Client {
	return &Client{gh: ghClient, owner: owner, repo: repo}
}

// RenderComment formats a deployment error report as a comment body.
func RenderComment(title, report string) string {
	var b strings.Builder
	b.WriteString(commentMarker)
	b.WriteString("\n## ")
	b.WriteString(title)
	b.WriteString("\n\n```\n")
	b.WriteString(strings.TrimRight(report, "\n"))
	b.WriteString("\n```\n")
	return b.String()
}

// UpsertDeployComment writes body on pull request pr. An earlier deploywrap
// comment on the same PR is edited in place.
func (c *Client) UpsertDeployComment(ctx context.Context, pr int, body string) (int64, error) {
	existing, err := c.findComment(ctx, pr)
	if err != nil {
		return 0, err
	}

	comment := &gh.IssueComment{Body: &body}
	if existing != 0 {
		edited, _, err := c.gh.Issues.EditComment(ctx, c.owner, c.repo, existing, comment)
		if err != nil {
			return 0, fmt.Errorf("editing comment %d on %s/%s#%d: %w", existing, c.owner, c.repo, pr, err)
		}
		return edited.GetID(), nil
	}

	created, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, pr, comment)
	if err != nil {
		return 0, fmt.Errorf("commenting on %s/%s#%d: %w", c.owner, c.repo, pr, err)
	}
	return created.GetID(), nil
}

func (c *Client) findComment(ctx context.Context, pr int) (int64, error) {
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, c.owner, c.repo, pr, opts)
		if err != nil {
			return 0, fmt.Errorf("listing comments on %s/%s#%d: %w", c.owner, c.repo, pr, err)
		}
		for _, cm := range comments {
			if strings.Contains(cm.GetBody(), commentMarker) {
				return cm.GetID(), nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return 0, nil
		}
		opts.Page = resp.NextPage
	}
}

// PRNotifier publishes failure reports on a single pull request.
type PRNotifier struct {
	Client *Client
	PR     int
}

// NotifyFailure renders report and upserts it as the deploywrap comment.
func (n *PRNotifier) NotifyFailure(ctx context.Context, title, report string) error {
	_, err := n.Client.UpsertDeployComment(ctx, n.PR, RenderComment(title, report))
	return err
}
