package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	gh "github.com/google/go-github/v60/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

type fakeIssues struct {
	mu       sync.Mutex
	comments []*gh.IssueComment
	created  int
	edited   int
}

func setupTestServer(t *testing.T, issues *fakeIssues) *gh.Client {
	t.Helper()
	mux := http.NewServeMux()

	// go-github prepends /api/v3 with WithEnterpriseURLs
	mux.HandleFunc("GET /api/v3/repos/acme/crm/issues/12/comments", func(w http.ResponseWriter, r *http.Request) {
		issues.mu.Lock()
		defer issues.mu.Unlock()
		json.NewEncoder(w).Encode(issues.comments)
	})

	mux.HandleFunc("POST /api/v3/repos/acme/crm/issues/12/comments", func(w http.ResponseWriter, r *http.Request) {
		var in gh.IssueComment
		json.NewDecoder(r.Body).Decode(&in)
		issues.mu.Lock()
		defer issues.mu.Unlock()
		issues.created++
		c := &gh.IssueComment{ID: ptr(int64(100 + len(issues.comments))), Body: in.Body}
		issues.comments = append(issues.comments, c)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(c)
	})

	mux.HandleFunc("PATCH /api/v3/repos/acme/crm/issues/comments/7", func(w http.ResponseWriter, r *http.Request) {
		var in gh.IssueComment
		json.NewDecoder(r.Body).Decode(&in)
		issues.mu.Lock()
		defer issues.mu.Unlock()
		issues.edited++
		for _, c := range issues.comments {
			if c.GetID() == 7 {
				c.Body = in.Body
			}
		}
		json.NewEncoder(w).Encode(&gh.IssueComment{ID: ptr(int64(7)), Body: in.Body})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := gh.NewClient(nil).WithAuthToken("test-token")
	baseURL := server.URL + "/"
	client, err := client.WithEnterpriseURLs(baseURL, baseURL)
	require.NoError(t, err)
	return client
}

func TestRenderComment(t *testing.T) {
	body := RenderComment("Deployment failed", "line one\nline two\n")

	assert.True(t, strings.HasPrefix(body, commentMarker))
	assert.Contains(t, body, "## Deployment failed")
	assert.Contains(t, body, "```\nline one\nline two\n```")
}

func TestUpsertCreatesComment(t *testing.T) {
	issues := &fakeIssues{comments: []*gh.IssueComment{
		{ID: ptr(int64(1)), Body: ptr("LGTM")},
	}}
	c := newWithClient(setupTestServer(t, issues), "acme", "crm")

	id, err := c.UpsertDeployComment(context.Background(), 12, RenderComment("Deployment failed", "boom"))
	require.NoError(t, err)

	assert.Equal(t, int64(101), id)
	assert.Equal(t, 1, issues.created)
	assert.Equal(t, 0, issues.edited)
}

func TestUpsertEditsExistingComment(t *testing.T) {
	issues := &fakeIssues{comments: []*gh.IssueComment{
		{ID: ptr(int64(1)), Body: ptr("LGTM")},
		{ID: ptr(int64(7)), Body: ptr(commentMarker + "\nold report")},
	}}
	c := newWithClient(setupTestServer(t, issues), "acme", "crm")

	id, err := c.UpsertDeployComment(context.Background(), 12, RenderComment("Deployment failed", "new report"))
	require.NoError(t, err)

	assert.Equal(t, int64(7), id)
	assert.Equal(t, 0, issues.created)
	assert.Equal(t, 1, issues.edited)
	assert.Contains(t, issues.comments[1].GetBody(), "new report")
}

func TestUpsertReportsAPIErrors(t *testing.T) {
	issues := &fakeIssues{}
	c := newWithClient(setupTestServer(t, issues), "acme", "unknown")

	_, err := c.UpsertDeployComment(context.Background(), 12, "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acme/unknown#12")
}

func TestNewWithEnterpriseURL(t *testing.T) {
	c, err := New("token", "acme", "crm", "https://github.acme.internal/")
	require.NoError(t, err)
	assert.Equal(t, "https://github.acme.internal/api/v3/", c.gh.BaseURL.String())
}

func TestPRNotifier(t *testing.T) {
	issues := &fakeIssues{}
	n := &PRNotifier{Client: newWithClient(setupTestServer(t, issues), "acme", "crm"), PR: 12}

	require.NoError(t, n.NotifyFailure(context.Background(), "Deployment simulation failed", "tip"))

	require.Len(t, issues.comments, 1)
	assert.Contains(t, issues.comments[0].GetBody(), "## Deployment simulation failed")
}
