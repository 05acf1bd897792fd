package github

import (
	"context"
	"fmt"
	"io"
	"issuebot/internal/types"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmespath/go-jmespath"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://api.github.com"
	DefaultTimeout = 15 * time.Second

	userAgent = "issuebot"
	// maxBodyBytes bounds how much of a search response is read.
	maxBodyBytes = 8 << 20
)

var (
	itemsExpr   = jmespath.MustCompile("items[].{title: title, html_url: html_url}")
	messageExpr = jmespath.MustCompile("message")
)

// Client runs issue searches against the GitHub REST search endpoint.
type Client struct {
	baseURL string
	timeout time.Duration
	// base is used for unauthenticated requests and as the transport
	// underneath the per-token oauth2 clients.
	base *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.base = h }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	if c.base == nil {
		c.base = &http.Client{Timeout: c.timeout}
	}
	return c
}

// SearchQuery builds the q parameter for one repository.
func SearchQuery(repo, keyword string) string {
	return fmt.Sprintf("repo:%s type:issue %s", repo, keyword)
}

// SearchRepo returns the issues of repo matching keyword in the order GitHub
// returned them. A non-2xx response becomes a *types.UpstreamError carrying
// GitHub's own message.
func (c *Client) SearchRepo(ctx context.Context, repo, keyword, token string) ([]types.Issue, error) {
	q := url.Values{}
	q.Set("q", SearchQuery(repo, keyword))
	endpoint := c.baseURL + "/search/issues?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient(ctx, token).Do(req)
	if err != nil {
		return nil, types.Err(types.ErrUpstream, err, "search %s", repo)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, types.Err(types.ErrUpstream, err, "read response for %s", repo)
	}

	var payload any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil && resp.StatusCode < 300 {
			return nil, types.Err(types.ErrUpstream, err, "decode response for %s", repo)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &types.UpstreamError{StatusCode: resp.StatusCode, Message: upstreamMessage(payload)}
	}
	return projectIssues(payload)
}

// httpClient attaches the token through an oauth2 transport; without a token
// no Authorization header is sent at all.
func (c *Client) httpClient(ctx context.Context, token string) *http.Client {
	if token == "" {
		return c.base
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	hc.Timeout = c.base.Timeout
	return hc
}

func projectIssues(payload any) ([]types.Issue, error) {
	if payload == nil {
		return []types.Issue{}, nil
	}
	v, err := itemsExpr.Search(payload)
	if err != nil {
		return nil, fmt.Errorf("jmespath: %w", err)
	}
	rows, ok := v.([]any)
	if !ok {
		return []types.Issue{}, nil
	}
	issues := make([]types.Issue, 0, len(rows))
	for _, row := range rows {
		m, ok := row.(map[string]any)
		if !ok {
			continue
		}
		title, _ := m["title"].(string)
		link, _ := m["html_url"].(string)
		issues = append(issues, types.Issue{Title: title, HTMLURL: link})
	}
	return issues, nil
}

func upstreamMessage(payload any) string {
	if payload == nil {
		return ""
	}
	v, err := messageExpr.Search(payload)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
