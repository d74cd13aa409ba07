package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/go-github/v75/github"
)

// EnvToken names the environment variable carrying an optional GitHub API token.
const EnvToken = "GITHUB_TOKEN"

var (
	// errInvalidRepository is returned when a repository slug is not "owner/name".
	errInvalidRepository = errors.New(`repository must be in "owner/name" form`)
	// errUnexpectedStatus is returned when an asset download answers non-200.
	errUnexpectedStatus = errors.New("unexpected HTTP status")
)

// Asset is one downloadable file attached to a release.
type Asset struct {
	// Name is the asset filename.
	Name string
	// URL is the browser download URL; fetching it follows redirects.
	URL string
	// Size is the asset size in bytes as reported by the API.
	Size int64
}

// Release is a published tag with its attached assets.
type Release struct {
	// TagName is the release tag, e.g. "v0.3.0".
	TagName string
	// Assets lists the attached files in API order.
	Assets []Asset
}

// Client fetches release metadata and asset content for one repository.
type Client struct {
	// api is the GitHub REST client.
	api *github.Client
	// httpClient performs asset downloads.
	httpClient *http.Client
	// owner and repo identify the repository.
	owner string
	repo  string
}

// Option configures the client.
type Option func(*Client)

// WithToken authenticates API requests; unauthenticated requests work but are
// rate-limited much harder.
func WithToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.api = c.api.WithAuthToken(token)
		}
	}
}

// WithBaseURL points API requests at a different endpoint, mainly test servers.
// The URL must end with a trailing slash.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		parsed, err := url.Parse(raw)
		if err != nil {
			return
		}

		c.api.BaseURL = parsed
	}
}

// WithHTTPClient overrides the client used for asset downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient creates a release client for the "owner/name" repository slug.
// A GITHUB_TOKEN environment value is picked up automatically.
func NewClient(repository string, opts ...Option) (*Client, error) {
	owner, repo, err := splitRepository(repository)
	if err != nil {
		return nil, err
	}

	c := &Client{
		api:        github.NewClient(nil),
		httpClient: http.DefaultClient,
		owner:      owner,
		repo:       repo,
	}

	if token := os.Getenv(EnvToken); token != "" {
		c.api = c.api.WithAuthToken(token)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Repository returns the "owner/name" slug the client is bound to.
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// Latest returns the repository's latest published release.
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	published, _, err := c.api.Repositories.GetLatestRelease(ctx, c.owner, c.repo)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release of %s/%s: %w", c.owner, c.repo, err)
	}

	return mapRelease(published), nil
}

// ByTag returns the repository's release published under the given tag.
func (c *Client) ByTag(ctx context.Context, tag string) (*Release, error) {
	published, _, err := c.api.Repositories.GetReleaseByTag(ctx, c.owner, c.repo, tag)
	if err != nil {
		return nil, fmt.Errorf("fetch release %s of %s/%s: %w", tag, c.owner, c.repo, err)
	}

	return mapRelease(published), nil
}

// mapRelease converts the API representation into the domain model.
func mapRelease(published *github.RepositoryRelease) *Release {
	release := &Release{
		TagName: published.GetTagName(),
		Assets:  make([]Asset, 0, len(published.Assets)),
	}

	for _, asset := range published.Assets {
		release.Assets = append(release.Assets, Asset{
			Name: asset.GetName(),
			URL:  asset.GetBrowserDownloadURL(),
			Size: int64(asset.GetSize()),
		})
	}

	return release
}

// Download streams the asset to destPath and returns the number of bytes
// written. Redirects are followed; anything but HTTP 200 after redirects is
// an error.
func (c *Client) Download(ctx context.Context, asset Asset, destPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", asset.Name, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download %s: %w: %s", asset.Name, errUnexpectedStatus, resp.Status)
	}

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", destPath, err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return written, fmt.Errorf("write %s: %w", destPath, err)
	}

	return written, nil
}

// splitRepository parses an "owner/name" slug.
func splitRepository(repository string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(repository), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", errInvalidRepository, repository)
	}

	return parts[0], parts[1], nil
}
