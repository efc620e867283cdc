package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"time"
)

// DefaultGitHubAPI is the public GitHub API endpoint.
const DefaultGitHubAPI = "https://api.github.com"

// GitHubConfig configures a GitHub source.
type GitHubConfig struct {
	APIURL   string   // API endpoint, defaults to DefaultGitHubAPI
	Owner    string   // repository owner
	Repo     string   // repository name
	Dir      string   // folder holding the articles within the repository
	Token    string   // optional token, raises rate limits and allows private repositories
	Branches []string // branches reported by Versions in addition to tags
}

// GitHub reads content through the GitHub contents API. The version is used
// as the git ref, so it may name a tag or a branch.
type GitHub struct {
	config     GitHubConfig
	httpClient *http.Client
}

// NewGitHub creates a GitHub source. A nil client uses a client with a 30 second timeout.
func NewGitHub(config GitHubConfig, client *http.Client) (*GitHub, error) {
	if config.Owner == "" || config.Repo == "" {
		return nil, fmt.Errorf("NewGitHub: owner and repo are required")
	}
	if config.APIURL == "" {
		config.APIURL = DefaultGitHubAPI
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GitHub{config: config, httpClient: client}, nil
}

// ReadArticle fetches <dir>/<slug>.mdx, falling back to <dir>/<slug>.md, at ref version.
func (g *GitHub) ReadArticle(ctx context.Context, version, slug string) ([]byte, error) {
	if err := check(version, slug); err != nil {
		return nil, err
	}
	for _, p := range articlePaths(g.config.Dir, slug) {
		b, err := g.contents(ctx, p, version)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("ReadArticle: %w", err)
		}
		return b, nil
	}
	return nil, ErrNotFound
}

// ReadIndex fetches <dir>/metadata.json at ref version.
func (g *GitHub) ReadIndex(ctx context.Context, version string) ([]byte, error) {
	if err := check(version); err != nil {
		return nil, err
	}
	b, err := g.contents(ctx, path.Join(g.config.Dir, IndexFile), version)
	if errors.Is(err, ErrNotFound) {
		return nil, err
	} else if err != nil {
		return nil, fmt.Errorf("ReadIndex: %w", err)
	}
	return b, nil
}

type githubTag struct {
	Name string `json:"name"`
}

// Versions lists the repository tags followed by the configured branches.
func (g *GitHub) Versions(ctx context.Context) ([]string, error) {
	var all []string
	page := 1
	perPage := 100
	for {
		endpoint := fmt.Sprintf("/repos/%s/%s/tags?per_page=%d&page=%d", g.config.Owner, g.config.Repo, perPage, page)
		req, err := g.newRequest(ctx, endpoint, "application/vnd.github+json")
		if err != nil {
			return nil, fmt.Errorf("Versions: %w", err)
		}
		var tags []githubTag
		if err := g.doRequest(req, func(r io.Reader) error { return json.NewDecoder(r).Decode(&tags) }); err != nil {
			return nil, fmt.Errorf("Versions: %w", err)
		}
		for _, t := range tags {
			if ValidName(t.Name) {
				all = append(all, t.Name)
			}
		}
		if len(tags) < perPage {
			break
		}
		page++
	}
	sort.Strings(all)
	return append(all, g.config.Branches...), nil
}

// contents returns the raw file at p for ref.
func (g *GitHub) contents(ctx context.Context, p, ref string) ([]byte, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", g.config.Owner, g.config.Repo, p, url.QueryEscape(ref))
	req, err := g.newRequest(ctx, endpoint, "application/vnd.github.raw")
	if err != nil {
		return nil, err
	}
	var b []byte
	err = g.doRequest(req, func(r io.Reader) error {
		var err error
		b, err = io.ReadAll(r)
		return err
	})
	return b, err
}

func (g *GitHub) newRequest(ctx context.Context, endpoint, accept string) (*http.Request, error) {
	u, err := url.Parse(g.config.APIURL + endpoint)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if g.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.Token)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "docserve/1.0")
	return req, nil
}

func (g *GitHub) doRequest(req *http.Request, read func(io.Reader) error) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("GitHub API error: %s", resp.Status)
	}
	return read(resp.Body)
}
