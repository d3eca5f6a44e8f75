package modelscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/italolelis/modelscope_downloader/internal/dc"
	"github.com/italolelis/modelscope_downloader/internal/logctx"
)

const maxErrorBody = 4096

type Client struct {
	BaseURL    string
	httpClient *http.Client
	cookies    *CookieStore
}

type listResponse struct {
	Code    int    `json:"Code"`
	Success bool   `json:"Success"`
	Message string `json:"Message"`
	Data    *struct {
		Files []repoFile `json:"Files"`
	} `json:"Data"`
}

type repoFile struct {
	Name   string `json:"Name"`
	Path   string `json:"Path"`
	Size   int64  `json:"Size"`
	Sha256 string `json:"Sha256"`
	Type   string `json:"Type"`
}

func (f repoFile) toEntry() dc.Entry {
	return dc.Entry{
		Name:   f.Name,
		Path:   f.Path,
		Size:   f.Size,
		Sha256: f.Sha256,
		Kind:   dc.Kind(f.Type),
	}
}

func NewClient(baseURL string, httpClient *http.Client, cookies *CookieStore) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		cookies:    cookies,
	}
}

// Ensure Client implements ManifestSource
var _ dc.ManifestSource = (*Client)(nil)

// ListFiles fetches the recursive file listing of a repository.
func (c *Client) ListFiles(ctx context.Context, repoID string) ([]dc.Entry, error) {
	logger := logctx.LoggerFromContext(ctx).With("repo_id", repoID)

	u := fmt.Sprintf("%s/api/v1/models/%s/repo/files?Recursive=true", c.BaseURL, escapePath(repoID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &dc.ManifestUnavailableError{RepoID: repoID, Err: err}
	}

	logger.Debug("listing repository files", "url", u)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &dc.ManifestUnavailableError{RepoID: repoID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.Error("non-2xx response", "status", resp.StatusCode, "body", string(b))

		return nil, &dc.ManifestUnavailableError{RepoID: repoID, StatusCode: resp.StatusCode, Body: string(b)}
	}

	var listResp listResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, &dc.ManifestUnavailableError{RepoID: repoID, Err: fmt.Errorf("failed to decode listing: %w", err)}
	}

	if !listResp.Success {
		return nil, &dc.ManifestRejectedError{RepoID: repoID, Message: listResp.Message}
	}

	if listResp.Data == nil {
		return nil, &dc.ManifestRejectedError{RepoID: repoID, Message: "listing has no data"}
	}

	entries := make([]dc.Entry, 0, len(listResp.Data.Files))
	for _, f := range listResp.Data.Files {
		entries = append(entries, f.toEntry())
	}

	logger.Debug("listed repository files", "file_count", len(entries))

	return entries, nil
}

// FileURL returns the download URL of a file at the master revision.
func (c *Client) FileURL(repoID, path string) string {
	return fmt.Sprintf("%s/models/%s/resolve/master/%s", c.BaseURL, escapePath(repoID), escapePath(path))
}

// Login exchanges an access token for session cookies and stores them.
func (c *Client) Login(ctx context.Context, token string) error {
	logger := logctx.LoggerFromContext(ctx).With("method", "login")

	body, err := json.Marshal(map[string]string{"AccessToken": token})
	if err != nil {
		return fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.Error("non-2xx response", "status", resp.StatusCode, "body", string(b))

		return fmt.Errorf("failed to login: %s", string(b))
	}

	if err := c.cookies.Save(resp.Cookies()); err != nil {
		return err
	}

	logger.Debug("stored session cookies", "cookie_count", len(resp.Cookies()), "path", c.cookies.Path())

	return nil
}

// Logout forgets the stored session.
func (c *Client) Logout() error {
	return c.cookies.Clear()
}

func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	return strings.Join(segments, "/")
}
