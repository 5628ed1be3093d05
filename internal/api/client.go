package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Backend is the subset of the tagging API the containers use. It is
// implemented by *Client and by fakes in tests.
type Backend interface {
	ListProjects(ctx context.Context) ([]ProjectSummary, error)
	ProjectImages(ctx context.Context, project string) ([]string, error)
	ProjectCategories(ctx context.Context, project string) ([]Category, error)
	ImageTags(ctx context.Context, project, image string) ([]string, error)
	SaveImageTags(ctx context.Context, project, image string, tags []string) error
	StreamSuggestions(ctx context.Context, project, image string, onSuggestion func(Suggestion)) bool
}

// Ensure Client implements Backend at compile time.
var _ Backend = (*Client)(nil)

// Client talks to the tagging HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	stream    *http.Client
	userAgent string
}

const (
	defaultAPIURL    = "127.0.0.1:8000"
	defaultUserAgent = "tagger/0.1"
	requestTimeout   = 10 * time.Second
	maxErrorBody     = 64 * 1024
)

// NewClient builds a Client for the API at apiURL (host:port or full URL).
func NewClient(apiURL string) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		// Event streams stay open for as long as the server keeps sending.
		stream:    &http.Client{},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Options configure a Request.
type Options struct {
	Method string
	Query  url.Values
	Body   any
}

// Request performs one JSON request. It never returns an error: failures are
// reported through Response.Success and Response.Errors.
func (c *Client) Request(ctx context.Context, endpoint string, opts Options) Response {
	if c == nil {
		return failure("client is nil")
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		raw, err := json.Marshal(opts.Body)
		if err != nil {
			return failure(fmt.Sprintf("encode request: %v", err))
		}
		body = bytes.NewReader(raw)
	}

	rel, err := url.Parse(endpoint)
	if err != nil {
		return failure(fmt.Sprintf("parse endpoint %q: %v", endpoint, err))
	}
	if len(opts.Query) > 0 {
		rel.RawQuery = opts.Query.Encode()
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return failure(fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return failure(fmt.Sprintf("execute request: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return errorResponse(rel.Path, resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(fmt.Sprintf("read response: %v", err))
	}
	if len(bytes.TrimSpace(raw)) > 0 && !json.Valid(raw) {
		return failure("decode response: invalid JSON")
	}
	return Response{Success: true, Data: raw}
}

// ListProjects retrieves the project list.
func (c *Client) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	var payload ProjectListResponse
	if err := c.getJSON(ctx, "/api/projects", &payload); err != nil {
		return nil, err
	}
	return payload.Projects, nil
}

// ProjectImages retrieves the image filenames of a project.
func (c *Client) ProjectImages(ctx context.Context, project string) ([]string, error) {
	var payload ImageListResponse
	if err := c.getJSON(ctx, projectPath(project, "images"), &payload); err != nil {
		return nil, err
	}
	return payload.Images, nil
}

// ProjectCategories retrieves a project's tag categories.
func (c *Client) ProjectCategories(ctx context.Context, project string) ([]Category, error) {
	var payload CategoryListResponse
	if err := c.getJSON(ctx, projectPath(project, "categories"), &payload); err != nil {
		return nil, err
	}
	return payload.Categories, nil
}

// ImageTags retrieves the tags stored in an image's tag file.
func (c *Client) ImageTags(ctx context.Context, project, image string) ([]string, error) {
	var payload TagsPayload
	if err := c.getJSON(ctx, imagePath(project, image, "tags"), &payload); err != nil {
		return nil, err
	}
	return payload.Tags, nil
}

// SaveImageTags replaces an image's tag file.
func (c *Client) SaveImageTags(ctx context.Context, project, image string, tags []string) error {
	resp := c.Request(ctx, imagePath(project, image, "tags"), Options{
		Method: http.MethodPut,
		Body:   TagsPayload{Tags: tags},
	})
	return resp.Err()
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dest any) error {
	resp := c.Request(ctx, endpoint, Options{})
	if err := resp.Err(); err != nil {
		return err
	}
	if len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func projectPath(project string, rest ...string) string {
	parts := append([]string{"/api/projects", url.PathEscape(project)}, rest...)
	return strings.Join(parts, "/")
}

func imagePath(project, image, leaf string) string {
	return projectPath(project, "images", url.PathEscape(image), leaf)
}

func failure(msg string) Response {
	return Response{Success: false, Errors: []string{msg}}
}

func errorResponse(path string, resp *http.Response) Response {
	msg := fmt.Sprintf("api %s returned status %d", path, resp.StatusCode)
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Errors []string `json:"errors"`
		Error  string   `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		errs := append([]string{msg}, payload.Errors...)
		if payload.Error != "" {
			errs = append(errs, payload.Error)
		}
		return Response{Success: false, Errors: errs}
	}
	return failure(msg)
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
