// Package remote is the HTTP client for the course builder API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coursebuilder/internal/logger"
	"coursebuilder/internal/model"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request when the caller's context has no earlier deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = logger.OrNop(l).With("component", "remote") }
}

// Client talks to the course builder API. It satisfies editor.Remote.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	token   string
	log     *logger.Logger
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("remote: missing server URL")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("remote: invalid server URL %q: %w", baseURL, err)
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: 15 * time.Second,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthcheck", nil, nil)
}

func (c *Client) ListCourses(ctx context.Context) ([]model.CourseSummary, error) {
	var out struct {
		Courses []model.CourseSummary `json:"courses"`
	}
	if err := c.do(ctx, http.MethodGet, "/courses", nil, &out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

// CreateCourse posts a full course tree; the server mints any missing ids.
func (c *Client) CreateCourse(ctx context.Context, course model.Course) (*model.Course, error) {
	var out struct {
		Course *model.Course `json:"course"`
	}
	if err := c.do(ctx, http.MethodPost, "/courses", map[string]any{"course": course}, &out); err != nil {
		return nil, err
	}
	return out.Course, nil
}

func (c *Client) LoadCourse(ctx context.Context, courseID string) (*model.Course, error) {
	var out struct {
		Course *model.Course `json:"course"`
	}
	if err := c.do(ctx, http.MethodGet, "/courses/"+esc(courseID)+"/edit", nil, &out); err != nil {
		return nil, err
	}
	return out.Course, nil
}

func (c *Client) SaveBlocks(ctx context.Context, ref model.LessonRef, blocks []model.Block) ([]model.Block, error) {
	if blocks == nil {
		blocks = []model.Block{}
	}
	path := fmt.Sprintf("/courses/%s/modules/%s/lessons/%s/blocks", esc(ref.CourseID), esc(ref.ModuleID), esc(ref.LessonID))
	var out struct {
		Blocks []model.Block `json:"blocks"`
	}
	if err := c.do(ctx, http.MethodPut, path, map[string]any{"blocks": blocks}, &out); err != nil {
		return nil, err
	}
	return out.Blocks, nil
}

func (c *Client) ReorderBlocks(ctx context.Context, ref model.LessonRef, blockIDs []string) ([]model.Block, error) {
	path := fmt.Sprintf("/courses/%s/lessons/%s/blocks/reorder", esc(ref.CourseID), esc(ref.LessonID))
	var out struct {
		Blocks []model.Block `json:"blocks"`
	}
	if err := c.do(ctx, http.MethodPatch, path, map[string]any{"blockIds": blockIDs}, &out); err != nil {
		return nil, err
	}
	return out.Blocks, nil
}

func (c *Client) DuplicateBlock(ctx context.Context, ref model.LessonRef, blockID string) (model.Block, error) {
	path := fmt.Sprintf("/courses/%s/lessons/%s/blocks/%s/duplicate", esc(ref.CourseID), esc(ref.LessonID), esc(blockID))
	var out struct {
		Block model.Block `json:"block"`
	}
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return model.Block{}, err
	}
	return out.Block, nil
}

func (c *Client) CreateBlock(ctx context.Context, ref model.LessonRef, skeleton model.BlockSkeleton) (model.Block, error) {
	path := fmt.Sprintf("/courses/%s/lessons/%s/blocks", esc(ref.CourseID), esc(ref.LessonID))
	var out struct {
		Block model.Block `json:"block"`
	}
	if err := c.do(ctx, http.MethodPost, path, map[string]any{"block": skeleton}, &out); err != nil {
		return model.Block{}, err
	}
	return out.Block, nil
}

func esc(s string) string { return url.PathEscape(strings.TrimSpace(s)) }

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "error", err)
		return &Error{Method: method, Path: path, Message: err.Error(), Retryable: true, Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Message: err.Error(), Retryable: true, Err: err}
	}
	c.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start).String())

	if resp.StatusCode >= 400 {
		return decodeError(method, path, resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
