// Package repository talks to the document repository: form login with CSRF
// token scraping, then the deposit listing API.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jhornung97/ETPApprover/internal/config"
	"github.com/jhornung97/ETPApprover/internal/domain"
	"github.com/jhornung97/ETPApprover/internal/ports"
)

const (
	loginPath   = "/login/?next=%2F"
	listingPath = "/api/deposit/depositions"
	acceptType  = "application/vnd.zenodo.v1+json"
)

// Client is a session-holding repository client. Login must succeed before
// any submission is touched; all later calls reuse the session cookie.
type Client struct {
	baseURL  string
	email    string
	password string
	client   *http.Client
	logger   *slog.Logger

	authenticated bool
}

var _ ports.SubmissionSource = (*Client)(nil)

// NewClient wires an HTTP client with a cookie jar for the login session.
func NewClient(cfg config.RepositoryConfig, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err == nil {
			client.Jar = jar
		}
	}

	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		email:    cfg.Email,
		password: cfg.Password,
		client:   client,
		logger:   logger,
	}
}

// Login scrapes the CSRF token off the login page, posts the credential form
// and verifies the session by looking for the logout link in the response.
// A rejected login is domain.ErrAuthentication and fatal for the run.
func (c *Client) Login(ctx context.Context) error {
	loginURL := c.baseURL + loginPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch login page: %w: %w", domain.ErrTransport, err)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("parse login page: %w", err)
	}

	token, exists := doc.Find("input#csrf_token").First().Attr("value")
	if !exists || token == "" {
		return fmt.Errorf("csrf token not found on login page: %w", domain.ErrAuthentication)
	}

	form := url.Values{}
	form.Set("email", c.email)
	form.Set("password", c.password)
	form.Set("csrf_token", token)
	form.Set("next", "/deposit")

	postReq, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login post: %w", err)
	}
	postReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	postResp, err := c.client.Do(postReq)
	if err != nil {
		return fmt.Errorf("post login form: %w: %w", domain.ErrTransport, err)
	}
	defer postResp.Body.Close()

	if postResp.StatusCode != http.StatusOK {
		return fmt.Errorf("login returned %s: %w", postResp.Status, domain.ErrAuthentication)
	}

	loggedIn, err := goquery.NewDocumentFromReader(postResp.Body)
	if err != nil {
		return fmt.Errorf("parse login response: %w", err)
	}
	if loggedIn.Find(`a[href="/logout"]`).Length() == 0 &&
		!strings.Contains(strings.ToLower(loggedIn.Text()), "logout") {
		return fmt.Errorf("credentials rejected: %w", domain.ErrAuthentication)
	}

	c.authenticated = true
	c.debug("repository login successful", "url", loginURL)
	return nil
}

// PendingSubmissions fetches the deposit listing and returns the raw records
// whose approval status is pending, in upstream order.
func (c *Client) PendingSubmissions(ctx context.Context) ([]map[string]any, error) {
	if !c.authenticated {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+listingPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}
	req.Header.Set("Accept", acceptType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch submissions: %w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned %s: %w", resp.Status, domain.ErrTransport)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	all := recordsFromPayload(payload)

	var pending []map[string]any
	for _, record := range all {
		if status, _ := record["approval_status"].(string); status == "pending" {
			pending = append(pending, record)
		}
	}

	c.debug("fetched submissions", "total", len(all), "pending", len(pending))
	return pending, nil
}

// recordsFromPayload unwraps the two listing shapes the repository serves:
// a plain array or a search envelope under hits.hits.
func recordsFromPayload(payload any) []map[string]any {
	var items []any
	switch value := payload.(type) {
	case []any:
		items = value
	case map[string]any:
		if hits, ok := value["hits"].(map[string]any); ok {
			items, _ = hits["hits"].([]any)
		}
	}

	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if record, ok := item.(map[string]any); ok {
			records = append(records, record)
		}
	}
	return records
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
