// Package mattermost is the chat adapter: user lookup doubles as the handle
// verification oracle, and delivery creates direct or group conversations.
package mattermost

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jhornung97/ETPApprover/internal/config"
	"github.com/jhornung97/ETPApprover/internal/domain"
	"github.com/jhornung97/ETPApprover/internal/ports"
)

// Client talks to the Mattermost REST v4 API with a bot token.
type Client struct {
	apiURL string
	token  string
	client *http.Client
	logger *slog.Logger

	botID   string
	botName string
}

var (
	_ ports.HandleOracle  = (*Client)(nil)
	_ ports.ChatDeliverer = (*Client)(nil)
)

// NewClient registers the API endpoint and token. InsecureTLS accepts the
// self-signed certificate the on-premise chat host serves.
func NewClient(cfg config.ChatConfig, logger *slog.Logger) *Client {
	transport := http.DefaultTransport
	if cfg.InsecureTLS {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		apiURL: strings.TrimSuffix(cfg.APIURL, "/"),
		token:  cfg.Token,
		client: &http.Client{Timeout: 15 * time.Second, Transport: transport},
		logger: logger,
	}
}

type user struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type channel struct {
	ID string `json:"id"`
}

// Connect verifies the token and caches the bot identity.
func (c *Client) Connect(ctx context.Context) error {
	if c.botID != "" {
		return nil
	}

	var me user
	if err := c.get(ctx, "/v4/users/me", &me); err != nil {
		return fmt.Errorf("chat connection: %w", err)
	}

	c.botID = me.ID
	c.botName = me.Username
	c.debug("connected to chat", "bot", me.Username, "id", me.ID)
	return nil
}

// HandleExists reports whether a username is registered on the platform.
func (c *Client) HandleExists(ctx context.Context, handle string) (bool, error) {
	req, err := c.request(ctx, http.MethodGet, "/v4/users/username/"+handle, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w: %w", handle, domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("lookup %s: unexpected status %s", handle, resp.Status)
	}
}

// Deliver sends one message: a direct channel for a single recipient, a group
// conversation for several.
func (c *Client) Deliver(ctx context.Context, recipients []string, message string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients")
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}

	ids := make([]string, 0, len(recipients))
	for _, handle := range recipients {
		u, err := c.userByUsername(ctx, handle)
		if err != nil {
			return fmt.Errorf("recipient %s: %w", handle, err)
		}
		ids = append(ids, u.ID)
	}

	var ch channel
	if len(ids) == 1 {
		if err := c.post(ctx, "/v4/channels/direct", []string{c.botID, ids[0]}, &ch); err != nil {
			return fmt.Errorf("create direct channel: %w", err)
		}
	} else {
		members := append([]string{c.botID}, ids...)
		if err := c.post(ctx, "/v4/channels/group", members, &ch); err != nil {
			return fmt.Errorf("create group channel: %w", err)
		}
	}

	payload := map[string]string{
		"channel_id": ch.ID,
		"message":    message,
	}
	if err := c.post(ctx, "/v4/posts", payload, nil); err != nil {
		return fmt.Errorf("post message: %w", err)
	}

	c.debug("message delivered", "recipients", strings.Join(recipients, ", "), "group", len(ids) > 1)
	return nil
}

func (c *Client) userByUsername(ctx context.Context, handle string) (user, error) {
	var u user
	if err := c.get(ctx, "/v4/users/username/"+handle, &u); err != nil {
		return user{}, err
	}
	return u, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, v)
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := c.request(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) request(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	var req *http.Request
	var err error
	if body == nil {
		req, err = http.NewRequestWithContext(ctx, method, c.apiURL+path, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	}
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("chat api returned %s", resp.Status)
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
