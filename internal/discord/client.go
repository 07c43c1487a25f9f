package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/randomairborne/aghast/internal/snowflake"
)

// APIBaseURL is the REST endpoint root.
const APIBaseURL = "https://discord.com/api/v10"

const defaultRequestTimeout = 15 * time.Second

// JSON error codes the bot reacts to.
const ErrorCodeUnknownChannel = 10003

// APIError is a non-2xx response from the REST API.
type APIError struct {
	Status  int
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord api: status %d code %d: %s", e.Status, e.Code, e.Message)
}

// IsUnknownChannel reports whether err is the platform saying a channel
// or thread no longer exists. This is the only error class that
// invalidates stored ticket state.
func IsUnknownChannel(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == ErrorCodeUnknownChannel || apiErr.Status == http.StatusNotFound
}

// Client is a minimal REST client. Safe for concurrent use.
type Client struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a client authenticating as the given bot.
func NewClient(token string) *Client {
	return &Client{
		Token:      token,
		BaseURL:    APIBaseURL,
		HTTPClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

// do runs one JSON round trip. body and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.Token)
	req.Header.Set("User-Agent", "DiscordBot (https://github.com/randomairborne/aghast, 1.0)")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil {
			apiErr.Message = string(data)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// CreateMessageParams is the body for message sends.
type CreateMessageParams struct {
	Content    string            `json:"content,omitempty"`
	Embeds     []Embed           `json:"embeds,omitempty"`
	Components []Component       `json:"components,omitempty"`
	Reference  *MessageReference `json:"message_reference,omitempty"`
}

// CreateMessage posts a message to a channel.
func (c *Client) CreateMessage(ctx context.Context, channelID snowflake.ID, params CreateMessageParams) (*Message, error) {
	var msg Message
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.do(ctx, http.MethodPost, path, params, &msg); err != nil {
		return nil, fmt.Errorf("failed to create message in %s: %w", channelID, err)
	}
	return &msg, nil
}

// EditMessageParams is the body for message edits.
type EditMessageParams struct {
	Content    string      `json:"content"`
	Components []Component `json:"components,omitempty"`
}

// EditMessage rewrites an existing message's content.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID snowflake.ID, params EditMessageParams) (*Message, error) {
	var msg Message
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	if err := c.do(ctx, http.MethodPatch, path, params, &msg); err != nil {
		return nil, fmt.Errorf("failed to edit message %s: %w", messageID, err)
	}
	return &msg, nil
}

// CreateReaction adds the bot's reaction to a message.
func (c *Client) CreateReaction(ctx context.Context, channelID, messageID snowflake.ID, emoji string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s/reactions/%s/@me", channelID, messageID, url.PathEscape(emoji))
	if err := c.do(ctx, http.MethodPut, path, nil, nil); err != nil {
		return fmt.Errorf("failed to add reaction: %w", err)
	}
	return nil
}

// ForumThreadMessageParams is the starter message for a forum thread.
type ForumThreadMessageParams struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// StartForumThreadParams names a new forum thread and provides its
// starter message, which the platform creates atomically with it.
type StartForumThreadParams struct {
	Name                string                   `json:"name"`
	AutoArchiveDuration int                      `json:"auto_archive_duration,omitempty"`
	Message             ForumThreadMessageParams `json:"message"`
}

// ForumThread is the created thread plus its starter message.
type ForumThread struct {
	Channel
	Message *Message `json:"message"`
}

// StartForumThread opens a new thread under a forum channel.
func (c *Client) StartForumThread(ctx context.Context, channelID snowflake.ID, params StartForumThreadParams) (*ForumThread, error) {
	var thread ForumThread
	path := fmt.Sprintf("/channels/%s/threads", channelID)
	if err := c.do(ctx, http.MethodPost, path, params, &thread); err != nil {
		return nil, fmt.Errorf("failed to start thread in %s: %w", channelID, err)
	}
	return &thread, nil
}

// CurrentApplication fetches the bot's application identity, including
// the interaction verify key.
func (c *Client) CurrentApplication(ctx context.Context) (*Application, error) {
	var app Application
	if err := c.do(ctx, http.MethodGet, "/oauth2/applications/@me", nil, &app); err != nil {
		return nil, fmt.Errorf("failed to fetch current application: %w", err)
	}
	return &app, nil
}

// BulkOverwriteGlobalCommands replaces the application's global command
// set.
func (c *Client) BulkOverwriteGlobalCommands(ctx context.Context, applicationID snowflake.ID, commands []CommandDefinition) error {
	path := fmt.Sprintf("/applications/%s/commands", applicationID)
	if err := c.do(ctx, http.MethodPut, path, commands, nil); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	return nil
}
