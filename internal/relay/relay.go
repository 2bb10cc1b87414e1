package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// APIError is a non-ok answer from the Telegram Bot API. The
// description is what tool-style callers surface to the user.
type APIError struct {
	Description string
}

func (e *APIError) Error() string { return e.Description }

// SendOptions carries the optional sendMessage parameters.
type SendOptions struct {
	ParseMode        string
	ReplyToMessageID int
}

// Client is the single outbound path to the Telegram Bot API. Every
// variant (polling bot, webhook server, MCP tool server) sends through
// it, so there is exactly one credential-resolution and error-handling
// strategy.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

func New(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL points the client at a different API host (tests).
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// WithTimeout bounds every outbound call.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Timeout = d
	return c
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// call performs one Bot API method invocation and returns the raw
// result payload. A reachable API answering ok=false becomes *APIError.
func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var ar apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if !ar.OK {
		desc := ar.Description
		if desc == "" {
			desc = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return nil, &APIError{Description: desc}
	}
	return ar.Result, nil
}

// SendMessage delivers text to a chat and returns the sent message ID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) (int, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("text", text)
	if opts.ParseMode != "" {
		params.Set("parse_mode", opts.ParseMode)
	}
	if opts.ReplyToMessageID != 0 {
		params.Set("reply_to_message_id", strconv.Itoa(opts.ReplyToMessageID))
	}
	result, err := c.call(ctx, "sendMessage", params)
	if err != nil {
		return 0, err
	}
	var sent struct {
		MessageID int `json:"message_id"`
	}
	if err := json.Unmarshal(result, &sent); err != nil {
		return 0, fmt.Errorf("failed to parse sent message: %w", err)
	}
	return sent.MessageID, nil
}

// ChatInfo is the subset of getChat fields the bot exposes.
type ChatInfo struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Username    string `json:"username,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Description string `json:"description,omitempty"`
}

func (c *Client) GetChat(ctx context.Context, chatID int64) (ChatInfo, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	result, err := c.call(ctx, "getChat", params)
	if err != nil {
		return ChatInfo{}, err
	}
	var info ChatInfo
	if err := json.Unmarshal(result, &info); err != nil {
		return ChatInfo{}, fmt.Errorf("failed to parse chat info: %w", err)
	}
	return info, nil
}

// BotInfo is the subset of getMe fields the bot exposes.
type BotInfo struct {
	ID                      int64  `json:"id"`
	Username                string `json:"username"`
	FirstName               string `json:"first_name"`
	IsBot                   bool   `json:"is_bot"`
	CanJoinGroups           bool   `json:"can_join_groups"`
	CanReadAllGroupMessages bool   `json:"can_read_all_group_messages"`
	SupportsInlineQueries   bool   `json:"supports_inline_queries"`
}

func (c *Client) GetMe(ctx context.Context) (BotInfo, error) {
	result, err := c.call(ctx, "getMe", url.Values{})
	if err != nil {
		return BotInfo{}, err
	}
	var info BotInfo
	if err := json.Unmarshal(result, &info); err != nil {
		return BotInfo{}, fmt.Errorf("failed to parse bot info: %w", err)
	}
	return info, nil
}

// SetWebhook registers webhookURL for update delivery. The secret token
// is echoed back by Telegram in a request header.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secretToken string) error {
	params := url.Values{}
	params.Set("url", webhookURL)
	if secretToken != "" {
		params.Set("secret_token", secretToken)
	}
	_, err := c.call(ctx, "setWebhook", params)
	return err
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := c.call(ctx, "deleteWebhook", url.Values{})
	return err
}
