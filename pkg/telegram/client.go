// Package telegram is a minimal Telegram Bot API client covering the
// calls the lead workflow needs: sending messages with inline keyboards,
// answering button presses, editing reply markup, invite links, and a
// long-poll update stream.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Bot API operations used by this application.
type Client interface {
	// GetMe returns the bot's own account.
	GetMe(ctx context.Context) (*User, error)
	// SendMessage sends text to a chat. Target is a numeric chat id or
	// an @username.
	SendMessage(ctx context.Context, target, text string, opts ...SendOption) (*Message, error)
	// AnswerCallbackQuery acknowledges an inline-button press.
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
	// EditMessageReplyMarkup replaces the button grid on a sent message.
	EditMessageReplyMarkup(ctx context.Context, chatID, messageID int64, markup *InlineKeyboardMarkup) error
	// CreateInviteLink creates a fresh invite link for a chat.
	CreateInviteLink(ctx context.Context, chatID int64) (*ChatInviteLink, error)
	// GetUpdates long-polls for updates after offset.
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// SendOptions is the resolved form of a set of SendOption values.
// Exported so test doubles can inspect what a caller asked for.
type SendOptions struct {
	ParseMode             string
	DisableWebPagePreview bool
	ReplyMarkup           *InlineKeyboardMarkup
}

// SendOption configures an outgoing message.
type SendOption func(*SendOptions)

// ApplySendOptions resolves a set of options.
func ApplySendOptions(opts ...SendOption) SendOptions {
	var o SendOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithParseMode sets the message parse mode ("HTML", "Markdown").
func WithParseMode(mode string) SendOption {
	return func(o *SendOptions) { o.ParseMode = mode }
}

// WithReplyMarkup attaches an inline keyboard.
func WithReplyMarkup(markup *InlineKeyboardMarkup) SendOption {
	return func(o *SendOptions) { o.ReplyMarkup = markup }
}

// WithoutWebPreview disables link previews.
func WithoutWebPreview() SendOption {
	return func(o *SendOptions) { o.DisableWebPagePreview = true }
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a Bot API client for the given bot token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "https://api.telegram.org",
		http: &http.Client{
			// Long polls hold the connection open; the timeout must
			// exceed the largest poll window passed to GetUpdates.
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendRequest struct {
	ChatID                any                   `json:"chat_id"`
	Text                  string                `json:"text"`
	ParseMode             string                `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool                  `json:"disable_web_page_preview,omitempty"`
	ReplyMarkup           *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// chatTarget maps a string target onto the integer-or-string chat_id
// the Bot API expects.
func chatTarget(target string) any {
	if id, err := strconv.ParseInt(target, 10, 64); err == nil {
		return id
	}
	return target
}

func (c *httpClient) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.call(ctx, "getMe", struct{}{}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *httpClient) SendMessage(ctx context.Context, target, text string, opts ...SendOption) (*Message, error) {
	o := ApplySendOptions(opts...)
	req := sendRequest{
		ChatID:                chatTarget(target),
		Text:                  text,
		ParseMode:             o.ParseMode,
		DisableWebPagePreview: o.DisableWebPagePreview,
		ReplyMarkup:           o.ReplyMarkup,
	}

	var msg Message
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *httpClient) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	req := struct {
		CallbackQueryID string `json:"callback_query_id"`
		Text            string `json:"text,omitempty"`
	}{CallbackQueryID: callbackID, Text: text}

	var ok bool
	return c.call(ctx, "answerCallbackQuery", req, &ok)
}

func (c *httpClient) EditMessageReplyMarkup(ctx context.Context, chatID, messageID int64, markup *InlineKeyboardMarkup) error {
	req := struct {
		ChatID      int64                 `json:"chat_id"`
		MessageID   int64                 `json:"message_id"`
		ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	}{ChatID: chatID, MessageID: messageID, ReplyMarkup: markup}

	var msg json.RawMessage
	return c.call(ctx, "editMessageReplyMarkup", req, &msg)
}

func (c *httpClient) CreateInviteLink(ctx context.Context, chatID int64) (*ChatInviteLink, error) {
	req := struct {
		ChatID int64 `json:"chat_id"`
	}{ChatID: chatID}

	var link ChatInviteLink
	if err := c.call(ctx, "createChatInviteLink", req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *httpClient) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	req := struct {
		Offset         int64    `json:"offset,omitempty"`
		TimeoutSecs    int      `json:"timeout,omitempty"`
		AllowedUpdates []string `json:"allowed_updates,omitempty"`
	}{
		Offset:         offset,
		TimeoutSecs:    int(timeout / time.Second),
		AllowedUpdates: []string{"message", "callback_query"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// apiResponse is the Bot API envelope around every result.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

func (c *httpClient) call(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "telegram: marshal "+method)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "telegram: build "+method)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "telegram: "+method)
	}
	defer resp.Body.Close()

	var env apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return eris.Wrap(err, "telegram: decode "+method)
	}
	if !env.OK {
		return eris.New(fmt.Sprintf("telegram: %s: %d %s", method, env.ErrorCode, env.Description))
	}
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return eris.Wrap(err, "telegram: unmarshal "+method+" result")
		}
	}
	return nil
}
