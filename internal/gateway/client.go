// Package gateway is the HTTP client for the chat platform's bot API.
// It translates render instructions into sendMessage/editMessageText
// calls and keyboard payloads.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/render"
)

// Client talks to the chat API over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a chat API client. baseURL is the API root, token
// authenticates the bot.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard,omitempty"`
	Keyboard       [][]keyButton    `json:"keyboard,omitempty"`
	ResizeKeyboard bool             `json:"resize_keyboard,omitempty"`
}

type keyButton struct {
	Text string `json:"text"`
}

type sendMessageRequest struct {
	ChatID      int64        `json:"chat_id"`
	Text        string       `json:"text"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

type editMessageRequest struct {
	ChatID      int64        `json:"chat_id"`
	MessageID   int64        `json:"message_id"`
	Text        string       `json:"text"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// SendMessage posts a new message and returns its id. mainMenu attaches
// the persistent reply keyboard; options attach inline buttons.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, options [][]models.Option, mainMenu bool) (int64, error) {
	req := sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markupFor(options, mainMenu),
	}

	var resp apiResponse
	if err := c.call(ctx, "sendMessage", req, &resp); err != nil {
		return 0, err
	}
	return resp.Result.MessageID, nil
}

// EditMessage replaces the text and inline keyboard of an existing
// message in place.
func (c *Client) EditMessage(ctx context.Context, chatID, messageID int64, text string, options [][]models.Option) error {
	req := editMessageRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: markupFor(options, false),
	}

	var resp apiResponse
	return c.call(ctx, "editMessageText", req, &resp)
}

func markupFor(options [][]models.Option, mainMenu bool) *replyMarkup {
	if len(options) > 0 {
		var rows [][]inlineButton
		for _, row := range options {
			var buttons []inlineButton
			for _, opt := range row {
				buttons = append(buttons, inlineButton{
					Text:         opt.Label,
					CallbackData: opt.Token,
				})
			}
			rows = append(rows, buttons)
		}
		return &replyMarkup{InlineKeyboard: rows}
	}

	if mainMenu {
		var rows [][]keyButton
		for _, row := range render.MenuRows() {
			var buttons []keyButton
			for _, label := range row {
				buttons = append(buttons, keyButton{Text: label})
			}
			rows = append(rows, buttons)
		}
		return &replyMarkup{Keyboard: rows, ResizeKeyboard: true}
	}

	return nil
}

func (c *Client) call(ctx context.Context, method string, payload any, out *apiResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !out.OK {
		return fmt.Errorf("%s rejected: %s (status %d)", method, out.Description, resp.StatusCode)
	}
	return nil
}
