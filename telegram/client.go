// Package telegram is a minimal Telegram Bot API client covering the
// handful of calls the bot needs: getMe, getUpdates long polling,
// sendMessage and sendChatAction.
package telegram

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIBase builds the Bot API base URL for a token
// (e.g. "https://api.telegram.org/bot<token>").
func APIBase(token string) string {
	return "https://api.telegram.org/bot" + token
}

// Client is a minimal Telegram Bot API client.
type Client struct {
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a Telegram client for the given bot API base URL.
// requestTimeout must exceed the long-poll timeout passed to GetUpdates.
func NewClient(apiBase string, requestTimeout time.Duration) *Client {
	return &Client{
		apiBase: apiBase,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Response is the generic Telegram API response wrapper.
type Response struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description,omitempty"`
}

// GetMe returns the bot's own account, used to learn its username for
// mention detection.
func (c *Client) GetMe() (*User, error) {
	resp, err := c.httpClient.Get(c.apiBase + "/getMe")
	if err != nil {
		return nil, fmt.Errorf("telegram getMe request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read getMe response: %w", err)
	}

	var tgResp Response
	if err := json.Unmarshal(body, &tgResp); err != nil {
		return nil, fmt.Errorf("failed to parse getMe response: %w", err)
	}
	if !tgResp.OK {
		return nil, fmt.Errorf("telegram getMe rejected: %s", tgResp.Description)
	}

	var user User
	if err := json.Unmarshal(tgResp.Result, &user); err != nil {
		return nil, fmt.Errorf("failed to parse getMe result: %w", err)
	}
	return &user, nil
}

// GetUpdates calls the getUpdates API with long polling.
func (c *Client) GetUpdates(offset int64, timeout int) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(timeout))
	params.Set("allowed_updates", `["message"]`)

	resp, err := c.httpClient.Get(c.apiBase + "/getUpdates?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read getUpdates response: %w", err)
	}

	var tgResp Response
	if err := json.Unmarshal(body, &tgResp); err != nil {
		return nil, fmt.Errorf("failed to parse getUpdates response: %w", err)
	}
	if !tgResp.OK {
		return nil, nil
	}

	var updates []Update
	if err := json.Unmarshal(tgResp.Result, &updates); err != nil {
		return nil, fmt.Errorf("failed to parse getUpdates result: %w", err)
	}
	return updates, nil
}

// SendMessage sends a text message to the given chat.
func (c *Client) SendMessage(chatID int64, text string) error {
	limited := truncate(text, 3900)
	payload := fmt.Sprintf(`{"chat_id":%d,"text":%s}`, chatID, jsonString(limited))

	resp, err := c.httpClient.Post(
		c.apiBase+"/sendMessage",
		"application/json",
		strings.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("telegram sendMessage request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.ReadAll(resp.Body) // drain
	return nil
}

// SendChatAction sends a presence indicator ("typing") to the chat.
func (c *Client) SendChatAction(chatID int64, action string) error {
	payload := fmt.Sprintf(`{"chat_id":%d,"action":%s}`, chatID, jsonString(action))

	resp, err := c.httpClient.Post(
		c.apiBase+"/sendChatAction",
		"application/json",
		strings.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("telegram sendChatAction request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.ReadAll(resp.Body)
	return nil
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
