package notify

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

	"github.com/oshokin/gfs-monitor/internal/config"
)

const (
	// DefaultDiscordAPIURL is the Discord REST API root.
	DefaultDiscordAPIURL = "https://discord.com/api/v10"

	// colorInfo is the embed color of routine messages.
	colorInfo = 0x3498db
	// colorSuccess is the embed color of completion messages.
	colorSuccess = 0x00ff00

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 512
)

// DiscordSink posts embeds to a channel through the bot API.
type DiscordSink struct {
	apiURL     string
	token      string
	channelID  string
	httpClient *http.Client
	now        func() time.Time
}

// DiscordOption configures a DiscordSink.
type DiscordOption func(*DiscordSink)

// WithDiscordAPIURL overrides the API root, mostly for tests and proxies.
func WithDiscordAPIURL(apiURL string) DiscordOption {
	return func(d *DiscordSink) {
		if apiURL != "" {
			d.apiURL = strings.TrimRight(apiURL, "/")
		}
	}
}

// WithDiscordTimeout bounds a single send.
func WithDiscordTimeout(timeout time.Duration) DiscordOption {
	return func(d *DiscordSink) {
		if timeout > 0 {
			d.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithDiscordClock sets the time source of embed timestamps.
func WithDiscordClock(now func() time.Time) DiscordOption {
	return func(d *DiscordSink) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDiscordSink returns a sink posting to channelID with the bot token.
func NewDiscordSink(token, channelID string, opts ...DiscordOption) *DiscordSink {
	d := &DiscordSink{
		apiURL:     DefaultDiscordAPIURL,
		token:      token,
		channelID:  channelID,
		httpClient: &http.Client{Timeout: config.DefaultNotifierTimeout},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// discordEmbed is the subset of the embed object the monitor fills.
type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

// discordMessage is the create-message request body.
type discordMessage struct {
	Embeds []discordEmbed `json:"embeds"`
}

// Send posts msg as a single embed. Any 2xx answer counts as delivered.
func (d *DiscordSink) Send(ctx context.Context, msg Message) error {
	color := colorInfo
	if msg.Severity == SeveritySuccess {
		color = colorSuccess
	}

	body, err := json.Marshal(discordMessage{
		Embeds: []discordEmbed{{
			Title:       msg.Title,
			Description: msg.Body,
			Color:       color,
			Timestamp:   d.now().UTC().Format(time.RFC3339),
		}},
	})
	if err != nil {
		return fmt.Errorf("encode discord message: %w", err)
	}

	endpoint := d.apiURL + "/channels/" + url.PathEscape(d.channelID) + "/messages"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build discord request: %w", err)
	}

	req.Header.Set("Authorization", "Bot "+d.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return fmt.Errorf("discord answered %s: %s: %w", resp.Status, strings.TrimSpace(string(snippet)), ErrDeliveryFailed)
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
