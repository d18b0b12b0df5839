package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/gfs-monitor/internal/config"
	"github.com/oshokin/gfs-monitor/internal/logger"
)

// Severity tells the sink how to style a message.
type Severity int

// Message severities.
const (
	// SeverityInfo marks routine events such as a cycle starting.
	SeverityInfo Severity = iota
	// SeveritySuccess marks a finished cycle.
	SeveritySuccess
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeveritySuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Message is one outbound notification.
type Message struct {
	Title    string
	Body     string
	Severity Severity
}

// Sink delivers notifications. A nil error means the transport confirmed
// delivery.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// ErrDeliveryFailed is wrapped when a transport rejects a message.
var ErrDeliveryFailed = errors.New("notification delivery failed")

var errUnknownKind = errors.New("unknown notifier kind")

// New builds the sink selected in the settings.
//
//nolint:ireturn // The concrete sink is chosen by configuration.
func New(cfg *config.Notifier) (Sink, error) {
	switch cfg.Kind {
	case config.NotifierDiscord:
		return NewDiscordSink(cfg.DiscordToken, cfg.DiscordChannelID,
			WithDiscordAPIURL(cfg.DiscordAPIURL),
			WithDiscordTimeout(cfg.Timeout),
		), nil
	case config.NotifierTelegram:
		sink, err := NewTelegramSink(cfg.TelegramToken, cfg.TelegramChatID, cfg.TelegramAPIURL, cfg.Timeout)
		if err != nil {
			return nil, err
		}

		return sink, nil
	case config.NotifierLog:
		return LogSink{}, nil
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Kind, errUnknownKind)
	}
}

// LogSink writes messages to the context logger instead of sending them.
type LogSink struct{}

// Send logs the message and always succeeds.
func (LogSink) Send(ctx context.Context, msg Message) error {
	logger.InfoKV(ctx, "Notification", "title", msg.Title, "body", msg.Body, "severity", msg.Severity.String())

	return nil
}
