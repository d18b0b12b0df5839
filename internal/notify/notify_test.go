package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/gfs-monitor/internal/config"
	"github.com/oshokin/gfs-monitor/internal/domain/cycle"
)

// testIdentity is the cycle used in message tests.
func testIdentity(hour cycle.Hour) cycle.Identity {
	return cycle.NewIdentity(cycle.DateOf(time.Date(2024, time.February, 3, 0, 0, 0, 0, time.UTC)), hour)
}

// TestStartedMessage uses the per-hour template and falls back to the default.
func TestStartedMessage(t *testing.T) {
	t.Parallel()

	msg := StartedMessage(testIdentity(cycle.Hour06))
	require.Equal(t, Title, msg.Title)
	require.Equal(t, SeverityInfo, msg.Severity)
	require.Contains(t, msg.Body, "morning run **06z** of 2024-02-03")

	for _, h := range cycle.Priority {
		require.Contains(t, startTemplates, h)
	}

	// An hour outside the table keeps the generic wording.
	msg = StartedMessage(testIdentity(cycle.Hour(3)))
	require.Equal(t, "🚀 Transfer started for cycle **03z** of 2024-02-03.", msg.Body)
}

// TestCompletedMessage marks completion as success.
func TestCompletedMessage(t *testing.T) {
	t.Parallel()

	msg := CompletedMessage(testIdentity(cycle.Hour18))
	require.Equal(t, SeveritySuccess, msg.Severity)
	require.Equal(t, "✅ Cycle complete! Cycle **18z** of 2024-02-03 is ready.", msg.Body)
}

// TestDiscordSink_Send checks the request shape expected by the bot API.
func TestDiscordSink_Send(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotAuth string
		got     discordMessage
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		_ = json.NewDecoder(r.Body).Decode(&got)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer ts.Close()

	now := time.Date(2024, time.February, 3, 4, 5, 6, 0, time.UTC)
	sink := NewDiscordSink("secret", "123",
		WithDiscordAPIURL(ts.URL+"/api/v10/"),
		WithDiscordTimeout(time.Second),
		WithDiscordClock(func() time.Time { return now }),
	)

	require.NoError(t, sink.Send(context.Background(), CompletedMessage(testIdentity(cycle.Hour00))))
	require.Equal(t, "/api/v10/channels/123/messages", gotPath)
	require.Equal(t, "Bot secret", gotAuth)
	require.Len(t, got.Embeds, 1)
	require.Equal(t, Title, got.Embeds[0].Title)
	require.Equal(t, colorSuccess, got.Embeds[0].Color)
	require.Equal(t, "2024-02-03T04:05:06Z", got.Embeds[0].Timestamp)

	require.NoError(t, sink.Send(context.Background(), StartedMessage(testIdentity(cycle.Hour00))))
	require.Equal(t, colorInfo, got.Embeds[0].Color)
}

// TestDiscordSink_Failure reports rejected and undeliverable messages.
func TestDiscordSink_Failure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "401: Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	sink := NewDiscordSink("bad", "123", WithDiscordAPIURL(ts.URL))
	err := sink.Send(context.Background(), TestMessage())
	require.ErrorIs(t, err, ErrDeliveryFailed)
	require.Contains(t, err.Error(), "Unauthorized")

	ts.Close()

	err = sink.Send(context.Background(), TestMessage())
	require.Error(t, err)
}

// TestDiscordSink_NoContent accepts 204 as delivered.
func TestDiscordSink_NoContent(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	sink := NewDiscordSink("token", "1", WithDiscordAPIURL(ts.URL))
	require.NoError(t, sink.Send(context.Background(), TestMessage()))
}

// TestTelegramSink_Send runs the sink against a fake Bot API.
func TestTelegramSink_Send(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		got     map[string]any
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":-100,"type":"group"}}}`))
	}))
	defer ts.Close()

	sink, err := NewTelegramSink("TOKEN", -100, ts.URL, time.Second)
	require.NoError(t, err)

	require.NoError(t, sink.Send(context.Background(), StartedMessage(testIdentity(cycle.Hour12))))
	require.Equal(t, "/botTOKEN/sendMessage", gotPath)
	require.Equal(t, "-100", got["chat_id"])
	require.Equal(t, "Markdown", got["parse_mode"])
	require.Contains(t, got["text"], "midday run *12z*")
}

// TestTelegramSink_Failure wraps API errors.
func TestTelegramSink_Failure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer ts.Close()

	sink, err := NewTelegramSink("TOKEN", 1, ts.URL, time.Second)
	require.NoError(t, err)

	err = sink.Send(context.Background(), TestMessage())
	require.ErrorIs(t, err, ErrDeliveryFailed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sink.Send(ctx, TestMessage()), context.Canceled)
}

// TestTelegramText converts bold markers.
func TestTelegramText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "*T*\nrun *00z*", telegramText(Message{Title: "T", Body: "run **00z**"}))
	require.Equal(t, "body", telegramText(Message{Body: "body"}))
}

// TestNew picks the sink from settings.
func TestNew(t *testing.T) {
	t.Parallel()

	sink, err := New(&config.Notifier{Kind: config.NotifierDiscord, DiscordToken: "t", DiscordChannelID: "c"})
	require.NoError(t, err)
	require.IsType(t, new(DiscordSink), sink)

	sink, err = New(&config.Notifier{Kind: config.NotifierTelegram, TelegramToken: "t", TelegramChatID: 1})
	require.NoError(t, err)
	require.IsType(t, new(TelegramSink), sink)

	sink, err = New(&config.Notifier{Kind: config.NotifierLog})
	require.NoError(t, err)
	require.NoError(t, sink.Send(context.Background(), TestMessage()))

	_, err = New(&config.Notifier{Kind: "fax"})
	require.ErrorIs(t, err, errUnknownKind)
}
