package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/gfs-monitor/internal/config"
)

// testNow is the clock of every pass: 2024-01-01 07:30 UTC.
//
//nolint:gochecknoglobals // Test fixture.
var testNow = time.Date(2024, time.January, 1, 7, 30, 0, 0, time.UTC)

// fakeNOMADS serves a day directory listing and marker files.
type fakeNOMADS struct {
	mu        sync.Mutex
	hours     []string
	completed map[string]bool
	down      bool

	server *httptest.Server
}

// startNOMADS runs a fake production folder under /pub/gfs/prod/.
func startNOMADS(t *testing.T) *fakeNOMADS {
	t.Helper()

	f := &fakeNOMADS{completed: make(map[string]bool)}

	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)

	return f
}

// baseURL is the production folder URL.
func (f *fakeNOMADS) baseURL() string {
	return f.server.URL + "/pub/gfs/prod/"
}

// publish makes hour appear in today's listing.
func (f *fakeNOMADS) publish(hour string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.hours = append(f.hours, hour)
}

// complete makes the marker file of hour available.
func (f *fakeNOMADS) complete(hour string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.completed[hour] = true
}

// setDown makes every request fail with 503.
func (f *fakeNOMADS) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.down = down
}

func (f *fakeNOMADS) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
		return
	}

	const day = "/pub/gfs/prod/gfs.20240101/"

	switch {
	case r.Method == http.MethodGet && r.URL.Path == day:
		_, _ = fmt.Fprint(w, "<html><body><h1>Index of gfs.20240101</h1>")
		for _, h := range f.hours {
			_, _ = fmt.Fprintf(w, `<a href="%s/">%s/</a>`, h, h)
		}

		_, _ = fmt.Fprint(w, "</body></html>")
	case r.Method == http.MethodHead && strings.HasPrefix(r.URL.Path, day):
		hour, _, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, day), "/")
		if r.URL.Path != day+hour+"/atmos/gfs.t"+hour+"z.pgrb2.0p25.f384.idx" || !f.completed[hour] {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

// fakeDiscord records the embeds posted to a channel.
type fakeDiscord struct {
	mu       sync.Mutex
	messages []string
	failures int

	server *httptest.Server
}

// startDiscord runs a fake bot API accepting posts to channel 42.
func startDiscord(t *testing.T) *fakeDiscord {
	t.Helper()

	f := new(fakeDiscord)

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if r.Method != http.MethodPost || r.URL.Path != "/channels/42/messages" || r.Header.Get("Authorization") != "Bot token" {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}

		if f.failures > 0 {
			f.failures--

			http.Error(w, "rate limited", http.StatusTooManyRequests)

			return
		}

		var body struct {
			Embeds []struct {
				Description string `json:"description"`
			} `json:"embeds"`
		}

		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Embeds) != 1 {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}

		f.messages = append(f.messages, body.Embeds[0].Description)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	t.Cleanup(f.server.Close)

	return f
}

// sent returns a copy of the delivered descriptions.
func (f *fakeDiscord) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.messages...)
}

// failNext makes the next n posts fail.
func (f *fakeDiscord) failNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures = n
}

// workspace is a temporary settings file with its state and activity paths.
type workspace struct {
	configPath string
	cfg        *config.Config
}

// newWorkspace writes settings wiring the fakes together.
func newWorkspace(t *testing.T, nomads *fakeNOMADS, discord *fakeDiscord, backend string) *workspace {
	t.Helper()

	dir := t.TempDir()
	stateFile := filepath.Join(dir, "status.json")

	if backend == config.BackendSQLite {
		stateFile = filepath.Join(dir, "status.db")
	}

	cfg := &config.Config{
		BaseURL:      nomads.baseURL(),
		Timeout:      2 * time.Second,
		StateBackend: backend,
		StateFile:    stateFile,
		ActivityLog:  filepath.Join(dir, "activity.log"),
		Notifier: config.Notifier{
			Kind:             config.NotifierDiscord,
			Timeout:          2 * time.Second,
			DiscordToken:     "token",
			DiscordChannelID: "42",
			DiscordAPIURL:    discord.server.URL,
		},
	}

	configPath := filepath.Join(dir, "gfs-monitor-settings.yaml")
	require.NoError(t, config.Save(configPath, cfg))

	return &workspace{configPath: configPath, cfg: cfg}
}
