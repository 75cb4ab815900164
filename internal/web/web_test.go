package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/perbu/sessmon/internal/config"
	"github.com/perbu/sessmon/internal/monitor"
	"github.com/perbu/sessmon/internal/store"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	st, err := store.Open("sqlite", "", t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.DefaultConfig()
	cfg.Reload.Interval = "0" // no auto-reload in tests

	mon, err := monitor.New(cfg, st, nil, nil)
	if err != nil {
		t.Fatalf("monitor.New() error = %v", err)
	}

	s, err := NewServer(mon, st, cfg, nil, "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		mon.Run(ctx)
	}()
	// The test HTTP server is registered after this cleanup so it shuts
	// down first; handlers never see a closed dispatcher.
	t.Cleanup(func() {
		cancel()
		<-done
	})

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return s, ts
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(body)
}

func TestDashboard(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := get(t, ts.Client(), ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "Live Sessions") {
		t.Errorf("dashboard body missing heading")
	}

	var sawCookie bool
	for _, c := range resp.Cookies() {
		if c.Name == config.DefaultConfig().GetCookieName() {
			sawCookie = true
			if !c.HttpOnly {
				t.Errorf("session cookie should be HttpOnly")
			}
		}
	}
	if !sawCookie {
		t.Errorf("first request did not set a session cookie")
	}
}

func TestUntrackedPaths(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/static/style.css"} {
		resp, _ := get(t, ts.Client(), ts.URL+path)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
		if len(resp.Cookies()) != 0 {
			t.Errorf("GET %s set a session cookie, want none", path)
		}
	}
}

func TestExistingCookieIsReused(t *testing.T) {
	_, ts := newTestServer(t)

	name := config.DefaultConfig().GetCookieName()
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	req.AddCookie(&http.Cookie{Name: name, Value: "existing-session"})

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if len(resp.Cookies()) != 0 {
		t.Errorf("request with cookie got a new Set-Cookie")
	}
}

func TestReloadAndCancel(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := ts.Client().Post(ts.URL+"/reload", "", nil)
	if err != nil {
		t.Fatalf("POST /reload error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /reload status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "started load") {
		t.Errorf("reload response = %q", body)
	}

	resp, err = ts.Client().Post(ts.URL+"/cancel", "", nil)
	if err != nil {
		t.Fatalf("POST /cancel error = %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("POST /cancel status = %d, want 200", resp.StatusCode)
	}
}

func TestHelpRendersMarkdown(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := get(t, ts.Client(), ts.URL+"/help")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "<h1") {
		t.Errorf("help page has no rendered heading")
	}
}

func TestHistoryPage(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := get(t, ts.Client(), ts.URL+"/history")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "Load History") {
		t.Errorf("history body missing heading")
	}
}

func TestWebsocketReceivesRefresh(t *testing.T) {
	s, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	defer conn.Close()

	// Wait for the hub to register the connection, then force a push.
	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("hub never registered the connection")
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.hub.Broadcast()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if string(msg) != "refresh" {
		t.Errorf("message = %q, want %q", msg, "refresh")
	}
}

func TestParseTemplates(t *testing.T) {
	tmpl, err := ParseTemplates()
	if err != nil {
		t.Fatalf("ParseTemplates() error = %v", err)
	}
	if tmpl.index == nil || tmpl.history == nil || tmpl.help == nil {
		t.Error("ParseTemplates() left a template nil")
	}
}
