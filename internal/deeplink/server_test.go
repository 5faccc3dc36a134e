package deeplink

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/familyhelper-app/console/internal/routes"
)

type recordingNavigator struct {
	mu      sync.Mutex
	matches []routes.Match
}

func (r *recordingNavigator) Navigate(match routes.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, match)
}

func (r *recordingNavigator) last() (routes.Match, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.matches) == 0 {
		return routes.Match{}, false
	}
	return r.matches[len(r.matches)-1], true
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return port
}

func startBridge(t *testing.T) (*Server, *recordingNavigator, string) {
	t.Helper()
	nav := &recordingNavigator{}
	server := NewServer(freePort(t), nav)
	if err := server.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		_ = server.Stop(context.Background())
	})
	return server, nav, fmt.Sprintf("http://127.0.0.1:%d", server.port)
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	var resp *http.Response
	var err error
	// The listener is up before Start returns, but allow a beat for slow CI.
	for i := 0; i < 20; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestBridgeDispatchesKnownRoutes(t *testing.T) {
	_, nav, base := startBridge(t)

	status, _ := get(t, base+"/gift-registry/share-token-9")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	match, ok := nav.last()
	if !ok {
		t.Fatal("no navigation dispatched")
	}
	if match.Route.Name != routes.GiftRegistry {
		t.Errorf("route = %s, want %s", match.Route.Name, routes.GiftRegistry)
	}
	if match.Params["token"] != "share-token-9" {
		t.Errorf("token param = %q", match.Params["token"])
	}
}

func TestBridgeRejectsUnknownPaths(t *testing.T) {
	_, nav, base := startBridge(t)

	status, _ := get(t, base+"/definitely/not/a/route")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if _, ok := nav.last(); ok {
		t.Error("unknown path was dispatched")
	}
}

func TestBridgeCapturesAuthCallback(t *testing.T) {
	server, _, base := startBridge(t)

	status, body := get(t, base+"/auth/callback?code=abc&state=st-1")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body == "" {
		t.Error("expected a human-readable close-this-tab page")
	}

	select {
	case result := <-server.Callbacks():
		if result.Code != "abc" || result.State != "st-1" || result.Error != "" {
			t.Errorf("callback = %+v", result)
		}
	case <-time.After(time.Second):
		t.Fatal("no callback captured")
	}
}

func TestBridgeAuthCallbackErrors(t *testing.T) {
	server, _, base := startBridge(t)

	t.Run("provider error is forwarded", func(t *testing.T) {
		status, _ := get(t, base+"/auth/callback?error=access_denied")
		if status != http.StatusOK {
			t.Fatalf("status = %d", status)
		}
		select {
		case result := <-server.Callbacks():
			if result.Error != "access_denied" {
				t.Errorf("callback = %+v", result)
			}
		case <-time.After(time.Second):
			t.Fatal("no callback captured")
		}
	})

	t.Run("missing code is rejected", func(t *testing.T) {
		status, _ := get(t, base+"/auth/callback")
		if status != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", status)
		}
	})
}
