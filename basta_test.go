package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basta/game"
	"basta/party"
	"basta/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *party.Service, *store.Memory) {
	t.Helper()

	cfg := &Config{playerTimeout: time.Minute}
	mux := httprouter.New()
	mem := store.NewMemory()
	svc := party.NewService(mem)
	registerBastaGame(cfg, "/basta", mux, svc, mem)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, svc, mem
}

func dialGame(t *testing.T, srv *httptest.Server, gameID, playerID string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/basta/" + gameID + "/ws"
	hdr := http.Header{}
	hdr.Set("Cookie", playerCookieName+"="+playerID)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, hdr)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn
}

// settle polls until the goroutine count drops back to at most want or the
// deadline passes, returning the last observed count.
func settle(want int, deadline time.Duration) int {
	end := time.Now().Add(deadline)
	count := runtime.NumGoroutine()
	for time.Now().Before(end) {
		count = runtime.NumGoroutine()
		if count <= want {
			return count
		}
		time.Sleep(50 * time.Millisecond)
	}
	return count
}

func TestTeardownReleasesClientGoroutines(t *testing.T) {
	srv, svc, _ := newTestServer(t)
	ctx := context.Background()

	gameID, err := svc.CreateGame(ctx, "host", "Hugo", game.Settings{
		Rounds:     2,
		Categories: []string{"Animal"},
		RoundTime:  60,
		RatingTime: 30,
	})
	require.NoError(t, err)
	require.NoError(t, svc.JoinGame(ctx, party.Session{PlayerID: "p1", GameID: gameID}, "Ana"))

	before := runtime.NumGoroutine()

	hostConn := dialGame(t, srv, gameID, "host")
	defer hostConn.Close()
	p1Conn := dialGame(t, srv, gameID, "p1")
	defer p1Conn.Close()

	// Wait for the session_info greeting so both clients are registered
	// with the hub before tearing the game down.
	var msg map[string]any
	require.NoError(t, hostConn.ReadJSON(&msg))
	require.NoError(t, p1Conn.ReadJSON(&msg))

	// Host leaves: the hub observes the tombstone, notifies and closes
	// every client, and returns. The pump goroutines behind each client
	// connection must all exit with it.
	require.NoError(t, svc.LeaveGame(ctx, party.Session{PlayerID: "host", GameID: gameID}))

	after := settle(before, 5*time.Second)
	assert.LessOrEqual(t, after, before, "connection goroutines must exit after teardown")
}

func TestReaperReleasesClientGoroutines(t *testing.T) {
	srv, svc, mem := newTestServer(t)
	ctx := context.Background()

	gameID, err := svc.CreateGame(ctx, "host", "Hugo", game.Settings{
		Rounds:     2,
		Categories: []string{"Animal"},
		RoundTime:  60,
		RatingTime: 30,
	})
	require.NoError(t, err)

	before := runtime.NumGoroutine()

	conn := dialGame(t, srv, gameID, "host")
	defer conn.Close()

	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))

	// Deleting the game out from under the hub, as the idle reaper does,
	// must release the connection goroutines the same way.
	require.NoError(t, mem.Delete(ctx, gameID))

	after := settle(before, 5*time.Second)
	assert.LessOrEqual(t, after, before, "connection goroutines must exit after deletion")
}
