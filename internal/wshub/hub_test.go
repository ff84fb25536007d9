// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package wshub

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server, string) {
	t.Helper()
	h := New(zerolog.Nop())
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return h, srv, wsURL
}

func TestBroadcastDeliversToConnectedClient(t *testing.T) {
	h, _, wsURL := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing hub: %v", err)
	}
	defer conn.Close()

	// Give ServeHTTP's registration goroutine a moment to add the client
	// before broadcasting, since the dial only guarantees the handshake
	// completed, not that Broadcast will already see the new client.
	waitForClientCount(t, h, 1)

	h.Broadcast(Message{Type: "run_completed", RunID: "run-1", NGroups: 3, Silhouette: 0.5})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Message
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("reading broadcast message: %v", err)
	}
	if got.RunID != "run-1" || got.NGroups != 3 {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestClientRemovedOnDisconnect(t *testing.T) {
	h, _, wsURL := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing hub: %v", err)
	}
	waitForClientCount(t, h, 1)

	conn.Close()
	waitForClientCount(t, h, 0)
}

func TestBroadcastWithNoClientsDoesNotBlock(t *testing.T) {
	h, _, _ := newTestServer(t)
	done := make(chan struct{})
	go func() {
		h.Broadcast(Message{Type: "run_completed", RunID: "run-1"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked with no connected clients")
	}
}

func waitForClientCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.mu.RLock()
		n := len(h.clients)
		h.mu.RUnlock()
		if n == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for client count %d", want)
}
