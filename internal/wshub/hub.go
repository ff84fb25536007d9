// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package wshub broadcasts run-completion notifications to connected
// dashboard clients over WebSocket, an in-process fan-out independent of
// the NATS event bus (internal/events), which exists for other services
// to subscribe to, not for browser clients to hold a connection against.
package wshub

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Message is the single notification type this hub ever sends: a run just
// completed, with enough of the summary for a dashboard to refresh.
type Message struct {
	Type       string  `json:"type"`
	RunID      string  `json:"run_id"`
	NGroups    int     `json:"n_groups"`
	Silhouette float64 `json:"silhouette"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub maintains the set of connected clients and fans out Broadcast calls
// to every one of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  zerolog.Logger
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// New builds an empty Hub.
func New(logger zerolog.Logger) *Hub {
	return &Hub{clients: make(map[*client]struct{}), logger: logger}
}

// Broadcast pushes msg to every currently connected client, dropping it for
// any client whose send buffer is full rather than blocking the caller --
// a slow dashboard tab must never stall a run's completion notification.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn().Msg("websocket client send buffer full, dropping notification")
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and registers it
// as a broadcast recipient until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan Message, 16)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}
