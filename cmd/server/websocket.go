// WebSocket fan-out of live collection snapshots to dashboard clients.
package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shahriarsany/portfolio/backend/internal/crud"
	"github.com/shahriarsany/portfolio/backend/internal/db"
	"github.com/shahriarsany/portfolio/backend/internal/live"
	"github.com/shahriarsany/portfolio/backend/internal/logging"
	"github.com/shahriarsany/portfolio/backend/internal/models"
	"github.com/shahriarsany/portfolio/backend/internal/uuid"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is same-origin; the session check happens in the
	// guard middleware before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEnvelope wraps every server-to-client message. Records is the
// complete current list for the collection; the client replaces its
// copy wholesale.
type wsEnvelope struct {
	Type       string      `json:"type"`
	Collection string      `json:"collection,omitempty"`
	Records    interface{} `json:"records,omitempty"`
	Error      string      `json:"error,omitempty"`
	Timestamp  int64       `json:"timestamp"`
}

const (
	wsTypeSnapshot = "snapshot"
	wsTypeError    = "subscription_error"
)

// wsClient is one connected dashboard.
type wsClient struct {
	id   string
	conn *websocket.Conn
	hub  *wsHub

	// mu guards subscriptions and the send channel lifecycle. The hub
	// and the client's own read pump both queue messages, so every send
	// goes through trySend and only closeSend closes the channel.
	mu            sync.Mutex
	send          chan []byte
	closed        bool
	subscriptions map[string]bool
}

func (c *wsClient) subscribed(collection string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscriptions[collection]
}

// trySend queues a message for the write pump. It reports false when
// the client is gone or its buffer is full; it never blocks and never
// panics on a dropped client.
func (c *wsClient) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend shuts the send channel exactly once, ending the write pump.
func (c *wsClient) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// wsHub tracks connected clients and fans collection snapshots out to
// the ones subscribed.
type wsHub struct {
	clients    map[string]*wsClient
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan wsMessage

	// Latest serialized snapshot per collection, replayed to fresh
	// subscribers.
	mu     sync.RWMutex
	latest map[string][]byte
}

type wsMessage struct {
	collection string
	payload    []byte
}

func newWSHub() *wsHub {
	hub := &wsHub{
		clients:    make(map[string]*wsClient),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan wsMessage, 64),
		latest:     make(map[string][]byte),
	}
	go hub.run()
	return hub
}

func (h *wsHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.id] = client
			logging.Info("ws client connected", map[string]interface{}{
				"client": client.id, "total": len(h.clients),
			})

		case client := <-h.unregister:
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.closeSend()
			}
			logging.Info("ws client disconnected", map[string]interface{}{
				"client": client.id, "total": len(h.clients),
			})

		case msg := <-h.broadcast:
			for id, client := range h.clients {
				if !client.subscribed(msg.collection) {
					continue
				}
				if !client.trySend(msg.payload) {
					// Client cannot keep up; drop it.
					client.closeSend()
					delete(h.clients, id)
				}
			}
		}
	}
}

// publishSnapshot serializes and fans out one full snapshot.
func (h *wsHub) publishSnapshot(collection string, records interface{}, err error) {
	envelope := wsEnvelope{
		Type:       wsTypeSnapshot,
		Collection: collection,
		Records:    records,
		Timestamp:  time.Now().Unix(),
	}
	if err != nil {
		envelope.Type = wsTypeError
		envelope.Records = nil
		envelope.Error = err.Error()
	}

	payload, marshalErr := json.Marshal(envelope)
	if marshalErr != nil {
		logging.Error("ws marshal failed", marshalErr, map[string]interface{}{"collection": collection})
		return
	}

	h.mu.Lock()
	h.latest[collection] = payload
	h.mu.Unlock()

	h.broadcast <- wsMessage{collection: collection, payload: payload}
}

// replayLatest hands a fresh subscriber the current snapshot so it does
// not wait for the next mutation.
func (h *wsHub) replayLatest(c *wsClient, collection string) {
	h.mu.RLock()
	payload := h.latest[collection]
	h.mu.RUnlock()
	if payload == nil {
		return
	}
	c.trySend(payload)
}

// runLiveFeeds binds every collection and pumps snapshots into the
// hub until all binders close. Each collection's current records are
// held in a crud.ViewState; the controller drops deleted records from
// it so subscribers see a delete ahead of the confirming snapshot.
func runLiveFeeds(hub *wsHub, repo *db.Repository, controller *crud.Controller) (stop func()) {
	leadState := crud.NewViewState(func(l *models.Lead) string { return l.ID.String() })
	visitorState := crud.NewViewState(func(v *models.Visitor) string { return v.ID.String() })
	blogState := crud.NewViewState(func(p *models.BlogPost) string { return p.ID.String() })

	controller.AttachView(db.CollectionContacts, leadState, func() {
		hub.publishSnapshot(db.CollectionContacts, leadState.Snapshot(), nil)
	})
	controller.AttachView(db.CollectionVisitors, visitorState, func() {
		hub.publishSnapshot(db.CollectionVisitors, visitorState.Snapshot(), nil)
	})
	controller.AttachView(db.CollectionBlogs, blogState, func() {
		hub.publishSnapshot(db.CollectionBlogs, blogState.Snapshot(), nil)
	})

	leadBinder := live.Bind(repo.Notifier(), db.CollectionContacts, repo.ListLeads)
	visitorBinder := live.Bind(repo.Notifier(), db.CollectionVisitors, repo.ListVisitors)
	blogBinder := live.Bind(repo.Notifier(), db.CollectionBlogs, func() ([]*models.BlogPost, error) {
		return repo.ListBlogPosts("")
	})

	go pumpFeed(hub, db.CollectionContacts, leadBinder, leadState)
	go pumpFeed(hub, db.CollectionVisitors, visitorBinder, visitorState)
	go pumpFeed(hub, db.CollectionBlogs, blogBinder, blogState)

	return func() {
		leadBinder.Close()
		visitorBinder.Close()
		blogBinder.Close()
	}
}

func pumpFeed[T any](hub *wsHub, collection string, binder *live.Binder[T], state *crud.ViewState[T]) {
	for event := range binder.Events() {
		if event.Err != nil {
			hub.publishSnapshot(collection, nil, event.Err)
			continue
		}
		state.Replace(event.Records)
		hub.publishSnapshot(collection, state.Snapshot(), nil)
	}
}

func validCollection(name string) bool {
	switch name {
	case db.CollectionContacts, db.CollectionVisitors, db.CollectionBlogs:
		return true
	}
	return false
}

// readPump handles subscribe/unsubscribe/ping messages from a client.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn("ws read error", map[string]interface{}{"client": c.id, "error": err.Error()})
			}
			break
		}

		var msg struct {
			Action      string   `json:"action"`
			Collections []string `json:"collections"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Action {
		case "subscribe":
			for _, name := range msg.Collections {
				if !validCollection(name) {
					continue
				}
				c.mu.Lock()
				c.subscriptions[name] = true
				c.mu.Unlock()
				c.hub.replayLatest(c, name)
			}

		case "unsubscribe":
			c.mu.Lock()
			for _, name := range msg.Collections {
				delete(c.subscriptions, name)
			}
			c.mu.Unlock()

		case "ping":
			pong, _ := json.Marshal(map[string]interface{}{
				"action":    "pong",
				"timestamp": time.Now().Unix(),
			})
			c.trySend(pong)
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleWebSocket upgrades a guarded request and registers the client.
func handleWebSocket(hub *wsHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn("ws upgrade failed", map[string]interface{}{"error": err.Error()})
			return
		}

		client := &wsClient{
			id:            uuid.New(),
			conn:          conn,
			send:          make(chan []byte, 64),
			hub:           hub,
			subscriptions: make(map[string]bool),
		}
		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}
