package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames; anything bigger is dropped.
	maxMessageSize = 4 * 1024

	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are served from other origins; CORS is already open
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client forwards feed events to one websocket connection
type client struct {
	id   string
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// ServeWs upgrades the request and streams events for the given tables until
// the peer goes away. An empty table list subscribes to every table.
func ServeWs(feed *Feed, tables []string, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		id:   "web_" + uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	if len(tables) == 0 {
		tables = []string{AllTables}
	}
	unsubscribes := make([]func(), 0, len(tables))
	for _, table := range tables {
		unsubscribes = append(unsubscribes, feed.Subscribe(table, c.deliver))
	}
	log.Printf("Realtime client %s subscribed to %s", c.id, strings.Join(tables, ","))

	go c.writePump()
	c.readPump()

	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
	c.close()
	log.Printf("Realtime client %s disconnected", c.id)
}

// deliver queues an event without blocking the publisher; a full buffer drops it
func (c *client) deliver(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling change event: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		log.Printf("Realtime client %s is slow, dropping %s event", c.id, event.Table)
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump discards inbound messages and returns when the connection closes
func (c *client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Realtime client %s error: %v", c.id, err)
			}
			return
		}
	}
}

// writePump pumps queued events and pings to the connection
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
