package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aTrapDeer/catalyst-backend/internal/notify"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// Hub relays store changes to connected dashboard tabs.
type Hub struct {
	upgrader websocket.Upgrader
	conns    sync.Map // socketId -> *client
	sub      *notify.Subscription
	once     sync.Once
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// NewHub subscribes to every change on bus. Browser origins other than the
// page's own host must appear in origins; an empty list allows any origin.
func NewHub(bus *notify.Bus, origins []string) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(origins),
		},
	}
	h.sub = bus.Subscribe(notify.All, h.broadcast)
	return h
}

func checkOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(origins) == 0 {
			return true
		}
		if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
			return true
		}
		for _, o := range origins {
			if o == origin || o == "*" {
				return true
			}
		}
		return false
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		log.Errorf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	socketId := uuid.New().String()
	c := &client{conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
	h.conns.Store(socketId, c)

	log.Infof("New WebSocket connection established: %s", socketId)

	go h.writeLoop(socketId, c)
	go h.readLoop(socketId, c)
}

// readLoop drains client frames so control messages are processed, and
// ends the connection when the client goes away.
func (h *Hub) readLoop(socketId string, c *client) {
	defer func() {
		log.Infof("Closing WebSocket connection: %s", socketId)
		h.drop(socketId, c)
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Errorf("WebSocket unexpected close error for socket %s: %v", socketId, err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(socketId string, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Warnf("write to socket %s failed: %v", socketId, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		}
	}
}

func (h *Hub) drop(socketId string, c *client) {
	if _, loaded := h.conns.LoadAndDelete(socketId); loaded {
		close(c.done)
	}
}

// broadcast never blocks the publisher: a client whose buffer is full
// misses the message.
func (h *Hub) broadcast(change notify.Change) {
	msg, err := json.Marshal(change)
	if err != nil {
		log.Errorf("Failed to marshal change of %s: %v", change.Key, err)
		return
	}
	h.conns.Range(func(key, value any) bool {
		c := value.(*client)
		select {
		case c.send <- msg:
		default:
			log.Warnf("socket %s is slow, change of %s dropped", key, change.Key)
		}
		return true
	})
}

// Clients returns the number of open connections.
func (h *Hub) Clients() int {
	n := 0
	h.conns.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (h *Hub) Close() {
	h.once.Do(func() {
		h.sub.Unsubscribe()
		h.conns.Range(func(key, value any) bool {
			h.drop(key.(string), value.(*client))
			return true
		})
	})
}
