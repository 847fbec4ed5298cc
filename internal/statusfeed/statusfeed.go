package statusfeed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/leonardotrapani/thirdeye/internal/notify"
)

// Path is where the feed is served.
const Path = "/status"

const (
	clientBuffer = 16
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// Event is one status transition as sent on the wire.
type Event struct {
	State   notify.State `json:"state"`
	Message string       `json:"message"`
	Time    time.Time    `json:"time"`
}

// Hub fans status transitions out to websocket clients. It implements
// notify.Notifier. New clients first receive the latest event.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    *Event
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan Event
	once sync.Once
	done chan struct{}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// only local watchers are expected; origins vary between terminals and browsers
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) StatusChanged(state notify.State, msg string) {
	h.Publish(Event{State: state, Message: msg, Time: time.Now()})
}

// Publish sends e to every client. Clients that fall behind are dropped.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = &e
	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			log.Printf("Status feed: dropping slow client %s", c.conn.RemoteAddr())
			delete(h.clients, c)
			c.close()
		}
	}
}

// Clients returns the number of connected watchers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Status feed: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Event, clientBuffer), done: make(chan struct{})}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	if h.last != nil {
		c.send <- *h.last
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.readLoop(c)
	h.writeLoop(c)
}

// readLoop only drains control frames so close and pong are processed.
func (h *Hub) readLoop(c *client) {
	defer c.close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		h.remove(c)
		c.conn.Close()
	}()

	for {
		select {
		case e := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

// Server serves the hub over HTTP.
type Server struct {
	hub  *Hub
	srv  *http.Server
	ln   net.Listener
	done chan struct{}
}

// Listen binds addr and starts serving the hub in the background.
func Listen(addr string, hub *Hub) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("status feed listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(Path, hub)

	s := &Server{
		hub:  hub,
		srv:  &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:   ln,
		done: make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Status feed: server error: %v", err)
		}
	}()

	log.Printf("Status feed: listening on ws://%s%s", ln.Addr(), Path)
	return s, nil
}

// Addr is the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	err := s.srv.Shutdown(ctx)
	<-s.done
	return err
}

// URL builds the feed URL for a listen address.
func URL(addr string) string {
	return "ws://" + addr + Path
}

// Watch connects to the feed and calls fn for each event until ctx is
// cancelled or the daemon goes away.
func Watch(ctx context.Context, url string, fn func(Event)) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("status feed dial: status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("status feed dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for {
		var e Event
		if err := conn.ReadJSON(&e); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("status feed read: %w", err)
		}
		fn(e)
	}
}
