package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-engine/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross-origin from clinical dashboards.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans completed assessments out to connected websocket clients.
// Slow clients are dropped rather than allowed to block the broadcast.
type Hub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan *domain.RiskAssessment
	log        *logrus.Logger
}

// NewHub creates an idle hub; call Run to start it.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan *domain.RiskAssessment, 64),
		log:        logger,
	}
}

// Run services the hub until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.log.WithField("clients", len(h.clients)).Debug("Websocket client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case assessment := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- assessment:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Broadcast queues an assessment for delivery to all connected clients.
// Drops the event when the hub is saturated; streaming is best-effort.
func (h *Hub) Broadcast(assessment *domain.RiskAssessment) {
	select {
	case h.broadcast <- assessment:
	default:
	}
}

// wsClient is one connected stream subscriber.
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan *domain.RiskAssessment
}

// handleStream upgrades the connection and subscribes it to the
// assessment stream.
func (s *Server) handleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := &wsClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan *domain.RiskAssessment, sendBufferSize),
	}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// writePump pushes assessments and keepalive pings to the peer.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case assessment, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(assessment); err != nil {
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

// readPump discards inbound frames and detects disconnects.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
