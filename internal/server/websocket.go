package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ibuddy/iboost/internal/logging"
	"github.com/ibuddy/iboost/internal/protocol"
	"github.com/ibuddy/iboost/internal/telemetry"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Updates buffered per client before new ones are dropped
	streamBuffer = 64
)

// Stream message types
const (
	MessageSnapshot = "snapshot"
	MessageUpdate   = "update"
)

// StreamMessage is one JSON message on the /ws stream. The first message is
// a snapshot of every sensor; each later message carries one update.
type StreamMessage struct {
	Type    string             `json:"type"`
	Status  *protocol.Status   `json:"status,omitempty"`
	Updates []telemetry.Update `json:"updates,omitempty"`
	Update  *telemetry.Update  `json:"update,omitempty"`
}

func (s *Server) handleWebSocket(c *gin.Context) {
	if s.store == nil {
		c.Status(http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		logging.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}

	remoteAddr := conn.RemoteAddr().String()
	s.wg.Add(1)
	s.mu.Lock()
	s.activeConns[remoteAddr] = conn
	s.mu.Unlock()

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.activeConns, remoteAddr)
		s.mu.Unlock()
		logging.LogStreamClient(remoteAddr, "websocket_closed")
		s.wg.Done()
	}()

	logging.LogStreamClient(remoteAddr, "websocket_upgraded")

	// Subscribe before the snapshot so no update falls between the two
	updates, unsubscribe := s.store.Subscribe(streamBuffer)
	defer unsubscribe()

	closed := make(chan struct{})
	go s.readPump(conn, closed)

	status := s.engine.Status()
	if err := s.write(conn, StreamMessage{Type: MessageSnapshot, Status: &status, Updates: s.store.Snapshot()}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := s.write(conn, StreamMessage{Type: MessageUpdate, Update: &u}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Server) write(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		logging.Debug("WebSocket write failed", zap.String("remote_addr", conn.RemoteAddr().String()), zap.Error(err))
		return err
	}
	return nil
}

// readPump discards client messages and signals when the peer goes away
func (s *Server) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}
