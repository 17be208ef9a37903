package game

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 25 * time.Second
	sendBuffer   = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// rooms are joined by unguessable player id, any origin may connect
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ClientConn wraps one WebSocket with an outbound queue. The room goroutines
// only ever touch the queue; a single writer goroutine owns the socket.
type ClientConn struct {
	ws        *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func newClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{ws: ws, send: make(chan []byte, sendBuffer)}
}

// Close is idempotent and safe from any goroutine.
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
		if c.ws != nil {
			c.ws.Close()
		}
	})
}

// writePump drains the send queue onto the socket and keeps the connection
// alive with pings.
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readPump dispatches inbound frames into the room until the socket dies.
// Bad frames are dropped, never fatal.
func (s *Server) readPump(room *Room, playerID string, cc *ClientConn) {
	for {
		_, data, err := cc.ws.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.log.Debug("dropping malformed frame", "room", room.ID(), "player", playerID, "err", err)
			continue
		}

		switch env.Type {
		case MsgDraw:
			if err := room.Draw(playerID, env.Data); err != nil {
				s.log.Debug("dropping draw frame", "room", room.ID(), "player", playerID, "err", err)
			}
		case MsgGuess:
			var text string
			if err := json.Unmarshal(env.Data, &text); err != nil {
				s.log.Debug("dropping malformed guess", "room", room.ID(), "player", playerID, "err", err)
				continue
			}
			room.Guess(playerID, text)
		case MsgWordChoice:
			var word string
			if err := json.Unmarshal(env.Data, &word); err != nil {
				s.log.Debug("dropping malformed word choice", "room", room.ID(), "player", playerID, "err", err)
				continue
			}
			if err := room.WordChoice(playerID, word); err != nil {
				s.log.Debug("dropping word choice", "room", room.ID(), "player", playerID, "err", err)
			}
		default:
			s.log.Debug("dropping frame of unknown type", "room", room.ID(), "player", playerID, "type", env.Type)
		}
	}
}
