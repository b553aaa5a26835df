package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"

	"github.com/ayusman/jajanken/internal/fingertip"
	"github.com/ayusman/jajanken/internal/log"
	"github.com/ayusman/jajanken/internal/overlay"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// UpdateSource publishes renderer updates.
type UpdateSource interface {
	Subscribe() (<-chan overlay.Update, func())
}

// fingertipMessage is one update on the wire.
type fingertipMessage struct {
	Seq       uint64        `json:"seq" cbor:"seq"`
	Points    fingertip.Set `json:"points" cbor:"points"`
	Hands     int           `json:"hands" cbor:"hands"`
	Timestamp int64         `json:"timestamp" cbor:"timestamp"`
}

func newMessage(u overlay.Update) fingertipMessage {
	return fingertipMessage{
		Seq:       u.Seq,
		Points:    u.Points,
		Hands:     u.Hands,
		Timestamp: u.At.UnixMilli(),
	}
}

// FingertipsHandler streams every accepted fingertip set over a websocket,
// as JSON text frames or, with ?format=cbor, CBOR binary frames. Slow clients
// skip to the newest set.
type FingertipsHandler struct {
	source UpdateSource
}

// NewFingertipsHandler creates a handler over source.
func NewFingertipsHandler(source UpdateSource) *FingertipsHandler {
	return &FingertipsHandler{source: source}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FingertipsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "cbor" {
		http.Error(w, "unknown format", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.source.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go readPump(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	log.Debug("fingertip client connected", "remote", r.RemoteAddr, "format", format)
	for {
		select {
		case <-done:
			return
		case u, ok := <-updates:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "renderer stopped"))
				return
			}
			if err := writeUpdate(conn, format, u); err != nil {
				log.Debug("fingertip client gone", "remote", r.RemoteAddr, "err", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeUpdate(conn *websocket.Conn, format string, u overlay.Update) error {
	msg := newMessage(u)

	var (
		payload []byte
		kind    = websocket.TextMessage
		err     error
	)
	if format == "cbor" {
		kind = websocket.BinaryMessage
		payload, err = cbor.Marshal(msg)
	} else {
		payload, err = json.Marshal(msg)
	}
	if err != nil {
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(kind, payload)
}

// readPump drains client messages so pongs and close frames are handled.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
