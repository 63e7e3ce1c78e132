// SPDX-License-Identifier: MIT
package haptics

import (
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"pulse/internal/log"
)

// wsFrame is the JSON message broadcast to connected clients. Type is
// "haptic" for parametric events and "pulse" for the coarse fallback.
type wsFrame struct {
	Type  string `json:"type"`
	Event *Event `json:"event,omitempty"`
}

// WebSocketEmitter broadcasts haptic frames to every connected WebSocket
// client (browser Vibration-API bridges and similar). Emission enqueues
// onto a buffered broadcast channel and never blocks; when the channel is
// full the frame is dropped, protecting the dispatch path from slow
// clients.
type WebSocketEmitter struct {
	listener  net.Listener
	server    *http.Server
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan wsFrame
}

// NewWebSocketEmitter starts an HTTP server on addr serving the /ws
// endpoint and begins accepting clients. Use port 0 to let the OS pick.
func NewWebSocketEmitter(addr string) (*WebSocketEmitter, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	e := &WebSocketEmitter{
		listener: listener,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local bridge clients only; no origin policy
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan wsFrame, 256),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", e.handleWebSocket)
	e.server = &http.Server{Handler: mux}

	go func() {
		log.Infof("haptics: websocket emitter listening on %s", listener.Addr())
		if err := e.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Errorf("haptics: websocket server error: %v", err)
		}
	}()
	go e.handleBroadcasts()

	return e, nil
}

// Addr returns the address the emitter is listening on.
func (e *WebSocketEmitter) Addr() net.Addr {
	return e.listener.Addr()
}

func (e *WebSocketEmitter) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("haptics: websocket upgrade error: %v", err)
		return
	}

	e.clientsMu.Lock()
	e.clients[conn] = true
	total := len(e.clients)
	e.clientsMu.Unlock()
	log.Infof("haptics: websocket client connected, total: %d", total)

	go func() {
		// Block until the client goes away.
		_, _, err := conn.ReadMessage()
		if err != nil {
			e.clientsMu.Lock()
			delete(e.clients, conn)
			total := len(e.clients)
			e.clientsMu.Unlock()
			conn.Close()
			log.Infof("haptics: websocket client disconnected, total: %d", total)
		}
	}()
}

func (e *WebSocketEmitter) handleBroadcasts() {
	for frame := range e.broadcast {
		e.clientsMu.Lock()
		for client := range e.clients {
			if err := client.WriteJSON(frame); err != nil {
				log.Errorf("haptics: websocket send error: %v", err)
				client.Close()
				delete(e.clients, client)
			}
		}
		e.clientsMu.Unlock()
	}
}

func (e *WebSocketEmitter) enqueue(frame wsFrame) error {
	select {
	case e.broadcast <- frame:
	default:
		// Broadcast queue full; drop rather than stall the dispatcher.
	}
	return nil
}

// SupportsEvents reports true; clients receive full event parameters.
func (e *WebSocketEmitter) SupportsEvents() bool { return true }

// EmitEvent queues a parametric haptic frame for broadcast.
func (e *WebSocketEmitter) EmitEvent(ev Event) error {
	return e.enqueue(wsFrame{Type: "haptic", Event: &ev})
}

// EmitPulse queues a coarse fallback frame for broadcast.
func (e *WebSocketEmitter) EmitPulse() error {
	return e.enqueue(wsFrame{Type: "pulse"})
}

// Close disconnects all clients and shuts down the server.
func (e *WebSocketEmitter) Close() error {
	log.Infof("haptics: closing websocket emitter")

	e.clientsMu.Lock()
	for client := range e.clients {
		client.Close()
	}
	e.clients = make(map[*websocket.Conn]bool)
	e.clientsMu.Unlock()

	return e.server.Close()
}

var _ Emitter = (*WebSocketEmitter)(nil)
