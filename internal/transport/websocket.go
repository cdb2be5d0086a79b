// SPDX-License-Identifier: MIT
package transport

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	applog "audiofft/internal/log"
)

// WebSocketTransport broadcasts result frames to connected WebSocket
// clients. Frames are queued on a buffered channel so the analyzer's
// callback never blocks on slow clients; the channel drops frames when
// full.
type WebSocketTransport struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	server    *http.Server

	done      chan struct{} // Closed once to stop the broadcaster.
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWebSocketTransport creates a transport serving /results on the given
// address and starts its HTTP server.
func NewWebSocketTransport(addr string) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for testing
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 256),
		done:      make(chan struct{}),
	}

	wst.start()
	return wst
}

func (wst *WebSocketTransport) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/results", wst.handleWebSocket)

	wst.server = &http.Server{
		Addr:    wst.addr,
		Handler: mux,
	}

	go func() {
		applog.Infof("transport: WebSocket server listening on %s", wst.addr)
		if err := wst.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Errorf("transport: WebSocket server error: %v", err)
		}
	}()

	wst.wg.Add(1)
	go wst.handleBroadcasts()
}

// handleWebSocket upgrades HTTP connections to WebSocket.
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Errorf("transport: WebSocket upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("transport: client connected, total: %d", total)

	// Watch for close.
	go func() {
		_, _, err := conn.ReadMessage()
		if err != nil {
			wst.clientsMu.Lock()
			delete(wst.clients, conn)
			total := len(wst.clients)
			wst.clientsMu.Unlock()
			conn.Close()
			applog.Infof("transport: client disconnected, total: %d", total)
		}
	}()
}

// handleBroadcasts sends queued frames to all connected clients until
// Close signals done.
func (wst *WebSocketTransport) handleBroadcasts() {
	defer wst.wg.Done()
	for {
		select {
		case data := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				if err := client.WriteJSON(data); err != nil {
					applog.Warnf("transport: error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		case <-wst.done:
			return
		}
	}
}

// Send queues data for broadcast. Never blocks; drops the frame when the
// queue is full.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case wst.broadcast <- data:
	default:
		// Queue full, drop the frame.
	}
	return nil
}

// Close stops the broadcaster goroutine, disconnects all clients and
// shuts down the WebSocket server. Idempotent; later Sends drop their
// frames.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		applog.Infof("transport: closing WebSocket server")

		close(wst.done)
		wst.wg.Wait()

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		if wst.server != nil {
			err = wst.server.Close()
		}
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface.
var _ Transport = (*WebSocketTransport)(nil)
