package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"skillbox/internal/registry"
)

// WSMessage is the JSON frame protocol for the WebSocket gateway.
// Example request: {"type": "invoke", "id": "1", "name": "hash", "arguments": {"text": "hi"}}
// Example reply:   {"type": "result", "id": "1", "name": "hash", "result": "..."}
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Result    string          `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// jsonMarshal is used when encoding WSMessage; tests may replace it to force Marshal errors.
// Access is protected by jsonMarshalMu for race-safe test swaps.
var (
	jsonMarshalMu sync.RWMutex
	jsonMarshal   = json.Marshal
)

// Default upgrader for WebSocket connections.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request to WebSocket and runs an invoke loop,
// responding on the same connection. The request's id, when present, is
// echoed back so a client can correlate concurrent invokes. Writes are
// serialized with a mutex. Only GET is accepted for the handshake.
func HandleWS(w http.ResponseWriter, r *http.Request, reg Invoker) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var in WSMessage
		if err := json.Unmarshal(raw, &in); err != nil {
			reply := WSMessage{Type: "error", Error: "invalid JSON"}
			writeWSMessage(conn, &writeMu, &reply)
			continue
		}
		if in.Type != "invoke" {
			reply := WSMessage{Type: "error", ID: in.ID, Error: "unknown message type: " + in.Type}
			writeWSMessage(conn, &writeMu, &reply)
			continue
		}
		if in.Name == "" {
			reply := WSMessage{Type: "error", ID: in.ID, Error: "name is required"}
			writeWSMessage(conn, &writeMu, &reply)
			continue
		}

		result, err := reg.Invoke(in.Name, in.Arguments)
		if err != nil {
			var unknown *registry.UnknownToolError
			msg := err.Error()
			if errors.As(err, &unknown) {
				msg = "unknown tool: " + unknown.Name
			}
			reply := WSMessage{Type: "error", ID: in.ID, Name: in.Name, Error: msg}
			writeWSMessage(conn, &writeMu, &reply)
			continue
		}
		out := WSMessage{Type: "result", ID: in.ID, Name: in.Name, Result: result}
		writeWSMessage(conn, &writeMu, &out)
	}
}

func writeWSMessage(conn *websocket.Conn, mu *sync.Mutex, msg *WSMessage) {
	jsonMarshalMu.RLock()
	marshal := jsonMarshal
	jsonMarshalMu.RUnlock()
	data, err := marshal(msg)
	if err != nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	_ = conn.WriteMessage(websocket.TextMessage, data)
}
