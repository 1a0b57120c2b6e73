package gateway

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"skillbox/internal/domain"
)

func dialWS(t *testing.T, handler http.Handler) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		server.Close()
		t.Fatalf("Dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func TestHandleWS_WhenInvokeSent_ShouldReturnResult(t *testing.T) {
	srv, err := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	conn, cleanup := dialWS(t, srv.Handler())
	defer cleanup()

	in := WSMessage{Type: "invoke", ID: "1", Name: "hash", Arguments: []byte(`{"text":"hi"}`)}
	if err := conn.WriteJSON(in); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var out WSMessage
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out.Type != "result" || out.Result != "abc123" {
		t.Errorf("want type=result result=abc123, got type=%q result=%q", out.Type, out.Result)
	}
	if out.ID != "1" || out.Name != "hash" {
		t.Errorf("id and name should be echoed, got id=%q name=%q", out.ID, out.Name)
	}
}

func TestHandleWS_WhenUnknownTool_ShouldReturnErrorFrame(t *testing.T) {
	srv, err := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	conn, cleanup := dialWS(t, srv.Handler())
	defer cleanup()

	if err := conn.WriteJSON(WSMessage{Type: "invoke", Name: "nope"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var out WSMessage
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out.Type != "error" || !strings.Contains(out.Error, "unknown tool") {
		t.Errorf("want error frame mentioning unknown tool, got type=%q error=%q", out.Type, out.Error)
	}
}

func TestHandleWS_WhenInvalidJSONSent_ShouldReturnErrorType(t *testing.T) {
	srv, err := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	conn, cleanup := dialWS(t, srv.Handler())
	defer cleanup()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	var out WSMessage
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out.Type != "error" || out.Error != "invalid JSON" {
		t.Errorf("want type=error error=invalid JSON, got type=%q error=%q", out.Type, out.Error)
	}
}

func TestHandleWS_WhenUnknownMessageType_ShouldReturnErrorFrame(t *testing.T) {
	srv, err := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	conn, cleanup := dialWS(t, srv.Handler())
	defer cleanup()

	if err := conn.WriteJSON(WSMessage{Type: "chat", ID: "7"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var out WSMessage
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out.Type != "error" || !strings.Contains(out.Error, "unknown message type") {
		t.Errorf("want unknown-message-type error, got type=%q error=%q", out.Type, out.Error)
	}
	if out.ID != "7" {
		t.Errorf("id should be echoed on errors, got %q", out.ID)
	}
}

func TestHandleWS_WhenNameMissing_ShouldReturnErrorFrame(t *testing.T) {
	srv, err := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	conn, cleanup := dialWS(t, srv.Handler())
	defer cleanup()

	if err := conn.WriteJSON(WSMessage{Type: "invoke"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var out WSMessage
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out.Type != "error" || out.Error != "name is required" {
		t.Errorf("want name-is-required error, got type=%q error=%q", out.Type, out.Error)
	}
}

func TestHandleWS_WhenMethodNotGet_ShouldReturn405(t *testing.T) {
	srv, err := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/ws", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /ws: want 405, got %d", rec.Code)
	}
}

func TestHandleWS_WhenNotWebSocketRequest_ShouldReturnBadRequest(t *testing.T) {
	srv, err := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	// No Upgrade or Connection headers, not a WebSocket handshake.
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET /ws without upgrade headers: want 400, got %d", rec.Code)
	}
}

func TestHandleWS_WhenAuthTokenSet_ShouldRequireBearer(t *testing.T) {
	cfg := &domain.GatewayConfig{Port: 0, AuthToken: "my-secret"}
	srv, err := NewServer(cfg, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /ws without token: want 401, got %d", rec.Code)
	}
}

func TestWriteWSMessage_WhenMarshalFails_ShouldNotSend(t *testing.T) {
	jsonMarshalMu.Lock()
	oldMarshal := jsonMarshal
	jsonMarshal = func(v any) ([]byte, error) { return nil, errors.New("marshal fail") }
	jsonMarshalMu.Unlock()
	defer func() {
		jsonMarshalMu.Lock()
		jsonMarshal = oldMarshal
		jsonMarshalMu.Unlock()
	}()

	srv, err := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	conn, cleanup := dialWS(t, srv.Handler())
	defer cleanup()

	if err := conn.WriteJSON(WSMessage{Type: "invoke", Name: "hash"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	// No frame should arrive because marshal fails server-side.
	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var out WSMessage
	if err := conn.ReadJSON(&out); err == nil {
		t.Errorf("expected read timeout, got frame %+v", out)
	}
}

func TestHandleWS_ConcurrentInvokes_ShouldNotRace(t *testing.T) {
	srv, err := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	conn, cleanup := dialWS(t, srv.Handler())
	defer cleanup()

	const n = 10
	var wg sync.WaitGroup
	var writeMu sync.Mutex
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			writeMu.Lock()
			defer writeMu.Unlock()
			conn.WriteJSON(WSMessage{Type: "invoke", Name: "hash"})
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		var out WSMessage
		if err := conn.ReadJSON(&out); err != nil {
			t.Fatalf("ReadJSON %d: %v", i, err)
		}
		if out.Type != "result" {
			t.Errorf("frame %d: want result, got %q (%q)", i, out.Type, out.Error)
		}
	}
}
