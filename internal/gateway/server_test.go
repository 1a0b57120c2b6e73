package gateway

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skillbox/internal/domain"
	"skillbox/internal/registry"
)

// isListenPermissionErr reports whether err is a listen/bind permission error (e.g. sandbox).
func isListenPermissionErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "operation not permitted") || strings.Contains(s, "permission denied")
}

// fakeInvoker is a canned Invoker for handler tests.
type fakeInvoker struct {
	defs    []domain.ToolDefinition
	results map[string]string
}

func (f *fakeInvoker) List() []domain.ToolDefinition { return f.defs }

func (f *fakeInvoker) Invoke(name string, args json.RawMessage) (string, error) {
	result, ok := f.results[name]
	if !ok {
		return "", &registry.UnknownToolError{Name: name}
	}
	return result, nil
}

func newFakeInvoker() *fakeInvoker {
	return &fakeInvoker{
		defs: []domain.ToolDefinition{
			{Name: "hash", Description: "Hash text", InputSchema: json.RawMessage(`{"type":"object"}`)},
		},
		results: map[string]string{"hash": "abc123"},
	}
}

func TestServer_WhenAuthTokenSet_ShouldRequireBearer(t *testing.T) {
	cfg := &domain.GatewayConfig{Port: 0, AuthToken: "my-secret"}
	srv, err := NewServer(cfg, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	handler := srv.Handler()

	// without token -> 401
	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without token: want 401, got %d", rec.Code)
	}

	// with wrong token -> 401
	req2 := httptest.NewRequest(http.MethodGet, "/tools", nil)
	req2.Header.Set("Authorization", "Bearer wrong")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: want 401, got %d", rec2.Code)
	}

	// with correct token -> 200
	req3 := httptest.NewRequest(http.MethodGet, "/tools", nil)
	req3.Header.Set("Authorization", "Bearer my-secret")
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, req3)
	if rec3.Code != http.StatusOK {
		t.Errorf("correct token: want 200, got %d", rec3.Code)
	}
}

func TestServer_WhenAuthTokenEmpty_ShouldAcceptRequestsWithoutHeader(t *testing.T) {
	srv, err := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("no auth: want 200, got %d", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("no auth body: want OK, got %q", rec.Body.String())
	}
}

func TestNewServer_WhenPortOutOfRange_ShouldReturnErrInvalidPort(t *testing.T) {
	for _, port := range []int{-1, 65536} {
		_, err := NewServer(&domain.GatewayConfig{Port: port}, newFakeInvoker())
		if !errors.Is(err, ErrInvalidPort) {
			t.Errorf("port %d: want ErrInvalidPort, got %v", port, err)
		}
	}
}

func TestNewServer_WhenConfigNil_ShouldUseDefaults(t *testing.T) {
	srv, err := NewServer(nil, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer(nil): %v", err)
	}
	if srv.cfg == nil || srv.cfg.Port != 8080 {
		t.Errorf("want default port 8080, got %+v", srv.cfg)
	}
}

func TestTools_ShouldReturnDefinitions(t *testing.T) {
	srv, err := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var defs []domain.ToolDefinition
	if err := json.Unmarshal(rec.Body.Bytes(), &defs); err != nil {
		t.Fatalf("response is not a definition list: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "hash" {
		t.Errorf("want one definition named hash, got %+v", defs)
	}
}

func TestTools_WhenPost_ShouldReturnMethodNotAllowed(t *testing.T) {
	srv, _ := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())

	req := httptest.NewRequest(http.MethodPost, "/tools", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("want 405, got %d", rec.Code)
	}
}

func TestInvoke_WhenKnownTool_ShouldReturnResult(t *testing.T) {
	srv, _ := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())

	body := strings.NewReader(`{"name": "hash", "arguments": {"text": "hi"}}`)
	req := httptest.NewRequest(http.MethodPost, "/invoke", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["result"] != "abc123" {
		t.Errorf("want result abc123, got %q", resp["result"])
	}
}

func TestInvoke_WhenUnknownTool_ShouldReturn404WithStructuredBody(t *testing.T) {
	srv, _ := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())

	body := strings.NewReader(`{"name": "nope"}`)
	req := httptest.NewRequest(http.MethodPost, "/invoke", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["error"] != "unknown tool" || resp["name"] != "nope" {
		t.Errorf("want structured unknown-tool body, got %+v", resp)
	}
}

func TestInvoke_WhenBadJSON_ShouldReturn400(t *testing.T) {
	srv, _ := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())

	req := httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400, got %d", rec.Code)
	}
}

func TestInvoke_WhenMissingName_ShouldReturn400(t *testing.T) {
	srv, _ := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())

	req := httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(`{"arguments": {}}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400, got %d", rec.Code)
	}
}

func TestInvoke_WhenGet_ShouldReturnMethodNotAllowed(t *testing.T) {
	srv, _ := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())

	req := httptest.NewRequest(http.MethodGet, "/invoke", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("want 405, got %d", rec.Code)
	}
}

func TestServer_WhenShutdownClosed_ShouldReturnNil(t *testing.T) {
	srv, err := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	shutdown := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- srv.Run(shutdown) }()
	time.Sleep(30 * time.Millisecond)
	close(shutdown)
	err = <-done
	if err != nil {
		if isListenPermissionErr(err) {
			t.Skip("skipping: cannot bind in this environment (e.g. sandbox)")
		}
		t.Errorf("Run after shutdown: want nil, got %v", err)
	}
}

func TestServer_Run_ShouldServeTools(t *testing.T) {
	srv, err := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	shutdown := make(chan struct{})
	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run(shutdown) }()

	// Wait for the listener to bind.
	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == "" && time.Now().Before(deadline) {
		if err := srv.ListenErr(); err != nil {
			if isListenPermissionErr(err) {
				t.Skipf("listen not permitted in this environment: %v", err)
			}
			t.Fatalf("listen failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	addr := srv.Addr()
	if addr == "" {
		t.Fatal("server never bound")
	}

	resp, err := http.Get("http://" + addr + "/tools")
	if err != nil {
		t.Fatalf("GET /tools: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("want 200, got %d", resp.StatusCode)
	}

	close(shutdown)
	select {
	case err := <-runErr:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after shutdown")
	}
}

func TestServer_Run_WhenListenFails_ShouldReturnError(t *testing.T) {
	old := netListen
	defer func() { netListen = old }()
	netListen = func(network, address string) (net.Listener, error) {
		return nil, errors.New("boom")
	}

	srv, _ := NewServer(&domain.GatewayConfig{Port: 0}, newFakeInvoker())
	if err := srv.Run(make(chan struct{})); err == nil {
		t.Fatal("expected listen error")
	}
	if srv.ListenErr() == nil {
		t.Error("ListenErr should record the failure")
	}
}
