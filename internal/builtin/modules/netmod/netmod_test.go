package netmod

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sentra/internal/builtin"
	"sentra/internal/memory"
	"sentra/internal/value"

	"github.com/gorilla/websocket"
)

func callable(t *testing.T, reg *builtin.Registry, name string) value.NativeCallable {
	t.Helper()
	lam, ok := reg.Bindings()[name]
	if !ok {
		t.Fatalf("Register did not expose %q", name)
	}
	fn, ok := lam.Lam.NativeBody.Nat.Lookup(name)
	if !ok {
		t.Fatalf("%q did not resolve its own signature", name)
	}
	return fn
}

// echoServer upgrades every request to a websocket connection and echoes
// each text message it receives back to the sender, uppercased so the test
// can tell the round trip actually passed through the server.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, []byte(strings.ToUpper(string(data)))); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialSendRecvCloseRoundTrip(t *testing.T) {
	srv := echoServer(t)

	h := memory.NewHeap()
	reg := builtin.New(h, nil)
	Register(reg)

	dial := callable(t, reg, "ws_dial")
	send := callable(t, reg, "ws_send")
	recv := callable(t, reg, "ws_recv")
	closeFn := callable(t, reg, "ws_close")

	handle, opErr := dial(value.NewTuple([]*value.Object{value.NewString(wsURL(srv))}))
	if opErr != nil {
		t.Fatalf("ws_dial error: %+v", opErr)
	}

	if _, opErr := send(value.NewTuple([]*value.Object{handle, value.NewString("hello")})); opErr != nil {
		t.Fatalf("ws_send error: %+v", opErr)
	}

	out, opErr := recv(value.NewTuple([]*value.Object{handle}))
	if opErr != nil {
		t.Fatalf("ws_recv error: %+v", opErr)
	}
	if out.S != "HELLO" {
		t.Fatalf("ws_recv = %q, want the server's uppercased echo", out.S)
	}

	if _, opErr := closeFn(value.NewTuple([]*value.Object{handle})); opErr != nil {
		t.Fatalf("ws_close error: %+v", opErr)
	}

	if _, opErr := send(value.NewTuple([]*value.Object{handle, value.NewString("late")})); opErr == nil {
		t.Fatalf("expected an error sending on a closed handle")
	}
}

func TestRecvOnUnknownHandleErrors(t *testing.T) {
	h := memory.NewHeap()
	reg := builtin.New(h, nil)
	Register(reg)

	recv := callable(t, reg, "ws_recv")
	_, opErr := recv(value.NewTuple([]*value.Object{value.NewInt(999)}))
	if opErr == nil {
		t.Fatalf("expected an error for an unopened handle")
	}
}

func TestDialRejectsUnreachableURL(t *testing.T) {
	h := memory.NewHeap()
	reg := builtin.New(h, nil)
	Register(reg)

	dial := callable(t, reg, "ws_dial")
	_, opErr := dial(value.NewTuple([]*value.Object{value.NewString("ws://127.0.0.1:1/no-such-server")}))
	if opErr == nil {
		t.Fatalf("expected a dial error for an unreachable address")
	}
}
