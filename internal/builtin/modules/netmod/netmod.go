// Package netmod wires github.com/gorilla/websocket into the runtime as a
// native module, exposing a guest-callable connect/send/recv/close surface
// over a client websocket connection.
package netmod

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"sentra/internal/builtin"

	"github.com/gorilla/websocket"
)

// connPool tracks live connections by an opaque integer handle, since a
// GenericRef can only carry value-model objects and a *websocket.Conn is
// not one. Connections are tracked by a generated integer ID, matching the
// handle-returning native-call shape every module in this package uses.
type connPool struct {
	mu   sync.Mutex
	next int64
	live map[int64]*websocket.Conn
}

func newConnPool() *connPool {
	return &connPool{live: make(map[int64]*websocket.Conn)}
}

func (p *connPool) put(c *websocket.Conn) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	p.live[p.next] = c
	return p.next
}

func (p *connPool) get(id int64) (*websocket.Conn, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.live[id]
	return c, ok
}

func (p *connPool) drop(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.live, id)
}

// Register adds `ws_dial(url)`, `ws_send(handle, text)`, `ws_recv(handle)`,
// and `ws_close(handle)`.
func Register(reg *builtin.Registry) {
	pool := newConnPool()
	mod := builtin.NewModule("net")

	mod.Register("ws_dial", func(args builtin.GenericRef, heap *builtin.HeapHandle) (builtin.GenericRef, error) {
		url, ok := stringArg(args, 0)
		if !ok {
			return builtin.Null, errors.New("ws_dial requires one String argument")
		}
		dialer := websocket.DefaultDialer
		dialer.HandshakeTimeout = 10 * time.Second
		conn, _, err := dialer.Dial(url, nil)
		if err != nil {
			return builtin.Null, fmt.Errorf("websocket dial failed: %w", err)
		}
		return heap.NewInt64(pool.put(conn)), nil
	})

	mod.Register("ws_send", func(args builtin.GenericRef, heap *builtin.HeapHandle) (builtin.GenericRef, error) {
		id, ok := intArg(args, 0)
		text, ok2 := stringArg(args, 1)
		if !ok || !ok2 {
			return builtin.Null, errors.New("ws_send requires (Int handle, String message)")
		}
		conn, found := pool.get(id)
		if !found {
			return builtin.Null, fmt.Errorf("unknown websocket handle %d", id)
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
			return builtin.Null, err
		}
		return heap.NewNull(), nil
	})

	mod.Register("ws_recv", func(args builtin.GenericRef, heap *builtin.HeapHandle) (builtin.GenericRef, error) {
		id, ok := intArg(args, 0)
		if !ok {
			return builtin.Null, errors.New("ws_recv requires one Int handle argument")
		}
		conn, found := pool.get(id)
		if !found {
			return builtin.Null, fmt.Errorf("unknown websocket handle %d", id)
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return builtin.Null, err
		}
		return heap.NewString(string(data)), nil
	})

	mod.Register("ws_close", func(args builtin.GenericRef, heap *builtin.HeapHandle) (builtin.GenericRef, error) {
		id, ok := intArg(args, 0)
		if !ok {
			return builtin.Null, errors.New("ws_close requires one Int handle argument")
		}
		if conn, found := pool.get(id); found {
			conn.Close()
			pool.drop(id)
		}
		return heap.NewNull(), nil
	})

	reg.RegisterModule(mod, "ws_dial", "ws_send", "ws_recv", "ws_close")
}

func stringArg(args builtin.GenericRef, i int) (string, bool) {
	if !builtin.IsTuple(args) || builtin.TupleLen(args) <= i {
		return "", false
	}
	v := builtin.TupleGet(args, i)
	if !builtin.IsString(v) {
		return "", false
	}
	return builtin.GetStringValue(v), true
}

func intArg(args builtin.GenericRef, i int) (int64, bool) {
	if !builtin.IsTuple(args) || builtin.TupleLen(args) <= i {
		return 0, false
	}
	v := builtin.TupleGet(args, i)
	if !builtin.IsInt(v) {
		return 0, false
	}
	return builtin.GetInt64Value(v), true
}
