package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// LiveReloadEvent is one event received from the dev server.
type LiveReloadEvent struct {
	Name string
	Args []any
}

// LiveReloadClient is a socket.io client recording the live-reload events a
// browser would receive.
type LiveReloadClient struct {
	io *socket.Socket

	mu     sync.Mutex
	events []LiveReloadEvent
}

// DialLiveReload connects to the dev server at baseURL (scheme and host) and
// waits until the connection is established. The client is disconnected
// when the test ends.
func DialLiveReload(t *testing.T, baseURL string, events ...string) *LiveReloadClient {
	t.Helper()

	opts := socket.DefaultOptions()
	opts.SetPath("/socket.io")
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)
	c := &LiveReloadClient{io: io}

	for _, name := range events {
		io.On(types.EventName(name), func(args ...any) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.events = append(c.events, LiveReloadEvent{Name: name, Args: args})
		})
	}

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				connected <- err
				return
			}
		}
		connected <- eris.Errorf("connect_error: %v", errs)
	})
	io.Connect()
	t.Cleanup(func() { io.Disconnect() })

	select {
	case err := <-connected:
		if err != nil {
			t.Fatalf("live-reload connection failed: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for live-reload connection")
	}
	return c
}

// Events returns the events received so far.
func (c *LiveReloadClient) Events() []LiveReloadEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LiveReloadEvent(nil), c.events...)
}
