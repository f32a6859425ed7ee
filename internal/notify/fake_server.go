package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/coder/websocket"
)

// FakeServer is an in-process push endpoint for tests: Push sends a frame
// to the next client that connects.
type FakeServer struct {
	server *httptest.Server
	conns  chan *websocket.Conn
}

// NewFakeServer starts an in-process push endpoint.
func NewFakeServer() *FakeServer {
	f := &FakeServer{conns: make(chan *websocket.Conn, 16)}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *FakeServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	f.conns <- conn
	<-r.Context().Done()
}

// URL returns the fake server's websocket URL.
func (f *FakeServer) URL() string {
	return "ws" + f.server.URL[len("http"):]
}

// Push sends frame to the next connected client, blocking until one has
// connected.
func (f *FakeServer) Push(ctx context.Context, frame Frame) error {
	conn := <-f.conns
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return err
	}
	f.conns <- conn
	return nil
}

// Close shuts down the fake server.
func (f *FakeServer) Close() {
	f.server.Close()
}
