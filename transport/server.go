// Package transport is a small websocket session layer: it owns connection
// lifecycles and delivers remote method calls to registered handlers with the
// calling connection available from the invocation context.
package transport

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pitabwire/util"
	"github.com/rs/xid"

	"github.com/klablink/meteor-universe-i18n/connection"
)

// MethodFunc handles one remote method call. ctx carries the invocation, so
// connection.Resolve works from anywhere below the handler.
type MethodFunc func(ctx context.Context, conn *Conn, args []any) (any, error)

// LifecycleFunc observes a connection opening or closing.
type LifecycleFunc func(id string)

// message is the wire frame exchanged with clients.
type message struct {
	Msg    string `json:"msg"`
	ID     string `json:"id,omitempty"`
	Method string `json:"method,omitempty"`
	Params []any  `json:"params,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Server upgrades HTTP requests to websocket sessions and dispatches method
// frames. Register methods and lifecycle hooks before serving.
type Server struct {
	upgrader websocket.Upgrader

	mu           sync.RWMutex
	methods      map[string]MethodFunc
	connectHooks []LifecycleFunc
	closeHooks   []LifecycleFunc
}

func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		methods: make(map[string]MethodFunc),
	}
}

// Handle registers fn for the named remote method.
func (s *Server) Handle(name string, fn MethodFunc) {
	s.mu.Lock()
	s.methods[name] = fn
	s.mu.Unlock()
}

// OnConnect registers a hook invoked once when a connection opens.
func (s *Server) OnConnect(fn LifecycleFunc) {
	s.mu.Lock()
	s.connectHooks = append(s.connectHooks, fn)
	s.mu.Unlock()
}

// OnClose registers a hook invoked once when a connection closes.
func (s *Server) OnClose(fn LifecycleFunc) {
	s.mu.Lock()
	s.closeHooks = append(s.closeHooks, fn)
	s.mu.Unlock()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		util.Log(r.Context()).WithError(err).Error("ServeHTTP -- websocket upgrade failed")
		return
	}

	conn := &Conn{id: xid.New().String(), ws: ws}
	s.session(r.Context(), conn)
}

// session runs a connection's read loop from open hook to close hook.
func (s *Server) session(ctx context.Context, conn *Conn) {
	log := util.Log(ctx).WithField("connection", conn.id)

	for _, fn := range s.snapshotHooks(&s.connectHooks) {
		fn(conn.id)
	}
	defer func() {
		for _, fn := range s.snapshotHooks(&s.closeHooks) {
			fn(conn.id)
		}
		_ = conn.ws.Close()
	}()

	for {
		var in message
		if err := conn.ws.ReadJSON(&in); err != nil {
			if !errors.Is(err, context.Canceled) && !websocket.IsCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				log.WithError(err).Debug("session -- read failed")
			}
			return
		}

		if in.Msg != "method" {
			continue
		}
		s.dispatch(ctx, conn, &in, log)
	}
}

func (s *Server) dispatch(ctx context.Context, conn *Conn, in *message, log *util.LogEntry) {
	s.mu.RLock()
	fn, ok := s.methods[in.Method]
	s.mu.RUnlock()

	if !ok {
		_ = conn.Send(&message{Msg: "result", ID: in.ID, Error: "unknown method " + in.Method})
		return
	}

	ctx = connection.InvocationToContext(ctx, &connection.Invocation{
		ConnectionID: conn.id,
		Method:       in.Method,
	})

	result, err := fn(ctx, conn, in.Params)
	if err != nil {
		log.WithError(err).WithField("method", in.Method).Error("dispatch -- method failed")
		_ = conn.Send(&message{Msg: "result", ID: in.ID, Error: err.Error()})
		return
	}

	_ = conn.Send(&message{Msg: "result", ID: in.ID, Result: result})
}

func (s *Server) snapshotHooks(hooks *[]LifecycleFunc) []LifecycleFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LifecycleFunc, len(*hooks))
	copy(out, *hooks)
	return out
}
