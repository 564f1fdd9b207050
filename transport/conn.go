package transport

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/klablink/meteor-universe-i18n/connection"
)

// Conn is one live client session.
type Conn struct {
	id string

	writeMu sync.Mutex
	ws      *websocket.Conn
}

func (c *Conn) ID() string {
	return c.id
}

// Run executes fn with this connection's id pushed onto the context, so code
// deep inside fn can resolve which connection it serves without being handed
// the id explicitly. Used for publish-style callbacks.
func (c *Conn) Run(ctx context.Context, fn func(ctx context.Context)) {
	fn(connection.ToContext(ctx, c.id))
}

// Send writes a JSON frame to the client. Safe for concurrent use.
func (c *Conn) Send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}
