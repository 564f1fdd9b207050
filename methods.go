package universei18n

import (
	"context"

	"github.com/klablink/meteor-universe-i18n/connection"
	"github.com/klablink/meteor-universe-i18n/transport"
)

// MethodSetServerLocale is the remote method a client calls to pin its own
// server-side locale.
const MethodSetServerLocale = "universe.i18n.setServerLocaleForConnection"

func (s *Service) registerMethods() {
	s.socket.Handle(MethodSetServerLocale, s.setServerLocaleForConnection)
}

// setServerLocaleForConnection assigns the calling connection's locale.
// Anything short of a well-formed call from a registered connection is a
// silent no-op: a non-string argument, the feature being disabled, or no
// resolvable connection. An unregistered connection id surfaces
// ErrNoSuchConnection, since that means lifecycle wiring is broken upstream.
func (s *Service) setServerLocaleForConnection(
	ctx context.Context, conn *transport.Conn, args []any,
) (any, error) {
	if len(args) == 0 {
		return nil, nil
	}

	locale, ok := args[0].(string)
	if !ok {
		return nil, nil
	}

	if !s.cfg.CanSetLocaleOnConnection() {
		return nil, nil
	}

	var explicit connection.Conn
	if conn != nil {
		explicit = conn
	}
	id, ok := connection.Resolve(ctx, explicit)
	if !ok {
		return nil, nil
	}

	return nil, s.registry.SetLocale(ctx, id, locale)
}
