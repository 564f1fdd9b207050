package connection

import "context"

// Conn is the transport-facing view of a live connection.
type Conn interface {
	ID() string
}

// Resolve determines which connection the current code runs on behalf of.
// An explicit connection wins, then the ambient method invocation, then the
// id propagated into publish-style callbacks. Lookups fail soft: outside any
// connection-bound call the second return is false, never a panic.
func Resolve(ctx context.Context, explicit Conn) (string, bool) {
	if explicit != nil {
		if id := explicit.ID(); id != "" {
			return id, true
		}
	}

	if inv, ok := InvocationFromContext(ctx); ok && inv.ConnectionID != "" {
		return inv.ConnectionID, true
	}

	if id, ok := FromContext(ctx); ok && id != "" {
		return id, true
	}

	return "", false
}
