package connection

import "context"

type contextKey string

func (c contextKey) String() string {
	return "universei18n/connection/" + string(c)
}

const (
	ctxKeyConnection = contextKey("connectionKey")
	ctxKeyInvocation = contextKey("invocationKey")
)

// ToContext stashes the id of the connection a publish-style callback runs on
// behalf of. The value travels with every context derived from the returned
// one and is invisible to unrelated call trees.
func ToContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyConnection, id)
}

// FromContext extracts the ambient connection id if any exist.
func FromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(ctxKeyConnection).(string)
	return id, ok
}

// Invocation describes an in-flight remote method call.
type Invocation struct {
	ConnectionID string
	Method       string
}

// InvocationToContext adds the current method invocation to the supplied context.
func InvocationToContext(ctx context.Context, inv *Invocation) context.Context {
	return context.WithValue(ctx, ctxKeyInvocation, inv)
}

// InvocationFromContext extracts the in-flight method invocation if any exist.
func InvocationFromContext(ctx context.Context) (*Invocation, bool) {
	if ctx == nil {
		return nil, false
	}
	inv, ok := ctx.Value(ctxKeyInvocation).(*Invocation)
	if !ok || inv == nil {
		return nil, false
	}
	return inv, true
}
