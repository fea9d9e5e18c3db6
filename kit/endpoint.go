// Package kit carries the transport-agnostic plumbing shared by the HTTP
// and MCP surfaces: endpoints, middleware and request-scoped context values.
package kit

import "context"

// Endpoint is a transport-agnostic handler.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares; the first one is outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
