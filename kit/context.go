package kit

import "context"

// Transport names the surface a call arrived on. It is attached to the
// context by the transport adapter and read by Logging.
const (
	TransportHTTP = "http"
	TransportMCP  = "mcp"
)

type transportKey struct{}

type requestIDKey struct{}

// WithTransport records which surface is serving ctx.
func WithTransport(ctx context.Context, transport string) context.Context {
	return context.WithValue(ctx, transportKey{}, transport)
}

// GetTransport returns the surface recorded by WithTransport, or
// TransportHTTP when none was recorded.
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(transportKey{}).(string); ok {
		return v
	}
	return TransportHTTP
}

// WithRequestID attaches the correlation ID echoed in X-Request-ID; Logging
// adds it to every endpoint log line.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the ID set by WithRequestID, or "" when there is none
// (MCP calls over stdio carry no request ID).
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}
