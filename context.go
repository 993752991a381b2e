package hallpass

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Manager passes it
// to the admission-control collaborator and records it in audit events; it is
// never part of any security decision inside the core itself.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
