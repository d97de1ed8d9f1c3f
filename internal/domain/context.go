package domain

import "context"

type principalKey struct{}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    string
	Role      Role
	SessionID string
}

// WithPrincipal stores the principal in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

type requestInfoKey struct{}

// RequestInfo carries client details recorded on audit entries.
type RequestInfo struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// WithRequestInfo stores client details in ctx.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext returns client details, or a zero value.
func RequestInfoFromContext(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}
