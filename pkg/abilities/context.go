package abilities

import "context"

// Principal identifies the caller of an ability and the capabilities it has
// been granted. Mutating abilities require an explicit capability beyond
// being authenticated at all.
type Principal struct {
	ID           string   `json:"id"`
	Capabilities []string `json:"capabilities"`
}

// Can reports whether the principal holds the given capability.
func (p Principal) Can(capability string) bool {
	if capability == "" {
		return true
	}
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal annotates ctx with the calling principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal attached to ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

type currentCallKey struct{}

// WithCurrentCall annotates ctx with the ability call being executed, for
// handlers that need call metadata.
func WithCurrentCall(ctx context.Context, call Call) context.Context {
	return context.WithValue(ctx, currentCallKey{}, call)
}

// CurrentCallFrom returns the in-flight ability call, if any.
func CurrentCallFrom(ctx context.Context) (Call, bool) {
	if ctx == nil {
		return Call{}, false
	}
	c, ok := ctx.Value(currentCallKey{}).(Call)
	return c, ok
}
