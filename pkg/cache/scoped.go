package cache

// ScopedKeyer wraps a Keyer with a prefix for tenant isolation. The API
// server scopes keys by the X-Tenant request header so that tenants never
// observe each other's cached contexts.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "tenant:acme:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ContextKey generates a prefixed key for context caching.
func (k *ScopedKeyer) ContextKey(batchHash string, opts ContextKeyOpts) string {
	return k.prefix + k.inner.ContextKey(batchHash, opts)
}

// RenderKey generates a prefixed key for rendered artifacts.
func (k *ScopedKeyer) RenderKey(batchHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(batchHash, opts)
}
