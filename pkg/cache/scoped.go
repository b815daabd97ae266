package cache

// ScopedKeyer wraps a Keyer with a prefix so several viewers can share one
// cache backend without seeing each other's entries.
//
// Example usage:
//
//	// Keys for the staging viewer
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
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

// ExportKey generates a prefixed key for export payload caching.
func (k *ScopedKeyer) ExportKey(contentHash string, opts ExportKeyOpts) string {
	return k.prefix + k.inner.ExportKey(contentHash, opts)
}

// RenderKey generates a prefixed key for rendered diagram caching.
func (k *ScopedKeyer) RenderKey(payloadHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(payloadHash, opts)
}
