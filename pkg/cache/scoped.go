package cache

// ScopedKeyer prefixes every key of an inner keyer, so several tenants or
// graph collections can share one backend without clashing.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

func (k *ScopedKeyer) SnapshotKey(graphHash string, opts SnapshotKeyOpts) string {
	return k.prefix + k.inner.SnapshotKey(graphHash, opts)
}
