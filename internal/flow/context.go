package flow

// Context is the key-value data snapshot a rule firing reads from.
// Values may nest (map[string]any) and are addressed by dotted paths.
// A Context is built fresh per evaluation and never mutated by the engine
// after the firing completes.
type Context map[string]any

// Resolve walks a dot-separated path into the context.
// A missing key at any level yields (nil, false); it never panics.
func (c Context) Resolve(path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	return resolveMap(c, path)
}

func resolveMap(m map[string]any, path []string) (any, bool) {
	val, ok := m[path[0]]
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		return val, true
	}
	switch sub := val.(type) {
	case map[string]any:
		return resolveMap(sub, path[1:])
	case Context:
		return resolveMap(sub, path[1:])
	}
	return nil, false
}

// String returns the top-level value for key coerced to a string.
// Missing keys and non-string values yield ("", false).
func (c Context) String(key string) (string, bool) {
	v, ok := c[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Clone returns a shallow copy. Nested maps are shared; callers that retain
// a clone (e.g. the audit log) must treat it as read-only.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
