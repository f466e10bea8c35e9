package assets

import "slices"

// Resolver turns a source asset path into the URL path a page requests,
// for example "app.js" into "/web/app.3f2a9c1d.js".
type Resolver interface {
	Asset(source string) string
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(source string) string

func (f ResolverFunc) Asset(source string) string { return f(source) }

// NewResolver resolves through m and prepends prefix.
func NewResolver(m *Manifest, prefix string) Resolver {
	return ResolverFunc(func(source string) string {
		return prefix + m.Resolve(source)
	})
}

// NewPassthroughResolver only prepends prefix, for assets served under
// their source names.
func NewPassthroughResolver(prefix string) Resolver {
	return ResolverFunc(func(source string) string { return prefix + source })
}

// List resolves sources through r and adds extra URLs as given, so absolute
// cross-origin URLs belong in extra. The result is sorted and free of
// duplicates and empty entries, which keeps generated worker scripts stable
// from build to build.
func List(r Resolver, sources []string, extra ...string) []string {
	out := make([]string, 0, len(sources)+len(extra))
	for _, s := range sources {
		out = append(out, r.Asset(s))
	}
	out = append(out, extra...)
	out = slices.DeleteFunc(out, func(u string) bool { return u == "" })
	slices.Sort(out)
	return slices.Compact(out)
}
