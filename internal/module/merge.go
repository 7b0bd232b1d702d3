package module

import "github.com/tidwall/match"

// Filter decides whether a function entry survives a Merge, given its
// access mode, name and arity.
type Filter func(access AccessMode, name string, arity int) bool

// AllowAll is the default Merge filter: everything survives.
func AllowAll(AccessMode, string, int) bool { return true }

// PublicOnly keeps only Public entries, dropping Private ones: the
// default behavior when merging an imported module's namespace into the
// caller's visible function set.
func PublicOnly(access AccessMode, _ string, _ int) bool { return access == Public }

// ByNamePattern builds a Filter that keeps only functions whose name
// matches the glob pattern (e.g. "get_*"), using
// github.com/tidwall/match for the glob engine.
func ByNamePattern(pattern string) Filter {
	return func(_ AccessMode, name string, _ int) bool {
		return match.Match(name, pattern)
	}
}

// Merge copies src's functions and sub-modules into dst, keeping only
// entries filter approves. Collisions (same hash key) overwrite dst's
// existing entry. filter may be nil, equivalent to AllowAll.
func Merge(dst, src *Module, filter Filter) *Module {
	if filter == nil {
		filter = AllowAll
	}
	src.mu.RLock()
	defer src.mu.RUnlock()
	dst.mu.Lock()
	defer dst.mu.Unlock()

	for hash, e := range src.native {
		if filter(e.Access, e.Name, e.Arity) {
			dst.native[hash] = e
			dst.nameIndex[e.Name] = appendUnique(dst.nameIndex[e.Name], e)
		}
	}
	for hash, e := range src.script {
		if filter(e.Access, e.Name, e.Arity) {
			dst.script[hash] = e
			dst.nameIndex[e.Name] = appendUnique(dst.nameIndex[e.Name], e)
		}
	}
	for name, sub := range src.subModules {
		dst.subModules[name] = sub
	}
	for typeID, fn := range src.iterables {
		dst.iterables[typeID] = fn
	}
	for typeID, pretty := range src.typeNames {
		dst.typeNames[typeID] = pretty
	}
	return dst
}

func appendUnique(list []*entry, e *entry) []*entry {
	for _, existing := range list {
		if existing == e {
			return list
		}
	}
	return append(list, e)
}
