package confval

// Merge combines changes into base. When both sides are maps the merge
// recurses key-by-key: keys only in changes are appended, keys in both
// recurse, keys only in base are preserved in their original order. Any
// other pairing replaces base wholesale (scalars and lists are never
// concatenated). Merging an empty map is a no-op and merging the same
// changes twice is idempotent.
func Merge(base, changes Value) Value {
	if base.kind != KindMap || changes.kind != KindMap {
		return changes
	}

	out := Map()
	for _, p := range base.pairs {
		out.Set(p.Key, p.Val)
	}
	for _, p := range changes.pairs {
		if existing, ok := out.Get(p.Key); ok {
			out.Set(p.Key, Merge(existing, p.Val))
		} else {
			out.Set(p.Key, p.Val)
		}
	}
	return out
}
