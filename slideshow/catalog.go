package slideshow

import (
	"cmp"
	"slices"
)

// BuildCatalog turns a cache listing into an ordered catalog. The order is
// modification time ascending with ties broken by ID, so the same listing
// always produces the same catalog. Random mode returns the same order and
// leaves the draw to the Selector.
func BuildCatalog(photos []CachedPhoto, _ OrderMode) []PhotoRef {
	refs := make([]PhotoRef, 0, len(photos))
	for _, p := range photos {
		refs = append(refs, PhotoRef{ID: p.ID, Path: p.Path, ModTime: p.ModTime})
	}

	slices.SortStableFunc(refs, func(a, b PhotoRef) int {
		if c := a.ModTime.Compare(b.ModTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return refs
}

func indexOf(catalog []PhotoRef, id string) int {
	return slices.IndexFunc(catalog, func(r PhotoRef) bool { return r.ID == id })
}
