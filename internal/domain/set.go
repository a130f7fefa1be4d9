// Package domain holds the core types and store interfaces shared across the
// analyzer. It has no dependency on any other internal package.
package domain

// Part is a single constituent item of a Set, with the quantity required to
// assemble one unit of the set.
type Part struct {
	Slug     string
	Name     string
	Quantity int
}

// Set is an immutable catalog entry: a composite tradable item decomposed
// into its constituent Parts. Sets are identified by a stable slug and are
// owned by the catalog cache; Runs reference Sets only by slug.
type Set struct {
	Slug  string
	Name  string
	Parts []Part
}

// Catalog is a point-in-time snapshot of every known Set, tagged with the
// content hash it was derived from so staleness can be detected cheaply.
type Catalog struct {
	Hash string
	Sets []Set
}

// BySlug returns the Set with the given slug, or false if absent.
func (c Catalog) BySlug(slug string) (Set, bool) {
	for _, s := range c.Sets {
		if s.Slug == slug {
			return s, true
		}
	}
	return Set{}, false
}
