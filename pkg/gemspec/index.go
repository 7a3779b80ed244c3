package gemspec

import "sort"

// Index maps gem full names to specs. The zero value is not usable; call
// NewIndex.
type Index struct {
	byName map[string]*Spec
}

func NewIndex() *Index {
	return &Index{byName: make(map[string]*Spec)}
}

// Add inserts or replaces the entry for spec's full name.
func (idx *Index) Add(spec *Spec) {
	idx.byName[spec.FullName()] = spec
}

// Lookup returns the spec registered under fullName.
func (idx *Index) Lookup(fullName string) (*Spec, bool) {
	spec, ok := idx.byName[fullName]
	return spec, ok
}

// Merge folds other into idx. Entries in other replace same-identity
// entries already present, which is how index precedence is expressed:
// merge the lowest-priority index first.
func (idx *Index) Merge(other *Index) {
	if other == nil {
		return
	}
	for name, spec := range other.byName {
		idx.byName[name] = spec
	}
}

// Specs returns all entries sorted by full name.
func (idx *Index) Specs() []*Spec {
	specs := make([]*Spec, 0, len(idx.byName))
	for _, spec := range idx.byName {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool {
		return specs[i].FullName() < specs[j].FullName()
	})
	return specs
}

func (idx *Index) Len() int {
	return len(idx.byName)
}
