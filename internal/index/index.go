// Package index builds, caches, and loads the package index of a registry
// mirror.
//
// An Index maps package names to crate.Records and is always ordered by
// name. The Store decides whether the cache file next to the mirror can be
// trusted and otherwise rebuilds the index from the mirror's metadata tree.
package index

import (
	"fmt"
	"sort"

	"github.com/Aman-CERP/panamax-search/internal/crate"
)

// Index is an immutable name-ordered mapping of package name to record.
type Index struct {
	names   []string
	records map[string]*crate.Record
}

// New builds an Index from records in any order. Duplicate names are an
// error because two metadata files cannot describe the same package.
func New(records []crate.Record) (*Index, error) {
	idx := &Index{
		names:   make([]string, 0, len(records)),
		records: make(map[string]*crate.Record, len(records)),
	}
	for i := range records {
		r := records[i]
		if _, dup := idx.records[r.Name]; dup {
			return nil, fmt.Errorf("duplicate package %q", r.Name)
		}
		idx.records[r.Name] = &r
		idx.names = append(idx.names, r.Name)
	}
	sort.Strings(idx.names)
	return idx, nil
}

// Len returns the number of packages.
func (i *Index) Len() int {
	return len(i.names)
}

// Names returns package names in sorted order.
func (i *Index) Names() []string {
	return append([]string(nil), i.names...)
}

// Get returns a copy of the record for name.
func (i *Index) Get(name string) (crate.Record, bool) {
	r, ok := i.records[name]
	if !ok {
		return crate.Record{}, false
	}
	return r.Clone(), true
}

// Lookup returns the stored record for name. Callers must not modify it.
func (i *Index) Lookup(name string) (*crate.Record, bool) {
	r, ok := i.records[name]
	return r, ok
}

// Sorted returns the stored records ordered by name. Callers must not
// modify them.
func (i *Index) Sorted() []*crate.Record {
	out := make([]*crate.Record, len(i.names))
	for n, name := range i.names {
		out[n] = i.records[name]
	}
	return out
}

// Records returns copies of all records ordered by name.
func (i *Index) Records() []crate.Record {
	out := make([]crate.Record, len(i.names))
	for n, name := range i.names {
		out[n] = i.records[name].Clone()
	}
	return out
}

// Equal reports whether both indexes hold the same records.
func (i *Index) Equal(o *Index) bool {
	if i.Len() != o.Len() {
		return false
	}
	for n, name := range i.names {
		if o.names[n] != name || !i.records[name].Equal(*o.records[name]) {
			return false
		}
	}
	return true
}
