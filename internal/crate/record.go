package crate

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Record is the derived search information for one package.
//
// Name is the index key and is not serialized with the value; the cache
// stores it as the object key instead.
type Record struct {
	Name            string          `json:"-"`
	Description     *string         `json:"d,omitempty"`
	LatestNonYanked *semver.Version `json:"v,omitempty"`
	LatestYanked    *semver.Version `json:"y,omitempty"`
}

// NewRecord builds a Record and enforces that at least one version is known.
func NewRecord(name string, latestNonYanked, latestYanked *semver.Version) (Record, error) {
	r := Record{Name: name, LatestNonYanked: latestNonYanked, LatestYanked: latestYanked}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Validate checks the record invariants.
func (r Record) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("record has no name")
	}
	if r.LatestNonYanked == nil && r.LatestYanked == nil {
		return fmt.Errorf("%s: no latest or latest non-yanked version", r.Name)
	}
	return nil
}

// WithDescription returns a copy of r with the description set.
func (r Record) WithDescription(description string) Record {
	r.Description = &description
	return r
}

// DescriptionText returns the description or "" when absent.
func (r Record) DescriptionText() string {
	if r.Description == nil {
		return ""
	}
	return *r.Description
}

// Clone returns a deep copy so results never alias index storage.
func (r Record) Clone() Record {
	c := Record{Name: r.Name}
	if r.Description != nil {
		d := *r.Description
		c.Description = &d
	}
	if r.LatestNonYanked != nil {
		v := *r.LatestNonYanked
		c.LatestNonYanked = &v
	}
	if r.LatestYanked != nil {
		v := *r.LatestYanked
		c.LatestYanked = &v
	}
	return c
}

// ResolvedVersion is the version whose archive carries the manifest:
// the latest non-yanked version if there is one, else the latest yanked.
func (r Record) ResolvedVersion() *semver.Version {
	if r.LatestNonYanked != nil {
		return r.LatestNonYanked
	}
	return r.LatestYanked
}

// Equal reports whether two records carry the same data.
func (r Record) Equal(o Record) bool {
	return r.Name == o.Name &&
		r.DescriptionText() == o.DescriptionText() &&
		(r.Description == nil) == (o.Description == nil) &&
		versionEqual(r.LatestNonYanked, o.LatestNonYanked) &&
		versionEqual(r.LatestYanked, o.LatestYanked)
}

func versionEqual(a, b *semver.Version) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b) && a.Original() == b.Original()
}
