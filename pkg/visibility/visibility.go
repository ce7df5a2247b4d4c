// Package visibility holds the set of expanded group node ids.
//
// A node is open when it has at least one child and its id is in the set;
// every other node is closed. Leaf ids may be present in the set without
// effect. A Set lives as long as the view that owns it and is never persisted.
package visibility

import (
	"encoding/json"
	"slices"
)

// Set is a set of expanded node ids. The zero value is an empty set ready to
// use. A Set is not safe for concurrent use.
type Set struct {
	ids map[string]struct{}
}

// New returns a set containing ids.
func New(ids ...string) *Set {
	s := &Set{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Has reports whether id is expanded. A nil set is empty.
func (s *Set) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Add marks id as expanded.
func (s *Set) Add(id string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
}

// Remove clears id.
func (s *Set) Remove(id string) {
	delete(s.ids, id)
}

// Toggle flips membership of id and reports whether it is now expanded.
func (s *Set) Toggle(id string) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

// Len returns the number of ids in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns the ids in sorted order.
func (s *Set) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	c := &Set{}
	if s == nil {
		return c
	}
	for id := range s.ids {
		c.Add(id)
	}
	return c
}

// Equal reports whether s and o contain the same ids.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for _, id := range s.IDs() {
		if !o.Has(id) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted array of ids.
func (s *Set) MarshalJSON() ([]byte, error) {
	ids := s.IDs()
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

// UnmarshalJSON decodes an array of ids.
func (s *Set) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	s.ids = nil
	for _, id := range ids {
		s.Add(id)
	}
	return nil
}
