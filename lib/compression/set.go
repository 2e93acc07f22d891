// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Set is a bitset of compression algorithms, one bit per [Tag]. None
// is never a member: a batch with no compressed objects has an empty
// set. The zero value is the empty set.
type Set uint8

// Add returns the set with tag included. Adding None is a no-op.
func (s Set) Add(tag Tag) Set {
	if tag == None || tag > maxTag {
		return s
	}
	return s | 1<<tag
}

// Has reports whether tag is in the set.
func (s Set) Has(tag Tag) bool {
	if tag == None || tag > maxTag {
		return false
	}
	return s&(1<<tag) != 0
}

// Union returns the set of algorithms in either s or other.
func (s Set) Union(other Set) Set {
	return s | other
}

// Len returns the number of algorithms in the set.
func (s Set) Len() int {
	return len(s.Tags())
}

// Tags returns the members in ascending tag order.
func (s Set) Tags() []Tag {
	var tags []Tag
	for tag := None + 1; tag <= maxTag; tag++ {
		if s.Has(tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// String returns the member names joined by commas, or "none" for an
// empty set.
func (s Set) String() string {
	tags := s.Tags()
	if len(tags) == 0 {
		return "none"
	}
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.String()
	}
	return strings.Join(names, ",")
}

// MarshalJSON encodes the set as an array of algorithm names in tag
// order. The empty set encodes as [].
func (s Set) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, maxTag)
	for _, tag := range s.Tags() {
		names = append(names, tag.String())
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes an array of algorithm names. "none" entries
// are accepted and ignored.
func (s *Set) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("compression set: %w", err)
	}
	var result Set
	for _, name := range names {
		tag, err := ParseTag(name)
		if err != nil {
			return fmt.Errorf("compression set: %w", err)
		}
		result = result.Add(tag)
	}
	*s = result
	return nil
}
