/*
Copyright SUSE LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package solver

import (
	"sort"
)

// CandidateSet is a set of package IDs, kept sorted and without duplicates.
// Sets are values: operations return new sets and never modify their inputs.
type CandidateSet []int

// NewCandidateSet builds a set out of ids, in any order and with duplicates.
func NewCandidateSet(ids ...int) CandidateSet {
	if len(ids) == 0 {
		return CandidateSet{}
	}
	s := make([]int, len(ids))
	copy(s, ids)
	sort.Ints(s)
	out := s[:1]
	for _, id := range s[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return CandidateSet(out)
}

// Len returns the number of ids in the set.
func (s CandidateSet) Len() int { return len(s) }

// IsEmpty reports whether the set holds no id.
func (s CandidateSet) IsEmpty() bool { return len(s) == 0 }

// Contains reports whether id is in the set.
func (s CandidateSet) Contains(id int) bool {
	i := sort.SearchInts(s, id)
	return i < len(s) && s[i] == id
}

// IDs returns a copy of the ids in ascending order.
func (s CandidateSet) IDs() []int {
	out := make([]int, len(s))
	copy(out, s)
	return out
}

// Union returns the ids in s or o.
func (s CandidateSet) Union(o CandidateSet) CandidateSet {
	out := make([]int, 0, len(s)+len(o))
	i, j := 0, 0
	for i < len(s) && j < len(o) {
		switch {
		case s[i] < o[j]:
			out = append(out, s[i])
			i++
		case s[i] > o[j]:
			out = append(out, o[j])
			j++
		default:
			out = append(out, s[i])
			i++
			j++
		}
	}
	out = append(out, s[i:]...)
	out = append(out, o[j:]...)
	return CandidateSet(out)
}

// Intersect returns the ids in both s and o.
func (s CandidateSet) Intersect(o CandidateSet) CandidateSet {
	out := CandidateSet{}
	i, j := 0, 0
	for i < len(s) && j < len(o) {
		switch {
		case s[i] < o[j]:
			i++
		case s[i] > o[j]:
			j++
		default:
			out = append(out, s[i])
			i++
			j++
		}
	}
	return out
}

// Difference returns the ids in s but not in o.
func (s CandidateSet) Difference(o CandidateSet) CandidateSet {
	out := CandidateSet{}
	for _, id := range s {
		if !o.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// Filter returns the ids of s for which keep returns true.
func (s CandidateSet) Filter(keep func(id int) bool) CandidateSet {
	out := CandidateSet{}
	for _, id := range s {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}

// UnionAll returns the union of all sets.
func UnionAll(sets ...CandidateSet) CandidateSet {
	out := CandidateSet{}
	for _, s := range sets {
		out = out.Union(s)
	}
	return out
}
