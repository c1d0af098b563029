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
	"fmt"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/rancher-sandbox/pkgsolve/internal/evr"
	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
)

// MatchKind tells how a query was resolved.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchName
	MatchCapability
	MatchFileList
)

func (k MatchKind) String() string {
	switch k {
	case MatchName:
		return "name"
	case MatchCapability:
		return "capability"
	case MatchFileList:
		return "filelist"
	}
	return "none"
}

// Resolution describes how Selector.Resolve matched a query. Callers are
// expected to surface its Notes to the user.
type Resolution struct {
	Query       string
	Kind        MatchKind
	IgnoredCase bool
}

// Notes returns the diagnostic notes for the resolution, if any.
func (r Resolution) Notes() []string {
	notes := []string{}
	if r.IgnoredCase {
		notes = append(notes, fmt.Sprintf("[ignoring case for '%s']", r.Query))
	}
	switch r.Kind {
	case MatchFileList:
		notes = append(notes, fmt.Sprintf("[using file list match for '%s']", r.Query))
	case MatchCapability:
		notes = append(notes, fmt.Sprintf("[using capability match for '%s']", r.Query))
	}
	return notes
}

// Filters narrow a selection down. Each field is a union of sets, and the
// fields are intersected with each other. Empty fields do not filter.
type Filters struct {
	Repos []CandidateSet
	Archs []CandidateSet
	Kinds []CandidateSet
}

// IsEmpty reports whether f filters nothing out.
func (f Filters) IsEmpty() bool {
	return len(f.Repos) == 0 && len(f.Archs) == 0 && len(f.Kinds) == 0
}

// Apply intersects set with every non-empty filter.
func (f Filters) Apply(set CandidateSet) CandidateSet {
	for _, filter := range [][]CandidateSet{f.Repos, f.Archs, f.Kinds} {
		if len(filter) == 0 {
			continue
		}
		set = set.Intersect(UnionAll(filter...))
	}
	return set
}

// Selector resolves query strings into candidate sets.
type Selector struct {
	catalog *Catalog
}

// NewSelector returns a Selector over catalog.
func NewSelector(catalog *Catalog) *Selector {
	return &Selector{catalog: catalog}
}

type matcher func(query string, fold bool) (CandidateSet, MatchKind)

// Resolve returns the packages matching query once filtered.
//
// The query may be a name, a glob, name.arch, name-[epoch:]version-release
// with an optional .arch, a relation such as "name >= 1.2", a provided
// capability or a file path. When nothing matches, the query is tried again
// ignoring case. Filters apply to the selection: a query whose matches are
// all filtered out resolves to an empty set. An empty result is not an error.
func (s *Selector) Resolve(query string, filters Filters) (CandidateSet, Resolution, error) {
	query = strings.TrimSpace(query)
	res := Resolution{Query: query}
	if query == "" {
		return nil, res, errors.Wrap(ErrInvalidParameter, "empty query")
	}

	var matchers []matcher
	switch {
	case strings.ContainsAny(query, "<>="):
		capability, err := pkg.ParseCapability(query)
		if err != nil {
			return nil, res, errors.Wrap(ErrInvalidParameter, err.Error())
		}
		matchers = []matcher{
			func(_ string, fold bool) (CandidateSet, MatchKind) {
				return s.matchRelation(capability, fold)
			},
		}
	case strings.HasPrefix(query, "/"):
		matchers = []matcher{s.matchName, s.matchGlob, s.matchFile}
	default:
		matchers = []matcher{s.matchName, s.matchGlob, s.matchDotArch, s.matchCanonical, s.matchProvides}
	}

	// select first, filter after: filters never turn a name match into a
	// capability match
	for _, fold := range []bool{false, true} {
		for _, m := range matchers {
			set, kind := m(query, fold)
			if set.IsEmpty() {
				continue
			}
			res.Kind = kind
			res.IgnoredCase = fold
			return filters.Apply(set), res, nil
		}
	}
	return CandidateSet{}, res, nil
}

func (s *Selector) nameSet(name string, fold bool) CandidateSet {
	if fold {
		return NewCandidateSet(s.catalog.byLowerName[strings.ToLower(name)]...)
	}
	return s.catalog.NameSet(name)
}

func (s *Selector) isArch(arch string, fold bool) (string, bool) {
	for a := range s.catalog.byArch {
		if a == arch || (fold && strings.EqualFold(a, arch)) {
			return a, true
		}
	}
	return "", false
}

func (s *Selector) matchName(query string, fold bool) (CandidateSet, MatchKind) {
	return s.nameSet(query, fold), MatchName
}

func (s *Selector) matchGlob(query string, fold bool) (CandidateSet, MatchKind) {
	if !strings.ContainsAny(query, "*?[") {
		return CandidateSet{}, MatchName
	}
	pattern := query
	if fold {
		pattern = strings.ToLower(query)
	}
	out := CandidateSet{}
	for _, name := range s.catalog.names() {
		candidate := name
		if fold {
			candidate = strings.ToLower(name)
		}
		if ok, err := path.Match(pattern, candidate); err == nil && ok {
			out = out.Union(s.catalog.NameSet(name))
		}
	}
	return out, MatchName
}

// splitArch splits "something.arch" when arch is a known architecture.
func (s *Selector) splitArch(query string, fold bool) (string, string, bool) {
	i := strings.LastIndexByte(query, '.')
	if i <= 0 || i == len(query)-1 {
		return "", "", false
	}
	arch, ok := s.isArch(query[i+1:], fold)
	if !ok {
		return "", "", false
	}
	return query[:i], arch, true
}

func (s *Selector) matchDotArch(query string, fold bool) (CandidateSet, MatchKind) {
	name, arch, ok := s.splitArch(query, fold)
	if !ok {
		return CandidateSet{}, MatchName
	}
	names, _ := s.matchName(name, fold)
	if globbed, _ := s.matchGlob(name, fold); !globbed.IsEmpty() {
		names = names.Union(globbed)
	}
	return names.Intersect(s.catalog.ArchSet(arch)), MatchName
}

func (s *Selector) matchCanonical(query string, fold bool) (CandidateSet, MatchKind) {
	nevr := query
	archSet := CandidateSet(nil)
	if rest, arch, ok := s.splitArch(query, fold); ok {
		nevr = rest
		archSet = s.catalog.ArchSet(arch)
	}
	out := CandidateSet{}
	// name-version-release first, then name-version
	i := strings.LastIndexByte(nevr, '-')
	for _, cut := range []int{strings.LastIndexByte(nevr[:max(i, 0)], '-'), i} {
		if cut <= 0 || cut == len(nevr)-1 {
			continue
		}
		want := &pkg.Capability{Name: nevr[:cut], Flags: pkg.EQ, EVR: evr.Parse(nevr[cut+1:])}
		out = s.nameSet(want.Name, fold).Filter(func(id int) bool {
			return want.MatchesEVR(s.catalog.Pkg(id).EVR())
		})
		if !out.IsEmpty() {
			break
		}
	}
	if archSet != nil {
		out = out.Intersect(archSet)
	}
	return out, MatchName
}

func (s *Selector) matchRelation(capability *pkg.Capability, fold bool) (CandidateSet, MatchKind) {
	byName := s.nameSet(capability.Name, fold).Filter(func(id int) bool {
		return capability.MatchesEVR(s.catalog.Pkg(id).EVR())
	})
	if !byName.IsEmpty() {
		return byName, MatchName
	}
	if fold {
		return s.catalog.lookupCapabilityFold(capability), MatchCapability
	}
	return s.catalog.LookupByCapability(capability), MatchCapability
}

func (s *Selector) matchProvides(query string, fold bool) (CandidateSet, MatchKind) {
	capability := &pkg.Capability{Name: query}
	if fold {
		return s.catalog.lookupCapabilityFold(capability), MatchCapability
	}
	return s.catalog.LookupByCapability(capability), MatchCapability
}

func (s *Selector) matchFile(query string, fold bool) (CandidateSet, MatchKind) {
	if fold {
		return s.catalog.lookupFileFold(query), MatchFileList
	}
	return s.catalog.LookupFile(query), MatchFileList
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
