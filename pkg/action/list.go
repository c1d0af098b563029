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

package action

import (
	"sort"

	"github.com/rancher-sandbox/pkgsolve/internal/evr"
	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
)

// List lists packages, installed ones, available ones or both.
type List struct {
	cfg *Configuration

	Installed bool
	Available bool
	Archs     []string
	// ShowSource includes source packages.
	ShowSource bool
}

// NewList constructs a new *List
func NewList(cfg *Configuration) *List {
	return &List{cfg: cfg}
}

// Run returns the packages matching names, or all of them without names,
// sorted by name, then newest first. Names that match nothing are reported
// in the returned query's NotFound.
func (l *List) Run(names []string) ([]*pkg.Pkg, *Query, error) {
	q, err := l.cfg.NewQuery()
	if err != nil {
		return nil, nil, err
	}
	if len(names) > 0 {
		if err := q.ApplyPackageFilter(names); err != nil {
			return nil, nil, err
		}
	}
	switch {
	case l.Installed && !l.Available:
		q.AddSystemRepoFilter()
	case l.Available && !l.Installed:
		q.AddAvailableRepoFilter()
	}
	if len(l.Archs) > 0 {
		q.AddArchFilter(l.Archs...)
	}
	if !l.ShowSource {
		q.AddKindFilter(pkg.KindPackage)
	}
	if err := q.ApplyListQuery(); err != nil {
		return nil, q, err
	}
	for _, n := range q.Notes() {
		l.cfg.Log.Info(n)
	}

	pkgs := q.Pkgs()
	SortPkgs(pkgs)
	return pkgs, q, nil
}

// SortPkgs sorts by name and arch, newest first, installed first.
func SortPkgs(pkgs []*pkg.Pkg) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		a, b := pkgs[i], pkgs[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Arch != b.Arch {
			return a.Arch < b.Arch
		}
		if c := evr.Compare(a.EVR(), b.EVR()); c != 0 {
			return c > 0
		}
		if a.IsInstalled() != b.IsInstalled() {
			return a.IsInstalled()
		}
		return a.Repository < b.Repository
	})
}
