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
	"strings"
	"sync"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
)

// MaxUnits is the largest number of packages a Catalog accepts.
const MaxUnits = 1 << 22

// Repository is a named collection of packages. The repository named
// pkg.SystemRepo holds the installed packages.
type Repository struct {
	Name     string
	Priority int
	Pkgs     []*pkg.Pkg
}

// IsSystem reports whether r holds the installed packages.
func (r *Repository) IsSystem() bool {
	return r.Name == pkg.SystemRepo
}

type provider struct {
	id  int
	cap *pkg.Capability
}

// Catalog is an indexed store of packages from all repositories.
//
// Packages are given IDs starting at 1 in load order. The provides and file
// indexes are built on the first capability lookup; from then on the catalog
// is frozen and safe for concurrent readers.
type Catalog struct {
	logger log.Logger

	pkgs  []*pkg.Pkg
	repos []*Repository

	byFingerprint map[string]int
	byName        map[string][]int
	byLowerName   map[string][]int
	bySlot        map[string][]int
	byRepo        map[string][]int
	byArch        map[string][]int
	byKind        map[string][]int

	indexOnce     sync.Once
	frozen        bool
	provides      map[string][]provider
	lowerProvides map[string][]string
	files         map[string][]int
	lowerFiles    map[string][]string
}

// NewCatalog returns an empty catalog.
func NewCatalog(logger log.Logger) *Catalog {
	if logger == nil {
		logger = log.Current
	}
	return &Catalog{
		logger:        logger,
		byFingerprint: make(map[string]int),
		byName:        make(map[string][]int),
		byLowerName:   make(map[string][]int),
		bySlot:        make(map[string][]int),
		byRepo:        make(map[string][]int),
		byArch:        make(map[string][]int),
		byKind:        make(map[string][]int),
	}
}

// Load adds all packages of repo to the catalog, assigning their IDs.
func (c *Catalog) Load(repo *Repository) error {
	if repo == nil || repo.Name == "" {
		return errors.Wrap(ErrInvalidParameter, "repository without a name")
	}
	if c.frozen {
		return errors.Wrapf(ErrInvalidParameter, "cannot load repository %q: catalog already indexed", repo.Name)
	}
	if c.Repo(repo.Name) != nil {
		return errors.Wrapf(ErrInvalidParameter, "repository %q already loaded", repo.Name)
	}
	if len(c.pkgs)+len(repo.Pkgs) > MaxUnits {
		return errors.Wrapf(ErrOutOfMemory, "repository %q would grow the catalog past %d packages", repo.Name, MaxUnits)
	}
	seen := make(map[string]bool, len(repo.Pkgs))
	for _, p := range repo.Pkgs {
		if p == nil || p.Name == "" {
			return errors.Wrapf(ErrInvalidParameter, "repository %q contains a package without a name", repo.Name)
		}
		fp := pkg.CreateFingerPrint(p.Name, p.EVR().String(), p.Arch, repo.Name)
		if seen[fp] {
			return errors.Wrapf(ErrInvalidParameter, "duplicate package %s", fp)
		}
		seen[fp] = true
	}

	c.repos = append(c.repos, repo)
	for _, p := range repo.Pkgs {
		p.Repository = repo.Name
		c.pkgs = append(c.pkgs, p)
		p.ID = len(c.pkgs)
		c.byFingerprint[p.GetFingerPrint()] = p.ID
		c.byName[p.Name] = append(c.byName[p.Name], p.ID)
		lower := strings.ToLower(p.Name)
		c.byLowerName[lower] = append(c.byLowerName[lower], p.ID)
		c.bySlot[p.GetBaseFingerPrint()] = append(c.bySlot[p.GetBaseFingerPrint()], p.ID)
		c.byRepo[repo.Name] = append(c.byRepo[repo.Name], p.ID)
		c.byArch[p.Arch] = append(c.byArch[p.Arch], p.ID)
		c.byKind[p.Kind] = append(c.byKind[p.Kind], p.ID)
	}
	c.logger.Debugf("loaded repository %s with %d packages", repo.Name, len(repo.Pkgs))
	return nil
}

// Size returns the number of packages in the catalog.
func (c *Catalog) Size() int { return len(c.pkgs) }

// Pkg returns the package with the given id, or nil.
func (c *Catalog) Pkg(id int) *pkg.Pkg {
	if id < 1 || id > len(c.pkgs) {
		return nil
	}
	return c.pkgs[id-1]
}

// GetPackageByFingerprint returns the package with the given fingerprint, or
// nil.
func (c *Catalog) GetPackageByFingerprint(fp string) *pkg.Pkg {
	return c.Pkg(c.byFingerprint[fp])
}

// Repos returns the loaded repositories in load order.
func (c *Catalog) Repos() []*Repository {
	out := make([]*Repository, len(c.repos))
	copy(out, c.repos)
	return out
}

// Repo returns the repository named name, or nil.
func (c *Catalog) Repo(name string) *Repository {
	for _, r := range c.repos {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// All returns every package in the catalog.
func (c *Catalog) All() CandidateSet {
	ids := make([]int, len(c.pkgs))
	for i := range ids {
		ids[i] = i + 1
	}
	return CandidateSet(ids)
}

// InstalledSet returns the packages of the system repository.
func (c *Catalog) InstalledSet() CandidateSet {
	return c.RepoSet(pkg.SystemRepo)
}

// RepoSet returns the packages of repository name.
func (c *Catalog) RepoSet(name string) CandidateSet {
	return NewCandidateSet(c.byRepo[name]...)
}

// ArchSet returns the packages built for arch.
func (c *Catalog) ArchSet(arch string) CandidateSet {
	return NewCandidateSet(c.byArch[arch]...)
}

// KindSet returns the packages of the given kind.
func (c *Catalog) KindSet(kind string) CandidateSet {
	return NewCandidateSet(c.byKind[kind]...)
}

// Slot returns the packages sharing name and arch with package id, the
// package itself included.
func (c *Catalog) Slot(id int) CandidateSet {
	p := c.Pkg(id)
	if p == nil {
		return CandidateSet{}
	}
	return NewCandidateSet(c.bySlot[p.GetBaseFingerPrint()]...)
}

// NameSet returns the packages called exactly name.
func (c *Catalog) NameSet(name string) CandidateSet {
	return NewCandidateSet(c.byName[name]...)
}

// LookupByName returns the packages called name. When there is no exact
// match, the name is looked up again ignoring case and ignoredCase is true.
// It fails with ErrNotFound when both passes match nothing.
func (c *Catalog) LookupByName(name string) (set CandidateSet, ignoredCase bool, err error) {
	if name == "" {
		return nil, false, errors.Wrap(ErrInvalidParameter, "empty package name")
	}
	if ids, ok := c.byName[name]; ok {
		return NewCandidateSet(ids...), false, nil
	}
	if ids, ok := c.byLowerName[strings.ToLower(name)]; ok {
		c.logger.Debugf("[ignoring case for '%s']", name)
		return NewCandidateSet(ids...), true, nil
	}
	return nil, false, errors.Wrapf(ErrNotFound, "package %q", name)
}

// LookupByCapability returns the packages providing something that overlaps
// with capability. Unversioned file paths also match package file lists.
func (c *Catalog) LookupByCapability(capability *pkg.Capability) CandidateSet {
	if capability == nil {
		return CandidateSet{}
	}
	c.buildIndex()
	ids := []int{}
	for _, prv := range c.provides[capability.Name] {
		if prv.cap.Overlaps(capability) {
			ids = append(ids, prv.id)
		}
	}
	if capability.IsFile() && capability.Flags == pkg.Any {
		ids = append(ids, c.files[capability.Name]...)
	}
	return NewCandidateSet(ids...)
}

// lookupCapabilityFold is LookupByCapability ignoring the case of the
// capability name.
func (c *Catalog) lookupCapabilityFold(capability *pkg.Capability) CandidateSet {
	c.buildIndex()
	out := CandidateSet{}
	for _, name := range c.lowerProvides[strings.ToLower(capability.Name)] {
		folded := *capability
		folded.Name = name
		out = out.Union(c.LookupByCapability(&folded))
	}
	return out
}

// lookupFileFold is LookupFile ignoring the case of path.
func (c *Catalog) lookupFileFold(path string) CandidateSet {
	c.buildIndex()
	out := c.lookupCapabilityFold(&pkg.Capability{Name: path})
	for _, f := range c.lowerFiles[strings.ToLower(path)] {
		out = out.Union(NewCandidateSet(c.files[f]...))
	}
	return out
}

// LookupFile returns the packages shipping path, either in their file list or
// as an explicit provide.
func (c *Catalog) LookupFile(path string) CandidateSet {
	return c.LookupByCapability(&pkg.Capability{Name: path})
}

// LookupObsoleted returns the packages whose name and version match an
// obsoletes relation.
func (c *Catalog) LookupObsoleted(capability *pkg.Capability) CandidateSet {
	return NewCandidateSet(c.byName[capability.Name]...).Filter(func(id int) bool {
		return capability.MatchesEVR(c.Pkg(id).EVR())
	})
}

// names returns all package names, sorted.
func (c *Catalog) names() []string {
	out := make([]string, 0, len(c.byName))
	for n := range c.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) buildIndex() {
	c.indexOnce.Do(func() {
		c.frozen = true
		c.provides = make(map[string][]provider)
		c.lowerProvides = make(map[string][]string)
		c.files = make(map[string][]int)
		c.lowerFiles = make(map[string][]string)
		for _, p := range c.pkgs {
			for _, prv := range p.Provides {
				if _, ok := c.provides[prv.Name]; !ok {
					lower := strings.ToLower(prv.Name)
					c.lowerProvides[lower] = append(c.lowerProvides[lower], prv.Name)
				}
				c.provides[prv.Name] = append(c.provides[prv.Name], provider{id: p.ID, cap: prv})
			}
			for _, f := range p.Files {
				if _, ok := c.files[f]; !ok {
					lower := strings.ToLower(f)
					c.lowerFiles[lower] = append(c.lowerFiles[lower], f)
				}
				c.files[f] = append(c.files[f], p.ID)
			}
		}
		c.logger.Debugf("indexed %d capabilities and %d files", len(c.provides), len(c.files))
	})
}

// DebugPrintDB prints all packages of the catalog at debug level.
func (c *Catalog) DebugPrintDB(logger log.Logger) {
	logger.Debug("Printing catalog")
	for _, p := range c.pkgs {
		logger.Debugf("%d: %s", p.ID, p)
		for _, r := range p.Requires {
			logger.Debugf("    requires %s", r)
		}
		for _, r := range p.Conflicts {
			logger.Debugf("    conflicts %s", r)
		}
		for _, r := range p.Obsoletes {
			logger.Debugf("    obsoletes %s", r)
		}
	}
}
