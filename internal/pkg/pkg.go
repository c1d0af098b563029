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

package pkg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rancher-sandbox/pkgsolve/internal/evr"
)

const (
	// KindPackage is the kind of plain binary packages.
	KindPackage = "package"
	// KindSource is the kind of source packages (arch "src").
	KindSource = "source"
	// KindPatch is the kind of update advisories.
	KindPatch = "patch"

	// ArchNoarch marks architecture independent units.
	ArchNoarch = "noarch"
	// ArchSource marks source units.
	ArchSource = "src"

	// SystemRepo is the name of the repository holding the installed units.
	SystemRepo = "@System"
)

// Pkg is the minimum object the solver reasons about: one concrete build of a
// package, coming from one repository.
// Note that each package is unique. The same name in a different version,
// arch or repository is a different package. E.g:
// bash-5.1-1.x86_64@base and bash-5.1-2.x86_64@updates are different packages.
type Pkg struct {
	ID          int           `json:"-" yaml:"-"` // position in the catalog, starting at 1
	Name        string        `json:"name"`
	Epoch       string        `json:"epoch,omitempty" yaml:"epoch,omitempty"`
	Version     string        `json:"version"`
	Release     string        `json:"release,omitempty" yaml:"release,omitempty"`
	Arch        string        `json:"arch"`
	Repository  string        `json:"repository"`
	Vendor      string        `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Kind        string        `json:"kind"`
	Summary     string        `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string        `json:"-" yaml:"-"`
	Size        int64         `json:"size,omitempty" yaml:"size,omitempty"`
	Files       []string      `json:"-" yaml:"-"`
	Provides    []*Capability `json:"provides,omitempty" yaml:"provides,omitempty"`
	Requires    []*Capability `json:"requires,omitempty" yaml:"requires,omitempty"`
	Conflicts   []*Capability `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Obsoletes   []*Capability `json:"obsoletes,omitempty" yaml:"obsoletes,omitempty"`
}

// NewPkg creates a package of kind "package", with the self provide
// "name = evr" already in place.
func NewPkg(name, evrString, arch, repo string) *Pkg {
	e := evr.Parse(evrString)
	p := &Pkg{
		ID:         -1,
		Name:       name,
		Epoch:      e.EpochString(),
		Version:    e.Version(),
		Release:    e.Release(),
		Arch:       arch,
		Repository: repo,
		Kind:       KindPackage,
	}
	if arch == ArchSource {
		p.Kind = KindSource
	}
	p.Provides = []*Capability{{Name: name, Flags: EQ, EVR: e}}
	return p
}

// NewPkgMock creates a new package with the given relations, parsed from their
// text form. It panics on malformed relations.
// Useful for testing.
func NewPkgMock(name, evrString, arch, repo string, requires, conflicts, obsoletes, provides []string) *Pkg {
	p := NewPkg(name, evrString, arch, repo)
	p.Requires = MustParseCapabilities(requires...)
	p.Conflicts = MustParseCapabilities(conflicts...)
	p.Obsoletes = MustParseCapabilities(obsoletes...)
	p.Provides = append(p.Provides, MustParseCapabilities(provides...)...)
	return p
}

// EVR returns the epoch, version and release of the package.
func (p *Pkg) EVR() evr.EVR {
	return evr.New(p.Epoch, p.Version, p.Release)
}

// IsInstalled reports whether the package comes from the system repository.
func (p *Pkg) IsInstalled() bool {
	return p.Repository == SystemRepo
}

// NEVRA returns name-[epoch:]version-release.arch.
func (p *Pkg) NEVRA() string {
	return fmt.Sprintf("%s-%s.%s", p.Name, p.EVR(), p.Arch)
}

// JSON serializes package p into JSON, returning a []byte
func (p *Pkg) JSON() ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(p)
	return buffer.Bytes(), err
}

// GetFingerPrint returns a unique id of the package.
func (p *Pkg) GetFingerPrint() string {
	return CreateFingerPrint(p.Name, p.EVR().String(), p.Arch, p.Repository)
}

// CreateFingerPrint returns a fingerprint (name-evr.arch@repo). The leading
// "@" of the installed repository is not doubled: bash-5.1-1.x86_64@System.
func CreateFingerPrint(name, evrString, arch, repo string) string {
	return fmt.Sprintf("%s-%s.%s@%s", name, evrString, arch, strings.TrimPrefix(repo, "@"))
}

// GetBaseFingerPrint returns the slot of the package: its id minus version
// and repository. At most one package per slot can be installed.
func (p *Pkg) GetBaseFingerPrint() string {
	return CreateBaseFingerPrint(p.Name, p.Arch)
}

// CreateBaseFingerPrint returns a base fingerprint (name.arch)
func CreateBaseFingerPrint(name, arch string) string {
	return fmt.Sprintf("%s.%s", name, arch)
}

// String is used in logs.
func (p *Pkg) String() string {
	return p.GetFingerPrint()
}
