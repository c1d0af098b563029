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

package repo

import (
	// registers the sha256 digest algorithm
	_ "crypto/sha256"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/log-go"
	digest "github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/rancher-sandbox/pkgsolve/internal/evr"
	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
)

// APIVersionV1 is the v1 API version for index and repository files.
const APIVersionV1 = "v1"

var (
	// ErrNoAPIVersion indicates that an API version was not specified.
	ErrNoAPIVersion = errors.New("no API version specified")
	// ErrChecksumMismatch indicates that a metadata file does not match the
	// checksum of its repository entry.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// PackageEntry is one package of a repository index. Relations are kept in
// their text form, such as "glibc >= 2.31".
type PackageEntry struct {
	Name        string   `json:"name"`
	Epoch       string   `json:"epoch,omitempty"`
	Version     string   `json:"version"`
	Release     string   `json:"release,omitempty"`
	Arch        string   `json:"arch"`
	Vendor      string   `json:"vendor,omitempty"`
	Kind        string   `json:"kind,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Description string   `json:"description,omitempty"`
	Size        int64    `json:"size,omitempty"`
	Files       []string `json:"files,omitempty"`
	Provides    []string `json:"provides,omitempty"`
	Requires    []string `json:"requires,omitempty"`
	Conflicts   []string `json:"conflicts,omitempty"`
	Obsoletes   []string `json:"obsoletes,omitempty"`
}

// EVR returns the entry's epoch:version-release.
func (e *PackageEntry) EVR() evr.EVR {
	return evr.New(e.Epoch, e.Version, e.Release)
}

// Validate checks that the entry can be turned into a package.
func (e *PackageEntry) Validate() error {
	switch {
	case e.Name == "":
		return errors.New("missing name")
	case e.Version == "":
		return errors.New("missing version")
	case e.Arch == "":
		return errors.New("missing arch")
	}
	for _, rels := range [][]string{e.Provides, e.Requires, e.Conflicts, e.Obsoletes} {
		if _, err := pkg.ParseCapabilities(rels...); err != nil {
			return err
		}
	}
	return nil
}

// Pkg turns the entry into a package of repository repo.
func (e *PackageEntry) Pkg(repo string) *pkg.Pkg {
	p := pkg.NewPkgMock(e.Name, e.EVR().String(), e.Arch, repo, e.Requires, e.Conflicts, e.Obsoletes, e.Provides)
	if e.Kind != "" {
		p.Kind = e.Kind
	}
	p.Vendor = e.Vendor
	p.Summary = e.Summary
	p.Description = e.Description
	p.Size = e.Size
	p.Files = e.Files
	return p
}

// NewPackageEntry is the reverse of PackageEntry.Pkg.
func NewPackageEntry(p *pkg.Pkg) *PackageEntry {
	e := &PackageEntry{
		Name:        p.Name,
		Epoch:       p.Epoch,
		Version:     p.Version,
		Release:     p.Release,
		Arch:        p.Arch,
		Vendor:      p.Vendor,
		Kind:        p.Kind,
		Summary:     p.Summary,
		Description: p.Description,
		Size:        p.Size,
		Files:       p.Files,
	}
	for _, prv := range p.Provides {
		// the self provide is added back on load
		if prv.Name == p.Name && prv.Flags == pkg.EQ && evr.Compare(prv.EVR, p.EVR()) == 0 {
			continue
		}
		e.Provides = append(e.Provides, prv.String())
	}
	for _, r := range p.Requires {
		e.Requires = append(e.Requires, r.String())
	}
	for _, r := range p.Conflicts {
		e.Conflicts = append(e.Conflicts, r.String())
	}
	for _, r := range p.Obsoletes {
		e.Obsoletes = append(e.Obsoletes, r.String())
	}
	return e
}

// IndexFile represents the metadata file of a repository: the packages it
// carries.
type IndexFile struct {
	APIVersion string          `json:"apiVersion"`
	Packages   []*PackageEntry `json:"packages"`
}

// NewIndexFile initializes an index
func NewIndexFile() *IndexFile {
	return &IndexFile{
		APIVersion: APIVersionV1,
		Packages:   []*PackageEntry{},
	}
}

// Add adds the given packages to the index.
func (i *IndexFile) Add(pkgs ...*pkg.Pkg) {
	for _, p := range pkgs {
		i.Packages = append(i.Packages, NewPackageEntry(p))
	}
}

// SortEntries sorts the entries by name, arch and version.
func (i *IndexFile) SortEntries() {
	sort.SliceStable(i.Packages, func(a, b int) bool {
		pa, pb := i.Packages[a], i.Packages[b]
		if pa.Name != pb.Name {
			return pa.Name < pb.Name
		}
		if pa.Arch != pb.Arch {
			return pa.Arch < pb.Arch
		}
		return evr.Compare(pa.EVR(), pb.EVR()) < 0
	})
}

// Pkgs returns the packages of the index, for repository repo.
func (i *IndexFile) Pkgs(repo string) []*pkg.Pkg {
	out := make([]*pkg.Pkg, 0, len(i.Packages))
	for _, e := range i.Packages {
		out = append(out, e.Pkg(repo))
	}
	return out
}

// WriteFile writes an index file to the given destination path.
//
// The mode on the file is set to 'mode'.
func (i *IndexFile) WriteFile(dest string, mode os.FileMode) error {
	b, err := yaml.Marshal(i)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), os.ModePerm); err != nil {
		return err
	}
	return ioutil.WriteFile(dest, b, mode)
}

// Digest returns the sha256 digest of the file at path, in the form used by
// repository entries.
func Digest(path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return digest.FromReader(f)
}

// LoadIndexFile takes a file at the given path and returns an IndexFile object.
// A non empty checksum is verified against the content of the file.
func LoadIndexFile(path, checksum string) (*IndexFile, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if checksum != "" {
		if err := verify(b, checksum); err != nil {
			return nil, errors.Wrapf(err, "error verifying %s", path)
		}
	}
	i, err := loadIndex(b, path)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading %s", path)
	}
	return i, nil
}

func verify(data []byte, checksum string) error {
	d, err := digest.Parse(checksum)
	if err != nil {
		return errors.Wrapf(err, "invalid checksum %q", checksum)
	}
	verifier := d.Verifier()
	if _, err := verifier.Write(data); err != nil {
		return err
	}
	if !verifier.Verified() {
		return errors.Wrapf(ErrChecksumMismatch, "expected %s", d)
	}
	return nil
}

// loadIndex loads an index file and does minimal validity checking. Both
// YAML and JSON are accepted.
//
// The source parameter is only used for logging.
// This will fail if API Version is not set (ErrNoAPIVersion) or if the unmarshal fails.
func loadIndex(data []byte, source string) (*IndexFile, error) {
	i := &IndexFile{}
	if err := yaml.UnmarshalStrict(data, i); err != nil {
		return i, err
	}

	for idx := len(i.Packages) - 1; idx >= 0; idx-- {
		if err := i.Packages[idx].Validate(); err != nil {
			log.Warnf("skipping loading invalid entry %q from %s: %s", i.Packages[idx].Name, source, err)
			i.Packages = append(i.Packages[:idx], i.Packages[idx+1:]...)
		}
	}
	i.SortEntries()
	if i.APIVersion == "" {
		return i, ErrNoAPIVersion
	}
	return i, nil
}
