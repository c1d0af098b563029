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
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
	"github.com/rancher-sandbox/pkgsolve/internal/solver"
)

// DefaultSystemPath is where the installed state lives, under the install
// root.
const DefaultSystemPath = "var/lib/pkgsolve/system.yaml"

// System is the installed state of an install root. It is stored as an
// index file, and read and written under a file lock.
type System struct {
	Root string
	Path string
}

// NewSystem returns the installed state of root, at its default path.
func NewSystem(root string) *System {
	return &System{Root: root, Path: DefaultSystemPath}
}

// ResolvePath returns the path of name under the install root. The result
// never escapes the root, whatever symlinks or ".." name contains.
func ResolvePath(root, name string) (string, error) {
	if root == "" {
		root = "/"
	}
	p, err := securejoin.SecureJoin(root, name)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s under %s", name, root)
	}
	return p, nil
}

func (s *System) file() (string, error) {
	return ResolvePath(s.Root, s.Path)
}

func (s *System) lock() (*flock.Flock, error) {
	f, err := s.file()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(f), os.ModePerm); err != nil {
		return nil, err
	}
	l := flock.New(f + ".lock")
	if err := l.Lock(); err != nil {
		return nil, errors.Wrapf(err, "locking %s", f)
	}
	return l, nil
}

// Load returns the installed packages. A missing state means nothing is
// installed.
func (s *System) Load() ([]*pkg.Pkg, error) {
	f, err := s.file()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(f); os.IsNotExist(err) {
		return []*pkg.Pkg{}, nil
	}
	l, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer l.Unlock()
	return s.load(f)
}

func (s *System) load(f string) ([]*pkg.Pkg, error) {
	if _, err := os.Stat(f); os.IsNotExist(err) {
		return []*pkg.Pkg{}, nil
	}
	i, err := LoadIndexFile(f, "")
	if err != nil {
		return nil, err
	}
	return i.Pkgs(pkg.SystemRepo), nil
}

// Save replaces the installed state with pkgs.
func (s *System) Save(pkgs []*pkg.Pkg) error {
	l, err := s.lock()
	if err != nil {
		return err
	}
	defer l.Unlock()
	f, err := s.file()
	if err != nil {
		return err
	}
	return s.save(f, pkgs)
}

func (s *System) save(f string, pkgs []*pkg.Pkg) error {
	i := NewIndexFile()
	i.Add(pkgs...)
	i.SortEntries()
	return i.WriteFile(f, 0644)
}

// Record writes the outcome of tr to the installed state: installed packages
// are added, erased and replaced ones removed.
func (s *System) Record(tr *solver.Transaction) error {
	if tr == nil {
		return errors.Wrap(solver.ErrInvalidParameter, "nil transaction")
	}
	l, err := s.lock()
	if err != nil {
		return err
	}
	defer l.Unlock()
	f, err := s.file()
	if err != nil {
		return err
	}
	installed, err := s.load(f)
	if err != nil {
		return err
	}

	gone := map[string]bool{}
	added := []*pkg.Pkg{}
	for _, step := range tr.Steps {
		switch step.Kind {
		case solver.StepErase:
			gone[step.Pkg.NEVRA()] = true
		default:
			added = append(added, step.Pkg)
			gone[step.Pkg.NEVRA()] = true
			for _, r := range step.Replaces {
				gone[r.NEVRA()] = true
			}
		}
	}

	out := []*pkg.Pkg{}
	for _, p := range installed {
		if !gone[p.NEVRA()] {
			out = append(out, p)
		}
	}
	out = append(out, added...)
	return s.save(f, out)
}
