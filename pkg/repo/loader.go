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
	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
	"github.com/rancher-sandbox/pkgsolve/internal/solver"
)

// Loader fills a catalog with the installed state of an install root and the
// repositories of a repositories file.
type Loader struct {
	// Root is the install root. Repository paths and the installed state are
	// resolved under it.
	Root string
	// RepoFile is the path to the repositories file.
	RepoFile string
	// SystemPath overrides DefaultSystemPath when set.
	SystemPath string
	// EnableRepos and DisableRepos override the enabled field of the
	// repositories file.
	EnableRepos  []string
	DisableRepos []string
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}

// System returns the installed state the loader reads.
func (l *Loader) System() *System {
	s := NewSystem(l.Root)
	if l.SystemPath != "" {
		s.Path = l.SystemPath
	}
	return s
}

// Load loads the installed packages, then every enabled repository by
// priority, into c. A repository that cannot be read is skipped with a
// warning.
func (l *Loader) Load(c *solver.Catalog, logger log.Logger) error {
	installed, err := l.System().Load()
	if err != nil {
		return errors.Wrap(err, "loading installed packages")
	}
	if err := c.Load(&solver.Repository{Name: pkg.SystemRepo, Pkgs: installed}); err != nil {
		return err
	}

	rf, err := LoadFile(l.RepoFile)
	if err != nil {
		return err
	}
	for _, e := range rf.Sorted() {
		if !l.enabled(e) {
			logger.Debugf("repository %s is disabled", e.Name)
			continue
		}
		path, err := ResolvePath(l.Root, e.Path)
		if err != nil {
			return err
		}
		i, err := LoadIndexFile(path, e.Checksum)
		if err != nil {
			logger.Warnf("Repo %q is corrupt or missing: %s", e.Name, err)
			continue
		}
		if err := c.Load(&solver.Repository{Name: e.Name, Priority: e.Priority, Pkgs: i.Pkgs(e.Name)}); err != nil {
			return err
		}
	}
	for _, name := range l.EnableRepos {
		if !rf.Has(name) {
			return errors.Wrapf(solver.ErrNotFound, "repository %q", name)
		}
	}
	return nil
}

func (l *Loader) enabled(e *Entry) bool {
	switch {
	case contains(l.DisableRepos, e.Name), contains(l.DisableRepos, "*"):
		return contains(l.EnableRepos, e.Name)
	case contains(l.EnableRepos, e.Name):
		return true
	}
	return e.IsEnabled()
}
