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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
	"github.com/rancher-sandbox/pkgsolve/internal/solver"
)

func tempRoot(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "pkgsolve-root")
	require.NoError(t, err)
	return dir, func() { os.RemoveAll(dir) }
}

func TestResolvePath(t *testing.T) {
	is := assert.New(t)

	for _, tcase := range []struct {
		root, name, want string
	}{
		{root: "/srv/root", name: "var/lib/state.yaml", want: "/srv/root/var/lib/state.yaml"},
		{root: "/srv/root", name: "/var/lib/state.yaml", want: "/srv/root/var/lib/state.yaml"},
		{root: "/srv/root", name: "../../etc/passwd", want: "/srv/root/etc/passwd"},
		{root: "", name: "etc/repositories.yaml", want: "/etc/repositories.yaml"},
	} {
		got, err := ResolvePath(tcase.root, tcase.name)
		is.NoError(err)
		is.Equal(tcase.want, got)
	}
}

func TestSystem(t *testing.T) {
	is := assert.New(t)
	root, cleanup := tempRoot(t)
	defer cleanup()

	s := NewSystem(root)
	installed, err := s.Load()
	require.NoError(t, err)
	is.Empty(installed)

	require.NoError(t, s.Save([]*pkg.Pkg{
		pkg.NewPkg("bash", "5.0-1", "x86_64", pkg.SystemRepo),
		pkg.NewPkg("oldtool", "1.0-1", "noarch", pkg.SystemRepo),
	}))
	_, err = os.Stat(filepath.Join(root, DefaultSystemPath))
	is.NoError(err)

	tr := &solver.Transaction{Steps: []solver.Step{
		{
			Kind:     solver.StepUpgradeTo,
			Pkg:      pkg.NewPkg("bash", "5.1-2", "x86_64", "base"),
			Replaces: []*pkg.Pkg{pkg.NewPkg("bash", "5.0-1", "x86_64", pkg.SystemRepo)},
		},
		{Kind: solver.StepInstall, Pkg: pkg.NewPkg("zsh", "5.8-1", "x86_64", "base")},
		{Kind: solver.StepErase, Pkg: pkg.NewPkg("oldtool", "1.0-1", "noarch", pkg.SystemRepo)},
	}}
	require.NoError(t, s.Record(tr))

	installed, err = s.Load()
	require.NoError(t, err)
	got := []string{}
	for _, p := range installed {
		got = append(got, p.String())
	}
	is.Equal([]string{"bash-5.1-2.x86_64@System", "zsh-5.8-1.x86_64@System"}, got)

	is.ErrorIs(s.Record(nil), solver.ErrInvalidParameter)
}
