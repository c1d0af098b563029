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
)

const (
	testIndexFile     = "testdata/base.yaml"
	testJSONIndexFile = "testdata/updates.json"
)

func TestLoadIndexFile(t *testing.T) {
	is := assert.New(t)

	i, err := LoadIndexFile(testIndexFile, "")
	require.NoError(t, err)
	// the entry without a version is skipped
	require.Len(t, i.Packages, 2)

	pkgs := i.Pkgs("base")
	bash := pkgs[0]
	is.Equal("bash-5.1-2.x86_64@base", bash.String())
	is.Equal("openSUSE", bash.Vendor)
	is.Equal(int64(1843200), bash.Size)
	is.Equal([]string{"/usr/bin/bash"}, bash.Files)
	is.Equal(pkg.KindPackage, bash.Kind)
	is.Len(bash.Provides, 2)
	is.Equal("glibc >= 2.31", bash.Requires[0].String())
	is.Equal("glibc-2.33-4.x86_64@base", pkgs[1].String())

	i, err = LoadIndexFile(testJSONIndexFile, "")
	require.NoError(t, err)
	is.Equal("bash-5.2-1.x86_64@updates", i.Pkgs("updates")[0].String())
}

func TestLoadIndexFileChecksum(t *testing.T) {
	is := assert.New(t)

	d, err := Digest(testIndexFile)
	require.NoError(t, err)

	_, err = LoadIndexFile(testIndexFile, d.String())
	is.NoError(err)

	_, err = LoadIndexFile(testIndexFile, "sha256:0000000000000000000000000000000000000000000000000000000000000000")
	is.ErrorIs(err, ErrChecksumMismatch)

	_, err = LoadIndexFile(testIndexFile, "not-a-digest")
	is.Error(err)
}

func TestLoadIndexErrors(t *testing.T) {
	is := assert.New(t)

	_, err := loadIndex([]byte("packages: []\n"), "test")
	is.Equal(ErrNoAPIVersion, err)

	_, err = loadIndex([]byte("apiVersion: v1\nunknown: field\n"), "test")
	is.Error(err)

	_, err = loadIndex([]byte("apiVersion: v1\npackages:\n- name: a\n  version: '1'\n  arch: noarch\n  requires: ['b >']\n"), "test")
	is.NoError(err)
}

func TestIndexFileWrite(t *testing.T) {
	dir, err := ioutil.TempDir("", "pkgsolve-index")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	zsh := pkg.NewPkgMock("zsh", "1:5.8-3", "x86_64", "base", []string{"libc.so.6"}, []string{"oldzsh"}, []string{"zsh-legacy < 5"}, []string{"/bin/zsh"})
	bash := pkg.NewPkgMock("bash", "5.1-2", "x86_64", "base", nil, nil, nil, []string{"sh"})

	i := NewIndexFile()
	i.Add(zsh, bash)
	i.SortEntries()
	is := assert.New(t)
	is.Equal("bash", i.Packages[0].Name)
	is.Equal([]string{"sh"}, i.Packages[0].Provides)

	path := filepath.Join(dir, "repo", "index.yaml")
	require.NoError(t, i.WriteFile(path, 0644))

	back, err := LoadIndexFile(path, "")
	require.NoError(t, err)
	pkgs := back.Pkgs("base")
	require.Len(t, pkgs, 2)
	is.Equal(bash.GetFingerPrint(), pkgs[0].GetFingerPrint())
	is.Equal(zsh.GetFingerPrint(), pkgs[1].GetFingerPrint())
	is.Equal(zsh.Provides, pkgs[1].Provides)
	is.Equal(zsh.Obsoletes, pkgs[1].Obsoletes)
}
