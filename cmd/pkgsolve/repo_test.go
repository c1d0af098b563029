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

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/pkgsolve/pkg/repo"
)

func TestRepoCmds(t *testing.T) {
	root, flags := testRoot(t)

	runTestCmd(t, []cmdTestCase{
		{
			name:     "list repositories",
			cmd:      "repo list -o json " + flags,
			contains: []string{`[{"name":"base","path":"srv/base.yaml","priority":50,"enabled":true}]`},
		},
		{
			name:     "add a repository",
			cmd:      "repo add updates srv/base.yaml --priority 10 --pin " + flags,
			contains: []string{`"updates" has been added to your repositories`},
		},
		{
			name:      "add a repository twice",
			cmd:       "repo add updates srv/base.yaml " + flags,
			wantError: true,
		},
		{
			name:      "pin a missing metadata file",
			cmd:       "repo add missing srv/missing.yaml --pin " + flags,
			wantError: true,
		},
		{
			name:     "list by priority",
			cmd:      "repo list -o json " + flags,
			contains: []string{`[{"name":"updates","path":"srv/base.yaml","priority":10,"enabled":true},{"name":"base"`},
		},
		{
			name:     "remove a repository",
			cmd:      "repo remove updates " + flags,
			contains: []string{`"updates" has been removed from your repositories`},
		},
		{
			name:      "remove an unknown repository",
			cmd:       "repo rm updates " + flags,
			wantError: true,
		},
	})

	f, err := repo.LoadFile(filepath.Join(root, "repositories.yaml"))
	require.NoError(t, err)
	assert.False(t, f.Has("updates"))
	assert.True(t, f.Has("base"))
}

func TestRepoAddPins(t *testing.T) {
	is := assert.New(t)
	root, flags := testRoot(t)

	runTestCmd(t, []cmdTestCase{
		{
			name: "add a pinned repository",
			cmd:  "repo add pinned srv/base.yaml --pin --disabled " + flags,
		},
	})

	f, err := repo.LoadFile(filepath.Join(root, "repositories.yaml"))
	require.NoError(t, err)
	e := f.Get("pinned")
	require.NotNil(t, e)
	is.False(e.IsEnabled())

	d, err := repo.Digest(filepath.Join(root, "srv", "base.yaml"))
	require.NoError(t, err)
	is.Equal(d.String(), e.Checksum)
}

func TestRepoListEmpty(t *testing.T) {
	dir, err := ioutil.TempDir("", "pkgsolve-repo")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	runTestCmd(t, []cmdTestCase{
		{
			name:      "no repositories file",
			cmd:       "repo list --config " + filepath.Join(dir, "repositories.yaml"),
			wantError: true,
		},
		{
			name:     "adding creates the file",
			cmd:      "repo add base srv/base.yaml --config " + filepath.Join(dir, "repositories.yaml"),
			contains: []string{`"base" has been added`},
		},
	})
}
