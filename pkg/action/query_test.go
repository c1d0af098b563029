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
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
	"github.com/rancher-sandbox/pkgsolve/internal/solver"
)

func TestNewQuery(t *testing.T) {
	_, err := NewQuery(nil, testLogger())
	assert.Equal(t, solver.ErrInvalidParameter, errors.Cause(err))

	q, err := NewQuery(configFixture(t).Catalog, nil)
	require.NoError(t, err)
	assert.Equal(t, solver.ErrInvalidParameter, errors.Cause(q.ApplySinglePackageFilter("")))
	assert.Equal(t, solver.ErrInvalidParameter, errors.Cause(q.ApplyPackageFilter(nil)))
}

func TestApplyListQuery(t *testing.T) {
	for _, tcase := range []struct {
		name     string
		names    []string
		setup    func(q *Query)
		want     solver.CandidateSet
		notes    []string
		notFound []string
		jobs     []string
	}{
		{
			name: "everything without names nor filters",
			want: solver.NewCandidateSet(1, 2, 3, 4, 5, 6, 7),
		},
		{
			name:  "installed only",
			names: []string{"bash"},
			setup: func(q *Query) { q.AddSystemRepoFilter() },
			want:  solver.NewCandidateSet(1),
			jobs:  []string{"select+setrepo bash"},
		},
		{
			name:  "available only",
			names: []string{"bash"},
			setup: func(q *Query) { q.AddAvailableRepoFilter() },
			want:  solver.NewCandidateSet(3, 6, 7),
			jobs:  []string{"select+setrepo+setvendor bash"},
		},
		{
			name:  "available binaries",
			names: []string{"bash"},
			setup: func(q *Query) {
				q.AddAvailableRepoFilter()
				q.AddKindFilter(pkg.KindPackage)
			},
			want: solver.NewCandidateSet(3, 7),
		},
		{
			name:  "filters alone select what they let through",
			setup: func(q *Query) { q.AddArchFilter(pkg.ArchSource) },
			want:  solver.NewCandidateSet(6),
			jobs:  []string{"select [6]"},
		},
		{
			name:  "names are matched ignoring case as a last resort",
			names: []string{"BASH"},
			want:  solver.NewCandidateSet(1, 3, 6, 7),
			notes: []string{"[ignoring case for 'BASH']"},
		},
		{
			name:  "capabilities",
			names: []string{"sh"},
			setup: func(q *Query) { q.AddSystemRepoFilter() },
			want:  solver.NewCandidateSet(1),
			notes: []string{"[using capability match for 'sh']"},
		},
		{
			name:     "unknown names",
			names:    []string{"nope", "zsh"},
			want:     solver.NewCandidateSet(5),
			notFound: []string{"nope"},
		},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			is := assert.New(t)
			q, err := configFixture(t).NewQuery()
			require.NoError(t, err)
			if tcase.names != nil {
				is.NoError(q.ApplyPackageFilter(tcase.names))
			}
			if tcase.setup != nil {
				tcase.setup(q)
			}

			is.NoError(q.ApplyListQuery())
			is.Equal(tcase.want, q.Result)
			is.Equal(tcase.notFound, q.NotFound())
			if tcase.notes != nil {
				is.Equal(tcase.notes, q.Notes())
			}
			if tcase.jobs != nil {
				jobs := []string{}
				for _, d := range q.Jobs() {
					jobs = append(jobs, d.String())
				}
				is.Equal(tcase.jobs, jobs)
			}
		})
	}
}

func TestApplySearch(t *testing.T) {
	for _, tcase := range []struct {
		name  string
		terms []string
		want  solver.CandidateSet
	}{
		{name: "summary ignoring case", terms: []string{"SHELL"}, want: solver.NewCandidateSet(3, 5, 7)},
		{name: "description", terms: []string{"like bash"}, want: solver.NewCandidateSet(5)},
		{name: "name", terms: []string{"glibc"}, want: solver.NewCandidateSet(2, 4)},
		{name: "terms add up", terms: []string{"again", "zsh"}, want: solver.NewCandidateSet(3, 5, 7)},
		{name: "no match", terms: []string{"emacs"}, want: solver.CandidateSet{}},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			q, err := configFixture(t).NewQuery()
			require.NoError(t, err)
			assert.NoError(t, q.ApplySearch(tcase.terms...))
			assert.Equal(t, tcase.want, q.Result)
		})
	}

	q, err := configFixture(t).NewQuery()
	require.NoError(t, err)
	assert.True(t, errors.Cause(q.ApplySearch()) == solver.ErrInvalidParameter)
}

func stepStrings(tr *solver.Transaction) []string {
	res := []string{}
	if tr == nil {
		return res
	}
	for _, s := range tr.Steps {
		res = append(res, s.String())
	}
	return res
}

func TestApplyAlterQuery(t *testing.T) {
	for _, tcase := range []struct {
		name  string
		mode  solver.ActionKind
		setup func(t *testing.T, q *Query)
		steps []string
		err   error
	}{
		{
			name: "install",
			mode: solver.ActionInstall,
			setup: func(t *testing.T, q *Query) {
				require.NoError(t, q.ApplySinglePackageFilter("zsh"))
			},
			steps: []string{"install zsh-5.8-1.x86_64@base"},
		},
		{
			name: "install by id",
			mode: solver.ActionInstall,
			setup: func(t *testing.T, q *Query) {
				q.AddPkgInstallJob(5)
			},
			steps: []string{"install zsh-5.8-1.x86_64@base"},
		},
		{
			name:  "update everything, dependencies first",
			mode:  solver.ActionUpdate,
			setup: func(t *testing.T, q *Query) { q.AddUpgradeAllJob() },
			steps: []string{
				"upgrade glibc-2.33-4.x86_64@base (replacing glibc-2.31-1.x86_64@System)",
				"upgrade bash-5.2-1.x86_64@updates (replacing bash-5.0-1.x86_64@System)",
			},
		},
		{
			name: "erase takes the dependants along",
			mode: solver.ActionErase,
			setup: func(t *testing.T, q *Query) {
				require.NoError(t, q.ApplySinglePackageFilter("glibc"))
				q.AddSystemRepoFilter()
			},
			steps: []string{"erase bash-5.0-1.x86_64@System", "erase glibc-2.31-1.x86_64@System"},
		},
		{
			name: "already installed",
			mode: solver.ActionInstall,
			setup: func(t *testing.T, q *Query) {
				require.NoError(t, q.ApplySinglePackageFilter("bash-5.0-1"))
			},
			err: solver.ErrEmptyTransaction,
		},
		{
			name:  "not a main mode",
			mode:  solver.ActionUserInstalled,
			setup: func(t *testing.T, q *Query) {},
			err:   solver.ErrInvalidParameter,
		},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			is := assert.New(t)
			q, err := configFixture(t).NewQuery()
			require.NoError(t, err)
			tcase.setup(t, q)

			err = q.ApplyAlterQuery(tcase.mode)
			if tcase.err != nil {
				is.Equal(tcase.err, errors.Cause(err))
				return
			}
			is.NoError(err)
			is.Equal(tcase.steps, stepStrings(q.Transaction))
		})
	}
}

func TestApplyDistroSyncQuery(t *testing.T) {
	is := assert.New(t)
	cfg := configFixture(t)
	q, err := cfg.NewQuery()
	require.NoError(t, err)

	is.NoError(q.ApplyDistroSyncQuery())
	is.Equal(2, q.Transaction.Len())
	is.Len(q.Transaction.Of(solver.StepUpgradeTo), 2)

	promFile := filepath.Join(tempRoot(t), "pkgsolve.prom")
	is.NoError(cfg.Metrics.WriteToTextfile(promFile))
	content, err := ioutil.ReadFile(promFile)
	is.NoError(err)
	is.Contains(string(content), `pkgsolve_solves_total{status="solved"} 1`)
	is.Contains(string(content), `pkgsolve_transaction_steps_total{action="upgrade"} 2`)
}

func TestQueryJobHelpers(t *testing.T) {
	q, err := configFixture(t).NewQuery()
	require.NoError(t, err)

	q.AddDistUpgradeJob()
	q.AddPkgDowngradeJob(3)
	q.AddPkgEraseJob(2)
	q.AddPkgUserInstalledJob(1)
	q.AddFlagsToJobs(solver.ForceBest)

	jobs := []string{}
	for _, d := range q.Jobs() {
		jobs = append(jobs, d.String())
	}
	assert.Equal(t, []string{
		"distupgrade+forcebest all packages",
		"install+forcebest+downgrade [3]",
		"erase+forcebest [2]",
		"userinstalled+forcebest [1]",
	}, jobs)
}
