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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
)

func TestDirectiveModifiers(t *testing.T) {
	is := assert.New(t)

	d := Directive{Action: ActionUpdate, Modifiers: []Modifier{SetVendor}, Targets: NewCandidateSet(1, 2)}
	e := d.WithModifiers(ForceBest, SetVendor, SetRepo)

	is.Equal([]Modifier{SetVendor}, d.Modifiers)
	is.Equal([]Modifier{ForceBest, SetRepo, SetVendor}, e.Modifiers)
	is.True(e.Has(ForceBest))
	is.False(d.Has(ForceBest))
	is.Equal("update+forcebest+setrepo+setvendor [1 2]", e.String())

	f := e.WithAction(ActionInstall)
	f.Targets[0] = 42
	is.Equal(ActionUpdate, e.Action)
	is.Equal(CandidateSet{1, 2}, e.Targets)

	is.Equal("install all packages", Directive{Action: ActionInstall, All: true}.String())
	is.Equal("erase foo*", Directive{Action: ActionErase, Query: "foo*"}.String())
}

func TestQueue(t *testing.T) {
	is := assert.New(t)

	q := NewQueue()
	is.True(q.IsEmpty())

	q.Push(ActionInstall, CandidateSet{3, 1})
	q.PushAll(ActionUpdate)
	d := Directive{Action: ActionErase, Targets: CandidateSet{7}}
	q.PushDirective(d)
	d.Targets[0] = 8
	q.ApplyGlobalFlags(ForceBest)

	is.Equal(3, q.Len())
	directives := q.Directives()
	is.Equal(CandidateSet{1, 3}, directives[0].Targets)
	is.True(directives[1].All)
	is.Equal(CandidateSet{7}, directives[2].Targets)
	for _, d := range directives {
		is.True(d.Has(ForceBest))
	}

	directives[0].Action = ActionErase
	is.Equal(ActionInstall, q.Directives()[0].Action)
}

func TestQueuePrepare(t *testing.T) {
	c := buildCatalog(t,
		repo(pkg.SystemRepo, mock("old", "1.0-1", nil, nil, nil, nil), mock("foo", "1.0-1", nil, nil, nil, nil)),
		repo("base",
			mock("foo", "2.0-1", nil, nil, nil, nil),
			mock("bar", "1.0-1", nil, nil, nil, nil),
			mock("new", "1.0-1", nil, nil, []string{"old"}, nil),
		),
	)
	ids := func(query string) CandidateSet { return resolve(t, c, query) }

	for _, tcase := range []struct {
		name  string
		mode  ActionKind
		queue func() *Queue
		want  []string
	}{
		{
			name:  "empty update becomes an update of everything",
			mode:  ActionUpdate,
			queue: NewQueue,
			want:  []string{"update all packages"},
		},
		{
			name:  "empty verify checks everything",
			mode:  ActionVerify,
			queue: NewQueue,
			want:  []string{"verify all packages"},
		},
		{
			name:  "empty install stays empty",
			mode:  ActionInstall,
			queue: NewQueue,
			want:  []string{},
		},
		{
			name: "selections take the mode",
			mode: ActionErase,
			queue: func() *Queue {
				q := NewQueue()
				q.PushDirective(Directive{Query: "foo", Targets: ids("foo")})
				return q
			},
			want: []string{"erase foo"},
		},
		{
			name: "update of something not installed becomes an install",
			mode: ActionUpdate,
			queue: func() *Queue {
				q := NewQueue()
				q.PushDirective(Directive{Query: "bar", Targets: ids("bar")})
				return q
			},
			want: []string{"install bar"},
		},
		{
			name: "update of an installed name stays",
			mode: ActionUpdate,
			queue: func() *Queue {
				q := NewQueue()
				q.PushDirective(Directive{Query: "foo-2.0", Targets: ids("foo-2.0")})
				return q
			},
			want: []string{"update foo-2.0"},
		},
		{
			name: "update of what obsoletes an installed package stays",
			mode: ActionUpdate,
			queue: func() *Queue {
				q := NewQueue()
				q.PushDirective(Directive{Query: "new", Targets: ids("new")})
				return q
			},
			want: []string{"update new"},
		},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			q := tcase.queue()
			prepared, err := q.Prepare(tcase.mode, c)
			require.NoError(t, err)

			got := []string{}
			for _, d := range prepared.Directives() {
				got = append(got, d.String())
			}
			assert.Equal(t, tcase.want, got)
		})
	}

	_, err := NewQueue().Prepare(ActionUserInstalled, c)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = NewQueue().Prepare(ActionInstall, nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
