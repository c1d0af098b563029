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
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/pkgsolve/internal/solver"
)

// Alter changes what is installed: install, erase, upgrade, distro-sync and
// check all run through it, in their own mode.
type Alter struct {
	cfg *Configuration

	Mode solver.ActionKind
	SolveOptions
	Archs []string
	// Record writes the transaction to the installed state.
	Record  bool
	Chooser solver.Chooser
}

// NewAlter returns an Alter action in mode.
func NewAlter(cfg *Configuration, mode solver.ActionKind) *Alter {
	return &Alter{cfg: cfg, Mode: mode}
}

func (a *Alter) needsNames() bool {
	return a.Mode == solver.ActionInstall || a.Mode == solver.ActionErase
}

// Run solves the operation on names and builds its transaction.
//
// Names matching nothing are skipped with a warning, unless none matches, in
// which case ErrNotFound is returned. Nothing to do is not an error: the
// result says so. An unresolvable operation returns its result along with
// the *solver.UnresolvableError.
func (a *Alter) Run(names []string) (*solver.Result, *Query, error) {
	if a.needsNames() && len(names) == 0 {
		return nil, nil, errors.Wrapf(solver.ErrInvalidParameter, "%s needs at least one package", a.Mode)
	}

	q, err := a.cfg.NewQuery()
	if err != nil {
		return nil, nil, err
	}
	q.Options = a.SolveOptions
	q.Chooser = a.Chooser
	if len(names) > 0 {
		if err := q.ApplyPackageFilter(names); err != nil {
			return nil, q, err
		}
	}
	if a.Mode == solver.ActionErase {
		q.AddSystemRepoFilter()
	}
	if len(a.Archs) > 0 {
		q.AddArchFilter(a.Archs...)
	}

	if err := q.GenerateCommonJob(); err != nil {
		return nil, q, err
	}
	for _, n := range q.Notes() {
		a.cfg.Log.Info(n)
	}
	for _, n := range q.NotFound() {
		a.cfg.Log.Warnf("No match for argument: %s", n)
	}
	if len(names) > 0 && len(q.NotFound()) == len(names) {
		return nil, q, errors.Wrapf(solver.ErrNotFound, "%v", names)
	}

	err = q.ApplyAlterQuery(a.Mode)
	res := solver.NewResult(q.Solution, q.Transaction, err)
	switch {
	case solver.IsEmptyTransaction(err):
		return res, q, nil
	case err != nil:
		return res, q, err
	}

	if a.Record {
		if a.cfg.Loader == nil {
			return res, q, errors.Wrap(solver.ErrInvalidParameter, "no installed state to record to")
		}
		if err := a.cfg.Loader.System().Record(q.Transaction); err != nil {
			return res, q, errors.Wrap(err, "recording transaction")
		}
	}
	return res, q, nil
}
