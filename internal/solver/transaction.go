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
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
)

// StepKind is the kind of a transaction step.
type StepKind int

const (
	StepInstall StepKind = iota
	StepErase
	StepUpgradeTo
	StepDowngradeTo
)

func (k StepKind) String() string {
	switch k {
	case StepInstall:
		return "install"
	case StepErase:
		return "erase"
	case StepUpgradeTo:
		return "upgrade"
	case StepDowngradeTo:
		return "downgrade"
	}
	return "unknown"
}

// Step is one operation of a transaction. Upgrades and downgrades carry the
// package they replace, so that replacing a package is a single step.
type Step struct {
	Kind     StepKind
	Pkg      *pkg.Pkg
	Replaces []*pkg.Pkg
}

func (s Step) String() string {
	if len(s.Replaces) == 0 {
		return fmt.Sprintf("%s %s", s.Kind, s.Pkg)
	}
	replaced := make([]string, 0, len(s.Replaces))
	for _, r := range s.Replaces {
		replaced = append(replaced, r.String())
	}
	return fmt.Sprintf("%s %s (replacing %s)", s.Kind, s.Pkg, strings.Join(replaced, ", "))
}

// Transaction is the ordered list of steps that takes the system from its
// installed state to the solved one.
type Transaction struct {
	Steps []Step
}

// Len returns the number of steps.
func (t *Transaction) Len() int { return len(t.Steps) }

// Of returns the steps of kind k, in order.
func (t *Transaction) Of(k StepKind) []Step {
	res := []Step{}
	for _, s := range t.Steps {
		if s.Kind == k {
			res = append(res, s)
		}
	}
	return res
}

// Build turns the decisions of set into an ordered transaction:
//
//  1. erases of packages nothing replaces, dependants before their
//     dependencies
//  2. installs, upgrades and downgrades, dependencies first
//  3. erases of packages replaced by an install, such as obsoleted ones
//
// Replacing a package within its slot is a single upgrade or downgrade step.
// A set without steps gives ErrEmptyTransaction.
func Build(set *SolutionSet) (*Transaction, error) {
	if set == nil {
		return nil, errors.Wrap(ErrInvalidParameter, "nil solution set")
	}

	var eraseOnly, installs, replaced []*Decision
	inSlotStep := map[int]bool{}
	for _, d := range set.Sorted() {
		switch d.Kind {
		case DecisionInstall, DecisionUpgrade, DecisionDowngrade:
			installs = append(installs, d)
			for _, r := range d.Replaces {
				if r.GetBaseFingerPrint() == d.Pkg.GetBaseFingerPrint() && d.Kind != DecisionInstall {
					inSlotStep[r.ID] = true
				}
			}
		}
	}
	for _, d := range set.Sorted() {
		if d.Kind != DecisionErase || inSlotStep[d.Pkg.ID] {
			continue
		}
		if d.ReplacedBy == nil {
			eraseOnly = append(eraseOnly, d)
		} else {
			replaced = append(replaced, d)
		}
	}

	tr := &Transaction{}
	for _, d := range reverse(dependencyOrder(eraseOnly)) {
		tr.Steps = append(tr.Steps, Step{Kind: StepErase, Pkg: d.Pkg})
	}
	for _, d := range dependencyOrder(installs) {
		s := Step{Kind: StepInstall, Pkg: d.Pkg, Replaces: d.Replaces}
		switch d.Kind {
		case DecisionUpgrade:
			s.Kind = StepUpgradeTo
		case DecisionDowngrade:
			s.Kind = StepDowngradeTo
		}
		tr.Steps = append(tr.Steps, s)
	}
	for _, d := range reverse(dependencyOrder(replaced)) {
		tr.Steps = append(tr.Steps, Step{Kind: StepErase, Pkg: d.Pkg})
	}

	if tr.Len() == 0 {
		return nil, ErrEmptyTransaction
	}
	return tr, nil
}

// requiresAny reports whether p needs something q provides.
func requiresAny(p, q *pkg.Pkg) bool {
	for _, r := range p.Requires {
		for _, prv := range q.Provides {
			if prv.Overlaps(r) {
				return true
			}
		}
		if r.IsFile() && r.Flags == pkg.Any {
			for _, f := range q.Files {
				if f == r.Name {
					return true
				}
			}
		}
	}
	return false
}

// dependencyOrder sorts decisions so that the dependencies of a package come
// before it. Cycles are broken by visiting packages by ascending ID.
func dependencyOrder(decisions []*Decision) []*Decision {
	res := make([]*Decision, 0, len(decisions))
	visited := map[int]bool{}
	var visit func(d *Decision)
	visit = func(d *Decision) {
		if visited[d.Pkg.ID] {
			return
		}
		visited[d.Pkg.ID] = true
		for _, dep := range decisions {
			if dep != d && requiresAny(d.Pkg, dep.Pkg) {
				visit(dep)
			}
		}
		res = append(res, d)
	}
	for _, d := range decisions {
		visit(d)
	}
	return res
}

func reverse(decisions []*Decision) []*Decision {
	res := make([]*Decision, len(decisions))
	for i, d := range decisions {
		res[len(decisions)-1-i] = d
	}
	return res
}
