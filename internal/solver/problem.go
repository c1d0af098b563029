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
	"sort"
	"strings"

	"github.com/crillab/gophersat/maxsat"

	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
)

// maxProblems caps how many independent problems one attempt reports.
const maxProblems = 8

// SolutionKind tells how a Solution relaxes a problem.
type SolutionKind int

const (
	// SolutionAllowDowngrade lets an installed package be downgraded.
	SolutionAllowDowngrade SolutionKind = iota
	// SolutionRelaxBest accepts candidates other than the best ones.
	SolutionRelaxBest
	// SolutionSkipDirective drops a job directive.
	SolutionSkipDirective
	// SolutionAllowErase lets an installed package be erased or replaced.
	SolutionAllowErase
)

func (k SolutionKind) String() string {
	switch k {
	case SolutionAllowDowngrade:
		return "allow-downgrade"
	case SolutionRelaxBest:
		return "relax-best"
	case SolutionSkipDirective:
		return "skip-directive"
	case SolutionAllowErase:
		return "allow-erase"
	}
	return "unknown"
}

// Solution is one way out of a Problem.
type Solution struct {
	Kind        SolutionKind `json:"kind"`
	Description string       `json:"description"`
	// Pkg is the installed package concerned, if any.
	Pkg *pkg.Pkg `json:"-" yaml:"-"`

	rule ruleKey
}

func (s *Solution) String() string {
	return s.Description
}

// Problem is a set of rules that cannot hold together, the package relations
// that make them clash, and the ranked ways to relax them.
type Problem struct {
	Rules     []string    `json:"rules"`
	Reasons   []string    `json:"reasons,omitempty" yaml:"reasons,omitempty"`
	Solutions []*Solution `json:"solutions"`
}

func (p *Problem) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("problem: %s", strings.Join(p.Rules, ", ")))
	for _, r := range p.Reasons {
		sb.WriteString(fmt.Sprintf("\n  - %s", r))
	}
	for i, s := range p.Solutions {
		sb.WriteString(fmt.Sprintf("\n  solution %d: %s", i+1, s))
	}
	return sb.String()
}

// Chooser picks one solution for a problem. It returns the index of the
// chosen solution, or an error to give up.
type Chooser interface {
	Choose(p *Problem) (int, error)
}

// ChooserFunc adapts a function to the Chooser interface.
type ChooserFunc func(p *Problem) (int, error)

// Choose calls f(p).
func (f ChooserFunc) Choose(p *Problem) (int, error) {
	return f(p)
}

// AutoChooser always takes the first, best ranked, solution.
var AutoChooser Chooser = ChooserFunc(func(*Problem) (int, error) {
	return 0, nil
})

// explain finds the problems of an unsatisfiable attempt: minimal sets of
// enabled rules that conflict over the package relations. Once a problem is
// found its rules are set aside and the rest is examined again.
func (w *world) explain(disabled map[ruleKey]bool) ([]*Problem, error) {
	hard := w.hard()
	remaining := w.activeRules(disabled)
	problems := []*Problem{}

	unsat := func(rules []*rule) (bool, error) {
		constrs := append(append([]maxsat.Constr{}, hard...), rulesConstrs(rules)...)
		ok, err := w.satisfiable(constrs)
		return !ok, err
	}

	for len(problems) < maxProblems && len(remaining) > 0 {
		conflict, err := unsat(remaining)
		if err != nil {
			return nil, err
		}
		if !conflict {
			break
		}
		candidates := remaining
		idx, err := shrink(len(candidates), func(keep []int) (bool, error) {
			return unsat(pickRules(candidates, keep))
		})
		if err != nil {
			return nil, err
		}
		core := pickRules(candidates, idx)
		p, err := w.problem(core)
		if err != nil {
			return nil, err
		}
		problems = append(problems, p)

		inCore := map[ruleKey]bool{}
		for _, r := range core {
			inCore[r.key] = true
		}
		next := []*rule{}
		for _, r := range remaining {
			if !inCore[r.key] {
				next = append(next, r)
			}
		}
		remaining = next
	}
	return problems, nil
}

func pickRules(rules []*rule, idx []int) []*rule {
	res := make([]*rule, 0, len(idx))
	for _, i := range idx {
		res = append(res, rules[i])
	}
	return res
}

// problem describes a conflicting set of rules, looking for the package
// relations that make them clash.
func (w *world) problem(core []*rule) (*Problem, error) {
	p := &Problem{}
	for _, r := range core {
		p.Rules = append(p.Rules, r.desc)
	}

	fixed := rulesConstrs(core)
	idx, err := shrink(len(w.reasons), func(keep []int) (bool, error) {
		constrs := append([]maxsat.Constr{}, fixed...)
		for _, i := range keep {
			constrs = append(constrs, w.reasons[i].constrs...)
		}
		ok, err := w.satisfiable(constrs)
		return !ok, err
	})
	if err != nil {
		return nil, err
	}
	for _, i := range idx {
		if w.reasons[i].desc != "" {
			p.Reasons = append(p.Reasons, w.reasons[i].desc)
		}
	}

	for _, r := range core {
		s := &Solution{rule: r.key}
		switch r.key.kind {
		case RuleNoDowngrade:
			s.Kind = SolutionAllowDowngrade
			s.Pkg = w.pkg(r.key.id)
			s.Description = fmt.Sprintf("allow downgrade of %s", s.Pkg)
		case RuleBest:
			s.Kind = SolutionRelaxBest
			s.Description = fmt.Sprintf("accept candidates other than the best for %s", w.describe(w.directives[r.key.id]))
		case RuleJob:
			s.Kind = SolutionSkipDirective
			s.Description = fmt.Sprintf("do not ask to %s", w.describe(w.directives[r.key.id]))
		case RuleKeep:
			s.Kind = SolutionAllowErase
			s.Pkg = w.pkg(r.key.id)
			s.Description = fmt.Sprintf("allow erasing or replacing installed %s", s.Pkg)
		}
		p.Solutions = append(p.Solutions, s)
	}
	sort.SliceStable(p.Solutions, func(i, j int) bool {
		return p.Solutions[i].Kind < p.Solutions[j].Kind
	})
	return p, nil
}
