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
	"time"

	"github.com/Masterminds/log-go"
	"github.com/crillab/gophersat/maxsat"
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/pkgsolve/internal/evr"
	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
)

// DefaultMaxAttempts is the number of solve attempts before giving up.
const DefaultMaxAttempts = 10

// Policy tunes the engine.
type Policy struct {
	// Mode is the main operation: install, erase, update, distupgrade or
	// verify. Plain selections in the queue take it as action.
	Mode ActionKind
	// MaxAttempts bounds the solve, conflict, relax loop.
	MaxAttempts int
	// Timeout bounds the whole loop. Zero means no timeout.
	Timeout time.Duration
	// AllowUninstall lets installed packages go without asking. It is
	// always on in erase mode.
	AllowUninstall bool
	// AllowDowngrade lets installed packages be replaced by older ones.
	AllowDowngrade bool
	// BestObeyPolicy keeps ForceBest within the slot of the installed
	// package: the best candidate never changes the architecture.
	BestObeyPolicy bool
	// KeepOrphans keeps installed packages that no repository carries
	// anymore during a distupgrade.
	KeepOrphans bool
}

// DefaultPolicy returns the policy for mode.
func DefaultPolicy(mode ActionKind) Policy {
	return Policy{
		Mode:           mode,
		MaxAttempts:    DefaultMaxAttempts,
		AllowUninstall: mode == ActionErase,
		BestObeyPolicy: true,
		KeepOrphans:    true,
	}
}

// State of the engine.
type State int

const (
	StateIdle State = iota
	StateSolving
	StateConflicted
	StateSolved
	StateUnresolvable
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSolving:
		return "solving"
	case StateConflicted:
		return "conflicted"
	case StateSolved:
		return "solved"
	case StateUnresolvable:
		return "unresolvable"
	}
	return "unknown"
}

// DecisionKind is the verdict of the solver on one package.
type DecisionKind int

const (
	DecisionKeep DecisionKind = iota
	DecisionInstall
	DecisionErase
	DecisionUpgrade
	DecisionDowngrade
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionKeep:
		return "keep"
	case DecisionInstall:
		return "install"
	case DecisionErase:
		return "erase"
	case DecisionUpgrade:
		return "upgrade"
	case DecisionDowngrade:
		return "downgrade"
	}
	return "unknown"
}

// Decision is what happens to one package.
type Decision struct {
	Kind DecisionKind
	Pkg  *pkg.Pkg
	// Replaces lists the installed packages an install, upgrade or
	// downgrade takes the place of.
	Replaces []*pkg.Pkg
	// ReplacedBy is set on the erase of a package something else replaces.
	ReplacedBy *pkg.Pkg
	// Explicit is set when a directive targeted the package.
	Explicit      bool
	UserInstalled bool
}

// SolutionSet is the outcome of a successful solve.
type SolutionSet struct {
	// Decisions by package ID. Packages left alone are kept.
	Decisions map[int]*Decision
	// Problems met on the way, and the solutions taken to get past them.
	Problems []*Problem
	Taken    []*Solution
	Attempts int
	Duration time.Duration
}

// Sorted returns the decisions by ascending package ID.
func (s *SolutionSet) Sorted() []*Decision {
	ids := make([]int, 0, len(s.Decisions))
	for id := range s.Decisions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	res := make([]*Decision, 0, len(ids))
	for _, id := range ids {
		res = append(res, s.Decisions[id])
	}
	return res
}

// Engine solves job queues against a catalog. An engine keeps state between
// attempts and must not be shared between goroutines.
type Engine struct {
	catalog *Catalog
	policy  Policy
	chooser Chooser
	logger  log.Logger

	state    State
	attempts int
	problems []*Problem
	now      func() time.Time
	// afterFunc arms the deadline of a solve.
	afterFunc func(d time.Duration, f func()) *time.Timer
}

// NewEngine returns an idle engine.
func NewEngine(catalog *Catalog, policy Policy, logger log.Logger) (*Engine, error) {
	if catalog == nil {
		return nil, errors.Wrap(ErrInvalidParameter, "nil catalog")
	}
	switch policy.Mode {
	case ActionInstall, ActionErase, ActionUpdate, ActionDistUpgrade, ActionVerify:
	default:
		return nil, errors.Wrapf(ErrInvalidParameter, "%s is not a main mode", policy.Mode)
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.Mode == ActionErase {
		policy.AllowUninstall = true
	}
	if logger == nil {
		logger = log.Current
	}
	return &Engine{
		catalog: catalog,
		policy:  policy,
		chooser: AutoChooser,
		logger:  logger,
		state:   StateIdle,
		now:       time.Now,
		afterFunc: time.AfterFunc,
	}, nil
}

// SetChooser sets who picks solutions to problems. Defaults to AutoChooser.
func (e *Engine) SetChooser(c Chooser) {
	if c == nil {
		c = AutoChooser
	}
	e.chooser = c
}

// State returns the current state of the engine.
func (e *Engine) State() State { return e.state }

// Attempts returns the number of attempts of the last solve.
func (e *Engine) Attempts() int { return e.attempts }

// Problems returns the problems of the last attempt.
func (e *Engine) Problems() []*Problem { return e.problems }

// Policy returns the policy in use.
func (e *Engine) Policy() Policy { return e.policy }

func (e *Engine) transition(s State) {
	e.logger.Debugf("solver: %s -> %s", e.state, s)
	e.state = s
}

func (e *Engine) giveUp(reason string) error {
	e.transition(StateUnresolvable)
	return &UnresolvableError{Attempts: e.attempts, Reason: reason, Problems: e.problems}
}

// Solve solves queue. Conflicts are reported as problems to the chooser,
// and the chosen solutions relax the rules before trying again, until a
// solution is found or the attempts or time run out.
func (e *Engine) Solve(queue *Queue) (*SolutionSet, error) {
	if queue == nil {
		return nil, errors.Wrap(ErrInvalidParameter, "nil queue")
	}
	start := e.now()
	e.attempts = 0
	e.problems = nil
	e.transition(StateSolving)

	prepared, err := queue.Prepare(e.policy.Mode, e.catalog)
	if err != nil {
		e.transition(StateIdle)
		return nil, err
	}
	directives := prepared.Directives()
	for _, d := range directives {
		e.logger.Debugf("job: %s", d)
	}

	w := newWorld(e.catalog, directives, e.policy)
	e.logger.Debugf("solver: %d packages, %d rules", w.units.Len(), len(w.rules))

	// the deadline interrupts a running solve, not only the next attempt
	w.stop = make(chan struct{})
	if e.policy.Timeout > 0 {
		stop := w.stop
		timer := e.afterFunc(e.policy.Timeout-e.now().Sub(start), func() { close(stop) })
		defer timer.Stop()
	}
	timedOut := func() error {
		return e.giveUp(fmt.Sprintf("gave up after %s", e.policy.Timeout))
	}

	disabled := map[ruleKey]bool{}
	set := &SolutionSet{Decisions: map[int]*Decision{}}
	for {
		if e.attempts >= e.policy.MaxAttempts {
			return nil, e.giveUp(fmt.Sprintf("gave up after %d attempts", e.policy.MaxAttempts))
		}
		if e.policy.Timeout > 0 && e.now().Sub(start) > e.policy.Timeout {
			return nil, timedOut()
		}
		e.attempts++

		model, err := w.solve(disabled)
		if err == errStopped {
			return nil, timedOut()
		}
		if model != nil {
			set.Decisions = w.decisions(model)
			set.Attempts = e.attempts
			set.Duration = e.now().Sub(start)
			e.problems = nil
			e.transition(StateSolved)
			return set, nil
		}

		e.transition(StateConflicted)
		e.problems, err = w.explain(disabled)
		if err == errStopped {
			return nil, timedOut()
		}
		if len(e.problems) == 0 {
			return nil, e.giveUp("conflict without explanation")
		}
		set.Problems = append(set.Problems, e.problems...)
		for _, p := range e.problems {
			e.logger.Debugf("%s", p)
			i, err := e.chooser.Choose(p)
			if err != nil {
				return nil, e.giveUp(err.Error())
			}
			if i < 0 || i >= len(p.Solutions) {
				return nil, e.giveUp("no solution accepted")
			}
			s := p.Solutions[i]
			e.logger.Debugf("taking solution: %s", s)
			disabled[s.rule] = true
			set.Taken = append(set.Taken, s)
		}
		e.transition(StateSolving)
	}
}

// decisions reads the verdict on every package out of a model.
func (w *world) decisions(model maxsat.Model) map[int]*Decision {
	res := map[int]*Decision{}
	replacedBy := map[int]*pkg.Pkg{}
	on := func(id int) bool { return model[w.varOf(id)] }

	for _, id := range w.units {
		p := w.pkg(id)
		if p.IsInstalled() || !on(id) {
			continue
		}
		d := &Decision{Kind: DecisionInstall, Pkg: p, Explicit: w.explicit[id], UserInstalled: w.userInst[id]}
		for _, i := range w.catalog.Slot(id).Intersect(w.installed) {
			if on(i) {
				continue
			}
			d.Replaces = append(d.Replaces, w.pkg(i))
			replacedBy[i] = p
			d.Kind = DecisionUpgrade
			if evr.Compare(p.EVR(), w.pkg(i).EVR()) < 0 {
				d.Kind = DecisionDowngrade
			}
		}
		for _, o := range p.Obsoletes {
			for _, i := range w.catalog.LookupObsoleted(o).Intersect(w.installed) {
				if w.pkg(i).Name != p.Name && !on(i) {
					d.Replaces = append(d.Replaces, w.pkg(i))
					if replacedBy[i] == nil {
						replacedBy[i] = p
					}
				}
			}
		}
		res[id] = d
	}

	for _, i := range w.installed {
		p := w.pkg(i)
		if on(i) {
			if w.explicit[i] || w.userInst[i] {
				res[i] = &Decision{Kind: DecisionKeep, Pkg: p, Explicit: w.explicit[i], UserInstalled: w.userInst[i]}
			}
			continue
		}
		res[i] = &Decision{Kind: DecisionErase, Pkg: p, Explicit: w.erased[i], ReplacedBy: replacedBy[i]}
	}
	return res
}
