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

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// ActionKind is the verb of a job directive.
type ActionKind int

const (
	// ActionNone marks a plain selection. It takes the main mode when the
	// queue is prepared.
	ActionNone ActionKind = iota
	ActionInstall
	ActionErase
	ActionUpdate
	ActionDistUpgrade
	ActionVerify
	ActionUserInstalled
)

func (a ActionKind) String() string {
	switch a {
	case ActionInstall:
		return "install"
	case ActionErase:
		return "erase"
	case ActionUpdate:
		return "update"
	case ActionDistUpgrade:
		return "distupgrade"
	case ActionVerify:
		return "verify"
	case ActionUserInstalled:
		return "userinstalled"
	}
	return "select"
}

// Modifier alters how the solver treats a directive, orthogonally to its
// action.
type Modifier int

const (
	// ForceBest only accepts the best candidates of the directive.
	ForceBest Modifier = iota + 1
	// SetRepo keeps updated packages within the repositories of the targets.
	SetRepo
	// SetVendor keeps updated packages within the vendor of the installed
	// ones.
	SetVendor
	// Downgrade allows the targets to replace newer installed packages.
	Downgrade
)

func (m Modifier) String() string {
	switch m {
	case ForceBest:
		return "forcebest"
	case SetRepo:
		return "setrepo"
	case SetVendor:
		return "setvendor"
	case Downgrade:
		return "downgrade"
	}
	return fmt.Sprintf("modifier(%d)", int(m))
}

// Directive is one entry of a job queue: an action on a set of packages.
type Directive struct {
	Action    ActionKind
	Modifiers []Modifier
	Targets   CandidateSet
	// All makes the directive apply to the whole system instead of Targets.
	All bool
	// Query is what the user asked for, kept for diagnostics.
	Query string
}

// Has reports whether d carries modifier m.
func (d Directive) Has(m Modifier) bool {
	for _, mod := range d.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

func (d Directive) clone() Directive {
	out := Directive{}
	if err := copier.CopyWithOption(&out, &d, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched kinds
		panic(err)
	}
	return out
}

// WithModifiers returns a copy of d carrying mods on top of its own
// modifiers. d is left untouched.
func (d Directive) WithModifiers(mods ...Modifier) Directive {
	out := d.clone()
	out.Modifiers = append([]Modifier{}, out.Modifiers...)
	for _, m := range mods {
		if !out.Has(m) {
			out.Modifiers = append(out.Modifiers, m)
		}
	}
	sort.Slice(out.Modifiers, func(i, j int) bool { return out.Modifiers[i] < out.Modifiers[j] })
	return out
}

// WithAction returns a copy of d with its action replaced.
func (d Directive) WithAction(a ActionKind) Directive {
	out := d.clone()
	out.Action = a
	return out
}

func (d Directive) String() string {
	var sb strings.Builder
	sb.WriteString(d.Action.String())
	for _, m := range d.Modifiers {
		sb.WriteString("+")
		sb.WriteString(m.String())
	}
	switch {
	case d.All:
		sb.WriteString(" all packages")
	case d.Query != "":
		sb.WriteString(fmt.Sprintf(" %s", d.Query))
	default:
		sb.WriteString(fmt.Sprintf(" %v", d.Targets.IDs()))
	}
	return sb.String()
}

// Queue is an ordered list of job directives.
type Queue struct {
	directives []Directive
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an action on targets.
func (q *Queue) Push(action ActionKind, targets CandidateSet) {
	q.directives = append(q.directives, Directive{Action: action, Targets: NewCandidateSet(targets...)})
}

// PushAll appends an action on the whole system.
func (q *Queue) PushAll(action ActionKind) {
	q.directives = append(q.directives, Directive{Action: action, All: true, Targets: CandidateSet{}})
}

// PushDirective appends a copy of d.
func (q *Queue) PushDirective(d Directive) {
	q.directives = append(q.directives, d.clone())
}

// ApplyGlobalFlags adds mods to every directive already in the queue.
func (q *Queue) ApplyGlobalFlags(mods ...Modifier) {
	for i, d := range q.directives {
		q.directives[i] = d.WithModifiers(mods...)
	}
}

// IsEmpty reports whether the queue holds no directive.
func (q *Queue) IsEmpty() bool { return len(q.directives) == 0 }

// Len returns the number of directives.
func (q *Queue) Len() int { return len(q.directives) }

// Directives returns a copy of the directives.
func (q *Queue) Directives() []Directive {
	out := make([]Directive, 0, len(q.directives))
	for _, d := range q.directives {
		out = append(out, d.clone())
	}
	return out
}

// Prepare returns the queue the solver works on for main mode:
//
//  - an empty queue in update, distupgrade or verify mode turns into one
//    directive on the whole system
//  - plain selections take the mode as action
//  - update directives on nothing installed become installs
//    (see EmptyUpdateBecomesInstall)
//
// q is left untouched.
func (q *Queue) Prepare(mode ActionKind, catalog *Catalog) (*Queue, error) {
	if catalog == nil {
		return nil, errors.Wrap(ErrInvalidParameter, "nil catalog")
	}
	switch mode {
	case ActionInstall, ActionErase, ActionUpdate, ActionDistUpgrade, ActionVerify:
	default:
		return nil, errors.Wrapf(ErrInvalidParameter, "%s is not a main mode", mode)
	}

	out := &Queue{directives: q.Directives()}
	if out.IsEmpty() && (mode == ActionUpdate || mode == ActionDistUpgrade || mode == ActionVerify) {
		out.PushAll(mode)
	}
	for i, d := range out.directives {
		if d.Action == ActionNone {
			d = d.WithAction(mode)
		}
		out.directives[i] = EmptyUpdateBecomesInstall(d, catalog)
	}
	return out, nil
}

// EmptyUpdateBecomesInstall turns an update directive into an install when
// none of its targets is installed, shares a name with an installed package
// or obsoletes one. Other directives are returned as they are.
func EmptyUpdateBecomesInstall(d Directive, catalog *Catalog) Directive {
	if d.Action != ActionUpdate || d.All || !isEmptyUpdate(d.Targets, catalog) {
		return d
	}
	return d.WithAction(ActionInstall)
}

func isEmptyUpdate(targets CandidateSet, catalog *Catalog) bool {
	installed := catalog.InstalledSet()
	for _, id := range targets {
		p := catalog.Pkg(id)
		if p == nil {
			continue
		}
		if p.IsInstalled() {
			return false
		}
		if !catalog.NameSet(p.Name).Intersect(installed).IsEmpty() {
			return false
		}
		for _, obs := range p.Obsoletes {
			if !catalog.LookupObsoleted(obs).Intersect(installed).IsEmpty() {
				return false
			}
		}
	}
	return true
}
