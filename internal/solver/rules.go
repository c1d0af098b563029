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
	sat "github.com/crillab/gophersat/solver"

	"github.com/rancher-sandbox/pkgsolve/internal/evr"
	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
)

const (
	// impossibleVar is always false. Clauses on it alone are unsatisfiable.
	impossibleVar = "$false"

	// weight of installing a package that is not needed, on top of its rank
	installWeight = 10
	// weight of replacing an installed package nobody asked to touch
	keepExactWeight = 1000
	// weight of erasing an installed package when uninstalling is allowed
	keepSoftWeight = 1000000
)

// RuleKind classifies the rules the solver may relax to get out of a
// conflict.
type RuleKind int

const (
	// RuleJob is a job directive.
	RuleJob RuleKind = iota
	// RuleBest restricts a ForceBest directive to its best candidates.
	RuleBest
	// RuleKeep keeps an installed package, or something replacing it.
	RuleKeep
	// RuleNoDowngrade forbids older versions of an installed package.
	RuleNoDowngrade
)

func (k RuleKind) String() string {
	switch k {
	case RuleJob:
		return "job"
	case RuleBest:
		return "best"
	case RuleKeep:
		return "keep"
	case RuleNoDowngrade:
		return "nodowngrade"
	}
	return "unknown"
}

// ruleKey identifies a rule: id is the directive index for job and best
// rules, and the installed package ID otherwise.
type ruleKey struct {
	kind RuleKind
	id   int
}

type rule struct {
	key     ruleKey
	desc    string
	constrs []maxsat.Constr
}

// reason is a group of hard constraints coming from one package relation.
type reason struct {
	desc    string
	constrs []maxsat.Constr
}

// world holds the constraints of one solve: the packages reachable from the
// installed system and the directives, encoded for the maxsat solver.
type world struct {
	catalog    *Catalog
	policy     Policy
	directives []Directive

	installed  CandidateSet
	units      CandidateSet
	obsoleters map[int]CandidateSet

	// slots of installed packages touched by update or distupgrade
	targetSlots map[string]ActionKind
	erased      map[int]bool
	dropped     map[int]bool
	explicit    map[int]bool
	userInst    map[int]bool
	downgrades  map[int]bool

	usesImpossible bool
	reasons        []reason
	rules          []*rule
	soft           []maxsat.Constr

	// closed when the engine runs out of time
	stop chan struct{}
}

func newWorld(catalog *Catalog, directives []Directive, policy Policy) *world {
	w := &world{
		catalog:     catalog,
		policy:      policy,
		directives:  directives,
		installed:   catalog.InstalledSet(),
		targetSlots: map[string]ActionKind{},
		erased:      map[int]bool{},
		dropped:     map[int]bool{},
		explicit:    map[int]bool{},
		userInst:    map[int]bool{},
		downgrades:  map[int]bool{},
	}
	w.obsoleters = w.findObsoleters()
	w.markTargets()
	w.units = w.reach()
	w.buildRelations()
	w.buildRules()
	w.buildSoft()
	if w.usesImpossible {
		w.reasons = append(w.reasons, reason{constrs: []maxsat.Constr{maxsat.HardClause(maxsat.Not(impossibleVar))}})
	}
	return w
}

func (w *world) pkg(id int) *pkg.Pkg {
	return w.catalog.Pkg(id)
}

func (w *world) varOf(id int) string {
	return w.pkg(id).GetFingerPrint()
}

func (w *world) slotOf(id int) string {
	return w.pkg(id).GetBaseFingerPrint()
}

func (w *world) lits(ids CandidateSet, negated bool) []maxsat.Lit {
	lits := make([]maxsat.Lit, 0, len(ids))
	for _, id := range ids {
		lits = append(lits, maxsat.Lit{Var: w.varOf(id), Negated: negated})
	}
	return lits
}

// atLeastOne returns the clause "one of ids is installed".
func (w *world) atLeastOne(ids CandidateSet) maxsat.Constr {
	if ids.IsEmpty() {
		w.usesImpossible = true
		return maxsat.HardClause(maxsat.Var(impossibleVar))
	}
	return maxsat.HardClause(w.lits(ids, false)...)
}

func (w *world) forbid(ids CandidateSet) []maxsat.Constr {
	constrs := []maxsat.Constr{}
	for _, id := range ids {
		constrs = append(constrs, maxsat.HardClause(maxsat.Not(w.varOf(id))))
	}
	return constrs
}

// erasable returns targets plus the other builds of the slots of the
// installed ones, so that an erased package is not replaced by another
// version of itself.
func (w *world) erasable(targets CandidateSet) CandidateSet {
	out := targets
	for _, t := range targets.Intersect(w.installed) {
		out = out.Union(w.catalog.Slot(t).Intersect(w.units))
	}
	return out
}

func (w *world) names(ids CandidateSet) string {
	const shown = 3
	names := []string{}
	for i, id := range ids {
		if i == shown {
			names = append(names, fmt.Sprintf("and %d more", len(ids)-shown))
			break
		}
		names = append(names, w.pkg(id).String())
	}
	return strings.Join(names, ", ")
}

func isRpmlib(c *pkg.Capability) bool {
	return strings.HasPrefix(c.Name, "rpmlib(")
}

// findObsoleters maps every installed package to the packages, with a
// different name, that obsolete it.
func (w *world) findObsoleters() map[int]CandidateSet {
	res := map[int]CandidateSet{}
	for _, id := range w.catalog.All() {
		p := w.pkg(id)
		for _, o := range p.Obsoletes {
			for _, i := range w.catalog.LookupObsoleted(o).Intersect(w.installed) {
				if w.pkg(i).Name == p.Name {
					continue
				}
				res[i] = res[i].Union(CandidateSet{id})
			}
		}
	}
	return res
}

// targetsOf returns the packages a directive applies to.
func (w *world) targetsOf(d Directive) CandidateSet {
	if d.All {
		return w.installed
	}
	return d.Targets
}

// touchedSlots returns, for each installed slot a directive touches, the
// installed package of that slot.
func (w *world) touchedSlots(d Directive) map[string]int {
	res := map[string]int{}
	targets := w.targetsOf(d)
	for _, i := range w.installed {
		slotTargets := w.catalog.Slot(i).Intersect(targets)
		if !slotTargets.IsEmpty() || !w.obsoleters[i].Intersect(targets).IsEmpty() {
			res[w.slotOf(i)] = i
		}
	}
	return res
}

func (w *world) markTargets() {
	for _, d := range w.directives {
		targets := w.targetsOf(d)
		switch d.Action {
		case ActionInstall:
			for _, t := range targets {
				w.userInst[t] = true
				if !d.All {
					w.explicit[t] = true
				}
				if d.Has(Downgrade) {
					w.downgrades[t] = true
				}
			}
		case ActionErase:
			for _, t := range targets.Intersect(w.installed) {
				w.erased[t] = true
				w.explicit[t] = true
			}
		case ActionUpdate, ActionDistUpgrade:
			for slot := range w.touchedSlots(d) {
				if w.targetSlots[slot] != ActionDistUpgrade {
					w.targetSlots[slot] = d.Action
				}
			}
			if !d.All {
				for _, t := range targets {
					w.explicit[t] = true
				}
			}
		case ActionUserInstalled:
			for _, t := range targets {
				w.userInst[t] = true
			}
		}
	}
}

// reach returns the packages the solver has to consider: the installed ones,
// the targets, every version of the slots being updated, and everything
// providing a requirement of those, transitively.
func (w *world) reach() CandidateSet {
	queue := w.installed.IDs()
	for _, d := range w.directives {
		queue = append(queue, w.targetsOf(d)...)
	}
	for _, i := range w.installed {
		if _, ok := w.targetSlots[w.slotOf(i)]; ok {
			queue = append(queue, w.catalog.Slot(i)...)
			queue = append(queue, w.obsoleters[i]...)
		}
	}

	seen := map[int]bool{}
	for len(queue) > 0 {
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if seen[id] || w.pkg(id) == nil {
			continue
		}
		seen[id] = true
		for _, r := range w.pkg(id).Requires {
			if isRpmlib(r) {
				continue
			}
			for _, q := range w.catalog.LookupByCapability(r) {
				if !seen[q] {
					queue = append(queue, q)
				}
			}
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return NewCandidateSet(ids...)
}

// buildRelations encodes requires, conflicts, obsoletes and the one package
// per slot limit as hard constraints.
func (w *world) buildRelations() {
	slots := map[string]CandidateSet{}
	for _, id := range w.units {
		p := w.pkg(id)
		slots[p.GetBaseFingerPrint()] = append(slots[p.GetBaseFingerPrint()], id)

		// A requires B: not(A) or B1 or ... or Bn
		for _, r := range p.Requires {
			if isRpmlib(r) {
				continue
			}
			providers := w.catalog.LookupByCapability(r).Intersect(w.units)
			if providers.Contains(id) {
				continue
			}
			lits := append([]maxsat.Lit{maxsat.Not(w.varOf(id))}, w.lits(providers, false)...)
			desc := fmt.Sprintf("nothing provides %s needed by %s", r, p)
			if !providers.IsEmpty() {
				desc = fmt.Sprintf("%s requires %s, provided by %s", p, r, w.names(providers))
			}
			w.reasons = append(w.reasons, reason{desc: desc, constrs: []maxsat.Constr{maxsat.HardClause(lits...)}})
		}

		// A conflicts with B: not(A) or not(B)
		for _, c := range p.Conflicts {
			for _, q := range w.catalog.LookupByCapability(c).Intersect(w.units) {
				if q == id {
					continue
				}
				w.reasons = append(w.reasons, reason{
					desc:    fmt.Sprintf("%s conflicts with %s provided by %s", p, c, w.pkg(q)),
					constrs: []maxsat.Constr{maxsat.HardClause(maxsat.Not(w.varOf(id)), maxsat.Not(w.varOf(q)))},
				})
			}
		}

		// A obsoletes B: not(A) or not(B), unless they share a name
		for _, o := range p.Obsoletes {
			for _, q := range w.catalog.LookupObsoleted(o).Intersect(w.units) {
				if w.pkg(q).Name == p.Name {
					continue
				}
				w.reasons = append(w.reasons, reason{
					desc:    fmt.Sprintf("%s obsoletes %s provided by %s", p, o, w.pkg(q)),
					constrs: []maxsat.Constr{maxsat.HardClause(maxsat.Not(w.varOf(id)), maxsat.Not(w.varOf(q)))},
				})
			}
		}
	}

	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ids := slots[k]
		if len(ids) < 2 {
			continue
		}
		// at most 1 of the slot: not(A) + not(B) + ... + not(C) >= n-1
		coeffs := make([]int, len(ids))
		for i := range coeffs {
			coeffs[i] = 1
		}
		w.reasons = append(w.reasons, reason{
			desc:    fmt.Sprintf("only one of %s can be installed", w.names(ids)),
			constrs: []maxsat.Constr{maxsat.HardPBConstr(w.lits(ids, true), coeffs, len(ids)-1)},
		})
	}
}

// best returns the packages of ids with the highest version among ids. With
// BestObeyPolicy each slot has its own best, otherwise the best is picked by
// name regardless of the architecture.
func (w *world) best(ids CandidateSet) CandidateSet {
	key := func(p *pkg.Pkg) string {
		if w.policy.BestObeyPolicy {
			return p.GetBaseFingerPrint()
		}
		return p.Name
	}
	top := map[string]evr.EVR{}
	for _, id := range ids {
		p := w.pkg(id)
		if cur, ok := top[key(p)]; !ok || evr.Compare(p.EVR(), cur) > 0 {
			top[key(p)] = p.EVR()
		}
	}
	return ids.Filter(func(id int) bool {
		p := w.pkg(id)
		return evr.Compare(p.EVR(), top[key(p)]) == 0
	})
}

func (w *world) describe(d Directive) string {
	what := d.Query
	switch {
	case d.All:
		what = "all packages"
	case what == "":
		what = w.names(d.Targets)
	}
	return fmt.Sprintf("%s %s", d.Action, what)
}

func (w *world) buildRules() {
	for j, d := range w.directives {
		var job, best []maxsat.Constr
		targets := w.targetsOf(d)

		switch d.Action {
		case ActionInstall:
			if d.All {
				break
			}
			job = append(job, w.atLeastOne(targets))
			if d.Has(ForceBest) && !targets.IsEmpty() {
				if b := w.best(targets); b.Len() < targets.Len() {
					best = append(best, w.atLeastOne(b))
				}
			}
		case ActionErase:
			job = append(job, w.forbid(w.erasable(targets))...)
		case ActionUpdate:
			for _, i := range sortedSlots(w.touchedSlots(d)) {
				slotJob, slotBest := w.updateSlot(d, i)
				job = append(job, slotJob...)
				best = append(best, slotBest...)
			}
		case ActionDistUpgrade:
			for _, i := range sortedSlots(w.touchedSlots(d)) {
				slotJob, slotBest := w.distUpgradeSlot(d, i)
				job = append(job, slotJob...)
				best = append(best, slotBest...)
			}
		case ActionVerify:
			for _, t := range targets.Intersect(w.installed) {
				job = append(job, maxsat.HardClause(maxsat.Var(w.varOf(t))))
			}
		}

		if len(job) > 0 {
			w.rules = append(w.rules, &rule{key: ruleKey{RuleJob, j}, desc: w.describe(d), constrs: job})
		}
		if len(best) > 0 {
			w.rules = append(w.rules, &rule{
				key:     ruleKey{RuleBest, j},
				desc:    fmt.Sprintf("best candidates only for %s", w.describe(d)),
				constrs: best,
			})
		}
	}

	for _, i := range w.installed {
		if w.erased[i] || w.dropped[i] {
			continue
		}
		p := w.pkg(i)
		if w.policy.AllowUninstall {
			w.soft = append(w.soft, maxsat.WeightedClause([]maxsat.Lit{maxsat.Var(w.varOf(i))}, keepSoftWeight))
		} else {
			alternatives := w.catalog.Slot(i).Union(w.obsoleters[i]).Intersect(w.units)
			w.rules = append(w.rules, &rule{
				key:     ruleKey{RuleKeep, i},
				desc:    fmt.Sprintf("keep installed %s", p),
				constrs: []maxsat.Constr{w.atLeastOne(alternatives)},
			})
		}

		if w.policy.AllowDowngrade || w.targetSlots[p.GetBaseFingerPrint()] == ActionDistUpgrade {
			continue
		}
		older := w.catalog.Slot(i).Intersect(w.units).Filter(func(q int) bool {
			return !w.downgrades[q] && evr.Compare(w.pkg(q).EVR(), p.EVR()) < 0
		})
		if !older.IsEmpty() {
			w.rules = append(w.rules, &rule{
				key:     ruleKey{RuleNoDowngrade, i},
				desc:    fmt.Sprintf("do not downgrade %s", p),
				constrs: w.forbid(older),
			})
		}
	}
}

func sortedSlots(slots map[string]int) []int {
	ids := make([]int, 0, len(slots))
	for _, i := range slots {
		ids = append(ids, i)
	}
	sort.Ints(ids)
	return ids
}

// updateSlot encodes the update of installed package i: keep it or pick one
// of the candidates of the directive.
func (w *world) updateSlot(d Directive, i int) (job, best []maxsat.Constr) {
	p := w.pkg(i)
	slot := w.catalog.Slot(i).Intersect(w.units)
	obsoleters := w.obsoleters[i].Intersect(w.units)

	candidates := slot.Union(obsoleters)
	if !d.All {
		candidates = candidates.Intersect(d.Targets)
	}
	candidates = candidates.Union(CandidateSet{i})
	if d.Has(SetVendor) {
		candidates = candidates.Filter(func(q int) bool { return w.pkg(q).Vendor == p.Vendor })
	}

	job = append(job, w.atLeastOne(candidates))
	if d.Has(SetRepo) || d.Has(SetVendor) {
		job = append(job, w.forbid(slot.Difference(candidates))...)
	}
	if d.Has(ForceBest) {
		if b := w.best(candidates); b.Len() < candidates.Len() {
			best = append(best, w.atLeastOne(b))
		}
	}
	return job, best
}

// distUpgradeSlot encodes the synchronization of installed package i with
// the available repositories: the installed version only stays if it is
// still available, and downgrades are allowed.
func (w *world) distUpgradeSlot(d Directive, i int) (job, best []maxsat.Constr) {
	p := w.pkg(i)
	slot := w.catalog.Slot(i).Intersect(w.units)
	available := slot.Union(w.obsoleters[i].Intersect(w.units)).Difference(w.installed)
	if !d.All {
		available = available.Intersect(d.Targets)
	}
	if d.Has(SetVendor) {
		available = available.Filter(func(q int) bool { return w.pkg(q).Vendor == p.Vendor })
	}

	if available.IsEmpty() {
		if w.policy.KeepOrphans {
			return nil, nil
		}
		w.dropped[i] = true
		return w.forbid(CandidateSet{i}), nil
	}

	allowed := available
	for _, q := range available {
		if w.pkg(q).Name == p.Name && evr.Compare(w.pkg(q).EVR(), p.EVR()) == 0 {
			allowed = allowed.Union(CandidateSet{i})
			break
		}
	}
	job = append(job, w.atLeastOne(allowed))
	job = append(job, w.forbid(slot.Difference(allowed))...)
	if d.Has(ForceBest) {
		if b := w.best(allowed); b.Len() < allowed.Len() {
			best = append(best, w.atLeastOne(b))
		}
	}
	return job, best
}

// ranks returns, for each package, the number of distinct versions above its
// own in its slot.
func (w *world) ranks() map[int]int {
	slots := map[string][]evr.EVR{}
	for _, id := range w.units {
		p := w.pkg(id)
		slots[p.GetBaseFingerPrint()] = append(slots[p.GetBaseFingerPrint()], p.EVR())
	}
	res := map[int]int{}
	for _, id := range w.units {
		p := w.pkg(id)
		seen := map[string]bool{}
		for _, e := range slots[p.GetBaseFingerPrint()] {
			if evr.Compare(e, p.EVR()) > 0 && !seen[e.String()] {
				seen[e.String()] = true
				res[id]++
			}
		}
	}
	return res
}

// demoted returns the available packages that a repository of better
// priority, that is a lower Priority value, carries in the same version.
func (w *world) demoted() map[int]bool {
	res := map[int]bool{}
	for _, id := range w.units {
		p := w.pkg(id)
		if p.IsInstalled() {
			continue
		}
		prio := w.catalog.Repo(p.Repository).Priority
		for _, o := range w.catalog.Slot(id).Intersect(w.units) {
			q := w.pkg(o)
			if o == id || q.IsInstalled() || evr.Compare(q.EVR(), p.EVR()) != 0 {
				continue
			}
			if w.catalog.Repo(q.Repository).Priority < prio {
				res[id] = true
				break
			}
		}
	}
	return res
}

// buildSoft adds the preferences: install as little as possible, prefer
// higher versions, leave untouched installed packages alone.
func (w *world) buildSoft() {
	ranks := w.ranks()
	demoted := w.demoted()
	for _, id := range w.units {
		p := w.pkg(id)
		v := w.varOf(id)
		switch {
		case !p.IsInstalled():
			weight := installWeight + 2*ranks[id] + 1
			if demoted[id] {
				weight++
			}
			w.soft = append(w.soft, maxsat.WeightedClause([]maxsat.Lit{maxsat.Not(v)}, weight))
		case w.erased[id] || w.dropped[id]:
		case w.targetSlots[p.GetBaseFingerPrint()] != ActionNone:
			// whatever obsoletes it counts as a newer version
			rank := ranks[id] + w.obsoleters[id].Intersect(w.units).Len()
			w.soft = append(w.soft, maxsat.WeightedClause([]maxsat.Lit{maxsat.Not(v)}, installWeight+2*rank))
		case !w.policy.AllowUninstall:
			w.soft = append(w.soft, maxsat.WeightedClause([]maxsat.Lit{maxsat.Var(v)}, keepExactWeight))
		}
	}
}

func (w *world) hard() []maxsat.Constr {
	constrs := []maxsat.Constr{}
	for _, r := range w.reasons {
		constrs = append(constrs, r.constrs...)
	}
	return constrs
}

func (w *world) activeRules(disabled map[ruleKey]bool) []*rule {
	res := []*rule{}
	for _, r := range w.rules {
		if !disabled[r.key] {
			res = append(res, r)
		}
	}
	return res
}

func rulesConstrs(rules []*rule) []maxsat.Constr {
	constrs := []maxsat.Constr{}
	for _, r := range rules {
		constrs = append(constrs, r.constrs...)
	}
	return constrs
}

// solve returns the optimal model under the enabled rules, or nil when they
// cannot be satisfied together.
func (w *world) solve(disabled map[ruleKey]bool) (maxsat.Model, error) {
	constrs := w.hard()
	constrs = append(constrs, rulesConstrs(w.activeRules(disabled))...)
	constrs = append(constrs, w.soft...)
	if len(constrs) == 0 {
		return maxsat.Model{}, nil
	}
	return optimal(constrs, w.stop)
}

func (w *world) satisfiable(constrs []maxsat.Constr) (bool, error) {
	if len(constrs) == 0 {
		return true, nil
	}
	model, err := optimal(constrs, w.stop)
	return model != nil, err
}

func stopped(stop chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

// optimal solves constrs, giving up with errStopped once stop is closed. A
// nil model means the hard constraints cannot hold.
func optimal(constrs []maxsat.Constr, stop chan struct{}) (maxsat.Model, error) {
	if stopped(stop) {
		return nil, errStopped
	}
	res := maxsat.New(constrs...).Solver().Optimal(nil, stop)
	if stopped(stop) {
		return nil, errStopped
	}
	if res.Status != sat.Sat {
		return nil, nil
	}
	// same numbering as maxsat.New: variables by first appearance, each soft
	// constraint followed by its blocking literal
	model := maxsat.Model{}
	i := 0
	for _, c := range constrs {
		for _, l := range c.Lits {
			if _, ok := model[l.Var]; ok {
				continue
			}
			model[l.Var] = i < len(res.Model) && res.Model[i]
			i++
		}
		if c.Weight != 0 {
			i++
		}
	}
	return model, nil
}

// shrink returns a minimal subset of 0..n-1 for which unsat still holds,
// removing chunks of decreasing size first. unsat(0..n-1) must be true. The
// first error of unsat stops the search.
func shrink(n int, unsat func(keep []int) (bool, error)) ([]int, error) {
	core := make([]int, n)
	for i := range core {
		core[i] = i
	}
	chunk := len(core) / 2
	if chunk < 1 {
		chunk = 1
	}
	for {
		for i := 0; i < len(core); {
			end := i + chunk
			if end > len(core) {
				end = len(core)
			}
			trial := append(append([]int{}, core[:i]...), core[end:]...)
			ok, err := unsat(trial)
			if err != nil {
				return nil, err
			}
			if ok {
				core = trial
			} else {
				i = end
			}
		}
		if chunk == 1 {
			return core, nil
		}
		chunk /= 2
	}
}
