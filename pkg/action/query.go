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
	"strings"
	"time"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/pkgsolve/internal/metrics"
	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
	"github.com/rancher-sandbox/pkgsolve/internal/solver"
)

// SolveOptions tune the solver for ApplyAlterQuery.
type SolveOptions struct {
	// Best adds ForceBest to every job.
	Best bool
	// AllowErasing lets installed packages go without asking.
	AllowErasing bool
	// AllowDowngrade lets installed packages be replaced by older ones.
	AllowDowngrade bool
	// EraseOrphans erases, during a distro-sync, the installed packages no
	// repository carries anymore.
	EraseOrphans bool
	MaxAttempts  int
	Timeout      time.Duration
}

// Query turns package names and filters into solver jobs and runs them. It
// holds the outcome of the last Apply call.
type Query struct {
	catalog  *solver.Catalog
	selector *solver.Selector
	logger   log.Logger

	names     []string
	filters   solver.Filters
	repoMods  []solver.Modifier
	jobs      *solver.Queue
	notes     []string
	notFound  []string
	generated bool

	Options SolveOptions
	Chooser solver.Chooser
	Metrics *metrics.Recorder

	// Result holds the packages found by ApplyListQuery and ApplySearch.
	Result solver.CandidateSet
	// Solution and Transaction hold the outcome of ApplyAlterQuery.
	Solution    *solver.SolutionSet
	Transaction *solver.Transaction
}

// NewQuery returns an empty query over catalog.
func NewQuery(catalog *solver.Catalog, logger log.Logger) (*Query, error) {
	if catalog == nil {
		return nil, errors.Wrap(solver.ErrInvalidParameter, "nil catalog")
	}
	if logger == nil {
		logger = log.Current
	}
	return &Query{
		catalog:  catalog,
		selector: solver.NewSelector(catalog),
		logger:   logger,
		jobs:     solver.NewQueue(),
		Result:   solver.CandidateSet{},
	}, nil
}

// ApplySinglePackageFilter restricts the query to one package name.
func (q *Query) ApplySinglePackageFilter(name string) error {
	if name == "" {
		return errors.Wrap(solver.ErrInvalidParameter, "empty package name")
	}
	q.names = []string{name}
	return nil
}

// ApplyPackageFilter restricts the query to names.
func (q *Query) ApplyPackageFilter(names []string) error {
	if names == nil {
		return errors.Wrap(solver.ErrInvalidParameter, "nil package names")
	}
	q.names = append([]string{}, names...)
	return nil
}

func (q *Query) addRepoMods(mods ...solver.Modifier) {
	for _, m := range mods {
		found := false
		for _, have := range q.repoMods {
			found = found || have == m
		}
		if !found {
			q.repoMods = append(q.repoMods, m)
		}
	}
}

// AddSystemRepoFilter restricts the query to installed packages. Jobs stay
// within the repository of their targets.
func (q *Query) AddSystemRepoFilter() {
	q.filters.Repos = append(q.filters.Repos, q.catalog.InstalledSet())
	q.addRepoMods(solver.SetRepo)
}

// AddAvailableRepoFilter restricts the query to the packages of every
// repository but the installed one. Jobs stay within the repositories and
// vendors of their targets.
func (q *Query) AddAvailableRepoFilter() {
	for _, r := range q.catalog.Repos() {
		if !r.IsSystem() {
			q.filters.Repos = append(q.filters.Repos, q.catalog.RepoSet(r.Name))
		}
	}
	q.addRepoMods(solver.SetRepo, solver.SetVendor)
}

// AddArchFilter restricts the query to archs.
func (q *Query) AddArchFilter(archs ...string) {
	for _, a := range archs {
		q.filters.Archs = append(q.filters.Archs, q.catalog.ArchSet(a))
	}
}

// AddKindFilter restricts the query to package kinds.
func (q *Query) AddKindFilter(kinds ...string) {
	for _, k := range kinds {
		q.filters.Kinds = append(q.filters.Kinds, q.catalog.KindSet(k))
	}
}

// AddUpgradeAllJob queues an update of the whole system.
func (q *Query) AddUpgradeAllJob() {
	q.jobs.PushAll(solver.ActionUpdate)
}

// AddDistUpgradeJob queues a distupgrade of the whole system.
func (q *Query) AddDistUpgradeJob() {
	q.jobs.PushAll(solver.ActionDistUpgrade)
}

// AddPkgInstallJob queues the install of package id.
func (q *Query) AddPkgInstallJob(id int) {
	q.jobs.Push(solver.ActionInstall, solver.NewCandidateSet(id))
}

// AddPkgDowngradeJob queues the install of package id, even if it is older
// than the installed one.
func (q *Query) AddPkgDowngradeJob(id int) {
	q.jobs.PushDirective(solver.Directive{
		Action:    solver.ActionInstall,
		Modifiers: []solver.Modifier{solver.Downgrade},
		Targets:   solver.NewCandidateSet(id),
	})
}

// AddPkgEraseJob queues the erase of package id.
func (q *Query) AddPkgEraseJob(id int) {
	q.jobs.Push(solver.ActionErase, solver.NewCandidateSet(id))
}

// AddPkgUserInstalledJob marks package id as installed on purpose.
func (q *Query) AddPkgUserInstalledJob(id int) {
	q.jobs.Push(solver.ActionUserInstalled, solver.NewCandidateSet(id))
}

// AddFlagsToJobs adds mods to every queued job.
func (q *Query) AddFlagsToJobs(mods ...solver.Modifier) {
	q.jobs.ApplyGlobalFlags(mods...)
}

// Jobs returns the queued jobs.
func (q *Query) Jobs() []solver.Directive {
	return q.jobs.Directives()
}

// Notes returns the notes about how the names were matched, such as
// "[ignoring case for 'foo']".
func (q *Query) Notes() []string {
	return q.notes
}

// NotFound returns the names that matched nothing.
func (q *Query) NotFound() []string {
	return q.notFound
}

// GenerateCommonJob turns every name into a job on what it matches once
// filtered. Without names, but with filters, the job is on everything the
// filters let through. The Apply methods call it unless it already ran.
func (q *Query) GenerateCommonJob() error {
	if q.generated {
		return nil
	}
	q.generated = true
	if len(q.names) > 0 {
		for _, name := range q.names {
			set, res, err := q.selector.Resolve(name, q.filters)
			if err != nil {
				return err
			}
			if set.IsEmpty() {
				q.notFound = append(q.notFound, name)
				continue
			}
			q.notes = append(q.notes, res.Notes()...)
			q.jobs.PushDirective(solver.Directive{
				Action:    solver.ActionNone,
				Modifiers: q.repoMods,
				Targets:   set,
				Query:     res.Query,
			})
		}
		return nil
	}
	if !q.filters.IsEmpty() {
		set := q.filters.Apply(q.catalog.All())
		if !set.IsEmpty() {
			q.jobs.PushDirective(solver.Directive{Action: solver.ActionNone, Modifiers: q.repoMods, Targets: set})
		}
	}
	return nil
}

// ApplyListQuery fills Result with the packages matching the names and
// filters. With neither, every package matches.
func (q *Query) ApplyListQuery() error {
	if err := q.GenerateCommonJob(); err != nil {
		return err
	}
	jobs := q.jobs.Directives()
	switch {
	case len(jobs) > 0:
		for _, d := range jobs {
			if d.All {
				q.Result = q.Result.Union(q.catalog.All())
				continue
			}
			q.Result = q.Result.Union(d.Targets)
		}
	case len(q.names) == 0 && q.filters.IsEmpty():
		q.Result = q.catalog.All()
	}
	return nil
}

func (q *Query) policy(mode solver.ActionKind) solver.Policy {
	p := solver.DefaultPolicy(mode)
	p.AllowUninstall = p.AllowUninstall || q.Options.AllowErasing
	p.AllowDowngrade = q.Options.AllowDowngrade
	p.KeepOrphans = !q.Options.EraseOrphans
	p.Timeout = q.Options.Timeout
	if q.Options.MaxAttempts > 0 {
		p.MaxAttempts = q.Options.MaxAttempts
	}
	return p
}

// ApplyAlterQuery solves the queued jobs plus those of the names and filters
// in mode, and builds the transaction. It returns the errors of
// solver.Engine.Solve and solver.Build, ErrEmptyTransaction included.
func (q *Query) ApplyAlterQuery(mode solver.ActionKind) error {
	if err := q.GenerateCommonJob(); err != nil {
		return err
	}
	if q.Options.Best {
		q.AddFlagsToJobs(solver.ForceBest)
	}

	engine, err := solver.NewEngine(q.catalog, q.policy(mode), q.logger)
	if err != nil {
		return err
	}
	engine.SetChooser(q.Chooser)

	start := time.Now()
	q.Solution, err = engine.Solve(q.jobs)
	if err == nil {
		q.Transaction, err = solver.Build(q.Solution)
	}
	q.record(engine, time.Since(start), err)
	return err
}

func (q *Query) record(engine *solver.Engine, took time.Duration, err error) {
	if q.Metrics == nil {
		return
	}
	status := solver.NewResult(q.Solution, q.Transaction, err).Status
	problems := len(engine.Problems())
	if q.Solution != nil {
		problems = len(q.Solution.Problems)
	}
	q.Metrics.ObserveSolve(status, engine.Attempts(), problems, took)
	if q.Transaction != nil {
		for _, s := range q.Transaction.Steps {
			q.Metrics.ObserveStep(s.Kind.String())
		}
	}
}

// ApplyDistroSyncQuery is ApplyAlterQuery in distupgrade mode.
func (q *Query) ApplyDistroSyncQuery() error {
	return q.ApplyAlterQuery(solver.ActionDistUpgrade)
}

// ApplySearch fills Result with the packages whose name, summary or
// description contains one of terms, ignoring case.
func (q *Query) ApplySearch(terms ...string) error {
	if len(terms) == 0 {
		return errors.Wrap(solver.ErrInvalidParameter, "no search terms")
	}
	all := q.filters.Apply(q.catalog.All())
	for _, term := range terms {
		term = strings.ToLower(term)
		q.Result = q.Result.Union(all.Filter(func(id int) bool {
			return matchesTerm(q.catalog.Pkg(id), term)
		}))
	}
	return nil
}

func matchesTerm(p *pkg.Pkg, term string) bool {
	for _, field := range []string{p.Name, p.Summary, p.Description} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Pkgs returns the packages of Result.
func (q *Query) Pkgs() []*pkg.Pkg {
	out := make([]*pkg.Pkg, 0, q.Result.Len())
	for _, id := range q.Result {
		out = append(out, q.catalog.Pkg(id))
	}
	return out
}
