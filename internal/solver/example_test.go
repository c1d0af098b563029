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
	"bytes"
	"fmt"

	"github.com/Masterminds/log-go"
	logcli "github.com/Masterminds/log-go/impl/cli"

	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
)

func ExampleEngine_Solve() {

	// create our own Logger that satisfies impl/cli.Logger, but with a buffer for tests
	buf := new(bytes.Buffer)
	logger := logcli.NewStandard()
	logger.InfoOut = buf
	logger.WarnOut = buf
	logger.ErrorOut = buf
	logger.DebugOut = buf
	log.Current = logger
	// logger.Level = log.DebugLevel

	// Fill the catalog with mock packages, the installed ones first:
	c := NewCatalog(logger)
	_ = c.Load(&Repository{Name: pkg.SystemRepo, Pkgs: []*pkg.Pkg{
		pkg.NewPkgMock("installedfoo", "1.0.0-1", pkg.ArchNoarch, "", nil, nil, nil, nil),
	}})
	_ = c.Load(&Repository{Name: "base", Pkgs: []*pkg.Pkg{
		pkg.NewPkgMock("notinstalledbar", "1.0.0-1", pkg.ArchNoarch, "", nil, nil, nil, nil),
		pkg.NewPkgMock("notinstalledbar", "2.0.0-1", pkg.ArchNoarch, "", nil, nil, nil, nil),
		pkg.NewPkgMock("myawesomedep", "0.1.100-1", pkg.ArchNoarch, "", nil, nil, nil, nil),
		// package to install, and its dependency relations:
		pkg.NewPkgMock("wantedbaz", "1.0.0-1", pkg.ArchNoarch, "",
			[]string{"myawesomedep >= 0.1"}, nil, nil, nil),
	}})
	c.DebugPrintDB(logger)

	// Select what to install and queue it:
	targets, _, _ := NewSelector(c).Resolve("wantedbaz", Filters{})
	q := NewQueue()
	q.Push(ActionInstall, targets)

	// Call the solver
	e, _ := NewEngine(c, DefaultPolicy(ActionInstall), logger)
	set, err := e.Solve(q)
	tr, err := buildIfSolved(set, err)

	out, _ := NewResult(set, tr, err).FormatOutput(YAML)
	fmt.Println(out)

	// Output:
	// status: solved
	// steps:
	// - action: install
	//   package: myawesomedep-0.1.100-1.noarch
	//   repository: base
	// - action: install
	//   package: wantedbaz-1.0.0-1.noarch
	//   repository: base
	// attempts: 1
}

func buildIfSolved(set *SolutionSet, err error) (*Transaction, error) {
	if err != nil {
		return nil, err
	}
	return Build(set)
}
