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

/*Package search finds packages by name, summary or description, in the
installed state and the enabled repositories, and prints them.
*/
package search

import (
	"fmt"
	"io"

	"github.com/Masterminds/log-go"
	"github.com/Masterminds/semver/v3"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"helm.sh/helm/v3/pkg/cli/output"

	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
	"github.com/rancher-sandbox/pkgsolve/pkg/action"
)

// Options is the struct used to search, and stores the different options to
// filter and configure the output
type Options struct {
	// Versions lists every version of a package instead of the newest one.
	Versions bool
	// Version is a semver constraint on the package version, such as
	// ">= 5.1". Packages whose version is not semver never match it.
	Version string
	// Archs restricts the search to these architectures.
	Archs        []string
	MaxColWidth  uint
	OutputFormat output.Format
}

// Search returns the binary packages whose name, summary or description
// contains one of terms, ignoring case. Without terms, every binary package
// matches.
func (o *Options) Search(cfg *action.Configuration, terms []string) ([]*pkg.Pkg, error) {
	q, err := cfg.NewQuery()
	if err != nil {
		return nil, err
	}
	q.AddKindFilter(pkg.KindPackage)
	if len(o.Archs) > 0 {
		q.AddArchFilter(o.Archs...)
	}
	if len(terms) == 0 {
		err = q.ApplyListQuery()
	} else {
		err = q.ApplySearch(terms...)
	}
	if err != nil {
		return nil, err
	}

	res := q.Pkgs()
	action.SortPkgs(res)
	return o.applyConstraint(res, cfg.Log)
}

// Run searches and prints the found packages to out.
func (o *Options) Run(cfg *action.Configuration, out io.Writer, terms []string) error {
	res, err := o.Search(cfg, terms)
	if err != nil {
		return err
	}
	return o.OutputFormat.Write(out, &searchWriter{res, o.MaxColWidth})
}

// applyConstraint filters res on the version constraint, and keeps only the
// newest package of each name unless every version is wanted. res is sorted
// newest first.
func (o *Options) applyConstraint(res []*pkg.Pkg, logger log.Logger) ([]*pkg.Pkg, error) {
	var constraint *semver.Constraints
	if o.Version != "" {
		var err error
		constraint, err = semver.NewConstraint(o.Version)
		if err != nil {
			return res, errors.Wrap(err, "an invalid version/constraint format")
		}
	}

	data := res[:0]
	foundNames := map[string]bool{}
	for _, p := range res {
		// if not returning all versions and already have found a result,
		// you're done!
		if !o.Versions && foundNames[p.Name] {
			continue
		}
		if constraint != nil {
			v, err := semver.NewVersion(p.Version)
			if err != nil {
				logger.Debugf("skipping %s: %s", p, err)
				continue
			}
			if !constraint.Check(v) {
				continue
			}
		}
		data = append(data, p)
		foundNames[p.Name] = true
	}
	return data, nil
}

// searchElement is used to store the final package values that will get printed
type searchElement struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Arch       string `json:"arch"`
	Repository string `json:"repository"`
	Summary    string `json:"summary"`
}

// searchWriter is used to store and print the search results
type searchWriter struct {
	results     []*pkg.Pkg
	columnWidth uint
}

// WriteTable writes the results as a table
func (r *searchWriter) WriteTable(out io.Writer) error {
	if len(r.results) == 0 {
		_, err := out.Write([]byte("No results found\n"))
		if err != nil {
			return fmt.Errorf("unable to write results: %s", err)
		}
		return nil
	}
	table := uitable.New()
	table.MaxColWidth = r.columnWidth
	table.AddRow("NAME", "VERSION", "ARCH", "REPOSITORY", "SUMMARY")
	for _, p := range r.results {
		table.AddRow(p.Name, p.EVR().String(), p.Arch, p.Repository, p.Summary)
	}
	return output.EncodeTable(out, table)
}

// WriteJSON prints the results as a json
func (r *searchWriter) WriteJSON(out io.Writer) error {
	return r.encodeByFormat(out, output.JSON)
}

// WriteYAML prints the results as a yaml
func (r *searchWriter) WriteYAML(out io.Writer) error {
	return r.encodeByFormat(out, output.YAML)
}

// encodeByFormat creates the final list that will get formatted into the final results
func (r *searchWriter) encodeByFormat(out io.Writer, format output.Format) error {
	// Initialize the array so no results returns an empty array instead of null
	list := make([]searchElement, 0, len(r.results))

	for _, p := range r.results {
		list = append(list, searchElement{p.Name, p.EVR().String(), p.Arch, p.Repository, p.Summary})
	}

	switch format {
	case output.JSON:
		return output.EncodeJSON(out, list)
	case output.YAML:
		return output.EncodeYAML(out, list)
	}

	// Because this is a non-exported function and only called internally by
	// WriteJSON and WriteYAML, we shouldn't get invalid types
	return nil
}
