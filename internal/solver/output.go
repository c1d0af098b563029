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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/docker/go-units"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type OutputMode int

const (
	JSON OutputMode = iota
	YAML
	Table
)

const (
	StatusSolved       = "solved"
	StatusNothingToDo  = "nothing to do"
	StatusUnresolvable = "unresolvable"
)

// MarshalText renders the kind by name in JSON and YAML.
func (k SolutionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ResultStep is the rendering of a transaction step.
type ResultStep struct {
	Action     string   `json:"action" yaml:"action"`
	Package    string   `json:"package" yaml:"package"`
	Repository string   `json:"repository" yaml:"repository"`
	Size       int64    `json:"size,omitempty" yaml:"size,omitempty"`
	Replaces   []string `json:"replaces,omitempty" yaml:"replaces,omitempty"`
}

// Result gathers the outcome of a solve for rendering.
// It will be marshalled into Yaml and Json.
type Result struct {
	Status   string       `json:"status" yaml:"status"`
	Steps    []ResultStep `json:"steps,omitempty" yaml:"steps,omitempty"`
	Problems []*Problem   `json:"problems,omitempty" yaml:"problems,omitempty"`
	Taken    []string     `json:"solutions_taken,omitempty" yaml:"solutions_taken,omitempty"`
	Attempts int          `json:"attempts" yaml:"attempts"`
}

// NewResult builds the result of a solve out of what Engine.Solve and Build
// returned.
func NewResult(set *SolutionSet, tr *Transaction, err error) *Result {
	r := &Result{Status: StatusSolved}
	var unresolvable *UnresolvableError
	switch {
	case errors.As(err, &unresolvable):
		r.Status = StatusUnresolvable
		r.Problems = unresolvable.Problems
		r.Attempts = unresolvable.Attempts
	case IsEmptyTransaction(err):
		r.Status = StatusNothingToDo
	case err != nil:
		r.Status = err.Error()
	}
	if set != nil {
		r.Attempts = set.Attempts
		for _, s := range set.Taken {
			r.Taken = append(r.Taken, s.Description)
		}
		if r.Problems == nil {
			r.Problems = set.Problems
		}
	}
	if tr != nil {
		for _, s := range tr.Steps {
			rs := ResultStep{
				Action:     s.Kind.String(),
				Package:    s.Pkg.NEVRA(),
				Repository: s.Pkg.Repository,
				Size:       s.Pkg.Size,
			}
			for _, p := range s.Replaces {
				rs.Replaces = append(rs.Replaces, p.NEVRA())
			}
			r.Steps = append(r.Steps, rs)
		}
	}
	return r
}

// FormatOutput renders the result.
func (r *Result) FormatOutput(t OutputMode) (string, error) {
	var sb strings.Builder
	switch t {
	case Table:
		sb.WriteString(fmt.Sprintf("Status: %s\n", r.Status))
		if len(r.Steps) > 0 {
			table := uitable.New()
			table.AddRow("ACTION", "PACKAGE", "REPOSITORY", "SIZE", "REPLACES")
			var total int64
			for _, s := range r.Steps {
				size := ""
				if s.Size > 0 {
					size = units.HumanSize(float64(s.Size))
					total += s.Size
				}
				table.AddRow(s.Action, s.Package, s.Repository, size, strings.Join(s.Replaces, ", "))
			}
			sb.WriteString(table.String())
			sb.WriteString("\n")
			if total > 0 {
				sb.WriteString(fmt.Sprintf("Total size: %s\n", units.HumanSize(float64(total))))
			}
		}
		for _, p := range r.Problems {
			sb.WriteString(p.String())
			sb.WriteString("\n")
		}
		for _, s := range r.Taken {
			sb.WriteString(fmt.Sprintf("Solution taken: %s\n", s))
		}
	case YAML:
		o, err := yaml.Marshal(r)
		if err != nil {
			return "", err
		}
		sb.Write(o)
	case JSON:
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(r); err != nil {
			return "", err
		}
		sb.Write(buffer.Bytes())
	default:
		return "", errors.Errorf("unknown output mode %d", t)
	}
	return sb.String(), nil
}
