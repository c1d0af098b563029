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

package pkg

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/rancher-sandbox/pkgsolve/internal/evr"
)

// Flags is the comparator of a capability, as a bitmask of LT, GT and EQ.
type Flags int

const (
	// Any means the capability carries no version.
	Any Flags = 0
	LT  Flags = 1 << iota
	GT
	EQ

	LE = LT | EQ
	GE = GT | EQ
)

var flagSymbols = map[Flags]string{
	LT: "<",
	LE: "<=",
	GT: ">",
	GE: ">=",
	EQ: "=",
}

// symbols sorted so that two-char operators are tried first
var operators = []string{"<=", ">=", "==", "=", "<", ">"}

func parseFlags(op string) (Flags, bool) {
	switch op {
	case "<":
		return LT, true
	case "<=", "=<":
		return LE, true
	case ">":
		return GT, true
	case ">=", "=>":
		return GE, true
	case "=", "==":
		return EQ, true
	}
	return Any, false
}

func (f Flags) String() string {
	return flagSymbols[f]
}

// Capability is a name plus an optional version comparison. It is used to
// declare what a package provides, and what it requires, conflicts with or
// obsoletes.
type Capability struct {
	Name  string
	Flags Flags
	EVR   evr.EVR
}

// ParseCapability parses "name", "name op evr" or "nameopevr".
func ParseCapability(s string) (*Capability, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty capability")
	}
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		for _, op := range operators {
			if i := strings.Index(s, op); i > 0 {
				return ParseCapability(s[:i] + " " + op + " " + s[i+len(op):])
			}
		}
		return &Capability{Name: s}, nil
	case 3:
		flags, ok := parseFlags(fields[1])
		if !ok {
			return nil, errors.Errorf("unknown comparator %q in capability %q", fields[1], s)
		}
		return &Capability{Name: fields[0], Flags: flags, EVR: evr.Parse(fields[2])}, nil
	}
	return nil, errors.Errorf("malformed capability %q", s)
}

// ParseCapabilities parses every entry of caps.
func ParseCapabilities(caps ...string) ([]*Capability, error) {
	res := make([]*Capability, 0, len(caps))
	for _, c := range caps {
		capability, err := ParseCapability(c)
		if err != nil {
			return nil, err
		}
		res = append(res, capability)
	}
	return res, nil
}

// MustParseCapabilities is like ParseCapabilities but panics on error.
func MustParseCapabilities(caps ...string) []*Capability {
	res, err := ParseCapabilities(caps...)
	if err != nil {
		panic(err)
	}
	return res
}

// IsFile reports whether the capability names a file path.
func (c *Capability) IsFile() bool {
	return strings.HasPrefix(c.Name, "/")
}

// String renders the capability back to text.
func (c *Capability) String() string {
	if c.Flags == Any {
		return c.Name
	}
	return c.Name + " " + c.Flags.String() + " " + c.EVR.String()
}

// MarshalYAML renders the capability as its text form.
func (c *Capability) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// MarshalJSON renders the capability as its text form.
func (c *Capability) MarshalJSON() ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(c.String()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}

// Overlaps reports whether the ranges of c and other, which must share the
// same name, intersect. This is how a provide is matched against a require.
func (c *Capability) Overlaps(other *Capability) bool {
	if c.Name != other.Name {
		return false
	}
	if c.Flags == Any || other.Flags == Any {
		return true
	}
	sense := evr.CompareLoose(c.EVR, other.EVR)
	switch {
	case sense < 0:
		return c.Flags&GT != 0 || other.Flags&LT != 0
	case sense > 0:
		return c.Flags&LT != 0 || other.Flags&GT != 0
	}
	return (c.Flags&EQ != 0 && other.Flags&EQ != 0) ||
		(c.Flags&LT != 0 && other.Flags&LT != 0) ||
		(c.Flags&GT != 0 && other.Flags&GT != 0)
}

// MatchesEVR reports whether a package version e satisfies c.
func (c *Capability) MatchesEVR(e evr.EVR) bool {
	return c.Overlaps(&Capability{Name: c.Name, Flags: EQ, EVR: e})
}
