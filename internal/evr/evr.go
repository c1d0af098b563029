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

/*
Package evr splits and compares Epoch:Version-Release strings.

Ordering follows rpmvercmp, as implemented by github.com/cavaliercoder/go-rpm.
*/
package evr

import (
	"strconv"
	"strings"

	"github.com/cavaliercoder/go-rpm/version"
)

// EVR is an epoch, version, release triple. Absent components are empty.
type EVR struct {
	epoch   string
	version string
	release string
}

// New builds an EVR out of its components.
func New(epoch, version, release string) EVR {
	return EVR{epoch: epoch, version: version, release: release}
}

// Split splits s ([epoch:]version[-release]) into its three components.
//
// The epoch is whatever precedes the first ':', the release whatever follows
// the last '-' found after the epoch separator, and the version the rest.
// Components that end up empty are returned as nil.
func Split(s string) (epoch, version, release *string) {
	rest := s
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		epoch = nonEmpty(rest[:i])
		rest = rest[i+1:]
	}
	if j := strings.LastIndexByte(rest, '-'); j >= 0 {
		release = nonEmpty(rest[j+1:])
		rest = rest[:j]
	}
	version = nonEmpty(rest)
	return epoch, version, release
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Parse returns the EVR held in s.
func Parse(s string) EVR {
	e, v, r := Split(s)
	return EVR{epoch: deref(e), version: deref(v), release: deref(r)}
}

// Epoch returns the numeric epoch, 0 when absent or not a number.
func (e EVR) Epoch() int {
	if e.epoch == "" {
		return 0
	}
	n, err := strconv.Atoi(e.epoch)
	if err != nil {
		return 0
	}
	return n
}

// EpochString returns the epoch as written, possibly empty.
func (e EVR) EpochString() string { return e.epoch }

// Version returns the version component.
func (e EVR) Version() string { return e.version }

// Release returns the release component.
func (e EVR) Release() string { return e.release }

// IsZero reports whether no component is set.
func (e EVR) IsZero() bool {
	return e.epoch == "" && e.version == "" && e.release == ""
}

// String renders the EVR back into [epoch:]version[-release] form.
func (e EVR) String() string {
	var sb strings.Builder
	if e.epoch != "" {
		sb.WriteString(e.epoch)
		sb.WriteByte(':')
	}
	sb.WriteString(e.version)
	if e.release != "" {
		sb.WriteByte('-')
		sb.WriteString(e.release)
	}
	return sb.String()
}

// nameless lets an EVR stand in for a package in version.Compare, which never
// looks at the name.
type nameless struct{ EVR }

func (nameless) Name() string { return "" }

// Compare returns 1 if a is more recent than b, -1 if it is older, and 0 when
// both are equal. A missing release sorts before any release.
func Compare(a, b EVR) int {
	return version.Compare(nameless{a}, nameless{b})
}

// CompareLoose is like Compare but ignores the release when either side lacks
// one, the way rpm matches dependency ranges such as "foo >= 1.2".
func CompareLoose(a, b EVR) int {
	if a.release == "" || b.release == "" {
		a.release, b.release = "", ""
	}
	return Compare(a, b)
}

// Latest returns the most recent of the given EVRs.
func Latest(evrs ...EVR) EVR {
	var best EVR
	for i, e := range evrs {
		if i == 0 || Compare(e, best) > 0 {
			best = e
		}
	}
	return best
}
