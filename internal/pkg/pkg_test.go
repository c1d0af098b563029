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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/rancher-sandbox/pkgsolve/internal/evr"
)

func TestFingerPrints(t *testing.T) {
	is := assert.New(t)

	p := NewPkg("bash", "1:5.1-2", "x86_64", "base")
	is.Equal("bash-1:5.1-2.x86_64@base", p.GetFingerPrint())
	is.Equal("bash.x86_64", p.GetBaseFingerPrint())
	is.Equal("bash-1:5.1-2.x86_64", p.NEVRA())
	is.Equal(KindPackage, p.Kind)
	is.False(p.IsInstalled())

	src := NewPkg("bash", "5.1-2", ArchSource, SystemRepo)
	is.Equal(KindSource, src.Kind)
	is.True(src.IsInstalled())
	is.Equal("bash-5.1-2.src@System", src.GetFingerPrint())

	// every package provides itself
	is.Len(p.Provides, 1)
	is.Equal("bash = 1:5.1-2", p.Provides[0].String())
}

func TestParseCapability(t *testing.T) {
	for _, tcase := range []struct {
		input string
		name  string
		flags Flags
		evr   string
		err   bool
	}{
		{input: "glibc", name: "glibc", flags: Any},
		{input: "glibc >= 2.28", name: "glibc", flags: GE, evr: "2.28"},
		{input: "glibc>=2.28", name: "glibc", flags: GE, evr: "2.28"},
		{input: "foo < 1:2-3", name: "foo", flags: LT, evr: "1:2-3"},
		{input: "foo == 1", name: "foo", flags: EQ, evr: "1"},
		{input: "foo ~ 1", err: true},
		{input: "foo bar", err: true},
		{input: "  ", err: true},
	} {
		t.Run(tcase.input, func(t *testing.T) {
			c, err := ParseCapability(tcase.input)
			if tcase.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			is := assert.New(t)
			is.Equal(tcase.name, c.Name)
			is.Equal(tcase.flags, c.Flags)
			is.Equal(tcase.evr, c.EVR.String())
		})
	}
}

func TestOverlaps(t *testing.T) {
	for _, tcase := range []struct {
		provide, require string
		want             bool
	}{
		{"foo = 1.0-1", "foo", true},
		{"foo", "foo >= 2", true},
		{"foo = 1.0-1", "foo >= 0.9", true},
		{"foo = 1.0-1", "foo > 1.0", false},
		{"foo = 1.0-1", "foo >= 1.0", true},
		{"foo = 1.0-1", "foo < 1.0", false},
		{"foo = 1.0-1", "foo = 1.0", true},
		{"foo = 1.0-1", "foo = 1.0-2", false},
		{"foo = 2", "foo < 3", true},
		{"foo > 2", "foo < 3", true},
		{"foo > 3", "foo < 3", false},
		{"foo = 1", "bar", false},
	} {
		t.Run(tcase.provide+"/"+tcase.require, func(t *testing.T) {
			p := MustParseCapabilities(tcase.provide)[0]
			r := MustParseCapabilities(tcase.require)[0]
			assert.Equal(t, tcase.want, p.Overlaps(r))
			assert.Equal(t, tcase.want, r.Overlaps(p))
		})
	}
}

func TestMatchesEVR(t *testing.T) {
	is := assert.New(t)
	c := MustParseCapabilities("foo < 2")[0]
	is.True(c.MatchesEVR(evr.Parse("1.9-3")))
	is.False(c.MatchesEVR(evr.Parse("2.0-1")))
}

func TestMarshalCapabilities(t *testing.T) {
	is := assert.New(t)
	p := NewPkgMock("foo", "1.0-1", "noarch", "base", []string{"bar >= 2"}, nil, nil, []string{"/usr/bin/foo"})

	out, err := yaml.Marshal(p.Requires)
	is.NoError(err)
	is.Equal("- bar >= 2\n", string(out))

	js, err := p.JSON()
	is.NoError(err)
	is.Contains(string(js), `"requires":["bar >= 2"]`)
	is.True(p.Provides[1].IsFile())
}
