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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rancher-sandbox/pkgsolve/internal/solver"
)

func TestPromptChooser(t *testing.T) {
	problem := &solver.Problem{
		Rules: []string{"install a"},
		Solutions: []*solver.Solution{
			{Kind: solver.SolutionSkipDirective, Description: "do not ask to install a"},
			{Kind: solver.SolutionAllowErase, Description: "allow erasing or replacing installed b"},
		},
	}

	for _, tcase := range []struct {
		name   string
		input  string
		want   int
		errMsg string
	}{
		{name: "default", input: "\n", want: 0},
		{name: "by number", input: "2\n", want: 1},
		{name: "asks again on bad answers", input: "3\nfoo\n 2 \n", want: 1},
		{name: "skip", input: "s\n", want: -1},
		{name: "last line without newline", input: "2", want: 1},
		{name: "no input", input: "", want: -1, errMsg: "reading answer: EOF"},
		{name: "bad last line", input: "7", want: -1, errMsg: `invalid answer "7"`},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			is := assert.New(t)
			c := PromptChooser(strings.NewReader(tcase.input), testLogger(), true)
			got, err := c.Choose(problem)
			is.Equal(tcase.want, got)
			if tcase.errMsg != "" {
				is.EqualError(err, tcase.errMsg)
				return
			}
			is.NoError(err)
		})
	}
}
