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

package main

import (
	"testing"
)

func TestListCmd(t *testing.T) {
	_, flags := testRoot(t)

	runTestCmd(t, []cmdTestCase{
		{
			name: "list installed packages",
			cmd:  "list --installed -o json " + flags,
			contains: []string{
				`[{"name":"bash","version":"5.0-1","arch":"x86_64","repository":"@System"},{"name":"glibc","version":"2.31-1","arch":"x86_64","repository":"@System"}]`,
			},
		},
		{
			name: "list available packages",
			cmd:  "ls --available -o json zsh " + flags,
			contains: []string{
				`[{"name":"zsh","version":"5.8-1","arch":"x86_64","repository":"base"}]`,
			},
		},
		{
			name:     "list as a table",
			cmd:      "list bash " + flags,
			contains: []string{"NAME", "REPOSITORY", "bash", "@System"},
		},
		{
			name:      "bad output format",
			cmd:       "list -o csv " + flags,
			wantError: true,
		},
		{
			name:      "missing repositories file",
			cmd:       "list --installroot /nonexistent --config /nonexistent/repositories.yaml",
			wantError: true,
		},
	})
}
