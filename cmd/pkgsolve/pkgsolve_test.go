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
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	logcli "github.com/Masterminds/log-go/impl/cli"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
	"github.com/rancher-sandbox/pkgsolve/pkg/action"
	"github.com/rancher-sandbox/pkgsolve/pkg/cli"
	"github.com/rancher-sandbox/pkgsolve/pkg/repo"
)

// cmdTestCase describes a test case running a command line.
type cmdTestCase struct {
	name      string
	cmd       string
	contains  []string
	wantError bool
}

func runTestCmd(t *testing.T, tests []cmdTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer resetEnv()()

			t.Logf("running cmd: %s", tt.cmd)
			_, out, err := executeCommandStdinC(tt.cmd)
			if (err != nil) != tt.wantError {
				t.Errorf("expected error %t, got '%v'", tt.wantError, err)
			}
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
		})
	}
}

func testLogger(out io.Writer) *logcli.Logger {
	logger := logcli.NewStandard()
	logger.InfoOut = out
	logger.WarnOut = out
	logger.ErrorOut = out
	logger.DebugOut = ioutil.Discard
	return logger
}

func executeCommandStdinC(cmd string) (*cobra.Command, string, error) {
	args, err := shellwords.Parse(cmd)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	logger := testLogger(buf)
	root, err := newRootCmd(action.NewConfiguration(nil, logger), logger, args)
	if err != nil {
		return nil, "", err
	}

	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	c, err := root.ExecuteC()
	return c, buf.String(), err
}

func resetEnv() func() {
	origEnv := os.Environ()
	return func() {
		os.Clearenv()
		for _, pair := range origEnv {
			kv := strings.SplitN(pair, "=", 2)
			os.Setenv(kv[0], kv[1])
		}
		settings = cli.New()
	}
}

func withSummary(p *pkg.Pkg, summary string) *pkg.Pkg {
	p.Summary = summary
	return p
}

// testRoot lays out an install root with bash and glibc installed, and a
// "base" repository carrying newer builds of them plus zsh. It returns the
// flags pointing a command at it.
func testRoot(t *testing.T) (string, string) {
	t.Helper()
	root, err := ioutil.TempDir("", "pkgsolve-cmd")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(root) })

	require.NoError(t, repo.NewSystem(root).Save([]*pkg.Pkg{
		pkg.NewPkgMock("bash", "5.0-1", "x86_64", pkg.SystemRepo, []string{"glibc"}, nil, nil, nil),
		pkg.NewPkg("glibc", "2.31-1", "x86_64", pkg.SystemRepo),
	}))

	i := repo.NewIndexFile()
	i.Add(
		withSummary(pkg.NewPkgMock("bash", "5.1-2", "x86_64", "base", []string{"glibc >= 2.31"}, nil, nil, nil), "The GNU Bourne Again shell"),
		withSummary(pkg.NewPkg("glibc", "2.33-4", "x86_64", "base"), "The GNU libc libraries"),
		withSummary(pkg.NewPkg("zsh", "5.8-1", "x86_64", "base"), "Z shell"),
	)
	require.NoError(t, i.WriteFile(filepath.Join(root, "srv", "base.yaml"), 0644))

	rf := repo.NewFile()
	rf.Add(&repo.Entry{Name: "base", Path: "srv/base.yaml", Priority: 50})
	repoFile := filepath.Join(root, "repositories.yaml")
	require.NoError(t, rf.WriteFile(repoFile, 0644))

	return root, "--installroot " + root + " --config " + repoFile
}
