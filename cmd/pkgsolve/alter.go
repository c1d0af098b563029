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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	"github.com/docker/go-units"
	"github.com/spf13/cobra"
	"helm.sh/helm/v3/cmd/helm/require"
	"helm.sh/helm/v3/pkg/cli/output"

	"github.com/rancher-sandbox/pkgsolve/internal/solver"
	"github.com/rancher-sandbox/pkgsolve/pkg/action"
	"github.com/rancher-sandbox/pkgsolve/pkg/eyecandy"
)

const installDesc = `
This command installs packages and the packages they depend on.

Packages can be named by name, name.arch, name-version-release, a glob
("python3-*"), a relation ("glibc >= 2.31"), something they provide or a file
they ship:

    $ pkgsolve install bash 'glibc >= 2.31' /usr/bin/zsh

When the request cannot be satisfied as is, the problems are listed along with
their solutions, and the one to take is asked for. Use --assumeyes to always
take the first one.
`

const eraseDesc = `
This command erases installed packages, along with the installed packages
that depend on them.
`

const upgradeDesc = `
This command upgrades packages to their newest versions. With no arguments,
every installed package is upgraded.
`

const distroSyncDesc = `
This command synchronizes the installed packages with the newest versions the
repositories carry, upgrading or downgrading as needed. With no arguments,
every installed package is synchronized.
`

const checkDesc = `
This command checks that the dependencies of the installed packages are
satisfied, and proposes how to fix them when they are not.
`

// alterOptions runs an operation that goes through the solver.
type alterOptions struct {
	client    *action.Alter
	assumeYes bool
	dryRun    bool
	outfmt    output.Format
}

func newAlterCmd(cfg *action.Configuration, logger log.Logger, mode solver.ActionKind, cmd *cobra.Command) (*cobra.Command, *alterOptions) {
	o := &alterOptions{client: action.NewAlter(cfg, mode)}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return o.run(cfg, logger, args)
	}
	addSolveFlags(cmd.Flags(), o.client, &o.assumeYes, &o.dryRun)
	bindOutputFlag(cmd, &o.outfmt)
	return cmd, o
}

func newInstallCmd(cfg *action.Configuration, logger log.Logger) *cobra.Command {
	cmd, o := newAlterCmd(cfg, logger, solver.ActionInstall, &cobra.Command{
		Use:   "install [PACKAGE...]",
		Short: "install packages",
		Long:  installDesc,
		Args:  require.MinimumNArgs(1),
	})
	cmd.Flags().BoolVar(&o.client.AllowDowngrade, "allowdowngrade", false, "allow replacing installed packages by older versions")
	return cmd
}

func newEraseCmd(cfg *action.Configuration, logger log.Logger) *cobra.Command {
	cmd, _ := newAlterCmd(cfg, logger, solver.ActionErase, &cobra.Command{
		Use:     "erase [PACKAGE...]",
		Aliases: []string{"remove", "uninstall"},
		Short:   "erase packages",
		Long:    eraseDesc,
		Args:    require.MinimumNArgs(1),
	})
	return cmd
}

func newUpgradeCmd(cfg *action.Configuration, logger log.Logger) *cobra.Command {
	cmd, _ := newAlterCmd(cfg, logger, solver.ActionUpdate, &cobra.Command{
		Use:     "upgrade [PACKAGE...]",
		Aliases: []string{"update"},
		Short:   "upgrade packages",
		Long:    upgradeDesc,
	})
	return cmd
}

func newDistroSyncCmd(cfg *action.Configuration, logger log.Logger) *cobra.Command {
	cmd, o := newAlterCmd(cfg, logger, solver.ActionDistUpgrade, &cobra.Command{
		Use:     "distro-sync [PACKAGE...]",
		Aliases: []string{"dsync"},
		Short:   "synchronize installed packages with the repositories",
		Long:    distroSyncDesc,
	})
	cmd.Flags().BoolVar(&o.client.EraseOrphans, "erase-orphans", false, "erase installed packages no repository carries anymore")
	return cmd
}

func newCheckCmd(cfg *action.Configuration, logger log.Logger) *cobra.Command {
	cmd, _ := newAlterCmd(cfg, logger, solver.ActionVerify, &cobra.Command{
		Use:   "check",
		Short: "check the dependencies of installed packages",
		Long:  checkDesc,
		Args:  require.NoArgs,
	})
	return cmd
}

func (o *alterOptions) run(cfg *action.Configuration, logger log.Logger, args []string) error {
	if err := initConfig(cfg); err != nil {
		return err
	}
	o.client.MaxAttempts = settings.MaxAttempts
	o.client.Timeout = settings.SolverTimeout
	o.client.Record = !o.dryRun
	if !o.assumeYes && isInteractive() {
		o.client.Chooser = action.PromptChooser(os.Stdin, logger, settings.NoEmojis)
	}

	res, _, err := o.client.Run(args)
	defer writeMetrics(cfg, logger)
	if res != nil {
		wInfo := logio.NewWriter(logger, log.InfoLevel)
		if werr := o.outfmt.Write(wInfo, &resultWriter{res: res, noEmojis: settings.NoEmojis}); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	if res != nil && res.Status == solver.StatusSolved && o.outfmt == output.Table {
		logger.Info(eyecandy.ESPrint(settings.NoEmojis, "Done! :clapping_hands:"))
	}
	return nil
}

// resultWriter prints the outcome of a solve.
type resultWriter struct {
	res      *solver.Result
	noEmojis bool
}

func (r *resultWriter) WriteTable(out io.Writer) error {
	fmt.Fprintln(out, eyecandy.Status(r.noEmojis, r.res.Status))
	var total int64
	for _, s := range r.res.Steps {
		what := fmt.Sprintf("%s (%s)", s.Package, s.Repository)
		if len(s.Replaces) > 0 {
			what = fmt.Sprintf("%s, replacing %s", what, strings.Join(s.Replaces, ", "))
		}
		fmt.Fprintln(out, eyecandy.Step(r.noEmojis, s.Action, what))
		total += s.Size
	}
	if total > 0 {
		fmt.Fprintf(out, "Total size: %s\n", units.HumanSize(float64(total)))
	}
	for _, p := range r.res.Problems {
		fmt.Fprintln(out, p)
	}
	for _, s := range r.res.Taken {
		fmt.Fprintf(out, "Solution taken: %s\n", s)
	}
	return nil
}

func (r *resultWriter) WriteJSON(out io.Writer) error {
	return r.encode(out, solver.JSON)
}

func (r *resultWriter) WriteYAML(out io.Writer) error {
	return r.encode(out, solver.YAML)
}

func (r *resultWriter) encode(out io.Writer, mode solver.OutputMode) error {
	s, err := r.res.FormatOutput(mode)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, s)
	return err
}
