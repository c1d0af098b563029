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
	"os"

	"github.com/Masterminds/log-go"
	logcli "github.com/Masterminds/log-go/impl/cli"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/rancher-sandbox/pkgsolve/pkg/action"
	"github.com/rancher-sandbox/pkgsolve/pkg/eyecandy"
)

var globalUsage = `Usage: pkgsolve command
Resolve package installs, erases, upgrades and distro-syncs against rpm-like
repositories, and keep track of what is installed.

Common actions from this point include:

- pkgsolve search:      search for packages
- pkgsolve list:        list installed and available packages
- pkgsolve install:     install packages and their dependencies
- pkgsolve erase:       erase packages and what depends on them
- pkgsolve upgrade:     upgrade packages
- pkgsolve distro-sync: synchronize installed packages with the repositories
- pkgsolve check:       check the dependencies of installed packages
- pkgsolve repo:        add, list and remove repositories

Repositories are read from a repositories file, under an install root:

| Name                       | Description                                       |
|----------------------------|---------------------------------------------------|
| $PKGSOLVE_INSTALLROOT      | install root, "/" by default                      |
| $PKGSOLVE_REPOSITORY_CONFIG| path to the repositories file                     |
| $PKGSOLVE_CONFIG_HOME      | where the default repositories file lives         |
| $PKGSOLVE_METRICS_FILE     | where to write solver metrics                     |
| $PKGSOLVE_DEBUG            | enable verbose output                             |
| $PKGSOLVE_NOCOLORS         | disable colors                                    |
| $PKGSOLVE_NOEMOJIS         | disable emojis                                    |
`

func newRootCmd(actionConfig *action.Configuration, logger log.Logger, args []string) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:           "pkgsolve",
		Short:         "A package dependency resolver",
		Long:          globalUsage,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := cmd.PersistentFlags()
	settings.AddFlags(flags)

	cmd.AddCommand(
		newInstallCmd(actionConfig, logger),
		newEraseCmd(actionConfig, logger),
		newUpgradeCmd(actionConfig, logger),
		newDistroSyncCmd(actionConfig, logger),
		newCheckCmd(actionConfig, logger),
		newListCmd(actionConfig, logger),
		newSearchCmd(actionConfig, logger),
		newRepoCmd(logger),
		newVersionCmd(logger),
	)

	flags.ParseErrorsWhitelist.UnknownFlags = true
	err := flags.Parse(args)

	if err != nil && !errors.Is(err, pflag.ErrHelp) {
		return nil, errors.Wrapf(err, "failed while parsing flags for %s", args)
	}

	if settings.NoColors {
		color.NoColor = true // disable colorized output
	}
	if l, ok := logger.(*logcli.Logger); ok && settings.Debug {
		l.Level = log.DebugLevel
	}

	return cmd, nil
}

// initConfig loads the catalog the settings point to.
func initConfig(cfg *action.Configuration) error {
	cfg.Loader = settings.Loader()
	cfg.Log.Debugf("loading repositories from %s under %s", cfg.Loader.RepoFile, cfg.Loader.Root)
	return cfg.Init()
}

// writeMetrics writes the solver metrics, when asked to.
func writeMetrics(cfg *action.Configuration, logger log.Logger) {
	if settings.MetricsFile == "" {
		return
	}
	if err := cfg.Metrics.WriteToTextfile(settings.MetricsFile); err != nil {
		logger.Warn(eyecandy.ESPrintf(settings.NoEmojis, ":warning: could not write metrics: %s", err))
	}
}

// isInteractive reports whether problems can be asked about on stdin.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
