/*
Copyright The Helm Authors, SUSE LLC.

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
	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	"github.com/spf13/cobra"

	"github.com/rancher-sandbox/pkgsolve/pkg/action"
	"github.com/rancher-sandbox/pkgsolve/pkg/search"
)

const searchDesc = `
Search reads through all of the enabled repositories, and looks for packages
whose name, summary or description contains one of the keywords, ignoring
case.

It will display the newest version of the packages found. If you specify the
--versions flag, the output will include every version. If you want to search
using a version constraint, use --version.

Examples:

    # Search for packages matching the keyword "shell"
    $ pkgsolve search shell

    # Search for every version of bash with a major version of 5
    $ pkgsolve search bash --versions --version ^5.0.0

Repositories are managed with 'pkgsolve repo' commands.
`

func newSearchCmd(cfg *action.Configuration, logger log.Logger) *cobra.Command {
	o := &search.Options{}

	cmd := &cobra.Command{
		Use:   "search [keyword...]",
		Short: "search repositories for a keyword in packages",
		Long:  searchDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfg); err != nil {
				return err
			}
			wInfo := logio.NewWriter(logger, log.InfoLevel)
			return o.Run(cfg, wInfo, args)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&o.Versions, "versions", "l", false, "show every version of the packages, not only the newest one")
	f.StringVar(&o.Version, "version", "", "search using semantic versioning constraints on the package versions")
	f.StringSliceVar(&o.Archs, "arch", nil, "only search packages of these architectures")
	f.UintVar(&o.MaxColWidth, "max-col-width", 50, "maximum column width for output table")
	bindOutputFlag(cmd, &o.OutputFormat)

	return cmd
}
