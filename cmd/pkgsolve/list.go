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
	"io"

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	"github.com/docker/go-units"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"helm.sh/helm/v3/pkg/cli/output"

	"github.com/rancher-sandbox/pkgsolve/internal/pkg"
	"github.com/rancher-sandbox/pkgsolve/pkg/action"
)

var listHelp = `
This command lists the installed packages and the packages the enabled
repositories carry.

By default, binary packages from everywhere are listed. Use --installed or
--available to only list one side, and --showsource to include source
packages. Arguments narrow the listing down, the way install arguments name
packages:

    $ pkgsolve list --installed 'lib*'
`

func newListCmd(cfg *action.Configuration, logger log.Logger) *cobra.Command {
	client := action.NewList(cfg)
	var outfmt output.Format

	cmd := &cobra.Command{
		Use:     "list [PACKAGE...]",
		Short:   "list packages",
		Long:    listHelp,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfg); err != nil {
				return err
			}
			results, _, err := client.Run(args)
			if err != nil {
				return err
			}
			wInfo := logio.NewWriter(logger, log.InfoLevel)
			return outfmt.Write(wInfo, newPkgListWriter(results))
		},
	}

	f := cmd.Flags()
	f.BoolVar(&client.Installed, "installed", false, "only list installed packages")
	f.BoolVar(&client.Available, "available", false, "only list packages the repositories carry")
	f.BoolVar(&client.ShowSource, "showsource", false, "list source packages too")
	f.StringSliceVar(&client.Archs, "arch", nil, "only list packages of these architectures")
	bindOutputFlag(cmd, &outfmt)

	return cmd
}

type pkgElement struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Arch       string `json:"arch"`
	Repository string `json:"repository"`
	Size       int64  `json:"size,omitempty"`
}

type pkgListWriter struct {
	pkgs []pkgElement
}

func newPkgListWriter(pkgs []*pkg.Pkg) *pkgListWriter {
	// Initialize the array so no results returns an empty array instead of null
	elements := make([]pkgElement, 0, len(pkgs))
	for _, p := range pkgs {
		elements = append(elements, pkgElement{
			Name:       p.Name,
			Version:    p.EVR().String(),
			Arch:       p.Arch,
			Repository: p.Repository,
			Size:       p.Size,
		})
	}
	return &pkgListWriter{elements}
}

func (r *pkgListWriter) WriteTable(out io.Writer) error {
	table := uitable.New()
	table.AddRow("NAME", "VERSION", "ARCH", "REPOSITORY", "SIZE")
	for _, p := range r.pkgs {
		size := ""
		if p.Size > 0 {
			size = units.HumanSize(float64(p.Size))
		}
		table.AddRow(p.Name, p.Version, p.Arch, p.Repository, size)
	}
	return output.EncodeTable(out, table)
}

func (r *pkgListWriter) WriteJSON(out io.Writer) error {
	return output.EncodeJSON(out, r.pkgs)
}

func (r *pkgListWriter) WriteYAML(out io.Writer) error {
	return output.EncodeYAML(out, r.pkgs)
}
