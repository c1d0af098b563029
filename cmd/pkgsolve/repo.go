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
	"strconv"

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"helm.sh/helm/v3/cmd/helm/require"
	"helm.sh/helm/v3/pkg/cli/output"

	"github.com/rancher-sandbox/pkgsolve/pkg/repo"
)

var repoDesc = `
This command consists of multiple subcommands to interact with the
repositories file. It can be used to add, remove and list repositories.
`

func newRepoCmd(logger log.Logger) *cobra.Command {
	wInfo := logio.NewWriter(logger, log.InfoLevel)
	cmd := &cobra.Command{
		Use:   "repo add|remove|list [ARGS]",
		Short: "add, list and remove repositories",
		Long:  repoDesc,
		Args:  require.NoArgs,
	}

	cmd.AddCommand(
		newRepoAddCmd(wInfo),
		newRepoListCmd(wInfo),
		newRepoRemoveCmd(wInfo),
	)

	return cmd
}

func isNotExist(err error) bool {
	return os.IsNotExist(errors.Cause(err))
}

type repoAddOptions struct {
	entry    repo.Entry
	disabled bool
	pin      bool
}

func newRepoAddCmd(out io.Writer) *cobra.Command {
	o := &repoAddOptions{}

	cmd := &cobra.Command{
		Use:   "add [NAME] [PATH]",
		Short: "add a repository",
		Args:  require.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.entry.Name = args[0]
			o.entry.Path = args[1]
			return o.run(out)
		},
	}

	f := cmd.Flags()
	f.IntVar(&o.entry.Priority, "priority", 0, "priority of the repository, lower values win")
	f.BoolVar(&o.disabled, "disabled", false, "add the repository disabled")
	f.StringVar(&o.entry.Checksum, "checksum", "", "checksum of the metadata file, such as sha256:<hex>")
	f.BoolVar(&o.pin, "pin", false, "compute the checksum of the metadata file as it is now")

	return cmd
}

func (o *repoAddOptions) run(out io.Writer) error {
	f, err := repo.LoadFile(settings.RepositoryConfig)
	if err != nil && !isNotExist(err) {
		return err
	}
	if err != nil {
		f = repo.NewFile()
	}
	if f.Has(o.entry.Name) {
		return errors.Errorf("repository name (%s) already exists, please specify a different name", o.entry.Name)
	}

	if o.pin {
		path, err := repo.ResolvePath(settings.InstallRoot, o.entry.Path)
		if err != nil {
			return err
		}
		d, err := repo.Digest(path)
		if err != nil {
			return errors.Wrapf(err, "looks like %q is not a valid repository metadata file", o.entry.Path)
		}
		o.entry.Checksum = d.String()
	}
	if o.disabled {
		enabled := false
		o.entry.Enabled = &enabled
	}

	e := o.entry
	f.Add(&e)
	if err := f.WriteFile(settings.RepositoryConfig, 0644); err != nil {
		return err
	}
	fmt.Fprintf(out, "%q has been added to your repositories\n", e.Name)
	return nil
}

func newRepoListCmd(out io.Writer) *cobra.Command {
	var outfmt output.Format
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "list repositories",
		Args:    require.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := repo.LoadFile(settings.RepositoryConfig)
			if isNotExist(err) || (err == nil && len(f.Repositories) == 0) {
				return errors.New("no repositories to show")
			}
			if err != nil {
				return err
			}
			return outfmt.Write(out, &repoListWriter{f.Sorted()})
		},
	}
	bindOutputFlag(cmd, &outfmt)
	return cmd
}

type repoElement struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Priority int    `json:"priority"`
	Enabled  bool   `json:"enabled"`
}

type repoListWriter struct {
	repos []*repo.Entry
}

func (r *repoListWriter) WriteTable(out io.Writer) error {
	table := uitable.New()
	table.AddRow("NAME", "PATH", "PRIORITY", "ENABLED")
	for _, re := range r.repos {
		table.AddRow(re.Name, re.Path, strconv.Itoa(re.Priority), strconv.FormatBool(re.IsEnabled()))
	}
	return output.EncodeTable(out, table)
}

func (r *repoListWriter) WriteJSON(out io.Writer) error {
	return output.EncodeJSON(out, r.elements())
}

func (r *repoListWriter) WriteYAML(out io.Writer) error {
	return output.EncodeYAML(out, r.elements())
}

func (r *repoListWriter) elements() []repoElement {
	res := make([]repoElement, 0, len(r.repos))
	for _, re := range r.repos {
		res = append(res, repoElement{re.Name, re.Path, re.Priority, re.IsEnabled()})
	}
	return res
}

func newRepoRemoveCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove [REPO1 [REPO2 ...]]",
		Aliases: []string{"rm"},
		Short:   "remove one or more repositories",
		Args:    require.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepoRemove(out, args)
		},
	}
	return cmd
}

func runRepoRemove(out io.Writer, names []string) error {
	r, err := repo.LoadFile(settings.RepositoryConfig)
	if isNotExist(err) || len(r.Repositories) == 0 {
		return errors.New("no repositories configured")
	}

	for _, name := range names {
		if !r.Remove(name) {
			return errors.Errorf("no repo named %q found", name)
		}
		if err := r.WriteFile(settings.RepositoryConfig, 0644); err != nil {
			return err
		}
		fmt.Fprintf(out, "%q has been removed from your repositories\n", name)
	}

	return nil
}
