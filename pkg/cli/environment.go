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

/*Package cli describes the operating environment for the pkgsolve CLI.

pkgsolve's environment encapsulates all of the service dependencies pkgsolve
has. These dependencies are expressed as interfaces so that alternate
implementations (mocks, etc.) can be easily generated.
*/
package cli

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/rancher-sandbox/pkgsolve/internal/solver"
	"github.com/rancher-sandbox/pkgsolve/pkg/pkgsolvepath"
	"github.com/rancher-sandbox/pkgsolve/pkg/repo"
)

// EnvSettings describes all of the environment settings.
type EnvSettings struct {
	// Debug indicates whether or not pkgsolve is running in Debug mode.
	Debug bool
	// NoColors disables colored output.
	NoColors bool
	// NoEmojis disables emojis in the output.
	NoEmojis bool
	// InstallRoot is the root the installed state and repositories are
	// read under.
	InstallRoot string
	// RepositoryConfig is the path to the repositories file.
	RepositoryConfig string
	// EnableRepos and DisableRepos override the repositories file.
	EnableRepos  []string
	DisableRepos []string
	// MetricsFile is where solver metrics are written, if set.
	MetricsFile string
	// MaxAttempts bounds the solve, conflict, relax loop.
	MaxAttempts int
	// SolverTimeout bounds the time spent solving. Zero means no timeout.
	SolverTimeout time.Duration
}

// New returns the settings read from the environment.
func New() *EnvSettings {
	env := &EnvSettings{
		InstallRoot:      envOr("PKGSOLVE_INSTALLROOT", "/"),
		RepositoryConfig: envOr("PKGSOLVE_REPOSITORY_CONFIG", pkgsolvepath.RepositoryFile()),
		MetricsFile:      os.Getenv("PKGSOLVE_METRICS_FILE"),
		MaxAttempts:      envIntOr("PKGSOLVE_MAX_ATTEMPTS", solver.DefaultMaxAttempts),
		SolverTimeout:    envDurationOr("PKGSOLVE_SOLVER_TIMEOUT", 0),
	}
	env.Debug, _ = strconv.ParseBool(os.Getenv("PKGSOLVE_DEBUG"))
	env.NoColors, _ = strconv.ParseBool(os.Getenv("PKGSOLVE_NOCOLORS"))
	env.NoEmojis, _ = strconv.ParseBool(os.Getenv("PKGSOLVE_NOEMOJIS"))
	return env
}

// AddFlags binds flags to the given flagset.
func (s *EnvSettings) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&s.Debug, "debug", s.Debug, "enable verbose output")
	fs.BoolVar(&s.NoColors, "no-colors", s.NoColors, "disable colors")
	fs.BoolVar(&s.NoEmojis, "no-emojis", s.NoEmojis, "disable emojis")
	fs.StringVar(&s.InstallRoot, "installroot", s.InstallRoot, "install root the installed state and repositories are read under")
	fs.StringVarP(&s.RepositoryConfig, "config", "c", s.RepositoryConfig, "path to the repositories file")
	fs.StringSliceVar(&s.EnableRepos, "enablerepo", s.EnableRepos, "enable repositories by name, overriding the repositories file")
	fs.StringSliceVar(&s.DisableRepos, "disablerepo", s.DisableRepos, "disable repositories by name, or \"*\" for all of them")
	fs.StringVar(&s.MetricsFile, "metrics-file", s.MetricsFile, "write solver metrics to this file, in the Prometheus text format")
	fs.IntVar(&s.MaxAttempts, "max-attempts", s.MaxAttempts, "give up solving after this many attempts")
	fs.DurationVar(&s.SolverTimeout, "solver-timeout", s.SolverTimeout, "give up solving after this long, 0 to never give up")
}

// EnvVars returns the environment variables pkgsolve reads, with their
// current values.
func (s *EnvSettings) EnvVars() map[string]string {
	return map[string]string{
		"PKGSOLVE_DEBUG":             strconv.FormatBool(s.Debug),
		"PKGSOLVE_NOCOLORS":          strconv.FormatBool(s.NoColors),
		"PKGSOLVE_NOEMOJIS":          strconv.FormatBool(s.NoEmojis),
		"PKGSOLVE_INSTALLROOT":       s.InstallRoot,
		"PKGSOLVE_REPOSITORY_CONFIG": s.RepositoryConfig,
		"PKGSOLVE_METRICS_FILE":      s.MetricsFile,
		"PKGSOLVE_MAX_ATTEMPTS":      strconv.Itoa(s.MaxAttempts),
		"PKGSOLVE_SOLVER_TIMEOUT":    s.SolverTimeout.String(),

		"PKGSOLVE_CACHE_HOME":  pkgsolvepath.CachePath(""),
		"PKGSOLVE_CONFIG_HOME": pkgsolvepath.ConfigPath(""),
		"PKGSOLVE_DATA_HOME":   pkgsolvepath.DataPath(""),
	}
}

// Loader returns the repository loader the settings describe.
func (s *EnvSettings) Loader() *repo.Loader {
	return &repo.Loader{
		Root:         s.InstallRoot,
		RepoFile:     s.RepositoryConfig,
		EnableRepos:  s.EnableRepos,
		DisableRepos: s.DisableRepos,
	}
}

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

func envIntOr(name string, def int) int {
	if name == "" {
		return def
	}
	envVal := envOr(name, strconv.Itoa(def))
	ret, err := strconv.Atoi(envVal)
	if err != nil {
		return def
	}
	return ret
}

func envDurationOr(name string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
