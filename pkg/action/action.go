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
	"time"

	"github.com/Masterminds/log-go"

	"github.com/rancher-sandbox/pkgsolve/internal/metrics"
	"github.com/rancher-sandbox/pkgsolve/internal/solver"
	"github.com/rancher-sandbox/pkgsolve/pkg/repo"
)

// Timestamper is a function capable of producing a timestamp.
//
// By default, this is time.Now. This can be overridden for testing though,
// so that durations are predictable.
var Timestamper = time.Now

// Configuration holds what every action works on: the catalog of installed
// and available packages, where it was loaded from, and where to report.
type Configuration struct {
	Catalog *solver.Catalog
	Loader  *repo.Loader
	Metrics *metrics.Recorder
	Log     log.Logger
}

// NewConfiguration returns a configuration reading packages with loader.
// Call Init before use.
func NewConfiguration(loader *repo.Loader, logger log.Logger) *Configuration {
	if logger == nil {
		logger = log.Current
	}
	return &Configuration{
		Loader:  loader,
		Metrics: metrics.New(),
		Log:     logger,
	}
}

// Init loads the installed packages and the enabled repositories into a new
// catalog.
func (c *Configuration) Init() error {
	catalog := solver.NewCatalog(c.Log)
	if c.Loader != nil {
		if err := c.Loader.Load(catalog, c.Log); err != nil {
			return err
		}
	}
	c.Catalog = catalog
	c.Metrics.ObserveCatalog(catalog.Size())
	catalog.DebugPrintDB(c.Log)
	return nil
}

// NewQuery returns an empty query over the catalog.
func (c *Configuration) NewQuery() (*Query, error) {
	q, err := NewQuery(c.Catalog, c.Log)
	if err != nil {
		return nil, err
	}
	q.Metrics = c.Metrics
	return q, nil
}
