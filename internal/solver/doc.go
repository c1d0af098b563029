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

/*
Solver resolves package operations: install, erase, update, distupgrade and
verify, over a catalog of rpm-like packages.

A package is one build of a name, epoch, version, release and arch coming
from one repository. The packages of the repository named "@System" are the
installed ones. Packages sharing name and arch form a slot, and at most one
package per slot can be installed.

To perform a package operation, for example "install packageA", we:

 1. Load all repositories into a Catalog. The catalog assigns IDs to the
 packages and indexes them by name, slot, repository, arch and kind. What
 packages provide, and the files they ship, are indexed on the first
 capability lookup; from then on the catalog is read only.

 2. Turn what the user asked for into candidate sets with a Selector: names,
 globs, name.arch, name-version-release, relations ("foo >= 1.2"), provides
 and file paths, narrowed down by repository, arch and kind filters. When
 nothing matches, the query is tried again ignoring case.

 3. Push the candidate sets into a job Queue, as directives: an action
 (install, erase, update...) plus modifiers (ForceBest, SetRepo, SetVendor).

 4. Solve the queue with an Engine. The gophersat MAXSAT solver operates over
 unique strings: in our case, the package fingerprint. We create:
 - Hard constraints for the relations between packages: requires,
   conflicts, obsoletes and one package per slot.
 - Rules, which are hard too, but can be relaxed when they conflict: the job
   directives, keeping the installed packages and not downgrading them.
 - Soft constraints for the preferences: install as little as possible,
   prefer higher versions, leave installed packages alone.

 When there is no solution the engine looks for the minimal sets of rules
 that cannot hold together, and reports them as Problems, each one with its
 ranked Solutions. A Chooser picks one solution per problem, the rule it
 names is relaxed, and the engine tries again. The number of attempts, and
 optionally the time, is bounded.

 5. Build a Transaction out of the decisions of the solver: the ordered
 install, erase, upgrade and downgrade steps.

*/
package solver
