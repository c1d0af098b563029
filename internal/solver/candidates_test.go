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

package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateSet(t *testing.T) {
	is := assert.New(t)

	a := NewCandidateSet(5, 1, 3, 3)
	b := NewCandidateSet(3, 4, 5, 6)

	is.Equal(CandidateSet{1, 3, 5}, a)
	is.Equal(3, a.Len())
	is.True(a.Contains(3))
	is.False(a.Contains(4))
	is.True(NewCandidateSet().IsEmpty())

	is.Equal(CandidateSet{1, 3, 4, 5, 6}, a.Union(b))
	is.Equal(CandidateSet{3, 5}, a.Intersect(b))
	is.Equal(CandidateSet{1}, a.Difference(b))
	is.Equal(CandidateSet{4, 6}, b.Filter(func(id int) bool { return id%2 == 0 }))
	is.Equal(CandidateSet{1, 3, 4, 5, 6, 9}, UnionAll(a, b, NewCandidateSet(9)))
	is.True(UnionAll().IsEmpty())

	ids := a.IDs()
	ids[0] = 42
	is.Equal(CandidateSet{1, 3, 5}, a)
}
