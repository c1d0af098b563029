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
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/pkgsolve/internal/solver"
	"github.com/rancher-sandbox/pkgsolve/pkg/eyecandy"
)

// PromptChooser returns a chooser asking, for each problem, which solution
// to take. Answers are read from in: a solution number, an empty line for
// the first one, or "s" to give up.
func PromptChooser(in io.Reader, logger log.Logger, noEmojis bool) solver.Chooser {
	reader := bufio.NewReader(in)
	return solver.ChooserFunc(func(p *solver.Problem) (int, error) {
		logger.Info(eyecandy.ESPrintf(noEmojis, ":warning: %s", p))
		return promptSolution(p, reader, logger, noEmojis)
	})
}

func promptSolution(p *solver.Problem, reader *bufio.Reader, logger log.Logger, noEmojis bool) (int, error) {
	for {
		logger.Info(eyecandy.ESPrintf(noEmojis,
			":red_question_mark:Please choose a solution [1-%d], or s to skip [1]:", len(p.Solutions)))

		response, err := reader.ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if err != nil && response == "" {
			return -1, errors.Wrap(err, "reading answer")
		}

		switch response {
		case "":
			return 0, nil
		case "s", "skip", "q", "quit":
			return -1, nil
		}
		if i, convErr := strconv.Atoi(response); convErr == nil && i >= 1 && i <= len(p.Solutions) {
			return i - 1, nil
		}
		if err != nil {
			return -1, errors.Errorf("invalid answer %q", response)
		}
		logger.Warnf("invalid answer %q", response)
	}
}
