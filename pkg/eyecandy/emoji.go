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

/*Package eyecandy provides common methods to print messages with emojis
and colors.
*/
package eyecandy

import (
	"fmt"
	"regexp"

	"github.com/fatih/color"
	"github.com/kyokomi/emoji/v2"
)

var emojiRe = regexp.MustCompile(`:[a-zA-Z0-9-_+]+?:`)

// ESPrintf formats like fmt.Sprintf, replacing the emoji codes of format
// (":pizza:"), or dropping them when emojis are disabled. The arguments are
// never looked at for codes.
func ESPrintf(emojisDisabled bool, format string, v ...interface{}) string {
	if emojisDisabled {
		return fmt.Sprintf(removeEmojiFromString(format), v...)
	}
	return emoji.Sprintf(format, v...)
}

// ESPrint is ESPrintf without arguments.
func ESPrint(emojisDisabled bool, s string) string {
	if emojisDisabled {
		return fmt.Sprint(removeEmojiFromString(s))
	}
	return emoji.Sprint(s)
}

func removeEmojiFromString(s string) string {
	return emojiRe.ReplaceAllString(s, "")
}

var stepIcons = map[string]string{
	"install":   ":package:",
	"upgrade":   ":arrow_up:",
	"downgrade": ":arrow_down:",
	"erase":     ":wastebasket:",
}

// Step renders one transaction step, as in "install bash-5.1-2.x86_64".
func Step(emojisDisabled bool, action, what string) string {
	return ESPrintf(emojisDisabled, stepIcons[action]+" %s %s", color.CyanString(action), what)
}

// Status renders the outcome of a solve: green when solved, yellow when
// there was nothing to do, red otherwise. Colors follow color.NoColor.
func Status(emojisDisabled bool, status string) string {
	switch status {
	case "solved":
		return ESPrintf(emojisDisabled, ":white_check_mark: %s", color.GreenString(status))
	case "nothing to do":
		return ESPrintf(emojisDisabled, ":zzz: %s", color.YellowString(status))
	}
	return ESPrintf(emojisDisabled, ":x: %s", color.RedString(status))
}
