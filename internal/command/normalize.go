/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package command

import (
	"regexp"
	"strings"
)

const promptTemplate = "<|im_start|>Below is the query from the users, please choose the correct function and generate the parameters to call the function. Query: %s Response:"

// synonym rewrites applied in order; ASCII letters match case-insensitively
var synonyms = []struct {
	from []string
	to   string
}{
	{from: []string{"에이 구역", "에이구역", "a구역", "a 구역"}, to: "A구역"},
	{from: []string{"비 구역", "비구역", "b구역", "b 구역"}, to: "B구역"},
	{from: []string{"첫번째 냉장고", "첫 번째 냉장고", "1번 냉장고", "일번 냉장고", "냉장고 1번", "냉장고1번"}, to: "냉장고1"},
	// "이번 냉장고" covers the STT mishearing of "2번"
	{from: []string{"두번째 냉장고", "두 번째 냉장고", "2번 냉장고", "이번 냉장고", "냉장고 2번", "냉장고2번"}, to: "냉장고2"},
}

var synonymPatterns = compileSynonyms()

type synonymPattern struct {
	re *regexp.Regexp
	to string
}

func compileSynonyms() []synonymPattern {
	var patterns []synonymPattern
	for _, group := range synonyms {
		for _, from := range group.from {
			patterns = append(patterns, synonymPattern{
				re: regexp.MustCompile("(?i)" + regexp.QuoteMeta(from)),
				to: group.to,
			})
		}
	}
	return patterns
}

// Normalize cleans a speech-to-text utterance before classification: it trims
// trailing whitespace, drops one trailing "." and "?", and rewrites spoken
// zone and refrigerator names to the literals the rules expect.
func Normalize(raw string) string {
	text := strings.TrimRight(raw, " \t\r\n")
	text = strings.TrimSuffix(text, ".")
	text = strings.TrimSuffix(text, "?")

	for _, p := range synonymPatterns {
		text = p.re.ReplaceAllLiteralString(text, p.to)
	}
	return text
}

// BuildPrompt wraps a user query in the function-calling prompt the on-device
// model was tuned with
func BuildPrompt(query string) string {
	return strings.Replace(promptTemplate, "%s", query, 1)
}
