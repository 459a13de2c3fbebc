// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import "strings"

// repairJSON fixes the formatting slips models commonly make in JSON output:
// prose around the object, keys missing their opening quote, and trailing
// commas. Text inside string values is left untouched.
func repairJSON(s string) string {
	s = trimToObject(s)
	s = quoteKeys(s)
	return dropTrailingCommas(s)
}

// trimToObject drops anything before the first '{' and after the last '}'.
func trimToObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// quoteKeys adds the missing opening quote in keys such as: , type":
func quoteKeys(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)
	inString := false

	for i := 0; i < len(in); i++ {
		ch := in[i]
		if inString {
			out = append(out, ch)
			if ch == '\\' && i+1 < len(in) {
				i++
				out = append(out, in[i])
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			out = append(out, ch)
			continue
		}
		out = append(out, ch)
		if ch != '{' && ch != ',' {
			continue
		}

		// Copy whitespace following the delimiter
		j := i + 1
		for j < len(in) && isSpace(in[j]) {
			out = append(out, in[j])
			j++
		}
		// An identifier followed directly by '":' is a key missing its opening quote
		k := j
		for k < len(in) && (isLetter(in[k]) || in[k] == '_') {
			k++
		}
		if k > j && k+1 < len(in) && in[k] == '"' && in[k+1] == ':' {
			out = append(out, '"')
			out = append(out, in[j:k]...)
			out = append(out, '"', ':')
			i = k + 1
			continue
		}
		i = j - 1
	}
	return string(out)
}

// dropTrailingCommas removes commas that directly precede '}' or ']'.
func dropTrailingCommas(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in))
	inString := false

	for i := 0; i < len(in); i++ {
		ch := in[i]
		if inString {
			out = append(out, ch)
			if ch == '\\' && i+1 < len(in) {
				i++
				out = append(out, in[i])
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
		}
		if ch == ',' {
			j := i + 1
			for j < len(in) && isSpace(in[j]) {
				j++
			}
			if j < len(in) && (in[j] == '}' || in[j] == ']') {
				continue
			}
		}
		out = append(out, ch)
	}
	return string(out)
}
