/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package event

import "regexp"

// Match reports whether name and tags satisfy the filter: every
// NamePattern is OR'd, every Tags entry is AND'd, and patterns are anchored
// so "web" never matches "webserver".
func (f Filter) Match(name string, tags map[string]string) (bool, error) {
	if len(f.NamePatterns) > 0 {
		matched := false
		for _, p := range f.NamePatterns {
			re, err := anchored(p)
			if err != nil {
				return false, ErrInvalidFilter.Error()
			}
			if re.MatchString(name) {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}

	for k, pattern := range f.Tags {
		v, ok := tags[k]
		if !ok {
			return false, nil
		}

		re, err := anchored(pattern)
		if err != nil {
			return false, ErrInvalidFilter.Error()
		}
		if !re.MatchString(v) {
			return false, nil
		}
	}

	return true, nil
}

func anchored(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")$")
}
