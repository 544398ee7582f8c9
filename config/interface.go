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

// Package config defines the configuration record for a gossip node: its
// identity, SWIM timing profile, security perimeter and persistence options.
//
// A Config is normally built from one of the three named profiles
// (DefaultLANConfig, DefaultWANConfig, DefaultLocalConfig) and then
// overridden either programmatically or by loading a file/environment
// overlay with Load. Validate enforces the invariants that a struct tag
// alone cannot express.
//
// External dependencies:
//   - github.com/spf13/viper: file/environment configuration loading
//   - github.com/go-viper/mapstructure/v2: decode hooks for custom types
//   - github.com/go-playground/validator/v10: struct-tag validation
//   - github.com/nabbar/flockd/duration: typed, day-aware timing fields
package config
