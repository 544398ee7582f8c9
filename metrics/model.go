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

package metrics

// nopSink discards everything; the default when no metrics backend is
// configured.
type nopSink struct{}

// Nop returns a Sink that discards every call.
func Nop() Sink { return nopSink{} }

func (nopSink) IncrCounter([]string, float32) {}
func (nopSink) SetGauge([]string, float32)    {}
func (nopSink) AddSample([]string, float32)   {}

// multiSink fans one call out to every configured sink, skipping nils so
// a caller can pass an optional sink slot straight through without a
// guard at each call site.
type multiSink []Sink

func (m multiSink) IncrCounter(key []string, val float32) {
	for _, s := range m {
		if s != nil {
			s.IncrCounter(key, val)
		}
	}
}

func (m multiSink) SetGauge(key []string, val float32) {
	for _, s := range m {
		if s != nil {
			s.SetGauge(key, val)
		}
	}
}

func (m multiSink) AddSample(key []string, val float32) {
	for _, s := range m {
		if s != nil {
			s.AddSample(key, val)
		}
	}
}
