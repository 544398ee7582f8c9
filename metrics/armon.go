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

import (
	"time"

	armonmetrics "github.com/armon/go-metrics"
)

// NewArmonSink wires up an in-process armon/go-metrics Metrics instance as a
// Sink, aggregating samples over window/retain before they're readable
// through Data(). *armonmetrics.Metrics already satisfies Sink by having the
// same three methods with the same signatures, so no extra adapter type is
// needed.
func NewArmonSink(serviceName string, window, retain time.Duration) (Sink, error) {
	conf := armonmetrics.DefaultConfig(serviceName)
	conf.EnableHostname = false
	conf.EnableRuntimeMetrics = false

	inmem := armonmetrics.NewInmemSink(window, retain)

	m, err := armonmetrics.New(conf, inmem)
	if err != nil {
		return nil, ErrRegisterCollector.Error()
	}

	return m, nil
}
