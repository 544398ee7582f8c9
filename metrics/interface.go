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

// Package metrics gives the gossip/orchestration loops a narrow sink to
// report counters, gauges, and timing samples through, without committing
// the rest of the module to one particular metrics backend.
package metrics

// Sink mirrors the core of github.com/armon/go-metrics's MetricSink,
// narrowed to the three calls this module actually issues. A
// github.com/armon/go-metrics.Metrics value satisfies this interface
// as-is, and so does a *PrometheusSink.
type Sink interface {
	IncrCounter(key []string, val float32)
	SetGauge(key []string, val float32)
	AddSample(key []string, val float32)
}

// New builds a Sink that fans out to every non-nil sink provided, so the caller can wire both a Prometheus
// collector and an in-memory debug sink simultaneously.
func New(sinks ...Sink) Sink {
	return multiSink(sinks)
}
