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
	"strings"
	"sync"

	prmsdk "github.com/prometheus/client_golang/prometheus"

	"github.com/nabbar/flockd/errors"
)

// PrometheusSink adapts Sink to a prometheus.Registerer, lazily creating one
// CounterVec/GaugeVec/SummaryVec per distinct key the first time it's
// used. The key's underscore join becomes the metric name; since Prometheus
// metrics can't carry a varying label set after registration, every sample
// for a given key is reported without labels.
type PrometheusSink struct {
	reg    prmsdk.Registerer
	prefix string

	mu        sync.Mutex
	counters  map[string]*prmsdk.CounterVec
	gauges    map[string]*prmsdk.GaugeVec
	summaries map[string]*prmsdk.SummaryVec
}

// NewPrometheusSink builds a PrometheusSink registering its collectors on
// reg, with every metric name prefixed by prefix (underscore-joined), e.g.
// prefix "flockd" + key ["swim", "probes"] -> "flockd_swim_probes".
func NewPrometheusSink(reg prmsdk.Registerer, prefix string) (*PrometheusSink, error) {
	if reg == nil {
		return nil, ErrNilRegisterer.Error()
	}

	return &PrometheusSink{
		reg:       reg,
		prefix:    prefix,
		counters:  make(map[string]*prmsdk.CounterVec),
		gauges:    make(map[string]*prmsdk.GaugeVec),
		summaries: make(map[string]*prmsdk.SummaryVec),
	}, nil
}

// register registers c on p.reg, tolerating a collector that's already
// registered by reusing the one already there instead of failing.
func register[C prmsdk.Collector](reg prmsdk.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prmsdk.AlreadyRegisteredError
		if ok := asAlreadyRegistered(err, &are); ok {
			if existing, castOk := are.ExistingCollector.(C); castOk {
				return existing
			}
		}
	}
	return c
}

func asAlreadyRegistered(err error, target *prmsdk.AlreadyRegisteredError) bool {
	if are, ok := err.(prmsdk.AlreadyRegisteredError); ok {
		*target = are
		return true
	}
	return false
}

func (p *PrometheusSink) name(key []string) string {
	parts := key
	if p.prefix != "" {
		parts = append([]string{p.prefix}, key...)
	}
	return strings.Join(parts, "_")
}

func (p *PrometheusSink) IncrCounter(key []string, val float32) {
	name := p.name(key)

	p.mu.Lock()
	vec, ok := p.counters[name]
	if !ok {
		vec = register(p.reg, prmsdk.NewCounterVec(prmsdk.CounterOpts{Name: name}, nil))
		p.counters[name] = vec
	}
	p.mu.Unlock()

	vec.WithLabelValues().Add(float64(val))
}

func (p *PrometheusSink) SetGauge(key []string, val float32) {
	name := p.name(key)

	p.mu.Lock()
	vec, ok := p.gauges[name]
	if !ok {
		vec = register(p.reg, prmsdk.NewGaugeVec(prmsdk.GaugeOpts{Name: name}, nil))
		p.gauges[name] = vec
	}
	p.mu.Unlock()

	vec.WithLabelValues().Set(float64(val))
}

func (p *PrometheusSink) AddSample(key []string, val float32) {
	name := p.name(key)

	p.mu.Lock()
	vec, ok := p.summaries[name]
	if !ok {
		vec = register(p.reg, prmsdk.NewSummaryVec(prmsdk.SummaryOpts{
			Name:       name,
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, nil))
		p.summaries[name] = vec
	}
	p.mu.Unlock()

	vec.WithLabelValues().Observe(float64(val))
}
