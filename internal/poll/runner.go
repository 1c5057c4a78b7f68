// {{{ Copyright (c) Paul R. Tagliamonte <paul@k3xec.com>, 2021
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

// Package poll runs repeated SR830 query sessions, and hands every reading
// to the printer, the metrics and the sinks.
package poll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hz.tools/lockin/device/sr830"
	"hz.tools/lockin/internal/monitor"
	"hz.tools/lockin/internal/sink"
)

// Querier reads the named attributes from a lock-in amplifier.
type Querier interface {
	Query(names ...string) ([]sr830.Result, error)
	QueryCount(names ...string) (int, error)
}

// Runner runs query sessions against a single device.
type Runner struct {
	Device  Querier
	Name    string
	Sink    sink.Sink
	Metrics *monitor.Metrics
	Log     logrus.FieldLogger

	// OnReading is called with every reading, before it is published.
	OnReading func(sink.Reading)

	now func() time.Time
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// Once runs a single session. A failed session is returned as an error,
// a failure to publish the reading is only logged.
func (r *Runner) Once(ctx context.Context, names []string) (sink.Reading, error) {
	session := uuid.NewString()
	log := r.Log.WithField("session", session)

	queries, _ := r.Device.QueryCount(names...)
	start := r.clock()
	results, err := r.Device.Query(names...)
	took := r.clock().Sub(start)

	if r.Metrics != nil {
		r.Metrics.Observe(took, queries, results, err)
	}
	if err != nil {
		log.WithError(err).Error("query session failed")
		return sink.Reading{}, err
	}
	log.WithFields(logrus.Fields{
		"values":  len(results),
		"queries": queries,
		"took":    took,
	}).Debug("query session done")

	reading := sink.Reading{
		Session: session,
		Time:    start,
		Device:  r.Name,
		Results: results,
	}
	if r.OnReading != nil {
		r.OnReading(reading)
	}
	if r.Sink != nil {
		if err := r.Sink.Publish(ctx, reading); err != nil {
			log.WithError(err).Warn("publishing reading failed")
		}
	}
	return reading, nil
}

// Run runs count sessions, interval apart. A count of zero or less runs
// until ctx is done. The first failed session stops the run.
func (r *Runner) Run(ctx context.Context, names []string, interval time.Duration, count int) error {
	ticker := time.NewTicker(nonZero(interval))
	defer ticker.Stop()

	for i := 0; count <= 0 || i < count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
		if _, err := r.Once(ctx, names); err != nil {
			return err
		}
	}
	return nil
}

func nonZero(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Nanosecond
	}
	return d
}

// vim: foldmethod=marker
