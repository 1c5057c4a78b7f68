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

// Package sink forwards SR830 readings to external systems: an MQTT broker,
// an InfluxDB bucket or a Redis channel.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hz.tools/lockin/device/sr830"
)

// Reading is the outcome of one successful query session.
type Reading struct {
	Session string
	Time    time.Time
	Device  string
	Results []sr830.Result
}

type jsonValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Units string `json:"units"`
}

type jsonReading struct {
	Session string      `json:"session"`
	Time    time.Time   `json:"time"`
	Device  string      `json:"device"`
	Values  []jsonValue `json:"values"`
}

// MarshalJSON encodes the reading with its values in table order.
func (r Reading) MarshalJSON() ([]byte, error) {
	values := make([]jsonValue, len(r.Results))
	for i, result := range r.Results {
		values[i] = jsonValue{Name: result.Name, Value: result.Value, Units: result.Units}
	}
	return json.Marshal(jsonReading{
		Session: r.Session,
		Time:    r.Time.UTC(),
		Device:  r.Device,
		Values:  values,
	})
}

// Sink receives readings.
type Sink interface {
	Publish(ctx context.Context, reading Reading) error
	Close() error
}

// Multi sends every reading to each of its sinks. A failing sink does not
// stop the others; their errors are joined.
type Multi []Sink

// Publish implements Sink.
func (m Multi) Publish(ctx context.Context, reading Reading) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, reading); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Sink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// vim: foldmethod=marker
