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

// Package sr830 queries a Stanford Research Systems SR830 lock-in amplifier.
//
// The SR830 can return up to six values in a single SNAP? query, which keeps
// all of them from the same instant. This package turns a set of attribute
// names into the fewest queries the device will accept, and turns the
// device responses back into named, unit tagged values.
package sr830

import (
	"strings"
)

// Transport sends a single query to the device, and returns the response.
// Implementations block until the response has been read.
type Transport interface {
	Query(cmd string) (string, error)
}

// Device represents a SR830 to be used over the GPIB.
type Device struct {
	transport Transport
	registry  *Registry
}

// New will create a new sr830.Device to talk to a Lock-In Amplifier over the
// provided Transport. If the registry is nil, Default() is used.
func New(transport Transport, registry *Registry) Device {
	if registry == nil {
		registry = Default()
	}
	return Device{transport: transport, registry: registry}
}

// Registry returns the attribute table used by the Device.
func (dev Device) Registry() *Registry {
	return dev.registry
}

// Identify will ask the device to identify itself, and return the response
// if it is an SR830.
func (dev Device) Identify() (string, error) {
	proto := dev.registry.proto
	response, err := dev.send(proto.IdentityQuery)
	if err != nil {
		return "", err
	}
	if !strings.Contains(response, proto.Identity) {
		return response, ErrNotSR830
	}
	return response, nil
}

// Query will read the named attributes from the device, and return them in
// table order. Names that are not in the table are ignored.
func (dev Device) Query(names ...string) ([]Result, error) {
	sel := dev.registry.Select(names...)
	queries, err := dev.registry.Plan(sel)
	if err != nil {
		return nil, err
	}

	responses := make([]string, 0, len(queries))
	for _, query := range queries {
		response, err := dev.send(query)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return dev.registry.Parse(sel, responses)
}

// QueryCount returns the number of queries Query would send for the named
// attributes.
func (dev Device) QueryCount(names ...string) (int, error) {
	queries, err := dev.registry.Plan(dev.registry.Select(names...))
	return len(queries), err
}

func (dev Device) send(query string) (string, error) {
	response, err := dev.transport.Query(query)
	if err != nil {
		return "", &TransportError{Query: query, Err: err}
	}
	if term := dev.registry.proto.Terminator; term != "" {
		if i := strings.Index(response, term); i >= 0 {
			response = response[:i]
		}
	}
	return response, nil
}

// vim: foldmethod=marker
