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

package sr830

import (
	"fmt"
	"strconv"
	"strings"
)

// Attribute describes a single value the SR830 can report.
type Attribute struct {
	// Name is the unique identifier used to request the attribute, such as
	// "x" or "ref_freq".
	Name string

	// Units is a display-only label, such as "V" or "deg".
	Units string

	// BatchID is the token identifying this attribute inside of a batch
	// (SNAP?) query.
	BatchID string

	// Query is the command to read this attribute on its own. It is empty
	// for attributes that may only be read as part of a batch.
	Query string
}

// batchOnly returns true if the Attribute can only be read within a batch.
func (a Attribute) batchOnly() bool {
	return a.Query == ""
}

// DefaultAttributes is the attribute table of the SR830, in the order the
// values are returned to the caller.
var DefaultAttributes = []Attribute{
	{Name: "x", Units: "V", BatchID: "1", Query: "OUTP?1"},
	{Name: "y", Units: "V", BatchID: "2", Query: "OUTP?2"},
	{Name: "r", Units: "V", BatchID: "3", Query: "OUTP?3"},
	{Name: "theta", Units: "deg", BatchID: "4", Query: "OUTP?4"},
	{Name: "aux1", Units: "V", BatchID: "5", Query: "OAUX?1"},
	{Name: "aux2", Units: "V", BatchID: "6", Query: "OAUX?2"},
	{Name: "aux3", Units: "V", BatchID: "7", Query: "OAUX?3"},
	{Name: "aux4", Units: "V", BatchID: "8", Query: "OAUX?4"},
	{Name: "ref_freq", Units: "Hz", BatchID: "9"},
	{Name: "ch1", Units: "n/a", BatchID: "10", Query: "OUTR?1"},
	{Name: "ch2", Units: "n/a", BatchID: "11", Query: "OUTR?2"},
}

// Protocol contains the device-specific syntax used to build queries and
// split responses.
type Protocol struct {
	// BatchPrefix starts every batch query, e.g. "SNAP?".
	BatchPrefix string

	// Separator joins batch ids in a query, and splits values in a
	// response.
	Separator string

	// Terminator ends every response. Anything from the first Terminator
	// onward is dropped.
	Terminator string

	// MinBatch and MaxBatch are the inclusive bounds on the number of ids
	// in a single batch query.
	MinBatch int
	MaxBatch int

	// IdentityQuery and Identity are used to confirm the device on the
	// other end of the bus is an SR830.
	IdentityQuery string
	Identity      string
}

// DefaultProtocol is the query syntax of the SR830.
var DefaultProtocol = Protocol{
	BatchPrefix:   "SNAP?",
	Separator:     ",",
	Terminator:    "\n",
	MinBatch:      2,
	MaxBatch:      6,
	IdentityQuery: "*IDN?",
	Identity:      "Stanford_Research_Systems,SR830,",
}

// Registry is an immutable attribute table paired with the Protocol used to
// query it. A Registry may be shared between sessions; per-session state
// lives in a Selection.
type Registry struct {
	attrs []Attribute
	index map[string]int
	proto Protocol
}

// NewRegistry will validate the provided table and protocol, and return a
// Registry. The attribute slice is copied.
func NewRegistry(attrs []Attribute, proto Protocol) (*Registry, error) {
	if len(attrs) == 0 {
		return nil, fmt.Errorf("sr830: attribute table is empty")
	}
	if proto.BatchPrefix == "" || proto.Separator == "" {
		return nil, fmt.Errorf("sr830: batch prefix and separator are required")
	}
	if proto.MinBatch < 1 || proto.MinBatch > proto.MaxBatch {
		return nil, fmt.Errorf("sr830: invalid batch bounds [%d,%d]", proto.MinBatch, proto.MaxBatch)
	}

	var (
		index = make(map[string]int, len(attrs))
		ids   = make(map[string]string, len(attrs))
	)
	for i, attr := range attrs {
		if attr.Name == "" || attr.BatchID == "" {
			return nil, fmt.Errorf("sr830: attribute %d is missing a name or batch id", i)
		}
		if _, ok := index[attr.Name]; ok {
			return nil, fmt.Errorf("sr830: duplicate attribute %q", attr.Name)
		}
		if other, ok := ids[attr.BatchID]; ok {
			return nil, fmt.Errorf("sr830: batch id %q used by both %q and %q", attr.BatchID, other, attr.Name)
		}
		if strings.Contains(attr.BatchID, proto.Separator) {
			return nil, fmt.Errorf("sr830: batch id %q contains the separator", attr.BatchID)
		}
		index[attr.Name] = i
		ids[attr.BatchID] = attr.Name
	}

	return &Registry{
		attrs: append([]Attribute(nil), attrs...),
		index: index,
		proto: proto,
	}, nil
}

// Default returns a Registry for the SR830 using DefaultAttributes and
// DefaultProtocol.
func Default() *Registry {
	reg, err := NewRegistry(DefaultAttributes, DefaultProtocol)
	if err != nil {
		panic(err)
	}
	return reg
}

// Attributes returns a copy of the attribute table in declaration order.
func (r *Registry) Attributes() []Attribute {
	return append([]Attribute(nil), r.attrs...)
}

// Protocol returns the query syntax of this Registry.
func (r *Registry) Protocol() Protocol {
	return r.proto
}

// Lookup returns the Attribute with the provided name.
func (r *Registry) Lookup(name string) (Attribute, bool) {
	i, ok := r.index[name]
	if !ok {
		return Attribute{}, false
	}
	return r.attrs[i], true
}

// Unknown returns the names that are not in the attribute table, in the
// order they were provided.
func (r *Registry) Unknown(names ...string) []string {
	var unknown []string
	for _, name := range names {
		if _, ok := r.index[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// Selection is the set of attributes requested for a single query session.
// The zero value requests nothing.
type Selection struct {
	requested []bool
}

// Select returns a Selection in which an attribute is requested if and only
// if its name is in names. Names not in the table are ignored.
func (r *Registry) Select(names ...string) Selection {
	requested := make([]bool, len(r.attrs))
	for _, name := range names {
		if i, ok := r.index[name]; ok {
			requested[i] = true
		}
	}
	return Selection{requested: requested}
}

// Len returns the number of requested attributes.
func (s Selection) Len() int {
	n := 0
	for _, ok := range s.requested {
		if ok {
			n++
		}
	}
	return n
}

// requested returns the attributes of the table marked in the
// Selection, in declaration order.
func (r *Registry) requested(sel Selection) []Attribute {
	var attrs []Attribute
	for i, ok := range sel.requested {
		if ok && i < len(r.attrs) {
			attrs = append(attrs, r.attrs[i])
		}
	}
	return attrs
}

// Names returns the requested attribute names in declaration order.
func (r *Registry) Names(sel Selection) []string {
	var names []string
	for _, attr := range r.requested(sel) {
		names = append(names, attr.Name)
	}
	return names
}

// Result is the value reported by the device for one attribute.
type Result struct {
	Name  string
	Units string
	Value string
}

// Float will parse the Value as a floating point number.
func (r Result) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
}

func (r Result) String() string {
	return fmt.Sprintf("%s: %s %s", r.Name, r.Value, r.Units)
}

// vim: foldmethod=marker
