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
	"strings"
)

// Parse will split the device responses, which must be in the order the
// queries from Plan were sent, and pair every value with its attribute.
//
// Every requested attribute consumes exactly one value. Any surplus or
// missing value results in a ProtocolMismatchError.
func (r *Registry) Parse(sel Selection, responses []string) ([]Result, error) {
	var values []string
	for _, response := range responses {
		values = append(values, strings.Split(response, r.proto.Separator)...)
	}

	attrs := r.requested(sel)
	if len(values) != len(attrs) {
		return nil, &ProtocolMismatchError{
			Expected: len(attrs),
			Got:      len(values),
		}
	}

	results := make([]Result, len(attrs))
	for i, attr := range attrs {
		results[i] = Result{
			Name:  attr.Name,
			Units: attr.Units,
			Value: values[i],
		}
	}
	return results, nil
}

// vim: foldmethod=marker
