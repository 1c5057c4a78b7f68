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

// Plan returns the ordered list of queries to send to the device in order to
// read every attribute in the Selection.
//
// A single attribute is read with its direct query. Two or more attributes
// are read with batch queries, each carrying between MinBatch and MaxBatch
// ids, using as few queries as possible. Values come back in table order.
func (r *Registry) Plan(sel Selection) ([]string, error) {
	attrs := r.requested(sel)

	switch len(attrs) {
	case 0:
		return []string{}, nil
	case 1:
		attr := attrs[0]
		if attr.batchOnly() {
			return nil, &UnsupportedQueryError{
				Names:  []string{attr.Name},
				Reason: "attribute may only be read together with other attributes",
			}
		}
		return []string{attr.Query}, nil
	}

	ids := make([]string, len(attrs))
	for i, attr := range attrs {
		ids[i] = attr.BatchID
	}

	sizes, ok := chunk(len(ids), r.proto.MinBatch, r.proto.MaxBatch)
	if !ok {
		return nil, &UnsupportedQueryError{
			Names:  r.Names(sel),
			Reason: "attributes can not be split into batches within the batch size bounds",
		}
	}

	queries := make([]string, 0, len(sizes))
	for _, size := range sizes {
		queries = append(queries, r.proto.BatchPrefix+strings.Join(ids[:size], r.proto.Separator))
		ids = ids[size:]
	}
	return queries, nil
}

// chunk splits n items into the fewest batches of between lo and hi items.
// Batches are filled to hi from the front, as long as enough items are left
// for every remaining batch to reach lo.
func chunk(n, lo, hi int) ([]int, bool) {
	if n <= 0 || lo < 1 || lo > hi {
		return nil, false
	}
	batches := (n + hi - 1) / hi
	if batches*lo > n {
		return nil, false
	}

	sizes := make([]int, 0, batches)
	for left := batches; left > 0; left-- {
		size := n - (left-1)*lo
		if size > hi {
			size = hi
		}
		sizes = append(sizes, size)
		n -= size
	}
	return sizes, true
}

// vim: foldmethod=marker
