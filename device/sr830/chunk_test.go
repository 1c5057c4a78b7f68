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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		lo, hi int
		want   []int
		ok     bool
	}{
		{name: "single batch", n: 2, lo: 2, hi: 6, want: []int{2}, ok: true},
		{name: "full batch", n: 6, lo: 2, hi: 6, want: []int{6}, ok: true},
		{name: "tail keeps the minimum", n: 7, lo: 2, hi: 6, want: []int{5, 2}, ok: true},
		{name: "whole table", n: 11, lo: 2, hi: 6, want: []int{6, 5}, ok: true},
		{name: "two full batches", n: 12, lo: 2, hi: 6, want: []int{6, 6}, ok: true},
		{name: "three batches", n: 13, lo: 2, hi: 6, want: []int{6, 5, 2}, ok: true},
		{name: "fixed size", n: 6, lo: 3, hi: 3, want: []int{3, 3}, ok: true},
		{name: "no valid split", n: 5, lo: 3, hi: 4, ok: false},
		{name: "below minimum", n: 1, lo: 2, hi: 6, ok: false},
		{name: "empty", n: 0, lo: 2, hi: 6, ok: false},
		{name: "bad bounds", n: 4, lo: 5, hi: 2, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := chunk(tt.n, tt.lo, tt.hi)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestChunkBounds(t *testing.T) {
	for lo := 1; lo <= 4; lo++ {
		for hi := lo; hi <= 7; hi++ {
			for n := 1; n <= 30; n++ {
				sizes, ok := chunk(n, lo, hi)
				if !ok {
					continue
				}
				total := 0
				for _, size := range sizes {
					assert.GreaterOrEqual(t, size, lo)
					assert.LessOrEqual(t, size, hi)
					total += size
				}
				assert.Equal(t, n, total)
				assert.Equal(t, (n+hi-1)/hi, len(sizes))
			}
		}
	}
}

// vim: foldmethod=marker
