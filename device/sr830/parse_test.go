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

package sr830_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hz.tools/lockin/device/sr830"
)

func TestParse(t *testing.T) {
	reg := sr830.Default()

	results, err := reg.Parse(reg.Select("x", "y"), []string{"1.23,4.56"})
	require.NoError(t, err)
	assert.Equal(t, []sr830.Result{
		{Name: "x", Units: "V", Value: "1.23"},
		{Name: "y", Units: "V", Value: "4.56"},
	}, results)
}

func TestParseSingle(t *testing.T) {
	reg := sr830.Default()

	results, err := reg.Parse(reg.Select("theta"), []string{"-12.5"})
	require.NoError(t, err)
	assert.Equal(t, []sr830.Result{{Name: "theta", Units: "deg", Value: "-12.5"}}, results)
}

func TestParseAcrossResponses(t *testing.T) {
	reg := sr830.Default()
	sel := reg.Select("ch2", "ch1", "ref_freq", "aux4", "aux3", "aux2", "aux1", "theta", "r", "y", "x")

	results, err := reg.Parse(sel, []string{
		"0.1,0.2,0.3,45,1,2",
		"3,4,1000.5,7e-3,-8",
	})
	require.NoError(t, err)
	require.Len(t, results, 11)

	want := []struct{ name, units, value string }{
		{"x", "V", "0.1"},
		{"y", "V", "0.2"},
		{"r", "V", "0.3"},
		{"theta", "deg", "45"},
		{"aux1", "V", "1"},
		{"aux2", "V", "2"},
		{"aux3", "V", "3"},
		{"aux4", "V", "4"},
		{"ref_freq", "Hz", "1000.5"},
		{"ch1", "n/a", "7e-3"},
		{"ch2", "n/a", "-8"},
	}
	for i, w := range want {
		assert.Equal(t, w.name, results[i].Name)
		assert.Equal(t, w.units, results[i].Units)
		assert.Equal(t, w.value, results[i].Value)
	}
}

func TestParseUnknownNamesNeverAppear(t *testing.T) {
	reg := sr830.Default()

	results, err := reg.Parse(reg.Select("bogus", "r"), []string{"0.5"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "r", results[0].Name)
}

func TestParseMismatch(t *testing.T) {
	tests := []struct {
		name      string
		names     []string
		responses []string
		expected  int
		got       int
	}{
		{name: "extra value", names: []string{"x", "y"}, responses: []string{"1,2,3"}, expected: 2, got: 3},
		{name: "missing value", names: []string{"x", "y"}, responses: []string{"1"}, expected: 2, got: 1},
		{name: "extra response", names: []string{"x"}, responses: []string{"1", "2"}, expected: 1, got: 2},
		{name: "no responses", names: []string{"x"}, responses: nil, expected: 1, got: 0},
		{name: "nothing requested", names: nil, responses: []string{"1"}, expected: 0, got: 1},
	}

	reg := sr830.Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Parse(reg.Select(tt.names...), tt.responses)
			require.Error(t, err)
			assert.True(t, errors.Is(err, sr830.ErrProtocolMismatch))

			var pme *sr830.ProtocolMismatchError
			require.True(t, errors.As(err, &pme))
			assert.Equal(t, tt.expected, pme.Expected)
			assert.Equal(t, tt.got, pme.Got)
		})
	}
}

func TestParseNothing(t *testing.T) {
	reg := sr830.Default()

	results, err := reg.Parse(reg.Select(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestResult(t *testing.T) {
	r := sr830.Result{Name: "x", Units: "V", Value: " 1.5e-3 "}
	v, err := r.Float()
	require.NoError(t, err)
	assert.InDelta(t, 1.5e-3, v, 1e-12)
	assert.Equal(t, "x:  1.5e-3  V", r.String())

	_, err = sr830.Result{Name: "ch1", Value: "bad"}.Float()
	assert.Error(t, err)
}

// vim: foldmethod=marker
