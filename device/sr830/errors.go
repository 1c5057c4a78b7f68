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
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedQuery is matched by every UnsupportedQueryError.
	ErrUnsupportedQuery = errors.New("sr830: unsupported query")

	// ErrProtocolMismatch is matched by every ProtocolMismatchError.
	ErrProtocolMismatch = errors.New("sr830: query and response do not match")

	// ErrNotSR830 is returned when the device on the bus does not identify
	// itself as an SR830.
	ErrNotSR830 = errors.New("sr830: device is not an SR830")
)

// UnsupportedQueryError is returned when a set of requested attributes can
// not be turned into device queries.
type UnsupportedQueryError struct {
	Names  []string
	Reason string
}

func (e *UnsupportedQueryError) Error() string {
	return fmt.Sprintf("sr830: can not query %s: %s", strings.Join(e.Names, ","), e.Reason)
}

// Is allows errors.Is(err, ErrUnsupportedQuery).
func (e *UnsupportedQueryError) Is(target error) bool {
	return target == ErrUnsupportedQuery
}

// ProtocolMismatchError is returned when the number of values in the device
// responses differs from the number of requested attributes.
type ProtocolMismatchError struct {
	Expected int
	Got      int
}

func (e *ProtocolMismatchError) Error() string {
	return fmt.Sprintf("sr830: expected %d values in response, got %d", e.Expected, e.Got)
}

// Is allows errors.Is(err, ErrProtocolMismatch).
func (e *ProtocolMismatchError) Is(target error) bool {
	return target == ErrProtocolMismatch
}

// TransportError wraps a failure of the Transport while sending Query. The
// underlying error is kept as-is.
type TransportError struct {
	Query string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sr830: query %q: %v", e.Query, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying transport error, for github.com/pkg/errors.
func (e *TransportError) Cause() error {
	return e.Err
}

// vim: foldmethod=marker
