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

package gpib

import (
	"errors"
	"fmt"
	"syscall"
	"time"
)

// Named errors for the linux-gpib iberr codes a caller may want to act on.
var (
	ErrNotCIC       = errors.New("gpib: interface board needs to be controller-in-charge, but is not")
	ErrNoListeners  = errors.New("gpib: attempted to write data or command bytes, but there are no listeners currently addressed")
	ErrNotAddressed = errors.New("gpib: interface board has failed to address itself properly before starting an io operation")
	ErrInvalidArg   = errors.New("gpib: arguments to the function call were invalid")
	ErrNotSAC       = errors.New("gpib: interface board needs to be system controller, but is not")
	ErrAborted      = errors.New("gpib: read or write of data bytes has been aborted")
	ErrNoBoard      = errors.New("gpib: interface board does not exist")
	ErrAsyncIO      = errors.New("gpib: function call can not proceed due to an asynchronous IO operation")
	ErrNoCapability = errors.New("gpib: GPIB board lacks desired capability")
	ErrTimeout      = errors.New("gpib: attempt to write command bytes to the bus has timed out")
	ErrStatusLost   = errors.New("gpib: serial poll status bytes have been lost")
	ErrSRQStuck     = errors.New("gpib: serial poll request service line is stuck on")
	ErrUnknown      = errors.New("gpib: unknown error")

	// ErrClosed is returned when using a Device after Close, or after the
	// BaseContext has been canceled.
	ErrClosed = errors.New("gpib: device is closed")
)

// iberror converts the iberr and ibcnt globals into a Go error.
func iberror(iberr int, ibcnt int) error {
	switch iberr {
	case 0, 12:
		// system or filesystem error, errno is in ibcnt
		return syscall.Errno(ibcnt)
	case 1:
		return ErrNotCIC
	case 2:
		return ErrNoListeners
	case 3:
		return ErrNotAddressed
	case 4:
		return ErrInvalidArg
	case 5:
		return ErrNotSAC
	case 6:
		return ErrAborted
	case 7:
		return ErrNoBoard
	case 10:
		return ErrAsyncIO
	case 11:
		return ErrNoCapability
	case 14:
		return ErrTimeout
	case 15:
		return ErrStatusLost
	case 16:
		return ErrSRQStuck
	default:
		return fmt.Errorf("%w: iberr=%d", ErrUnknown, iberr)
	}
}

// timeouts are the durations of the linux-gpib T* timeout codes, indexed by
// code. Code 0 (TNONE) disables the timeout.
var timeouts = []time.Duration{
	0,
	10 * time.Microsecond,
	30 * time.Microsecond,
	100 * time.Microsecond,
	300 * time.Microsecond,
	time.Millisecond,
	3 * time.Millisecond,
	10 * time.Millisecond,
	30 * time.Millisecond,
	100 * time.Millisecond,
	300 * time.Millisecond,
	time.Second,
	3 * time.Second,
	10 * time.Second,
	30 * time.Second,
	100 * time.Second,
	300 * time.Second,
	1000 * time.Second,
}

// timeoutCode returns the smallest T* code that waits at least d.
func timeoutCode(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	for code := 1; code < len(timeouts); code++ {
		if timeouts[code] >= d {
			return code
		}
	}
	return len(timeouts) - 1
}

// vim: foldmethod=marker
