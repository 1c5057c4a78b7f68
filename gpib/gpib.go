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

// Package gpib talks to instruments on a GPIB (IEEE-488) bus through
// linux-gpib.
package gpib

// TODO(paultag): no pkg-config for gpib yet, so we need to manually set
// the linker using LDFLAGS.

// #cgo LDFLAGS: -lgpib
//
// #include <stdlib.h>
// #include <gpib/ib.h>
import "C"

import (
	"context"
	"fmt"
	"time"
	"unsafe"
)

const (
	defaultEOS      = "\n"
	defaultReadSize = 1024

	// maxPAD is the highest primary address on the bus.
	maxPAD = 30
)

// Options contains configurable aspects of the connected GPIB device.
type Options struct {
	// BaseContext will be used to extend a context with the same lifecycle
	// as the underlying handle to the remote GPIB device.
	BaseContext context.Context

	// Timeout is how long a single read or write may take. It is rounded
	// up to the nearest timeout linux-gpib supports. Zero keeps the
	// board default.
	Timeout time.Duration

	// EOS is appended to every command sent with Query. Defaults to "\n".
	EOS string

	// ReadSize is the largest response Query will read. Defaults to 1024.
	ReadSize int
}

func (opts *Options) context() context.Context {
	if opts == nil || opts.BaseContext == nil {
		return context.Background()
	}
	return opts.BaseContext
}

func (opts *Options) eos() string {
	if opts == nil || opts.EOS == "" {
		return defaultEOS
	}
	return opts.EOS
}

func (opts *Options) readSize() int {
	if opts == nil || opts.ReadSize <= 0 {
		return defaultReadSize
	}
	return opts.ReadSize
}

// Device represents a device connected to the GPIB.
type Device struct {
	ctx        context.Context
	cancel     context.CancelFunc
	closed     bool
	descriptor C.int
	eos        string
	readSize   int
}

type status int

func getiberr() error {
	return iberror(int(C.iberr), int(C.ibcnt))
}

func (s status) Err() error {
	if s&0x8000 == 0x8000 {
		return getiberr()
	}
	return nil
}

// Close will release the underlying handle to the GPIB device, and close
// the related context, terminating any spawned helpers.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.cancel()
	rv := C.ibonl(d.descriptor, 0)
	if err := status(rv).Err(); err != nil {
		return err
	}
	d.closed = true
	return nil
}

// Local will return local control to the user over the device.
func (d *Device) Local() error {
	rv := C.ibloc(d.descriptor)
	return status(rv).Err()
}

// Clear will send the Selected Device Clear command to the device.
func (d *Device) Clear() error {
	rv := C.ibclr(d.descriptor)
	return status(rv).Err()
}

// Write will write user data to the GPIB device.
func (d *Device) Write(buf []byte) (int, error) {
	if err := d.usable(); err != nil {
		return 0, err
	}
	cb := C.CBytes(buf)
	defer C.free(unsafe.Pointer(cb))
	rv := C.ibwrt(d.descriptor, cb, C.long(len(buf)))
	if err := status(rv).Err(); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// Read will read data from the GPIB device.
func (d *Device) Read(buf []byte) (int, error) {
	if err := d.usable(); err != nil {
		return 0, err
	}
	var (
		cbuflen = C.size_t(len(buf))
		cbuf    = C.malloc(cbuflen)
	)
	defer C.free(cbuf)

	rv := C.ibrd(d.descriptor, cbuf, C.long(cbuflen))
	if err := status(rv).Err(); err != nil {
		return 0, err
	}

	leng := C.ibcntl
	i := copy(buf, C.GoBytes(cbuf, C.int(leng)))
	return i, nil
}

// Query will write the command, followed by the EOS, and return the next
// response read from the device. The response is returned as read,
// including any terminator.
func (d *Device) Query(cmd string) (string, error) {
	if _, err := d.Write([]byte(cmd + d.eos)); err != nil {
		return "", err
	}
	buf := make([]byte, d.readSize)
	i, err := d.Read(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:i]), nil
}

func (d *Device) usable() error {
	if d.closed || d.ctx.Err() != nil {
		return ErrClosed
	}
	return nil
}

// Open will open a provided GPIB device.
func Open(board, pad, sad int, opts *Options) (*Device, error) {
	ctx, cancel := context.WithCancel(opts.context())

	var tmo C.int = 13 // T10s, the linux-gpib default
	if opts != nil && opts.Timeout > 0 {
		tmo = C.int(timeoutCode(opts.Timeout))
	}

	desc := C.ibdev(C.int(board), C.int(pad), C.int(sad), tmo, 1, 0)
	if desc == -1 {
		cancel()
		return nil, fmt.Errorf("gpib: failed to open the specified device")
	}
	return &Device{
		ctx:        ctx,
		cancel:     cancel,
		descriptor: desc,
		eos:        opts.eos(),
		readSize:   opts.readSize(),
	}, nil
}

// Listeners returns the primary addresses of the devices on the board which
// respond as listeners. Only the primary address is probed.
func Listeners(board int) ([]int, error) {
	var pads []int
	for pad := 1; pad <= maxPAD; pad++ {
		var found C.short
		rv := C.ibln(C.int(board), C.int(pad), 0, &found) // NO_SAD
		if err := status(rv).Err(); err != nil {
			return nil, err
		}
		if found != 0 {
			pads = append(pads, pad)
		}
	}
	return pads, nil
}

// vim: foldmethod=marker
