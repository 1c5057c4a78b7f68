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

// Package output prints SR830 readings as text, CSV or JSON lines.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"hz.tools/lockin/device/sr830"
	"hz.tools/lockin/internal/sink"
)

// Printer writes readings to an io.Writer in one of the supported formats.
type Printer struct {
	format string
	out    io.Writer
	csv    *csv.Writer
}

// New returns a Printer for format, which is one of "text", "csv" or
// "json". The csv format writes its header right away, naming the requested
// attributes in table order.
func New(format string, out io.Writer, registry *sr830.Registry, names []string) (*Printer, error) {
	p := &Printer{format: format, out: out}
	switch format {
	case "text", "json":
	case "csv":
		p.csv = csv.NewWriter(out)
		header := []string{"timestamp"}
		for _, name := range registry.Names(registry.Select(names...)) {
			attr, _ := registry.Lookup(name)
			header = append(header, fmt.Sprintf("%s (%s)", name, attr.Units))
		}
		if err := p.write(header); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("output: unknown format %q", format)
	}
	return p, nil
}

func (p *Printer) write(row []string) error {
	if err := p.csv.Write(row); err != nil {
		return errors.Wrap(err, "output")
	}
	p.csv.Flush()
	return errors.Wrap(p.csv.Error(), "output")
}

// Print writes a single reading.
func (p *Printer) Print(reading sink.Reading) error {
	switch p.format {
	case "json":
		data, err := json.Marshal(reading)
		if err != nil {
			return errors.Wrap(err, "output")
		}
		_, err = fmt.Fprintf(p.out, "%s\n", data)
		return err
	case "csv":
		row := []string{reading.Time.Format(time.RFC3339Nano)}
		for _, result := range reading.Results {
			row = append(row, result.Value)
		}
		return p.write(row)
	default:
		for _, result := range reading.Results {
			if _, err := fmt.Fprintln(p.out, result); err != nil {
				return err
			}
		}
		return nil
	}
}

// vim: foldmethod=marker
