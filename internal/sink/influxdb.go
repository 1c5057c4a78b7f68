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

package sink

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"hz.tools/lockin/internal/config"
)

// pointWriter is the part of api.WriteAPIBlocking used by InfluxDB.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxDB writes one point per reading, with a float field per numeric
// value. Values which are not numbers are skipped.
type InfluxDB struct {
	client      influxdb2.Client
	writer      pointWriter
	measurement string
}

// NewInfluxDB connects to the server in cfg and checks it is healthy.
func NewInfluxDB(ctx context.Context, cfg config.InfluxDBConfig) (*InfluxDB, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb: ping %s: %w", cfg.URL, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("influxdb: %s is not healthy", cfg.URL)
	}

	db := newInfluxDB(client.WriteAPIBlocking(cfg.Org, cfg.Bucket), cfg.Measurement)
	db.client = client
	return db, nil
}

func newInfluxDB(writer pointWriter, measurement string) *InfluxDB {
	return &InfluxDB{writer: writer, measurement: measurement}
}

// Point converts the reading to an InfluxDB point, or nil if no value is a
// number.
func (db *InfluxDB) Point(reading Reading) *write.Point {
	fields := make(map[string]interface{}, len(reading.Results))
	for _, result := range reading.Results {
		v, err := result.Float()
		if err != nil {
			continue
		}
		fields[result.Name] = v
	}
	if len(fields) == 0 {
		return nil
	}
	return write.NewPoint(
		db.measurement,
		map[string]string{
			"device":  reading.Device,
			"session": reading.Session,
		},
		fields,
		reading.Time,
	)
}

// Publish implements Sink.
func (db *InfluxDB) Publish(ctx context.Context, reading Reading) error {
	point := db.Point(reading)
	if point == nil {
		return nil
	}
	if err := db.writer.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("influxdb: write: %w", err)
	}
	return nil
}

// Close implements Sink.
func (db *InfluxDB) Close() error {
	if db.client != nil {
		db.client.Close()
	}
	return nil
}

// vim: foldmethod=marker
