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

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hz.tools/lockin/device/sr830"
	"hz.tools/lockin/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8, cfg.GPIB.PAD)
	assert.Equal(t, "SNAP?", cfg.Protocol.BatchPrefix)
	assert.Equal(t, ",", cfg.Protocol.Separator)
	assert.Equal(t, "\n", cfg.Protocol.Terminator)
	assert.Equal(t, 2, cfg.Protocol.MinBatch)
	assert.Equal(t, 6, cfg.Protocol.MaxBatch)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, sr830.DefaultAttributes, reg.Attributes())
	assert.Equal(t, sr830.DefaultProtocol, reg.Protocol())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default().GPIB, cfg.GPIB)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
gpib:
  board: 1
  pad: 12
  timeout: 1s
protocol:
  max_batch: 4
poll:
  interval: 250ms
  count: 10
logging:
  level: debug
  format: json
mqtt:
  enabled: true
  topic: lab/lockin
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.GPIB.Board)
	assert.Equal(t, 12, cfg.GPIB.PAD)
	assert.Equal(t, time.Second, cfg.GPIB.Timeout)
	assert.Equal(t, 4, cfg.Protocol.MaxBatch)
	assert.Equal(t, "SNAP?", cfg.Protocol.BatchPrefix)
	assert.Equal(t, 250*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, 10, cfg.Poll.Count)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "lab/lockin", cfg.MQTT.Topic)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	queries, err := reg.Plan(reg.Select("x", "y", "r", "theta", "aux1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"SNAP?1,2,3", "SNAP?4,5"}, queries)
}

func TestLoadAttributes(t *testing.T) {
	path := writeConfig(t, `
attributes:
  - {name: x, units: V, batch_id: "1", query: "OUTP?1"}
  - {name: f, units: Hz, batch_id: "9"}
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	require.Len(t, reg.Attributes(), 2)

	f, ok := reg.Lookup("f")
	require.True(t, ok)
	assert.Equal(t, "Hz", f.Units)
	assert.Empty(t, f.Query)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("LOCKIN_GPIB_PAD", "9")
	t.Setenv("LOCKIN_LOG_LEVEL", "warn")
	t.Setenv("LOCKIN_MQTT_PASSWORD", "hunter2")
	t.Setenv("LOCKIN_INFLUXDB_TOKEN", "token")
	t.Setenv("LOCKIN_REDIS_PASSWORD", "secret")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.GPIB.PAD)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "hunter2", cfg.MQTT.Password)
	assert.Equal(t, "token", cfg.InfluxDB.Token)
	assert.Equal(t, "secret", cfg.Redis.Password)
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("LOCKIN_GPIB_PAD", "eight")

	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.Load(writeConfig(t, "gpib: [not, a, map]"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "pad too high", mutate: func(c *config.Config) { c.GPIB.PAD = 31 }},
		{name: "bad sad", mutate: func(c *config.Config) { c.GPIB.SAD = 3 }},
		{name: "negative interval", mutate: func(c *config.Config) { c.Poll.Interval = -time.Second }},
		{name: "bad qos", mutate: func(c *config.Config) { c.MQTT.QoS = 3 }},
		{name: "mqtt without topic", mutate: func(c *config.Config) { c.MQTT.Enabled, c.MQTT.Topic = true, "" }},
		{name: "influxdb without org", mutate: func(c *config.Config) { c.InfluxDB.Enabled = true }},
		{name: "redis without channel", mutate: func(c *config.Config) { c.Redis.Enabled, c.Redis.Channel = true, "" }},
		{name: "bad batch bounds", mutate: func(c *config.Config) { c.Protocol.MinBatch = 7 }},
		{
			name: "duplicate attribute",
			mutate: func(c *config.Config) {
				c.Attributes = []config.AttributeConfig{
					{Name: "x", BatchID: "1"},
					{Name: "x", BatchID: "2"},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// vim: foldmethod=marker
