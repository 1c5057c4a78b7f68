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

// Package config loads the sr830-query configuration from YAML, with
// defaults for an SR830 on GPIB board 0 and overrides from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"hz.tools/lockin/device/sr830"
)

// Config is the root configuration structure.
type Config struct {
	GPIB       GPIBConfig        `yaml:"gpib"`
	Protocol   ProtocolConfig    `yaml:"protocol"`
	Attributes []AttributeConfig `yaml:"attributes"`
	Poll       PollConfig        `yaml:"poll"`
	Logging    LoggingConfig     `yaml:"logging"`
	Metrics    MetricsConfig     `yaml:"metrics"`
	MQTT       MQTTConfig        `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig    `yaml:"influxdb"`
	Redis      RedisConfig       `yaml:"redis"`
}

// GPIBConfig is the bus address of the lock-in amplifier.
type GPIBConfig struct {
	Board   int           `yaml:"board"`
	PAD     int           `yaml:"pad"`
	SAD     int           `yaml:"sad"`
	Timeout time.Duration `yaml:"timeout"`

	// Scan probes every listener on the board for an SR830 instead of
	// using PAD.
	Scan bool `yaml:"scan"`
}

// ProtocolConfig is the query syntax of the device.
type ProtocolConfig struct {
	BatchPrefix   string `yaml:"batch_prefix"`
	Separator     string `yaml:"separator"`
	Terminator    string `yaml:"terminator"`
	MinBatch      int    `yaml:"min_batch"`
	MaxBatch      int    `yaml:"max_batch"`
	IdentityQuery string `yaml:"identity_query"`
	Identity      string `yaml:"identity"`
}

// AttributeConfig is one row of the attribute table.
type AttributeConfig struct {
	Name    string `yaml:"name"`
	Units   string `yaml:"units"`
	BatchID string `yaml:"batch_id"`
	Query   string `yaml:"query"`
}

// PollConfig controls how often the device is read. A Count of zero or
// less polls until interrupted.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
	Count    int           `yaml:"count"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// MetricsConfig contains the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// MQTTConfig contains MQTT broker settings for publishing readings.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      int    `yaml:"qos"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains InfluxDB settings for storing readings.
type InfluxDBConfig struct {
	Enabled     bool   `yaml:"enabled"`
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

// RedisConfig contains Redis settings for publishing readings.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`

	// History is the length of the reading list kept next to the channel.
	// Zero disables the list.
	History int `yaml:"history"`
}

// Default returns the configuration for an SR830 at its factory address.
func Default() *Config {
	proto := sr830.DefaultProtocol
	return &Config{
		GPIB: GPIBConfig{
			Board:   0,
			PAD:     8,
			Timeout: 3 * time.Second,
		},
		Protocol: ProtocolConfig{
			BatchPrefix:   proto.BatchPrefix,
			Separator:     proto.Separator,
			Terminator:    proto.Terminator,
			MinBatch:      proto.MinBatch,
			MaxBatch:      proto.MaxBatch,
			IdentityQuery: proto.IdentityQuery,
			Identity:      proto.Identity,
		},
		Poll: PollConfig{
			Interval: time.Second,
			Count:    1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Listen: ":9090",
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			ClientID: "sr830",
			Topic:    "lockin/sr830",
		},
		InfluxDB: InfluxDBConfig{
			URL:         "http://localhost:8086",
			Bucket:      "lockin",
			Measurement: "sr830",
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Channel: "lockin:sr830",
			History: 1000,
		},
	}
}

// Load reads the YAML file at path on top of Default, then applies the
// environment. An empty path only uses the defaults and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "config: reading file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "config: parsing %s", path)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides the configuration with LOCKIN_* environment variables.
// Secrets are best kept out of the YAML file.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv("LOCKIN_GPIB_PAD"); ok {
		pad, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "config: LOCKIN_GPIB_PAD")
		}
		c.GPIB.PAD = pad
	}
	if v, ok := os.LookupEnv("LOCKIN_LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv("LOCKIN_MQTT_PASSWORD"); ok {
		c.MQTT.Password = v
	}
	if v, ok := os.LookupEnv("LOCKIN_INFLUXDB_TOKEN"); ok {
		c.InfluxDB.Token = v
	}
	if v, ok := os.LookupEnv("LOCKIN_REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	return nil
}

// Validate checks the configuration for values that can not work.
func (c *Config) Validate() error {
	if c.GPIB.PAD < 0 || c.GPIB.PAD > 30 {
		return errors.Errorf("config: gpib pad %d out of range 0-30", c.GPIB.PAD)
	}
	if c.GPIB.SAD != 0 && (c.GPIB.SAD < 0x60 || c.GPIB.SAD > 0x7e) {
		return errors.Errorf("config: gpib sad %#x out of range 0x60-0x7e", c.GPIB.SAD)
	}
	if c.Poll.Interval < 0 {
		return errors.New("config: poll interval must not be negative")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return errors.Errorf("config: mqtt qos %d must be 0, 1 or 2", c.MQTT.QoS)
	}
	if c.MQTT.Enabled && c.MQTT.Topic == "" {
		return errors.New("config: mqtt topic is required")
	}
	if c.InfluxDB.Enabled && (c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "") {
		return errors.New("config: influxdb org and bucket are required")
	}
	if c.Redis.Enabled && c.Redis.Channel == "" {
		return errors.New("config: redis channel is required")
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	return nil
}

// Registry builds the attribute registry described by the protocol and
// attribute sections. An empty attribute section uses the SR830 table.
func (c *Config) Registry() (*sr830.Registry, error) {
	attrs := sr830.DefaultAttributes
	if len(c.Attributes) > 0 {
		attrs = make([]sr830.Attribute, len(c.Attributes))
		for i, a := range c.Attributes {
			attrs[i] = sr830.Attribute{
				Name:    a.Name,
				Units:   a.Units,
				BatchID: a.BatchID,
				Query:   a.Query,
			}
		}
	}

	reg, err := sr830.NewRegistry(attrs, sr830.Protocol{
		BatchPrefix:   c.Protocol.BatchPrefix,
		Separator:     c.Protocol.Separator,
		Terminator:    c.Protocol.Terminator,
		MinBatch:      c.Protocol.MinBatch,
		MaxBatch:      c.Protocol.MaxBatch,
		IdentityQuery: c.Protocol.IdentityQuery,
		Identity:      c.Protocol.Identity,
	})
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	return reg, nil
}

// vim: foldmethod=marker
