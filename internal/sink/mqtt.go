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
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"hz.tools/lockin/internal/config"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
)

// mqttPublisher is the part of pahomqtt.Client used by MQTT.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes each reading as retained JSON on the configured topic, and
// each value as a retained plain text message on topic/<name>.
type MQTT struct {
	client mqttPublisher
	topic  string
	qos    byte
}

// NewMQTT connects to the broker in cfg.
func NewMQTT(cfg config.MQTTConfig) (*MQTT, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt: connect to %s: timeout after %v", cfg.Broker, mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", cfg.Broker, err)
	}
	return newMQTT(client, cfg.Topic, byte(cfg.QoS)), nil
}

func newMQTT(client mqttPublisher, topic string, qos byte) *MQTT {
	return &MQTT{client: client, topic: topic, qos: qos}
}

// Publish implements Sink.
func (m *MQTT) Publish(ctx context.Context, reading Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("mqtt: encoding reading: %w", err)
	}
	if err := m.publish(ctx, m.topic, payload); err != nil {
		return err
	}
	for _, result := range reading.Results {
		if err := m.publish(ctx, m.topic+"/"+result.Name, []byte(result.Value)); err != nil {
			return err
		}
	}
	return nil
}

func (m *MQTT) publish(ctx context.Context, topic string, payload []byte) error {
	token := m.client.Publish(topic, m.qos, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(mqttPublishTimeout):
		return fmt.Errorf("mqtt: publish to %s: timeout after %v", topic, mqttPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish to %s: %w", topic, err)
	}
	return nil
}

// Close implements Sink.
func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}

// vim: foldmethod=marker
