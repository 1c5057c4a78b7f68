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

	"github.com/redis/go-redis/v9"

	"hz.tools/lockin/internal/config"
)

// redisClient is the part of *redis.Client used by Redis.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	Close() error
}

// Redis publishes each reading as JSON on a channel, and keeps the latest
// readings in a capped list named <channel>:history.
type Redis struct {
	client  redisClient
	channel string
	history int64
}

// NewRedis connects to the server in cfg.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return newRedis(client, cfg.Channel, cfg.History), nil
}

func newRedis(client redisClient, channel string, history int) *Redis {
	return &Redis{client: client, channel: channel, history: int64(history)}
}

func (r *Redis) historyKey() string {
	return r.channel + ":history"
}

// Publish implements Sink.
func (r *Redis) Publish(ctx context.Context, reading Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("redis: encoding reading: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish: %w", err)
	}
	if r.history <= 0 {
		return nil
	}
	if err := r.client.LPush(ctx, r.historyKey(), payload).Err(); err != nil {
		return fmt.Errorf("redis: history: %w", err)
	}
	if err := r.client.LTrim(ctx, r.historyKey(), 0, r.history-1).Err(); err != nil {
		return fmt.Errorf("redis: history: %w", err)
	}
	return nil
}

// Close implements Sink.
func (r *Redis) Close() error {
	return r.client.Close()
}

// vim: foldmethod=marker
