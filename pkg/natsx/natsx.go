package natsx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

type Config struct {
	URL           string        `split_words:"true" default:"nats://127.0.0.1:4222"`
	Name          string        `split_words:"true" default:"talent-assistant"`
	Subject       string        `split_words:"true" default:"talent.tool.executed"`
	Timeout       time.Duration `split_words:"true" default:"5s"`
	MaxReconnects int           `split_words:"true" default:"10"`
}

type Client struct {
	conn *nats.Conn
}

func Connect(cfg Config) (*Client, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("nats url is required")
	}
	opts := []nats.Option{nats.MaxReconnects(cfg.MaxReconnects)}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, nats.Timeout(cfg.Timeout))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

func (c *Client) Flush() error {
	return c.conn.Flush()
}

func (c *Client) Close() {
	c.conn.Close()
}
