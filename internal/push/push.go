// Package push delivers push notifications through an FCM style HTTP
// endpoint.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/duotasks/companiond/internal/triggers"
)

const (
	pushConnectTimeout = 15 * time.Second
	pushReadTimeout    = 15 * time.Second
)

// Client sends notifications to a push delivery endpoint, authenticated with
// a server key.
type Client struct {
	endpoint  string
	serverKey string
	client    *http.Client
}

// NewClient returns a push client for the given endpoint and server key.
func NewClient(endpoint string, serverKey string) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("push delivery requires an endpoint URL")
	}

	return &Client{
		endpoint:  endpoint,
		serverKey: serverKey,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: pushConnectTimeout}).DialContext,
				TLSHandshakeTimeout:   pushConnectTimeout,
				ResponseHeaderTimeout: pushReadTimeout,
			},
			Timeout: pushConnectTimeout + pushReadTimeout,
		},
	}, nil
}

type message struct {
	To           string                `json:"to"`
	Notification triggers.Notification `json:"notification"`
}

// Send delivers one notification to the device identified by the token.
func (c *Client) Send(ctx context.Context, token string, notification triggers.Notification) error {
	body, err := json.Marshal(message{To: token, Notification: notification})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.New("unable to create push request: " + err.Error())
	}

	req.Header.Set("Content-Type", "application/json")

	if c.serverKey != "" {
		req.Header.Set("Authorization", "key="+c.serverKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.New("unable to deliver notification: " + err.Error())
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected HTTP status delivering notification: " + resp.Status)
	}

	return nil
}
