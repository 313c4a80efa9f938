// Package cli implements the companionctl command line client.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/duotasks/companiond/api"
)

// Client talks to the companiond REST API over its local unix socket.
type Client struct {
	http *http.Client
}

// NewClient returns a client for the daemon listening on the given socket.
func NewClient(socketPath string) *Client {
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _ string, _ string) (net.Conn, error) {
					return (&net.Dialer{}).DialContext(ctx, "unix", socketPath)
				},
			},
		},
	}
}

// Query performs one API request and returns the decoded response envelope.
// Error responses are turned into plain errors.
func (c *Client) Query(ctx context.Context, method string, path string, in any) (*api.ResponseRaw, error) {
	var body *bytes.Buffer

	if in != nil {
		body = &bytes.Buffer{}

		err := json.NewEncoder(body).Encode(in)
		if err != nil {
			return nil, err
		}
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://companiond"+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	response := api.ResponseRaw{}

	err = json.NewDecoder(resp.Body).Decode(&response)
	if err != nil {
		return nil, errors.New("unable to decode daemon response: " + err.Error())
	}

	if response.Type == api.ErrorResponse {
		return nil, errors.New(response.Error)
	}

	return &response, nil
}
