package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/duotasks/companiond/api"
)

const (
	// Network timeouts for manifest fetches.
	httpsConnectTimeout = 15 * time.Second
	httpsReadTimeout    = 15 * time.Second
)

// The https provider fetches the manifest from a fixed JSON endpoint.
type https struct {
	config map[string]string

	url    string
	client *http.Client
}

func (*https) Type() string {
	return "https"
}

func (*https) ClearCache(_ context.Context) error {
	return nil
}

func (p *https) load(_ context.Context) error {
	p.url = p.config["manifest_url"]
	if p.url == "" {
		return errors.New("the https provider requires a manifest URL")
	}

	// We request gzip encoding ourselves and decode it below, so disable
	// the transport's transparent handling.
	p.client = &http.Client{
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: httpsConnectTimeout}).DialContext,
			TLSHandshakeTimeout:   httpsConnectTimeout,
			ResponseHeaderTimeout: httpsReadTimeout,
			DisableCompression:    true,
		},
		Timeout: httpsConnectTimeout + httpsReadTimeout,
	}

	return nil
}

func (p *https) FetchManifest(ctx context.Context) (*api.UpdateManifest, error) {
	// Prepare the request.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, errors.New("unable to create http request: " + err.Error())
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	// Get the manifest.
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.New("unable to fetch update manifest: " + err.Error())
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected HTTP status fetching update manifest: " + resp.Status)
	}

	body := resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, errors.New("gzip error reading manifest: " + err.Error())
		}

		defer gz.Close()

		body = gz
	}

	// Parse the manifest.
	var manifest api.UpdateManifest

	err = json.NewDecoder(body).Decode(&manifest)
	if err != nil {
		return nil, errors.New("unable to parse update manifest: " + err.Error())
	}

	err = manifest.Validate()
	if err != nil {
		return nil, err
	}

	return &manifest, nil
}
