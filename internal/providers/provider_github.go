package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	ghapi "github.com/google/go-github/v72/github"

	"github.com/duotasks/companiond/api"
)

// The Github provider publishes update manifests as release assets: each
// release carries a manifest.json plus the package itself as an .apk asset.
type github struct {
	gh           *ghapi.Client
	organization string
	repository   string

	config map[string]string

	releaseMu        sync.Mutex
	releaseLastCheck time.Time
	manifest         *api.UpdateManifest
}

func (*github) Type() string {
	return "github"
}

func (p *github) ClearCache(_ context.Context) error {
	// Reset the last check time.
	p.releaseMu.Lock()
	defer p.releaseMu.Unlock()

	p.releaseLastCheck = time.Time{}

	return nil
}

func (p *github) load(_ context.Context) error {
	// Setup the Github client.
	p.gh = ghapi.NewClient(nil)

	fields := strings.SplitN(p.config["github_repository"], "/", 2)
	if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
		return errors.New("the github provider requires a repository in \"owner/name\" form")
	}

	p.organization = fields[0]
	p.repository = fields[1]

	return nil
}

func (p *github) FetchManifest(ctx context.Context) (*api.UpdateManifest, error) {
	err := p.checkRelease(ctx)
	if err != nil {
		return nil, err
	}

	p.releaseMu.Lock()
	defer p.releaseMu.Unlock()

	// Hand out a copy, fetched manifests are immutable.
	manifest := *p.manifest

	return &manifest, nil
}

func (*github) checkLimit(err error) error {
	_, ok := err.(*ghapi.RateLimitError) //nolint:errorlint
	if ok {
		return ErrProviderUnavailable
	}

	return err
}

func (p *github) checkRelease(ctx context.Context) error {
	// Acquire lock.
	p.releaseMu.Lock()
	defer p.releaseMu.Unlock()

	// Only talk to Github once an hour.
	if !p.releaseLastCheck.IsZero() && p.releaseLastCheck.Add(time.Hour).After(time.Now()) {
		return nil
	}

	// Get the latest release.
	release, _, err := p.gh.Repositories.GetLatestRelease(ctx, p.organization, p.repository)
	if err != nil {
		return p.checkLimit(err)
	}

	// Get the list of files for the release.
	assets, _, err := p.gh.Repositories.ListReleaseAssets(ctx, p.organization, p.repository, release.GetID(), nil)
	if err != nil {
		return p.checkLimit(err)
	}

	// Locate the manifest and package assets.
	var manifestURL string

	var packageURL string

	for _, asset := range assets {
		if asset.GetName() == "manifest.json" {
			manifestURL = asset.GetBrowserDownloadURL()
		}

		if strings.HasSuffix(asset.GetName(), ".apk") {
			packageURL = asset.GetBrowserDownloadURL()
		}
	}

	if manifestURL == "" {
		return errors.New("latest release has no manifest.json asset")
	}

	manifest, err := p.fetchAsset(ctx, manifestURL)
	if err != nil {
		return err
	}

	// Prefer the release's own package asset over whatever URL the manifest carries.
	if packageURL != "" {
		manifest.DownloadURL = packageURL
	}

	err = manifest.Validate()
	if err != nil {
		return err
	}

	// Record the release.
	p.releaseLastCheck = time.Now()
	p.manifest = manifest

	return nil
}

func (p *github) fetchAsset(ctx context.Context, assetURL string) (*api.UpdateManifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, errors.New("unable to create http request: " + err.Error())
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.New("unable to get http response: " + err.Error())
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected HTTP status: " + resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var manifest api.UpdateManifest

	err = json.Unmarshal(body, &manifest)
	if err != nil {
		return nil, errors.New("unable to parse update manifest: " + err.Error())
	}

	return &manifest, nil
}
