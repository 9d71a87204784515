package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/ntpeters/govidia/internal/cache"
	"github.com/ntpeters/govidia/internal/config"
)

// Client fetches NVIDIA's driver pages and assembles them into a
// Catalog. All fetches are sequential and blocking; there is no retry
// logic. A per-session memo cache keeps each page to a single fetch.
type Client struct {
	HTTP *http.Client

	// Page URLs, normally from config.
	LegacyDevicesURL string
	UnixDriversURL   string
	DownloadMirror   string

	// Platform is the NVIDIA platform directory name, "Linux-x86_64"
	// or "Linux-x86". Defaults from the build architecture.
	Platform string

	pages *cache.Cache
}

// NewClient builds a Client from config.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		HTTP: &http.Client{
			Timeout: time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		},
		LegacyDevicesURL: cfg.URLs.LegacyDevices,
		UnixDriversURL:   cfg.URLs.UnixDrivers,
		DownloadMirror:   cfg.URLs.DownloadMirror,
		Platform:         platformDir(),
		pages:            cache.New(),
	}
}

// platformDir picks the NVIDIA download directory for this build's
// architecture. Anything that is not 32-bit x86 gets the x86_64 tree,
// matching how the pages group "Linux x86/" vs "Linux x86_64".
func platformDir() string {
	if runtime.GOARCH == "386" {
		return "Linux-x86"
	}
	return "Linux-x86_64"
}

// platformSection is the header text marking this platform's block on
// the unix driver page.
func (c *Client) platformSection() string {
	if c.Platform == "Linux-x86" {
		return "Linux x86/"
	}
	return "Linux x86_64/"
}

// Fetch builds a Catalog from live pages: the unix driver page for
// version numbers, the legacy device page for per-series device tables,
// and the two current branches' supportedchips pages for current-device
// tables. Fails with *NetworkError or *ParseError; a partially built
// catalog is never returned.
func (c *Client) Fetch(ctx context.Context) (*Catalog, error) {
	if c.pages == nil {
		c.pages = cache.New()
	}

	body, err := c.get(ctx, c.UnixDriversURL)
	if err != nil {
		return nil, err
	}
	versions, err := parseUnixVersions(bytes.NewReader(body), c.platformSection())
	if err != nil {
		return nil, err
	}

	body, err = c.get(ctx, c.LegacyDevicesURL)
	if err != nil {
		return nil, err
	}
	sections, err := parseLegacyDevices(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	cat := newCatalog()

	for _, sec := range sections {
		latest := latestLegacyVersion(sec.series, versions.legacy)
		url := ""
		if latest != "" {
			url = c.downloadURL(latest)
		}
		cat.addSeries(sec.series, latest, url)
		for _, dev := range sec.devices {
			cat.addDevice(sec.series, dev)
		}
	}

	if versions.longLived != "" {
		cat.longLived = seriesOf(versions.longLived)
		cat.addSeries(cat.longLived, versions.longLived, c.downloadURL(versions.longLived))
		if err := c.addCurrentDevices(ctx, cat, cat.longLived, versions.longLived); err != nil {
			return nil, err
		}
	}
	if versions.shortLived != "" {
		cat.shortLived = seriesOf(versions.shortLived)
		cat.addSeries(cat.shortLived, versions.shortLived, c.downloadURL(versions.shortLived))
		if err := c.addCurrentDevices(ctx, cat, cat.shortLived, versions.shortLived); err != nil {
			return nil, err
		}
	}

	return cat, nil
}

// addCurrentDevices fetches a current driver's supportedchips page and
// records its devices under the given series.
func (c *Client) addCurrentDevices(ctx context.Context, cat *Catalog, series, version string) error {
	body, err := c.get(ctx, c.supportedChipsURL(version))
	if err != nil {
		return err
	}
	devices, err := parseSupportedChips(bytes.NewReader(body))
	if err != nil {
		return err
	}
	for _, dev := range devices {
		cat.addDevice(series, dev)
	}
	return nil
}

// latestLegacyVersion finds the newest published version belonging to a
// legacy series, e.g. series "390" matches version "390.157".
func latestLegacyVersion(series string, legacy []string) string {
	for _, v := range legacy {
		if v == series || strings.HasPrefix(v, series+".") {
			return v
		}
	}
	return ""
}

// downloadURL composes the canonical driver package URL for a version.
// NVIDIA's installer packages follow a fixed layout on the download
// mirror, so the URL is constructed rather than scraped.
func (c *Client) downloadURL(version string) string {
	return fmt.Sprintf("%s/XFree86/%s/%s/NVIDIA-%s-%s.run",
		c.DownloadMirror, c.Platform, version, c.Platform, version)
}

// supportedChipsURL composes the URL of a current driver's supported
// device list, shipped inside its README tree on the mirror.
func (c *Client) supportedChipsURL(version string) string {
	return fmt.Sprintf("%s/XFree86/%s/%s/README/supportedchips.html",
		c.DownloadMirror, c.Platform, version)
}

// get fetches a page, consulting the session memo cache first.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if body := c.pages.Get(url); body != nil {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	c.pages.SetPage(url, body)
	return body, nil
}
