package catalog

import (
	"sort"
	"strings"

	"github.com/ntpeters/govidia/internal/detect"
)

// Branch selects between the two parallel release tracks NVIDIA offers
// for current-generation hardware.
type Branch int

const (
	// BranchLongLived is the stability-focused track (the default).
	BranchLongLived Branch = iota
	// BranchShortLived is the feature-focused track.
	BranchShortLived
)

func (b Branch) String() string {
	if b == BranchShortLived {
		return "short-lived"
	}
	return "long-lived"
}

// ParseBranch maps a config/flag spelling to a Branch. Anything that is
// not recognizably short-lived resolves to the long-lived default.
func ParseBranch(s string) Branch {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shortlived", "short-lived", "short":
		return BranchShortLived
	}
	return BranchLongLived
}

// SeriesEntry is one driver release line: its series tag, the newest
// version published for it, and the devices it supports.
type SeriesEntry struct {
	Series        string          `json:"series"`
	LatestVersion string          `json:"latest_version"`
	DownloadURL   string          `json:"download_url,omitempty"`
	Devices       []detect.Device `json:"devices,omitempty"`
}

// Catalog joins driver series, versions, and device IDs for one
// resolution session. It is built fresh from live pages per invocation
// and never cached across runs; construction cost is several page
// fetches (see Client.Fetch).
type Catalog struct {
	series map[string]*SeriesEntry

	// Inverse index from device ID to series. Built alongside the
	// device lists; duplicate listings resolve last-seen-wins.
	byDevice map[string]string

	// Series tags of the two current-generation branches. Both branches
	// support the same device set, so the inverse index alone cannot
	// pick between them; the Branch selector does.
	longLived  string
	shortLived string
}

func newCatalog() *Catalog {
	return &Catalog{
		series:   make(map[string]*SeriesEntry),
		byDevice: make(map[string]string),
	}
}

// addSeries registers a series with its latest version and download URL,
// creating the entry if needed. The first version recorded for a series
// wins, matching how the legacy page repeats section headers.
func (c *Catalog) addSeries(series, version, url string) *SeriesEntry {
	entry, ok := c.series[series]
	if !ok {
		entry = &SeriesEntry{Series: series}
		c.series[series] = entry
	}
	if entry.LatestVersion == "" {
		entry.LatestVersion = version
		entry.DownloadURL = url
	}
	return entry
}

// addDevice records a supported device under a series and updates the
// inverse index. A device listed under two series keeps the last seen
// mapping.
func (c *Catalog) addDevice(series string, dev detect.Device) {
	entry, ok := c.series[series]
	if !ok {
		entry = c.addSeries(series, "", "")
	}
	entry.Devices = append(entry.Devices, dev)
	c.byDevice[NormalizeID(dev.PCIID)] = series
}

// RequiredSeries resolves a device ID to the driver series that supports
// it. For devices supported by the current-generation driver, branch
// picks between the long-lived and short-lived lines; for legacy devices
// branch is irrelevant. Returns *UnknownDeviceError when the ID appears
// in no series.
func (c *Catalog) RequiredSeries(deviceID string, branch Branch) (string, error) {
	id := NormalizeID(deviceID)

	series, ok := c.byDevice[id]
	if !ok {
		return "", &UnknownDeviceError{DeviceID: id}
	}

	// Both current branches list the same devices, so swap to the
	// preferred branch when the index happened to record the other.
	if series == c.longLived || series == c.shortLived {
		if branch == BranchShortLived && c.shortLived != "" {
			return c.shortLived, nil
		}
		if branch == BranchLongLived && c.longLived != "" {
			return c.longLived, nil
		}
	}

	return series, nil
}

// LatestVersion returns the newest driver version of the series required
// by the given device.
func (c *Catalog) LatestVersion(deviceID string, branch Branch) (string, error) {
	series, err := c.RequiredSeries(deviceID, branch)
	if err != nil {
		return "", err
	}
	return c.series[series].LatestVersion, nil
}

// DownloadURL returns the driver package URL for the series required by
// the given device.
func (c *Catalog) DownloadURL(deviceID string, branch Branch) (string, error) {
	series, err := c.RequiredSeries(deviceID, branch)
	if err != nil {
		return "", err
	}
	return c.series[series].DownloadURL, nil
}

// Entry returns the catalog entry for a series, or nil.
func (c *Catalog) Entry(series string) *SeriesEntry {
	return c.series[series]
}

// Entries returns all series entries sorted by series tag.
func (c *Catalog) Entries() []*SeriesEntry {
	entries := make([]*SeriesEntry, 0, len(c.series))
	for _, e := range c.series {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Series < entries[j].Series
	})
	return entries
}

// LongLivedSeries returns the series tag of the current long-lived
// branch, or "" when the catalog has none.
func (c *Catalog) LongLivedSeries() string { return c.longLived }

// ShortLivedSeries returns the series tag of the current short-lived
// branch, or "" when the catalog has none.
func (c *Catalog) ShortLivedSeries() string { return c.shortLived }

// IsCurrent reports whether the series is one of the two
// current-generation branches rather than a legacy line.
func (c *Catalog) IsCurrent(series string) bool {
	return series != "" && (series == c.longLived || series == c.shortLived)
}

// NormalizeID canonicalizes a PCI device identifier to the eight-digit
// upper-case vendor+device form used throughout, e.g. "10DE1180".
// Accepts bare device IDs ("1180"), "10de:1180", and "0x1180" spellings.
func NormalizeID(id string) string {
	id = strings.ToUpper(strings.TrimSpace(id))
	id = strings.TrimPrefix(id, "0X")
	id = strings.ReplaceAll(id, ":", "")
	if len(id) == 4 {
		id = "10DE" + id
	}
	return id
}

// seriesOf derives the series tag from a full version number by dropping
// the final component: "390.157" -> "390", "470.256.02" -> "470.256".
func seriesOf(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return version
	}
	return strings.Join(parts[:len(parts)-1], ".")
}
