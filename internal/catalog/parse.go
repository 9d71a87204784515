package catalog

import (
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ntpeters/govidia/internal/detect"
)

var (
	seriesRe = regexp.MustCompile(`[0-9]+\.?[0-9]*\.?[0-9]*`)
	pciIDRe  = regexp.MustCompile(`[0-9A-Fa-f]{4}`)
)

// unixVersions is what the unix driver page yields: the two current
// branch versions plus the newest version of each legacy series.
type unixVersions struct {
	longLived  string
	shortLived string
	legacy     []string
}

// parseUnixVersions extracts driver version numbers from the unix driver
// page. The page groups versions per platform in a paragraph headed by a
// bold platform name, with "Long Lived", "Short Lived" and ".xx series"
// labels preceding the version links.
func parseUnixVersions(r io.Reader, platform string) (*unixVersions, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Page: "unix drivers", Reason: err.Error()}
	}

	var section *goquery.Selection
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		header := p.Find("strong").First()
		if header.Length() > 0 && strings.Contains(header.Text(), platform) {
			section = p
			return false
		}
		return true
	})
	if section == nil {
		return nil, &ParseError{Page: "unix drivers", Reason: "no section for platform " + platform}
	}

	versions := &unixVersions{}

	// Walk the section's mixed text/link content in order: a label text
	// node announces what the next version link means.
	const (
		labelNone = iota
		labelLongLived
		labelShortLived
		labelLegacy
	)
	label := labelNone

	section.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "#text" {
			text := node.Text()
			switch {
			case strings.Contains(text, "Long Lived"):
				label = labelLongLived
			case strings.Contains(text, "Short Lived"):
				label = labelShortLived
			case strings.Contains(text, ".xx series"):
				label = labelLegacy
			}
			return
		}

		if goquery.NodeName(node) != "a" {
			return
		}
		version := strings.TrimSpace(node.Text())
		if version == "" {
			return
		}

		switch label {
		case labelLongLived:
			if versions.longLived == "" {
				versions.longLived = version
			}
		case labelShortLived:
			if versions.shortLived == "" {
				versions.shortLived = version
			}
		case labelLegacy:
			versions.legacy = append(versions.legacy, version)
			label = labelNone
		}
	})

	if versions.longLived == "" && versions.shortLived == "" {
		return nil, &ParseError{Page: "unix drivers", Reason: "no current driver versions found"}
	}

	return versions, nil
}

// legacySection is one driver series block on the legacy device page:
// the series tag and the device table that follows its header.
type legacySection struct {
	series  string
	devices []detect.Device
}

// parseLegacyDevices extracts the per-series supported device tables
// from the legacy GPU page. Each section is headed by text like
// "The 390.xx driver supports..." followed by a (product, PCI ID) table.
func parseLegacyDevices(r io.Reader) ([]legacySection, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Page: "legacy devices", Reason: err.Error()}
	}

	var sections []legacySection

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if !hasDirectText(s, ".xx driver") {
			return
		}

		series := seriesTag(s.Text())
		if series == "" {
			return
		}

		sec := legacySection{series: series}

		table := s.Parent().NextAllFiltered("table").First()
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cols := row.Find("td")
			if cols.Length() < 2 {
				return
			}
			name := strings.TrimSpace(cols.Eq(0).Text())
			if strings.Contains(name, "GPU product") || strings.Contains(name, "Device") {
				return
			}
			id := pciIDRe.FindString(cols.Eq(1).Text())
			if id == "" {
				return
			}
			sec.devices = append(sec.devices, detect.Device{Name: name, PCIID: id})
		})

		sections = append(sections, sec)
	})

	if len(sections) == 0 {
		return nil, &ParseError{Page: "legacy devices", Reason: "no driver series sections found"}
	}

	return sections, nil
}

// parseSupportedChips extracts the device table from a current driver's
// supportedchips.html README page. The first table lists the supported
// GPUs; later tables on the page repeat subsets (legacy notes etc.), so
// only the leading few are read.
func parseSupportedChips(r io.Reader) ([]detect.Device, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Page: "supported chips", Reason: err.Error()}
	}

	tables := doc.Find("div.informaltable")
	if tables.Length() == 0 {
		return nil, &ParseError{Page: "supported chips", Reason: "no device tables found"}
	}

	var devices []detect.Device
	tables.Each(func(i int, table *goquery.Selection) {
		if i >= 5 {
			return
		}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cols := row.Find("td")
			if cols.Length() < 2 {
				return
			}
			name := strings.TrimSpace(cols.Eq(0).Text())
			// The PCI ID column may carry subsystem IDs after the
			// device ID; only the first token matters.
			id := strings.Fields(cols.Eq(1).Text())
			if len(id) == 0 || !pciIDRe.MatchString(id[0]) {
				return
			}
			devices = append(devices, detect.Device{Name: name, PCIID: id[0]})
		})
	})

	if len(devices) == 0 {
		return nil, &ParseError{Page: "supported chips", Reason: "device tables are empty"}
	}

	return devices, nil
}

// hasDirectText reports whether the selection has an immediate text
// child containing substr, mirroring how the section headers embed the
// ".xx driver" phrase directly rather than in a nested element.
func hasDirectText(s *goquery.Selection, substr string) bool {
	found := false
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" && strings.Contains(c.Text(), substr) {
			found = true
		}
	})
	return found
}

// seriesTag pulls the series number out of a section header like
// "The 390.xx driver supports...". A trailing dot from the ".xx" suffix
// is trimmed.
func seriesTag(text string) string {
	tag := seriesRe.FindString(text)
	return strings.TrimSuffix(tag, ".")
}
