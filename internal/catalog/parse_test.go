package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const unixPageHTML = `<html><body>
<p><strong>Linux x86_64/AMD64/EM64T</strong><br>
Latest Long Lived Branch Version: <a href="/drivers/570.86">570.86</a><br>
Latest Short Lived Branch Version: <a href="/drivers/575.51">575.51</a><br>
Latest Legacy GPU Version (470.xx series): <a href="/drivers/470.256.02">470.256.02</a><br>
Latest Legacy GPU Version (390.xx series): <a href="/drivers/390.157">390.157</a><br>
Latest Legacy GPU Version (340.xx series): <a href="/drivers/340.108">340.108</a><br>
</p>
<p><strong>Linux x86/IA32</strong><br>
Latest Long Lived Branch Version: <a href="/drivers/390.157">390.157</a><br>
</p>
</body></html>`

const legacyPageHTML = `<html><body>
<p><strong>The 470.xx driver supports the following set of GPUs:</strong></p>
<table>
<tr><td>GPU product</td><td>Device PCI ID</td></tr>
<tr><td>GeForce GTX 1080</td><td>1B80</td></tr>
<tr><td>GeForce GTX 1070</td><td>1B81</td></tr>
</table>
<p><strong>The 390.xx driver supports the following set of GPUs:</strong></p>
<table>
<tr><td>GPU product</td><td>Device PCI ID</td></tr>
<tr><td>GeForce GTX 680</td><td>1180</td></tr>
<tr><td>GeForce GTX 690</td><td>1188</td></tr>
</table>
</body></html>`

const supportedChipsHTML = `<html><body>
<div class="informaltable">
<table>
<tr><th>NVIDIA GPU product</th><th>Device PCI ID</th></tr>
<tr><td>GeForce RTX 4090</td><td>2684</td></tr>
<tr><td>GeForce RTX 4080</td><td>2704 10DE 16F1</td></tr>
</table>
</div>
</body></html>`

func TestParseUnixVersions(t *testing.T) {
	versions, err := parseUnixVersions(strings.NewReader(unixPageHTML), "Linux x86_64/")
	require.NoError(t, err)

	require.Equal(t, "570.86", versions.longLived)
	require.Equal(t, "575.51", versions.shortLived)
	require.Equal(t, []string{"470.256.02", "390.157", "340.108"}, versions.legacy)
}

func TestParseUnixVersionsOtherPlatform(t *testing.T) {
	versions, err := parseUnixVersions(strings.NewReader(unixPageHTML), "Linux x86/")
	require.NoError(t, err)

	require.Equal(t, "390.157", versions.longLived)
	require.Empty(t, versions.shortLived)
	require.Empty(t, versions.legacy)
}

func TestParseUnixVersionsNoPlatformSection(t *testing.T) {
	_, err := parseUnixVersions(strings.NewReader(unixPageHTML), "Solaris/")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseUnixVersionsNoVersions(t *testing.T) {
	page := `<html><body><p><strong>Linux x86_64/AMD64</strong>nothing here</p></body></html>`
	_, err := parseUnixVersions(strings.NewReader(page), "Linux x86_64/")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseLegacyDevices(t *testing.T) {
	sections, err := parseLegacyDevices(strings.NewReader(legacyPageHTML))
	require.NoError(t, err)
	require.Len(t, sections, 2)

	require.Equal(t, "470", sections[0].series)
	require.Len(t, sections[0].devices, 2)
	require.Equal(t, "GeForce GTX 1080", sections[0].devices[0].Name)
	require.Equal(t, "1B80", sections[0].devices[0].PCIID)

	require.Equal(t, "390", sections[1].series)
	require.Equal(t, "1180", sections[1].devices[0].PCIID)
	require.Equal(t, "1188", sections[1].devices[1].PCIID)
}

func TestParseLegacyDevicesSkipsHeaderRows(t *testing.T) {
	sections, err := parseLegacyDevices(strings.NewReader(legacyPageHTML))
	require.NoError(t, err)

	for _, sec := range sections {
		for _, dev := range sec.devices {
			require.NotContains(t, dev.Name, "GPU product")
		}
	}
}

func TestParseLegacyDevicesNoSections(t *testing.T) {
	_, err := parseLegacyDevices(strings.NewReader(`<html><body><p>moved</p></body></html>`))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Contains(t, parseErr.Error(), "legacy devices")
}

func TestParseSupportedChips(t *testing.T) {
	devices, err := parseSupportedChips(strings.NewReader(supportedChipsHTML))
	require.NoError(t, err)
	require.Len(t, devices, 2)

	require.Equal(t, "GeForce RTX 4090", devices[0].Name)
	require.Equal(t, "2684", devices[0].PCIID)

	// Subsystem IDs after the device ID must not leak into the ID.
	require.Equal(t, "2704", devices[1].PCIID)
}

func TestParseSupportedChipsNoTables(t *testing.T) {
	_, err := parseSupportedChips(strings.NewReader(`<html><body></body></html>`))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestSeriesTag(t *testing.T) {
	require.Equal(t, "390", seriesTag("The 390.xx driver supports"))
	require.Equal(t, "71.86", seriesTag("The 71.86.xx driver supports"))
	require.Equal(t, "", seriesTag("no digits here"))
}
