package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const shortLivedChipsHTML = `<html><body>
<div class="informaltable">
<table>
<tr><th>NVIDIA GPU product</th><th>Device PCI ID</th></tr>
<tr><td>GeForce RTX 4090</td><td>2684</td></tr>
<tr><td>GeForce RTX 4080</td><td>2704</td></tr>
</table>
</div>
</body></html>`

func newTestServer(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/object/unix.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(unixPageHTML))
	})
	mux.HandleFunc("/object/IO_32667.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(legacyPageHTML))
	})
	mux.HandleFunc("/XFree86/Linux-x86_64/570.86/README/supportedchips.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(supportedChipsHTML))
	})
	mux.HandleFunc("/XFree86/Linux-x86_64/575.51/README/supportedchips.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(shortLivedChipsHTML))
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func testClient(server *httptest.Server) *Client {
	return &Client{
		HTTP:             server.Client(),
		LegacyDevicesURL: server.URL + "/object/IO_32667.html",
		UnixDriversURL:   server.URL + "/object/unix.html",
		DownloadMirror:   server.URL,
		Platform:         "Linux-x86_64",
	}
}

func TestFetchBuildsCatalog(t *testing.T) {
	server := newTestServer(t, nil)
	client := testClient(server)

	cat, err := client.Fetch(context.Background())
	require.NoError(t, err)

	require.Equal(t, "570", cat.LongLivedSeries())
	require.Equal(t, "575", cat.ShortLivedSeries())

	// Legacy device from the device tables.
	series, err := cat.RequiredSeries("10DE1180", BranchLongLived)
	require.NoError(t, err)
	require.Equal(t, "390", series)

	version, err := cat.LatestVersion("10DE1180", BranchLongLived)
	require.NoError(t, err)
	require.Equal(t, "390.157", version)

	url, err := cat.DownloadURL("10DE1180", BranchLongLived)
	require.NoError(t, err)
	require.Equal(t, server.URL+"/XFree86/Linux-x86_64/390.157/NVIDIA-Linux-x86_64-390.157.run", url)

	// Current device resolves per branch.
	series, err = cat.RequiredSeries("2684", BranchLongLived)
	require.NoError(t, err)
	require.Equal(t, "570", series)

	version, err = cat.LatestVersion("2684", BranchShortLived)
	require.NoError(t, err)
	require.Equal(t, "575.51", version)
}

func TestFetchUnknownDevice(t *testing.T) {
	server := newTestServer(t, nil)
	client := testClient(server)

	cat, err := client.Fetch(context.Background())
	require.NoError(t, err)

	_, err = cat.RequiredSeries("10DE0000", BranchLongLived)
	var unknown *UnknownDeviceError
	require.ErrorAs(t, err, &unknown)
}

func TestFetchMemoizesPages(t *testing.T) {
	var requests atomic.Int64
	server := newTestServer(t, &requests)
	client := testClient(server)

	_, err := client.Fetch(context.Background())
	require.NoError(t, err)
	first := requests.Load()
	require.Equal(t, int64(4), first)

	// A second fetch on the same client is served from the session
	// memo cache entirely.
	_, err = client.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, requests.Load())
}

func TestFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := testClient(server)
	_, err := client.Fetch(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestFetchUnreachableHost(t *testing.T) {
	server := newTestServer(t, nil)
	server.Close()

	client := testClient(server)
	client.HTTP = &http.Client{}
	_, err := client.Fetch(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestFetchParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><p>page redesigned</p></body></html>`))
	}))
	t.Cleanup(server.Close)

	client := testClient(server)
	_, err := client.Fetch(context.Background())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestDownloadURLConstruction(t *testing.T) {
	client := &Client{DownloadMirror: "https://us.download.nvidia.com", Platform: "Linux-x86_64"}

	require.Equal(t,
		"https://us.download.nvidia.com/XFree86/Linux-x86_64/390.157/NVIDIA-Linux-x86_64-390.157.run",
		client.downloadURL("390.157"))
	require.Equal(t,
		"https://us.download.nvidia.com/XFree86/Linux-x86_64/390.157/README/supportedchips.html",
		client.supportedChipsURL("390.157"))
}

func TestLatestLegacyVersion(t *testing.T) {
	legacy := []string{"470.256.02", "390.157", "340.108"}

	require.Equal(t, "390.157", latestLegacyVersion("390", legacy))
	require.Equal(t, "470.256.02", latestLegacyVersion("470", legacy))
	require.Equal(t, "", latestLegacyVersion("304", legacy))
}
