package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	database, err := New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func testRecord(deviceID, series string) *LookupRecord {
	return &LookupRecord{
		SessionID:   uuid.NewString(),
		DeviceID:    deviceID,
		DeviceName:  "GeForce GTX 680",
		Detected:    true,
		Series:      series,
		Version:     series + ".157",
		Branch:      "long-lived",
		DownloadURL: "https://dl.example/" + series + ".run",
	}
}

func TestRecordAndListLookups(t *testing.T) {
	database := testDB(t)

	rec := testRecord("10DE1180", "390")
	require.NoError(t, database.RecordLookup(rec))
	require.NotZero(t, rec.ID)
	require.False(t, rec.CreatedAt.IsZero())

	records, err := database.RecentLookups(10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	require.Equal(t, rec.DeviceID, got.DeviceID)
	require.Equal(t, rec.Series, got.Series)
	require.Equal(t, rec.Version, got.Version)
	require.Equal(t, rec.Branch, got.Branch)
	require.True(t, got.Detected)
}

func TestRecentLookupsOrder(t *testing.T) {
	database := testDB(t)

	older := testRecord("10DE1180", "390")
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, database.RecordLookup(older))

	newer := testRecord("10DE2684", "570")
	require.NoError(t, database.RecordLookup(newer))

	records, err := database.RecentLookups(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "10DE2684", records[0].DeviceID)
	require.Equal(t, "10DE1180", records[1].DeviceID)
}

func TestLookupsByDevice(t *testing.T) {
	database := testDB(t)

	require.NoError(t, database.RecordLookup(testRecord("10DE1180", "390")))
	require.NoError(t, database.RecordLookup(testRecord("10DE2684", "570")))
	require.NoError(t, database.RecordLookup(testRecord("10DE1180", "390")))

	records, err := database.LookupsByDevice("10DE1180", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		require.Equal(t, "10DE1180", rec.DeviceID)
	}

	count, err := database.LookupCount()
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestPrune(t *testing.T) {
	database := testDB(t)

	old := testRecord("10DE1180", "390")
	old.CreatedAt = time.Now().AddDate(0, 0, -120)
	require.NoError(t, database.RecordLookup(old))
	require.NoError(t, database.RecordLookup(testRecord("10DE2684", "570")))

	pruned, err := database.Prune(time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)
	require.Equal(t, int64(1), pruned)

	count, err := database.LookupCount()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	database, err := New(path)
	require.NoError(t, err)
	require.NoError(t, database.RecordLookup(testRecord("10DE1180", "390")))
	require.NoError(t, database.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.LookupCount()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
