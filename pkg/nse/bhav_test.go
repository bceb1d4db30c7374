package nse

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketetl/config"
	"marketetl/internal/fetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipWithCSV(t *testing.T, name, csvBody string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(csvBody))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testClient(baseURL string) *Client {
	cfg := config.NSEConfig{BaseURL: baseURL, ArchivesURL: baseURL, Timeout: 5 * time.Second}
	policy := fetch.Policy{MaxAttempts: 2, BaseWait: time.Millisecond, MaxWait: 5 * time.Millisecond}
	return NewClient(cfg, policy)
}

func TestBhavURL(t *testing.T) {
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	url, inner := bhavURL("https://archives.example.com", date)

	assert.Equal(t, "https://archives.example.com/content/historical/EQUITIES/2024/JAN/cm02JAN2024bhav.csv.zip", url)
	assert.Equal(t, "cm02JAN2024bhav.csv", inner)
}

func TestParseBhav(t *testing.T) {
	csvBody := "SYMBOL,SERIES,OPEN,TOTTRDQTY\n" +
		"RELIANCE,EQ,2900.00,\"1,234,567\"\n" +
		"TCS,EQ,4100.00,987654.0\n" +
		",EQ,1.00,5\n"
	body := zipWithCSV(t, "cm02JAN2024bhav.csv", csvBody)

	mapping, err := parseBhav(body, "cm02JAN2024bhav.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(1234567), mapping["RELIANCE"])
	assert.Equal(t, int64(987654), mapping["TCS"])
	assert.Len(t, mapping, 2)
}

func TestParseBhavMissingVolumeColumn(t *testing.T) {
	body := zipWithCSV(t, "cm02JAN2024bhav.csv", "SYMBOL,SERIES\nRELIANCE,EQ\n")

	_, err := parseBhav(body, "cm02JAN2024bhav.csv")
	assert.Error(t, err)
}

func TestFetchForDateHoliday(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchForDate(context.Background(), time.Date(2024, 1, 26, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, fetch.ErrNotAvailable)
}

func TestFetchForDateRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(zipWithCSV(t, "cm02JAN2024bhav.csv", "SYMBOL,TOTTRDQTY\nRELIANCE,100\n"))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	mapping, err := c.FetchForDate(context.Background(), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(100), mapping["RELIANCE"])
}

func TestParseQuantity(t *testing.T) {
	assert.Equal(t, int64(1234567), parseQuantity("1,234,567"))
	assert.Equal(t, int64(100), parseQuantity("100.0"))
	assert.Equal(t, int64(0), parseQuantity(""))
	assert.Equal(t, int64(0), parseQuantity("n/a"))
}
