package internal

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRecordReaderTSVTypeSniffing(t *testing.T) {
	path := writeTempFile(t, "data.tsv",
		"level\tcount\tratio\tactive\n"+
			"info\t3\t0.5\ttrue\n"+
			"warn\t7\t1.25\tfalse\n")

	reader, err := newRecordReader(path, "app_logs")
	require.NoError(t, err)
	defer reader.Close()

	first, err := reader.Read()
	require.NoError(t, err)
	assert.Equal(t, "app_logs", first.Schema)
	assert.Equal(t, "info", first.Data["level"])
	assert.Equal(t, int64(3), first.Data["count"])
	assert.Equal(t, 0.5, first.Data["ratio"])
	assert.Equal(t, true, first.Data["active"])

	second, err := reader.Read()
	require.NoError(t, err)
	assert.Equal(t, "warn", second.Data["level"])

	_, err = reader.Read()
	assert.Equal(t, io.EOF, err)
}

func TestRecordReaderCSV(t *testing.T) {
	path := writeTempFile(t, "data.csv", "a,b\n1,x\n2,y\n")

	reader, err := newRecordReader(path, "s")
	require.NoError(t, err)
	defer reader.Close()

	r, err := reader.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.Data["a"])
	assert.Equal(t, "x", r.Data["b"])
}

func TestRecordReaderUnsupportedExtension(t *testing.T) {
	path := writeTempFile(t, "data.parquet", "nope")
	_, err := newRecordReader(path, "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")
}

func TestUploadPushesGzippedBatches(t *testing.T) {
	var batches [][]Record
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gzip", r.Header.Get("Content-Encoding"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		gz, err := gzip.NewReader(r.Body)
		require.NoError(t, err)
		var records []Record
		require.NoError(t, json.NewDecoder(gz).Decode(&records))
		batches = append(batches, records)
	}))
	defer srv.Close()

	path := writeTempFile(t, "data.csv", "msg\none\ntwo\nthree\n")
	active := testActiveContext(srv.URL)

	total, err := Upload(context.Background(), testDispatcher(), active, "app_logs", path)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, batches, 1)
	assert.Equal(t, "one", batches[0][0].Data["msg"])
	assert.Equal(t, "app_logs", batches[0][0].Schema)
}

func TestUploadSplitsLargeFilesAtBatchSize(t *testing.T) {
	var sizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gz, err := gzip.NewReader(r.Body)
		require.NoError(t, err)
		var records []Record
		require.NoError(t, json.NewDecoder(gz).Decode(&records))
		sizes = append(sizes, len(records))
	}))
	defer srv.Close()

	var sb strings.Builder
	sb.WriteString("msg\n")
	for range UploadBatchSize + 5 {
		sb.WriteString("row\n")
	}
	path := writeTempFile(t, "data.csv", sb.String())
	active := testActiveContext(srv.URL)

	total, err := Upload(context.Background(), testDispatcher(), active, "app_logs", path)
	require.NoError(t, err)
	assert.Equal(t, UploadBatchSize+5, total)
	assert.Equal(t, []int{UploadBatchSize, 5}, sizes, "full batch flushed, remainder in a second push")
}

func TestUploadFailedBatchSurfacesImmediately(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	path := writeTempFile(t, "data.csv", "msg\none\n")
	active := testActiveContext(srv.URL)

	total, err := Upload(context.Background(), testDispatcher(), active, "s", path)
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 0, total)
	assert.Equal(t, 1, calls, "non-idempotent upload is not retried")
}

func TestUploadValidatesArguments(t *testing.T) {
	active := testActiveContext("https://unused.example.com")
	_, err := Upload(context.Background(), testDispatcher(), active, "", "file.csv")
	require.Error(t, err)
	_, err = Upload(context.Background(), testDispatcher(), active, "schema", " ")
	require.Error(t, err)
}
