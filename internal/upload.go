package internal

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// UploadBatchSize is how many records go into one inflow request.
const UploadBatchSize = 20000

// Record is one row pushed to the platform's inflow endpoint.
type Record struct {
	Schema    string         `json:"Schema"`
	Timestamp string         `json:"Timestamp"`
	Data      map[string]any `json:"Data"`
}

// recordReader yields records from a delimited file, one per data row.
type recordReader struct {
	csv        *csv.Reader
	file       *os.File
	size       int64
	header     []string
	converters []func(string) any
	schema     string
	stamp      string
}

// newRecordReader opens a .csv or .tsv file. Field types are sniffed from
// the first data row (bool, int, float, falling back to string), matching
// how the platform expects typed inflow data.
func newRecordReader(path, schema string) (*recordReader, error) {
	var comma rune
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		comma = ','
	case ".tsv":
		comma = '\t'
	default:
		return nil, fmt.Errorf("unsupported file extension %q, expected .csv or .tsv", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	return &recordReader{
		csv:    r,
		file:   f,
		size:   info.Size(),
		header: header,
		schema: schema,
		stamp:  time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}

func (r *recordReader) Close() error { return r.file.Close() }

// Read returns the next record, or io.EOF at end of file.
func (r *recordReader) Read() (*Record, error) {
	row, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	if r.converters == nil {
		r.converters = sniffConverters(row)
	}

	data := make(map[string]any, len(r.header))
	for i, name := range r.header {
		if i >= len(row) {
			break
		}
		conv := convertString
		if i < len(r.converters) {
			conv = r.converters[i]
		}
		data[name] = conv(row[i])
	}
	return &Record{Schema: r.schema, Timestamp: r.stamp, Data: data}, nil
}

// Progress reports how far through the file the reader is, 0..1.
func (r *recordReader) Progress() float64 {
	if r.size == 0 {
		return 1
	}
	offset, err := r.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0
	}
	return float64(offset) / float64(r.size)
}

func sniffConverters(row []string) []func(string) any {
	converters := make([]func(string) any, len(row))
	for i, field := range row {
		switch {
		case parseableBool(field):
			converters[i] = convertBool
		case parseableInt(field):
			converters[i] = convertInt
		case parseableFloat(field):
			converters[i] = convertFloat
		default:
			converters[i] = convertString
		}
	}
	return converters
}

func parseableBool(s string) bool  { _, err := strconv.ParseBool(s); return err == nil }
func parseableInt(s string) bool   { _, err := strconv.ParseInt(s, 10, 64); return err == nil }
func parseableFloat(s string) bool { _, err := strconv.ParseFloat(s, 64); return err == nil }

func convertBool(s string) any {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return v
}

func convertInt(s string) any {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return v
}

func convertFloat(s string) any {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return v
}

func convertString(s string) any { return s }

// Upload pushes a delimited file to the active account's inflow endpoint in
// gzip-compressed batches. Uploads are non-idempotent, so the dispatcher
// never retries them; a failed batch surfaces immediately. Returns the
// number of records uploaded.
func Upload(ctx context.Context, d *Dispatcher, active *ActiveContext, schema, path string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, fmt.Errorf("upload path is empty")
	}
	if strings.TrimSpace(schema) == "" {
		return 0, fmt.Errorf("upload schema is empty")
	}

	reader, err := newRecordReader(path, schema)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	total := 0
	batch := make([]*Record, 0, UploadBatchSize)
	lastProgress := time.Now()

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := pushRecords(ctx, d, active, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("reading %s: %w", path, err)
		}
		batch = append(batch, record)

		if len(batch) >= UploadBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
		if time.Since(lastProgress) > 5*time.Second {
			lastProgress = time.Now()
			slog.Info("upload progress", "percent", fmt.Sprintf("%.1f", reader.Progress()*100))
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

func pushRecords(ctx context.Context, d *Dispatcher, active *ActiveContext, records []*Record) error {
	var buf bytes.Buffer
	gz, _ := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err := json.NewEncoder(gz).Encode(records); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compressing records: %w", err)
	}

	_, err := d.Execute(ctx, active, Request{
		Method:          http.MethodPost,
		Path:            fmt.Sprintf("/inflow/%s", active.Account.ID),
		Body:            buf.Bytes(),
		ContentType:     "application/json",
		ContentEncoding: "gzip",
		Idempotent:      false,
		Timeout:         UploadTimeout,
	})
	if err != nil {
		return err
	}
	slog.Debug("uploaded batch", "records", len(records), "bytes", buf.Len())
	return nil
}
