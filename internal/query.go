package internal

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// QueryRequest is the wire shape of a search call. The query string itself
// is opaque payload, executed server-side.
type QueryRequest struct {
	Query     string          `json:"query"`
	Variables []QueryVariable `json:"variables"`
}

type QueryVariable struct {
	ID    string          `json:"id"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// QueryResult is a column-ordered result set. Cell values stay raw so the
// renderer decides how to print them.
type QueryResult struct {
	Header  []string                     `json:"header"`
	Results []map[string]json.RawMessage `json:"results"`
}

// APIError is the body the platform returns on a bad query.
type APIError struct {
	Message    string `json:"message"`
	StackTrace string `json:"stackTrace,omitempty"`
	Errors     []struct {
		Message string `json:"message"`
		Tokens  []struct {
			Start int `json:"start"`
			End   int `json:"end"`
		} `json:"tokens"`
	} `json:"errors"`
}

// RunQuery executes a search against the active account. Queries are
// idempotent, so the dispatcher may retry them under its backoff policy.
func RunQuery(ctx context.Context, d *Dispatcher, active *ActiveContext, query string, timeout time.Duration) (*QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query string is empty")
	}

	body, err := json.Marshal(QueryRequest{Query: query, Variables: []QueryVariable{}})
	if err != nil {
		return nil, err
	}
	resp, err := d.Execute(ctx, active, Request{
		Method:      http.MethodPost,
		Path:        fmt.Sprintf("/search/%s/kusto", active.Account.ID),
		Body:        body,
		ContentType: "application/json",
		Idempotent:  true,
		Timeout:     timeout,
	})
	if err != nil {
		// Surface the server's query diagnostics when it sent any.
		var ce *ClientError
		if errors.As(err, &ce) && ce.Status == http.StatusBadRequest {
			var apiErr APIError
			if jsonErr := json.Unmarshal([]byte(ce.Body), &apiErr); jsonErr == nil && apiErr.Message != "" {
				return nil, fmt.Errorf("query rejected by connection %q: %s: %w",
					active.Profile.Name, apiErr.Message, err)
			}
		}
		return nil, err
	}

	var result QueryResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("decoding query result: %w", err)
	}
	return &result, nil
}

// WriteCSV renders a query result as CSV, columns in header order.
func WriteCSV(result *QueryResult, to io.Writer) error {
	w := csv.NewWriter(to)
	if err := w.Write(result.Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	index := make(map[string]int, len(result.Header))
	for i, h := range result.Header {
		index[h] = i
	}
	for _, row := range result.Results {
		record := make([]string, len(result.Header))
		for k, v := range row {
			i, ok := index[k]
			if !ok {
				continue
			}
			record[i] = CellString(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// CellString unquotes plain JSON strings and prints everything else raw.
func CellString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}
