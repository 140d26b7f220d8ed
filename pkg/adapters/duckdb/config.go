package duckdb

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific options carried in the connection string's
// query part, e.g. duckdb:///data/warehouse.duckdb?extensions=json,httpfs&threads=4.
type Params struct {
	// Extensions to install and load after opening (comma separated).
	Extensions []string `mapstructure:"extensions"`

	// Settings are handed to the driver as database configuration
	// (e.g. threads, memory_limit, access_mode).
	Settings map[string]any `mapstructure:",remain"`
}

// ParseDSN splits a connection string into the driver DSN and Params.
// Accepted forms are duckdb://<path>, duckdb:<path>, a bare path, and
// empty or :memory: for an in-memory database.
func ParseDSN(connectionString string) (string, *Params, error) {
	s := strings.TrimSpace(connectionString)
	switch {
	case strings.HasPrefix(s, "duckdb://"):
		s = strings.TrimPrefix(s, "duckdb://")
	case strings.HasPrefix(s, "duckdb:"):
		s = strings.TrimPrefix(s, "duckdb:")
	}

	path, rawQuery, _ := strings.Cut(s, "?")
	if path == ":memory:" {
		path = ""
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", nil, fmt.Errorf("invalid duckdb options: %w", err)
	}
	params, err := parseParams(values)
	if err != nil {
		return "", nil, err
	}

	if len(params.Settings) == 0 {
		return path, params, nil
	}
	settings := url.Values{}
	for k, v := range params.Settings {
		settings.Set(k, fmt.Sprint(v))
	}
	return path + "?" + settings.Encode(), params, nil
}

func parseParams(values url.Values) (*Params, error) {
	raw := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) > 0 {
			raw[k] = v[len(v)-1]
		}
	}

	var params Params
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToSliceHookFunc(","),
		Result:     &params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb options: %w", err)
	}

	exts := params.Extensions[:0]
	for _, ext := range params.Extensions {
		if ext = strings.TrimSpace(ext); ext != "" {
			exts = append(exts, ext)
		}
	}
	params.Extensions = exts
	return &params, nil
}
